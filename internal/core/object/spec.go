package object

// ComponentSpec declares one component of an object. Type selects the
// registered constructor; RefName overrides the addressable name when several
// components of one class are attached.
type ComponentSpec struct {
	Type    string         `yaml:"type" mapstructure:"type"`
	RefName string         `yaml:"refname,omitempty" mapstructure:"refname"`
	Args    map[string]any `yaml:"args" mapstructure:"args"`
}

// Spec is the declarative blueprint of a game object. Prefab specs are stored
// verbatim for later instantiation instead of being placed into a scene.
type Spec struct {
	Scene      string          `yaml:"scene,omitempty" mapstructure:"scene"`
	Prefab     bool            `yaml:"prefab,omitempty" mapstructure:"prefab"`
	Components []ComponentSpec `yaml:"components" mapstructure:"components"`
}

// DefaultScene is where objects without a declared scene are placed.
const DefaultScene = "default"
