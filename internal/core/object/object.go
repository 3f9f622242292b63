// Package object implements game objects: named bags of components assembled
// from declarative specifications, partitioned into scenes.
package object

import (
	"github.com/google/uuid"
)

// Vec2 is a 2D point or displacement.
type Vec2 struct {
	X float64 `mapstructure:"x" yaml:"x"`
	Y float64 `mapstructure:"y" yaml:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Component is a registrable capability unit attached to a game object under
// a reference-name.
type Component interface {
	TypeName() string
	Update(dt float64)
}

// Transformable is the capability contract for position-bearing components.
// Checked structurally; any component satisfying it can act as an object's
// transform.
type Transformable interface {
	Component
	Position() Vec2
	Move(to Vec2, absolute bool)
}

// Renderable marks components the external renderer draws. The core never
// calls Render itself; the boundary only requires the capability to be
// discoverable.
type Renderable interface {
	Component
	RenderLayer() int
}

// GameObject is an entity: a scene, a prefab flag handled at assembly time,
// and components addressable by reference-name.
type GameObject struct {
	id         string
	name       string
	scene      string
	components *Container

	// newTransform synthesizes the default transform when an object needs
	// one and none was declared. Set by the assembler.
	newTransform func(owner *GameObject) (Component, error)
}

func New(name, scene string) *GameObject {
	obj := &GameObject{
		id:    uuid.NewString(),
		name:  name,
		scene: scene,
	}
	obj.components = NewContainer(obj)
	return obj
}

// ID is the process-unique instance id, used as the event dispatch target key.
func (o *GameObject) ID() string { return o.id }

func (o *GameObject) Name() string { return o.name }

// Scene is the partition this object lives in. Cross-scene interaction is
// disallowed by construction: objects only query and emit within their own
// scene unless explicitly global.
func (o *GameObject) Scene() string { return o.scene }

// SetScene reassigns the object before placement. Spawning is the only caller.
func (o *GameObject) SetScene(scene string) { o.scene = scene }

func (o *GameObject) Components() *Container { return o.components }

func (o *GameObject) String() string { return o.name }

// Update advances every component in declaration order.
func (o *GameObject) Update(dt float64) {
	o.components.Each(func(_ string, c Component) {
		c.Update(dt)
	})
}

// Transform returns the object's transform capability, synthesizing the
// configured default transform under the reference-name "transform" when no
// declared component provides one.
func (o *GameObject) Transform() (Transformable, error) {
	for _, c := range o.components.All() {
		if t, ok := c.(Transformable); ok {
			return t, nil
		}
	}
	if o.newTransform == nil {
		return nil, ErrNoTransform
	}
	c, err := o.newTransform(o)
	if err != nil {
		return nil, err
	}
	if err := o.components.Add("transform", c); err != nil {
		return nil, err
	}
	return c.(Transformable), nil
}
