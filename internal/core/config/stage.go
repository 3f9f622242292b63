package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Stage is one step of a pipeline manifest: which loader to run, which
// document it consumes, which registry receives its output and which
// processor (if any) consumes the loaded data afterwards.
type Stage struct {
	Name          string
	Loader        string         `mapstructure:"loader"`
	Document      string         `mapstructure:"config"`
	Registry      string         `mapstructure:"registry"`
	LoaderArgs    map[string]any `mapstructure:"loader_args"`
	Processor     string         `mapstructure:"processor"`
	ProcessorArgs map[string]any `mapstructure:"processor_args"`
}

// ParseStages reads a pipeline manifest and returns its stages in document
// order. Stage values pass through directive resolution, so a manifest can
// !include shared stage fragments or !calc argument values.
func ParseStages(resolver *Resolver, root, filename string) ([]Stage, error) {
	data, err := os.ReadFile(filepath.Join(root, filename))
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", filename, err)
	}

	var doc yaml.Node
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", filename, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest %s: top level must be a mapping of stages", filename)
	}

	// Stage order carries meaning (later stages see earlier results), so
	// walk the node pairs instead of decoding into a map.
	stages := make([]Stage, 0, len(top.Content)/2)
	for i := 0; i+1 < len(top.Content); i += 2 {
		name := top.Content[i].Value
		resolved, err := resolver.ResolveNode(root, top.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("manifest %s, stage %q: %w", filename, name, err)
		}

		stage := Stage{Name: name}
		if err = mapstructure.Decode(resolved, &stage); err != nil {
			return nil, fmt.Errorf("manifest %s, stage %q: %w", filename, name, err)
		}
		if stage.Loader == "" && stage.Processor == "" {
			return nil, fmt.Errorf("manifest %s, stage %q: needs a loader or a processor", filename, name)
		}
		stages = append(stages, stage)
	}
	return stages, nil
}
