// Package script hosts user-authored behavior. Scripts are exported by name
// into the script registry (either as Go factories or loaded from lua files)
// and attach to game objects through the hosting component.
package script

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/sceneforge/sceneforge/internal/core/events"
	"github.com/sceneforge/sceneforge/internal/core/object"
	"github.com/sceneforge/sceneforge/internal/core/registry"
)

// ComponentType is the registered name of the script-hosting component.
const ComponentType = "script"

// Script is user-authored business logic driven by the frame loop. Scripts
// that also implement events.Listener get their registrations bound to the
// owning object at construction.
type Script interface {
	Update(dt float64)
}

// Factory constructs a script instance. source is always the owning game
// object, never the hosting component.
type Factory func(args map[string]any, source *object.GameObject) (Script, error)

// Component hosts a script on a game object. Addressing the component by its
// reference-name yields the component; the script instance is reachable
// through Script().
type Component struct {
	source *object.GameObject
	name   string
	script Script
}

type componentArgs struct {
	ScriptName string         `mapstructure:"scriptname"`
	Args       map[string]any `mapstructure:"args"`
}

// NewComponent returns the object.Constructor for the hosting component,
// closed over the script registry.
func NewComponent(scripts *registry.Store[Factory]) object.Constructor {
	return func(args map[string]any, source *object.GameObject) (object.Component, error) {
		var ca componentArgs
		if err := mapstructure.Decode(args, &ca); err != nil {
			return nil, fmt.Errorf("script args: %w", err)
		}
		if ca.ScriptName == "" {
			return nil, fmt.Errorf("script: scriptname is required")
		}

		factory, err := scripts.Get(ca.ScriptName)
		if err != nil {
			return nil, fmt.Errorf("script %q: %w", ca.ScriptName, registry.ErrUnknownType)
		}
		// the script's identity resolves to the owning object
		instance, err := factory(ca.Args, source)
		if err != nil {
			return nil, fmt.Errorf("script %q: %w", ca.ScriptName, err)
		}
		return &Component{source: source, name: ca.ScriptName, script: instance}, nil
	}
}

func (c *Component) TypeName() string { return ComponentType }

func (c *Component) ScriptName() string { return c.name }

func (c *Component) Script() Script { return c.script }

func (c *Component) Update(dt float64) { c.script.Update(dt) }

// Listeners exposes the hosted script's registrations so the assembler binds
// them against the owning object.
func (c *Component) Listeners() []events.Registration {
	if l, ok := c.script.(events.Listener); ok {
		return l.Listeners()
	}
	return nil
}
