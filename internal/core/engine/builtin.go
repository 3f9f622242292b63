package engine

import (
	"fmt"

	"github.com/sceneforge/sceneforge/internal/core/collision"
	"github.com/sceneforge/sceneforge/internal/core/config"
	"github.com/sceneforge/sceneforge/internal/core/object"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/script"
	"github.com/sceneforge/sceneforge/internal/core/singleton"
)

// registerBuiltins installs the component constructors, loaders, processors
// and providers every runtime starts with. User configuration layers on top;
// re-registration under the same names overrides.
func (c *Core) registerBuiltins() error {
	c.components.Register(object.TransformType, object.NewTransform)
	c.components.Register(object.RectColliderType, c.newCollider)
	c.components.Register(script.ComponentType, script.NewComponent(c.scripts))

	c.loaders.Register(config.DocumentLoaderName, config.NewDocumentLoader)
	c.loaders.Register(config.ObjectLoaderName, config.NewObjectLoaderFactory(c.builder))
	c.loaders.Register(config.ScriptLoaderName, config.NewScriptLoaderFactory(c.scripts, c.dispatcher))
	c.loaders.Register(config.AssetLoaderName, config.NewAssetLoader)

	c.processors.Register(config.GameConfigProcessorName, config.GameConfigProcessor{})
	c.processors.Register(config.DisplayProcessorName, config.DisplayProcessor{})
	c.processors.Register(CollisionProcessorName, config.ProcessorFunc(c.processCollisionPairs))

	// headless default; a real renderer binds the same key
	c.scope.Bind(config.RendererKey, func(map[string]any) (any, error) {
		return &NullRenderer{log: c.log}, nil
	})
	return nil
}

// CollisionProcessorName is the registered name of the layer-pair processor.
const CollisionProcessorName = "collision_pairs"

// processCollisionPairs enables the layer pairs declared by a loaded
// collision document:
//
//	pairs:
//	  - [player, enemy]
//	  - [enemy, enemy]
func (c *Core) processCollisionPairs(data, _ map[string]any, _ *singleton.Scope) error {
	raw, _ := data["pairs"].([]any)
	for i, item := range raw {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return fmt.Errorf("collision pair %d: want [layer, layer]", i)
		}
		a, aOK := pair[0].(string)
		b, bOK := pair[1].(string)
		if !aOK || !bOK {
			return fmt.Errorf("collision pair %d: layer names must be strings", i)
		}
		c.collision.Matrix().Enable(a, b)
	}
	return nil
}

// newCollider wraps the built-in rect collider constructor so every
// constructed collider lands in the collision driver's layer table.
func (c *Core) newCollider(args map[string]any, source *object.GameObject) (object.Component, error) {
	component, err := object.NewRectCollider(args, source)
	if err != nil {
		return nil, err
	}
	c.collision.Add(component.(collision.Collider))
	return component, nil
}

// NullRenderer accepts display configuration and draws nothing. The default
// binding for the renderer key in headless runs and tests.
type NullRenderer struct {
	log  log.Log
	mode config.DisplayMode
}

func (r *NullRenderer) ConfigureDisplay(mode config.DisplayMode) error {
	r.mode = mode
	if r.log != nil {
		r.log.Info("display configured",
			log.Int("width", mode.Width),
			log.Int("height", mode.Height),
			log.String("title", mode.Title),
		)
	}
	return nil
}

func (r *NullRenderer) Mode() config.DisplayMode { return r.mode }
