package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/core/events"
	"github.com/sceneforge/sceneforge/internal/core/object"
	"github.com/sceneforge/sceneforge/internal/core/registry"
	"github.com/sceneforge/sceneforge/internal/core/script"
)

func TestObjectLoaderKeepsDeclarationOrder(t *testing.T) {
	components := registry.NewStore[object.Constructor]("components", nil)
	components.Register(object.TransformType, object.NewTransform)

	var placed []string
	builder := object.NewBuilder(object.BuilderConfig{
		Components: components,
		Objects:    registry.NewStore[*object.GameObject]("objects", nil),
		Prefabs:    registry.NewStore[object.Spec]("prefabs", nil),
		Dispatcher: events.NewDispatcher(nil),
		Place: func(_ string, obj *object.GameObject) error {
			placed = append(placed, obj.Name())
			return nil
		},
		DefaultTransform: object.TransformType,
	})

	p, _, loaders, _ := newTestPipeline(t)
	loaders.Register(ObjectLoaderName, NewObjectLoaderFactory(builder))

	names := []string{
		"alpha", "bravo", "charlie", "delta", "echo",
		"foxtrot", "golf", "hotel", "india", "juliet",
	}
	doc := ""
	for _, name := range names {
		doc += name + ":\n  components:\n    - type: transform\n"
	}

	root := t.TempDir()
	writeDoc(t, root, "objects.yaml", doc)
	writeDoc(t, root, "pipeline.yaml", `
objects:
  loader: objects
  config: objects.yaml
`)

	require.NoError(t, p.Run(root, "pipeline.yaml"))
	require.Equal(t, names, placed)
}

func TestScriptLoaderRegistersOncePerScript(t *testing.T) {
	p, scope, loaders, _ := newTestPipeline(t)

	scripts := registry.NewStore[script.Factory]("scripts", nil)
	registrations := 0
	scripts.OnRegister(func(string) { registrations++ })
	require.NoError(t, scope.Attach("Scripts", scripts))

	loaders.Register(ScriptLoaderName, NewScriptLoaderFactory(scripts, events.NewDispatcher(nil)))

	root := t.TempDir()
	writeDoc(t, root, "scripts/beacon.lua", "export = \"beacon\"\n")
	writeDoc(t, root, "pipeline.yaml", `
scripts:
  loader: scripts
  config: scripts
  registry: Scripts
`)

	require.NoError(t, p.Run(root, "pipeline.yaml"))
	require.True(t, scripts.Has("beacon"))
	require.Equal(t, 1, registrations)
}
