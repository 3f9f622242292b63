package engine

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/core/collision"
	"github.com/sceneforge/sceneforge/internal/core/config"
	"github.com/sceneforge/sceneforge/internal/core/events"
	"github.com/sceneforge/sceneforge/internal/core/object"
)

func write(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func configuredCore(t *testing.T) (*Core, string) {
	t.Helper()
	root := t.TempDir()

	write(t, root, "settings.yaml", `
scenes: [main, menu]
fps: 30
debug: true
`)
	write(t, root, "display.yaml", `
width: 800
height: 600
title: demo
`)
	write(t, root, "collision.yaml", `
pairs:
  - [player, terrain]
`)
	write(t, root, "objects.yaml", `
hero:
  scene: main
  components:
    - type: transform
      args: {x: 0, y: 0, vx: 10}
    - type: rect_collider
      args: {layer: player, w: 10, h: 10, physics: true}
wall:
  scene: main
  components:
    - type: transform
      args: {x: 15, y: 0}
    - type: rect_collider
      args: {layer: terrain, w: 10, h: 10, physics: true}
bullet:
  prefab: true
  components:
    - type: transform
`)
	write(t, root, "game.yaml", `
settings:
  loader: document
  config: settings.yaml
  processor: game_config
display:
  loader: document
  config: display.yaml
  processor: display
collision:
  loader: document
  config: collision.yaml
  processor: collision_pairs
objects:
  loader: objects
  config: objects.yaml
`)

	core, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, core.RunPipeline(root, "game.yaml"))
	return core, root
}

func TestPipelineConfiguresCore(t *testing.T) {
	core, _ := configuredCore(t)

	require.Equal(t, 30, core.FrameRate())
	require.True(t, core.Debug())
	for _, name := range []string{"main", "menu", object.DefaultScene} {
		_, ok := core.Scene(name)
		require.True(t, ok, "scene %q missing", name)
	}

	require.True(t, core.Objects().Has("hero"))
	require.True(t, core.Objects().Has("wall"))
	require.True(t, core.Prefabs().Has("bullet"))
	require.False(t, core.Objects().Has("bullet"))

	require.True(t, core.Collision().Matrix().Enabled("player", "terrain"))

	renderer, err := core.Scope().Get(config.RendererKey)
	require.NoError(t, err)
	require.Equal(t, 800, renderer.(*NullRenderer).Mode().Width)

	main, _ := core.Scene("main")
	require.Equal(t, 2, main.Len())
}

func TestStepMovesAndCollides(t *testing.T) {
	core, _ := configuredCore(t)
	require.NoError(t, core.SetActiveScene("main"))

	hero, err := core.Objects().Get("hero")
	require.NoError(t, err)

	var hits []string
	core.Dispatcher().Register(events.Owner{ID: hero.ID(), Scene: "main"}, events.Registration{
		Type: collision.EventCollision, Scope: events.ScopeLocal, Name: "test-sink",
		Handler: func(evt events.Event) error {
			hits = append(hits, evt.Data["collides"].(string))
			return nil
		},
	})

	// hero moves right at 10/s toward the wall at x=15
	require.NoError(t, core.Step(0.5))
	tr, err := hero.Transform()
	require.NoError(t, err)
	require.Equal(t, object.Vec2{X: 5, Y: 0}, tr.Position())
	require.Empty(t, hits)

	require.NoError(t, core.Step(1.0))
	require.Equal(t, object.Vec2{X: 15, Y: 0}, tr.Position())
	require.Equal(t, []string{"wall"}, hits)
}

func TestSpawnInstantiatesPrefab(t *testing.T) {
	core, _ := configuredCore(t)

	obj, err := core.Spawn("bullet", "menu", object.Vec2{X: 3, Y: 4})
	require.NoError(t, err)
	require.Equal(t, "menu", obj.Scene())

	tr, err := obj.Transform()
	require.NoError(t, err)
	require.Equal(t, object.Vec2{X: 3, Y: 4}, tr.Position())

	menu, _ := core.Scene("menu")
	require.Equal(t, 1, menu.Len())
	require.True(t, core.Objects().Has(obj.Name()))

	// the prefab stays available for further spawns
	second, err := core.Spawn("bullet", "menu", object.Vec2{})
	require.NoError(t, err)
	require.NotEqual(t, obj.Name(), second.Name())
	require.Equal(t, 2, menu.Len())
}

func TestSpawnUnknownPrefab(t *testing.T) {
	core, err := New(nil)
	require.NoError(t, err)

	_, err = core.Spawn("ghost", "main", object.Vec2{})
	require.Error(t, err)
}

func TestRemoveObject(t *testing.T) {
	core, _ := configuredCore(t)
	require.NoError(t, core.SetActiveScene("main"))

	hero, err := core.Objects().Get("hero")
	require.NoError(t, err)
	core.Remove(hero)

	require.False(t, core.Objects().Has("hero"))
	main, _ := core.Scene("main")
	require.Equal(t, 1, main.Len())

	// no collision fires once the hero is gone
	var hits int
	core.Dispatcher().Register(events.Owner{ID: "sink"}, events.Registration{
		Type: collision.EventCollision, Scope: events.ScopeBroadcast, Name: "sink",
		Handler: func(events.Event) error { hits++; return nil },
	})
	require.NoError(t, core.Step(10))
	require.Zero(t, hits)
}

func TestScriptStageBindsListeners(t *testing.T) {
	root := t.TempDir()
	evtType := events.NewType()

	write(t, root, "scripts/beacon.lua", `
export = "beacon"

function init(args)
  event_type = args.event_type
end

function update(dt)
  emit(event_type, { tick = true })
end
`)
	write(t, root, "objects.yaml", `
npc:
  scene: main
  components:
    - type: script
      args:
        scriptname: beacon
        args:
          event_type: `+strconv.Itoa(evtType)+`
`)
	write(t, root, "game.yaml", `
scripts:
  loader: scripts
  config: scripts
objects:
  loader: objects
  config: objects.yaml
`)

	core, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, core.RunPipeline(root, "game.yaml"))
	require.True(t, core.Scripts().Has("beacon"))

	core.EnsureScene("main")
	require.NoError(t, core.SetActiveScene("main"))

	var source string
	fired := 0
	core.Dispatcher().Register(events.Owner{ID: "sink"}, events.Registration{
		Type: evtType, Scope: events.ScopeBroadcast, Name: "sink",
		Handler: func(evt events.Event) error {
			source = evt.Source
			fired++
			return nil
		},
	})

	require.NoError(t, core.Step(0.016))
	require.Equal(t, 1, fired)
	// the script's emissions identify the owning object
	require.Equal(t, "npc", source)
}

func TestBindClassReachableFromDirectives(t *testing.T) {
	core, err := New(nil)
	require.NoError(t, err)

	type audioSettings struct{ volume int }
	core.BindClass("AudioSettings", func(args map[string]any) (any, error) {
		volume, _ := args["volume"].(int)
		return &audioSettings{volume: volume}, nil
	})

	root := t.TempDir()
	write(t, root, "audio.yaml", `
audio: !classinit
  key: AudioSettings
  args:
    volume: 9
same: !classget AudioSettings
`)

	resolved, err := core.Resolver().ResolveFile(root, "audio.yaml")
	require.NoError(t, err)

	data := resolved.(map[string]any)
	created := data["audio"].(*audioSettings)
	require.Equal(t, 9, created.volume)
	require.Same(t, created, data["same"])

	// the instance is now live in the scope and the class stays registered
	live, err := core.Scope().Get("AudioSettings")
	require.NoError(t, err)
	require.Same(t, created, live)
	require.True(t, core.Classes().Has("AudioSettings"))

	// the class registry constructs independent instances on demand
	fresh, err := core.Classes().Construct("AudioSettings", map[string]any{"volume": 2})
	require.NoError(t, err)
	require.NotSame(t, created, fresh)
	require.Equal(t, 2, fresh.(*audioSettings).volume)
}

func TestSetActiveSceneUnknown(t *testing.T) {
	core, err := New(nil)
	require.NoError(t, err)
	require.Error(t, core.SetActiveScene("void"))
}
