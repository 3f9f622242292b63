// Package engine wires the runtime together: registries, the singleton scope,
// the event dispatcher, the collision driver, scenes and the configuration
// pipeline all hang off one Core.
package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sceneforge/sceneforge/internal/core/collision"
	"github.com/sceneforge/sceneforge/internal/core/config"
	"github.com/sceneforge/sceneforge/internal/core/events"
	"github.com/sceneforge/sceneforge/internal/core/object"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/registry"
	"github.com/sceneforge/sceneforge/internal/core/scene"
	"github.com/sceneforge/sceneforge/internal/core/script"
	"github.com/sceneforge/sceneforge/internal/core/singleton"
)

// Singleton keys under which the core attaches its registries and itself.
// Configuration stages and !lazy references address them by these names.
const (
	GameKey       = config.GameKey
	ObjectsKey    = "Objects"
	PrefabsKey    = "Prefabs"
	ScriptsKey    = "Scripts"
	AssetsKey     = "Assets"
	ComponentsKey = "Components"
	EventsKey     = "Events"
)

const defaultFrameRate = 60

// Core is the engine runtime. Construct once per process, configure through
// pipeline manifests, drive with Step from the frame loop.
type Core struct {
	log log.Log

	components *registry.Store[object.Constructor]
	scripts    *registry.Store[script.Factory]
	loaders    *registry.Store[config.LoaderFactory]
	processors *registry.Store[config.Processor]
	objects    *registry.Store[*object.GameObject]
	prefabs    *registry.Store[object.Spec]
	assets     *registry.Store[config.Asset]
	classes    *registry.Classes

	scope      *singleton.Scope
	dispatcher *events.Dispatcher
	collision  *collision.Driver
	builder    *object.Builder
	resolver   *config.Resolver
	pipeline   *config.Pipeline

	mu     sync.RWMutex
	scenes map[string]*scene.Scene
	active string
	fps    int
	debug  bool
}

func New(logger log.Log) (*Core, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	c := &Core{
		log:        logger,
		components: registry.NewStore[object.Constructor]("components", logger),
		scripts:    registry.NewStore[script.Factory]("scripts", logger),
		loaders:    registry.NewStore[config.LoaderFactory]("loaders", logger),
		processors: registry.NewStore[config.Processor]("processors", logger),
		objects:    registry.NewStore[*object.GameObject]("objects", logger),
		prefabs:    registry.NewStore[object.Spec]("prefabs", logger),
		assets:     registry.NewStore[config.Asset]("assets", logger),
		classes:    registry.NewClasses(logger),
		scope:      singleton.NewScope(logger),
		dispatcher: events.NewDispatcher(logger),
		scenes:     make(map[string]*scene.Scene),
		fps:        defaultFrameRate,
	}
	c.collision = collision.NewDriver(collision.NewMatrix(), c.dispatcher, logger)
	c.resolver = config.NewResolver(c.scope, logger)
	c.pipeline = config.NewPipeline(c.resolver, c.loaders, c.processors, c.scope, logger)

	c.builder = object.NewBuilder(object.BuilderConfig{
		Components:       c.components,
		Objects:          c.objects,
		Prefabs:          c.prefabs,
		Dispatcher:       c.dispatcher,
		Place:            c.place,
		DefaultTransform: object.TransformType,
		Log:              logger,
	})

	c.dispatcher.SetSceneActive(func(name string) bool {
		return name == c.ActiveScene()
	})

	c.EnsureScene(object.DefaultScene)
	if err := c.SetActiveScene(object.DefaultScene); err != nil {
		return nil, err
	}
	if err := c.registerBuiltins(); err != nil {
		return nil, err
	}
	if err := c.attachSingletons(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Core) attachSingletons() error {
	attachments := map[string]any{
		GameKey:       c,
		ObjectsKey:    c.objects,
		PrefabsKey:    c.prefabs,
		ScriptsKey:    c.scripts,
		AssetsKey:     c.assets,
		ComponentsKey: c.components,
		EventsKey:     c.dispatcher,
	}
	for key, instance := range attachments {
		if err := c.scope.Attach(key, instance); err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) Scope() *singleton.Scope                        { return c.scope }
func (c *Core) Dispatcher() *events.Dispatcher                 { return c.dispatcher }
func (c *Core) Collision() *collision.Driver                   { return c.collision }
func (c *Core) Builder() *object.Builder                       { return c.builder }
func (c *Core) Resolver() *config.Resolver                     { return c.resolver }
func (c *Core) Objects() *registry.Store[*object.GameObject]   { return c.objects }
func (c *Core) Prefabs() *registry.Store[object.Spec]          { return c.prefabs }
func (c *Core) Scripts() *registry.Store[script.Factory]       { return c.scripts }
func (c *Core) Components() *registry.Store[object.Constructor] {
	return c.components
}
func (c *Core) Classes() *registry.Classes { return c.classes }

// BindClass registers a named constructor and makes it available as the
// provider for the matching singleton key, so !classinit can reach it.
func (c *Core) BindClass(name string, ctor registry.Constructor) {
	c.classes.Register(name, ctor)
	c.scope.Bind(name, singleton.Provider(ctor))
}

// RunPipeline executes the manifest at root/filename against this core.
func (c *Core) RunPipeline(root, filename string) error {
	return c.pipeline.Run(root, filename)
}

// EnsureScene declares a scene, creating it when absent. Idempotent.
func (c *Core) EnsureScene(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scenes[name]; !ok {
		c.scenes[name] = scene.New(name)
		c.log.Debug("scene created", log.String("scene", name))
	}
}

// SetActiveScene switches the scene that Step advances and that scene-scoped
// events deliver into.
func (c *Core) SetActiveScene(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scenes[name]; !ok {
		return fmt.Errorf("scene %q: %w", name, registry.ErrNotFound)
	}
	c.active = name
	return nil
}

func (c *Core) ActiveScene() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *Core) Scene(name string) (*scene.Scene, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scenes[name]
	return s, ok
}

func (c *Core) SetFrameRate(fps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *Core) FrameRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fps
}

func (c *Core) SetDebug(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debug = enabled
}

func (c *Core) Debug() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debug
}

// Step advances the active scene by dt seconds and sweeps collisions.
// Listener and collider errors are joined into the return value; the frame
// itself always completes.
func (c *Core) Step(dt float64) error {
	active := c.ActiveScene()
	s, ok := c.Scene(active)
	if !ok {
		return fmt.Errorf("active scene %q: %w", active, registry.ErrNotFound)
	}
	s.Update(dt)
	return c.collision.Update(dt, active)
}

// Spawn instantiates a stored prefab into sceneName at position. The instance
// gets a fresh name derived from the prefab's.
func (c *Core) Spawn(prefabName, sceneName string, at object.Vec2) (*object.GameObject, error) {
	spec, err := c.prefabs.Get(prefabName)
	if err != nil {
		return nil, err
	}
	if sceneName == "" {
		sceneName = spec.Scene
	}
	spec.Scene = sceneName
	spec.Prefab = false

	name := fmt.Sprintf("%s-%s", prefabName, uuid.NewString()[:8])
	obj, err := c.builder.Assemble(name, spec)
	if err != nil {
		return nil, err
	}

	t, err := obj.Transform()
	if err != nil {
		c.dispatcher.RemoveOwner(obj.ID())
		return nil, fmt.Errorf("spawn %q: %w", name, err)
	}
	t.Move(at, true)

	c.objects.Register(name, obj)
	if err := c.place(obj.Scene(), obj); err != nil {
		c.objects.Unregister(name)
		c.dispatcher.RemoveOwner(obj.ID())
		return nil, err
	}
	c.log.Debug("prefab spawned",
		log.String("prefab", prefabName),
		log.String("name", name),
		log.String("scene", obj.Scene()),
	)
	return obj, nil
}

// Remove destroys a live object: its event registrations, colliders, scene
// membership and registry entry all go.
func (c *Core) Remove(obj *object.GameObject) {
	c.dispatcher.RemoveOwner(obj.ID())
	c.collision.RemoveObject(obj)
	if s, ok := c.Scene(obj.Scene()); ok {
		s.Remove(obj)
	}
	c.objects.Unregister(obj.Name())
}

// Close tears the runtime down: registries cleared, singletons discarded.
func (c *Core) Close() {
	c.mu.Lock()
	c.scenes = make(map[string]*scene.Scene)
	c.mu.Unlock()

	c.objects.Clear()
	c.prefabs.Clear()
	c.scripts.Clear()
	c.assets.Clear()
	c.dispatcher.Reset()
	c.scope.Close()
	c.log.Info("engine closed")
}

func (c *Core) place(sceneName string, obj *object.GameObject) error {
	c.EnsureScene(sceneName)
	s, _ := c.Scene(sceneName)
	s.Add(obj)
	return nil
}
