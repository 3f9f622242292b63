package object

import (
	"fmt"

	"github.com/sceneforge/sceneforge/internal/core/events"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
	"github.com/sceneforge/sceneforge/internal/core/registry"
)

// Constructor builds one component from its spec args with the owning object
// injected as source.
type Constructor func(args map[string]any, source *GameObject) (Component, error)

// Builder assembles game objects from specs: prefab specs are stored verbatim
// in the prefab registry, live objects land in the object registry and their
// scene.
type Builder struct {
	log        log.Log
	components *registry.Store[Constructor]
	objects    *registry.Store[*GameObject]
	prefabs    *registry.Store[Spec]
	dispatcher *events.Dispatcher

	// place adds a live object to its scene; installed by the engine core.
	place func(scene string, obj *GameObject) error

	// defaultTransform is the registered type synthesized when an object
	// needs a transform and declares none.
	defaultTransform string
}

type BuilderConfig struct {
	Components       *registry.Store[Constructor]
	Objects          *registry.Store[*GameObject]
	Prefabs          *registry.Store[Spec]
	Dispatcher       *events.Dispatcher
	Place            func(scene string, obj *GameObject) error
	DefaultTransform string
	Log              log.Log
}

func NewBuilder(cfg BuilderConfig) *Builder {
	logger := cfg.Log
	if logger == nil {
		logger = log.NewNop()
	}
	return &Builder{
		log:              logger,
		components:       cfg.Components,
		objects:          cfg.Objects,
		prefabs:          cfg.Prefabs,
		dispatcher:       cfg.Dispatcher,
		place:            cfg.Place,
		defaultTransform: cfg.DefaultTransform,
	}
}

// Build assembles an object from spec. Prefab specs are stored under name and
// return a nil object; live objects are fully constructed, registered and
// placed. A failing component is fatal to this object only: its partial
// registrations are rolled back and already-assembled objects stay intact.
func (b *Builder) Build(name string, spec Spec) (*GameObject, error) {
	if spec.Prefab {
		b.prefabs.Register(name, spec)
		b.log.Debug("prefab stored", log.String("name", name))
		return nil, nil
	}

	obj, err := b.Assemble(name, spec)
	if err != nil {
		return nil, err
	}

	b.objects.Register(name, obj)
	if b.place != nil {
		if err := b.place(obj.Scene(), obj); err != nil {
			b.objects.Unregister(name)
			b.dispatcher.RemoveOwner(obj.ID())
			return nil, fmt.Errorf("place %q: %w", name, err)
		}
	}
	return obj, nil
}

// Assemble constructs a live object without registering or placing it.
// Spawning instantiates prefabs through this path before positioning them.
func (b *Builder) Assemble(name string, spec Spec) (*GameObject, error) {
	scene := spec.Scene
	if scene == "" {
		scene = DefaultScene
	}

	obj := New(name, scene)
	obj.newTransform = func(owner *GameObject) (Component, error) {
		ctor, err := b.components.Get(b.defaultTransform)
		if err != nil {
			return nil, fmt.Errorf("default transform %q: %w", b.defaultTransform, registry.ErrUnknownType)
		}
		return ctor(nil, owner)
	}

	for _, cs := range spec.Components {
		if err := b.attach(obj, cs); err != nil {
			// fatal to this object only
			b.dispatcher.RemoveOwner(obj.ID())
			return nil, fmt.Errorf("object %q: %w", name, err)
		}
	}
	return obj, nil
}

func (b *Builder) attach(obj *GameObject, cs ComponentSpec) error {
	ctor, err := b.components.Get(cs.Type)
	if err != nil {
		return fmt.Errorf("component type %q: %w", cs.Type, registry.ErrUnknownType)
	}

	component, err := ctor(cs.Args, obj)
	if err != nil {
		return fmt.Errorf("component %q: %w", cs.Type, err)
	}

	refName := cs.RefName
	if refName == "" {
		refName = cs.Type
	}
	if err := obj.Components().Add(refName, component); err != nil {
		return err
	}

	// listener discovery happens here, once, at construction
	if l, ok := component.(events.Listener); ok {
		b.dispatcher.Bind(events.Owner{ID: obj.ID(), Scene: obj.Scene()}, l.Listeners()...)
	}
	return nil
}
