package events

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sceneforge/sceneforge/internal/core/observability/log"
)

type entry struct {
	name    string
	owner   string
	handler Handler
}

// bucket keeps registration order; replace-on-conflict swaps in place so the
// original position is kept.
type bucket []entry

func (b bucket) put(e entry) bucket {
	for i := range b {
		if b[i].name == e.name {
			b[i] = e
			return b
		}
	}
	return append(b, e)
}

func (b bucket) drop(owner string) bucket {
	kept := b[:0]
	for _, e := range b {
		if e.owner != owner {
			kept = append(kept, e)
		}
	}
	return kept
}

// Dispatcher is the global dispatch table keyed by (event type, scope).
// All methods are safe for concurrent use, though the engine drives it from a
// single control flow; handlers run in the emitting goroutine.
type Dispatcher struct {
	mu sync.RWMutex
	// local: type -> target object id -> ordered handlers
	local map[int]map[string]bucket
	// scene: type -> scene name -> ordered handlers
	scene map[int]map[string]bucket
	// global: type -> ordered handlers
	global map[int]bucket

	// sceneActive reports whether a scene is active; nil treats every scene
	// as active (tests, headless tools).
	sceneActive func(string) bool
	log         log.Log
}

func NewDispatcher(logger log.Log) *Dispatcher {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Dispatcher{
		local:  make(map[int]map[string]bucket),
		scene:  make(map[int]map[string]bucket),
		global: make(map[int]bucket),
		log:    logger,
	}
}

// SetSceneActive installs the active-scene predicate used for
// BROADCAST_SCENE filtering.
func (d *Dispatcher) SetSceneActive(fn func(scene string) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sceneActive = fn
}

// Bind registers all of a listener-bearing object's registrations against the
// dispatch table. Called once, at construction of the object.
func (d *Dispatcher) Bind(owner Owner, regs ...Registration) {
	for _, reg := range regs {
		d.Register(owner, reg)
	}
}

// Register adds a single registration bound to owner.
func (d *Dispatcher) Register(owner Owner, reg Registration) {
	if reg.Handler == nil {
		return
	}
	name := reg.Name
	if name == "" {
		name = uuid.NewString()
	}
	e := entry{name: name, owner: owner.ID, handler: reg.Handler}

	d.mu.Lock()
	defer d.mu.Unlock()
	switch reg.Scope {
	case ScopeLocal:
		if d.local[reg.Type] == nil {
			d.local[reg.Type] = make(map[string]bucket)
		}
		d.local[reg.Type][owner.ID] = d.local[reg.Type][owner.ID].put(e)
	case ScopeBroadcastScene:
		if d.scene[reg.Type] == nil {
			d.scene[reg.Type] = make(map[string]bucket)
		}
		d.scene[reg.Type][owner.Scene] = d.scene[reg.Type][owner.Scene].put(e)
	case ScopeBroadcast:
		d.global[reg.Type] = d.global[reg.Type].put(e)
	default:
		d.log.Warn("registration with unknown scope dropped",
			log.Int("event_type", reg.Type),
			log.String("name", name))
	}
}

// RemoveOwner drops every registration bound to the object id, across all
// scopes. Called when a game object is destroyed.
func (d *Dispatcher) RemoveOwner(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, targets := range d.local {
		delete(targets, id)
	}
	for _, scenes := range d.scene {
		for name, b := range scenes {
			scenes[name] = b.drop(id)
		}
	}
	for t, b := range d.global {
		d.global[t] = b.drop(id)
	}
}

// Emit delivers an event to the union of its matching scopes: LOCAL listeners
// of the exact target, BROADCAST_SCENE listeners of the emitting scene when
// that scene is active, and BROADCAST listeners unconditionally. Listener
// errors are isolated per handler and joined into the return value.
func (d *Dispatcher) Emit(evt Event) error {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}

	d.mu.RLock()
	var handlers []Handler
	if evt.Target != "" {
		if targets := d.local[evt.Type]; targets != nil {
			for _, e := range targets[evt.Target] {
				handlers = append(handlers, e.handler)
			}
		}
	}
	if evt.Scene != "" && (d.sceneActive == nil || d.sceneActive(evt.Scene)) {
		if scenes := d.scene[evt.Type]; scenes != nil {
			for _, e := range scenes[evt.Scene] {
				handlers = append(handlers, e.handler)
			}
		}
	}
	for _, e := range d.global[evt.Type] {
		handlers = append(handlers, e.handler)
	}
	d.mu.RUnlock()

	var all error
	for _, h := range handlers {
		if err := h(evt); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

// EmitExternal injects an event sourced from outside the engine's own code.
// External events are always treated as BROADCAST regardless of any narrower
// scope the payload requests.
func (d *Dispatcher) EmitExternal(eventType int, source string, data map[string]any) error {
	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.global[eventType]))
	for _, e := range d.global[eventType] {
		handlers = append(handlers, e.handler)
	}
	d.mu.RUnlock()

	evt := Event{Type: eventType, Source: source, Data: data, Time: time.Now()}
	var all error
	for _, h := range handlers {
		if err := h(evt); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

// Reset drops every registration. Teardown only.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.local = make(map[int]map[string]bucket)
	d.scene = make(map[int]map[string]bucket)
	d.global = make(map[int]bucket)
}

// Counts returns the number of live registrations per scope. Diagnostic only.
func (d *Dispatcher) Counts() (local, scene, global int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, targets := range d.local {
		for _, b := range targets {
			local += len(b)
		}
	}
	for _, scenes := range d.scene {
		for _, b := range scenes {
			scene += len(b)
		}
	}
	for _, b := range d.global {
		global += len(b)
	}
	return local, scene, global
}
