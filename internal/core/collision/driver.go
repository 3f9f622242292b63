package collision

import (
	"errors"
	"sort"
	"sync"

	"github.com/sceneforge/sceneforge/internal/core/events"
	"github.com/sceneforge/sceneforge/internal/core/object"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
)

// Event type ids emitted by the driver. Collision events fire for physics
// colliders, trigger events for non-physics overlap zones.
var (
	EventCollision = events.NewType()
	EventTrigger   = events.NewType()
)

// Collider is the capability the driver consumes. The built-in rect collider
// satisfies it; custom collider components only need to match structurally.
type Collider interface {
	Source() *object.GameObject
	Layer() string
	Physics() bool
	Bounds() (object.Rect, error)
}

// Driver owns per-layer collider membership and sweeps registered layer pairs
// each frame, emitting targeted collision events through the dispatcher.
type Driver struct {
	mu         sync.RWMutex
	matrix     *Matrix
	layers     map[string][]Collider
	dispatcher *events.Dispatcher
	log        log.Log
}

func NewDriver(matrix *Matrix, dispatcher *events.Dispatcher, logger log.Log) *Driver {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Driver{
		matrix:     matrix,
		layers:     make(map[string][]Collider),
		dispatcher: dispatcher,
		log:        logger,
	}
}

func (d *Driver) Matrix() *Matrix { return d.matrix }

// Add registers a collider under its layer. The engine calls this when a
// collider component is constructed.
func (d *Driver) Add(c Collider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layers[c.Layer()] = append(d.layers[c.Layer()], c)
}

// RemoveObject drops every collider belonging to the game object.
func (d *Driver) RemoveObject(obj *object.GameObject) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for layer, colliders := range d.layers {
		kept := colliders[:0]
		for _, c := range colliders {
			if c.Source() != obj {
				kept = append(kept, c)
			}
		}
		d.layers[layer] = kept
	}
}

// Update sweeps every enabled pair for overlaps among colliders of the active
// scene. Both entities receive a targeted event carrying both identities;
// self-layer pairs emit one direction only to avoid duplicates, and an object
// never collides with itself.
func (d *Driver) Update(dt float64, activeScene string) error {
	pairs := d.matrix.Pairs()
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	var all error
	for _, pair := range pairs {
		for _, physics := range []bool{true, false} {
			left := d.members(pair.A, physics, activeScene)
			right := d.members(pair.B, physics, activeScene)
			if err := d.sweep(pair, left, right, physics, dt); err != nil {
				all = errors.Join(all, err)
			}
		}
	}
	return all
}

func (d *Driver) members(layer string, physics bool, scene string) []Collider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Collider
	for _, c := range d.layers[layer] {
		if c.Physics() == physics && c.Source().Scene() == scene {
			out = append(out, c)
		}
	}
	return out
}

func (d *Driver) sweep(pair Pair, left, right []Collider, physics bool, dt float64) error {
	eventType := EventTrigger
	if physics {
		eventType = EventCollision
	}

	var all error
	for _, a := range left {
		ba, err := a.Bounds()
		if err != nil {
			all = errors.Join(all, err)
			continue
		}
		for _, b := range right {
			if a.Source() == b.Source() {
				// multiple colliders on one object never self-collide
				continue
			}
			bb, err := b.Bounds()
			if err != nil {
				all = errors.Join(all, err)
				continue
			}
			if !ba.Intersects(bb) {
				continue
			}
			if err := d.emit(eventType, a, b, dt); err != nil {
				all = errors.Join(all, err)
			}
			if pair.Self() {
				// same-layer sweeps visit each ordered pair once per side
				continue
			}
			if err := d.emit(eventType, b, a, dt); err != nil {
				all = errors.Join(all, err)
			}
		}
	}
	return all
}

func (d *Driver) emit(eventType int, target, other Collider, dt float64) error {
	src := target.Source()
	return d.dispatcher.Emit(events.Event{
		Type:   eventType,
		Target: src.ID(),
		Scene:  src.Scene(),
		Source: other.Source().Name(),
		Data: map[string]any{
			"object":   src.Name(),
			"collides": other.Source().Name(),
			"dt":       dt,
		},
	})
}
