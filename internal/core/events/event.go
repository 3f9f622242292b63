// Package events implements the engine's scoped publish/subscribe dispatch.
// Delivery is synchronous and recursive: an emitted event may trigger further
// emissions before the original call returns, and nothing guards against
// cycles in event-triggering logic.
package events

import (
	"sync/atomic"
	"time"
)

// Scope is the delivery breadth of an emitted event.
type Scope uint8

const (
	// ScopeLocal delivers only to listeners registered against the exact
	// target object named in the event.
	ScopeLocal Scope = iota + 1
	// ScopeBroadcastScene delivers to every listener whose scene matches the
	// emitting scene, inactive scenes excluded.
	ScopeBroadcastScene
	// ScopeBroadcast delivers to every registered listener, inactive scenes
	// included.
	ScopeBroadcast
)

func (s Scope) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeBroadcastScene:
		return "broadcast_scene"
	case ScopeBroadcast:
		return "broadcast"
	default:
		return "unknown"
	}
}

var typeCounter atomic.Int64

// NewType allocates a process-unique event type id. Packages allocate their
// event types at init and share the ids through exported variables.
func NewType() int {
	return int(typeCounter.Add(1))
}

// Event is the message delivered to listeners. Treat as read-only.
type Event struct {
	// Type is the integer routing key.
	Type int
	// Target is the instance id of the targeted object, empty for untargeted
	// emissions.
	Target string
	// Scene is the scene the event was emitted in.
	Scene string
	// Source identifies the emitter (free-form).
	Source string
	// Data is the opaque payload.
	Data map[string]any
	// Time is the emission time.
	Time time.Time
}

// Handler is invoked per delivered event. Errors are aggregated by the
// dispatcher; a failing handler never stops delivery to the rest.
type Handler func(Event) error

// Registration is the listener metadata an object exposes at construction
// time: which event type it listens for, at which scope, under which name.
// Registering a second handler under an occupied (type, scope, target, name)
// slot replaces the first; registrations with an empty Name are assigned a
// unique one and therefore never conflict.
type Registration struct {
	Type    int
	Scope   Scope
	Name    string
	Handler Handler
}

// Listener is implemented by components and scripts that want events. The
// assembler discovers it once, when the owning object is constructed.
type Listener interface {
	Listeners() []Registration
}

// Owner identifies the object a registration is bound to.
type Owner struct {
	ID    string
	Scene string
}
