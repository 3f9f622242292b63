package events

import (
	"errors"
	"testing"
)

func countingHandler(n *int) Handler {
	return func(Event) error { *n++; return nil }
}

func TestScopedDelivery(t *testing.T) {
	d := NewDispatcher(nil)
	d.SetSceneActive(func(scene string) bool { return scene == "main" })
	evtType := NewType()

	var local, sceneWide, global int
	x := Owner{ID: "obj-x", Scene: "main"}
	y := Owner{ID: "obj-y", Scene: "menu"}

	d.Register(x, Registration{Type: evtType, Scope: ScopeLocal, Name: "h-local", Handler: countingHandler(&local)})
	d.Register(x, Registration{Type: evtType, Scope: ScopeBroadcastScene, Name: "h-scene", Handler: countingHandler(&sceneWide)})
	d.Register(y, Registration{Type: evtType, Scope: ScopeBroadcast, Name: "h-global", Handler: countingHandler(&global)})

	// targeted emission in the active scene reaches all three scopes
	if err := d.Emit(Event{Type: evtType, Target: "obj-x", Scene: "main"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if local != 1 || sceneWide != 1 || global != 1 {
		t.Fatalf("active-scene delivery: local=%d scene=%d global=%d", local, sceneWide, global)
	}

	// emission in an inactive scene only reaches broadcast listeners
	if err := d.Emit(Event{Type: evtType, Target: "obj-y", Scene: "menu"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if local != 1 || sceneWide != 1 || global != 2 {
		t.Fatalf("inactive-scene delivery: local=%d scene=%d global=%d", local, sceneWide, global)
	}

	// untargeted emission skips local listeners
	if err := d.Emit(Event{Type: evtType, Scene: "main"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if local != 1 || sceneWide != 2 || global != 3 {
		t.Fatalf("untargeted delivery: local=%d scene=%d global=%d", local, sceneWide, global)
	}
}

func TestReplaceOnConflict(t *testing.T) {
	d := NewDispatcher(nil)
	evtType := NewType()
	owner := Owner{ID: "obj", Scene: "main"}

	var first, second int
	d.Register(owner, Registration{Type: evtType, Scope: ScopeBroadcast, Name: "slot", Handler: countingHandler(&first)})
	d.Register(owner, Registration{Type: evtType, Scope: ScopeBroadcast, Name: "slot", Handler: countingHandler(&second)})

	if err := d.Emit(Event{Type: evtType}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if first != 0 {
		t.Fatalf("replaced handler fired")
	}
	if second != 1 {
		t.Fatalf("replacing handler did not fire")
	}

	_, _, global := d.Counts()
	if global != 1 {
		t.Fatalf("expected 1 registration after replacement, got %d", global)
	}
}

func TestUnnamedRegistrationsNeverConflict(t *testing.T) {
	d := NewDispatcher(nil)
	evtType := NewType()
	owner := Owner{ID: "obj", Scene: "main"}

	var a, b int
	d.Register(owner, Registration{Type: evtType, Scope: ScopeBroadcast, Handler: countingHandler(&a)})
	d.Register(owner, Registration{Type: evtType, Scope: ScopeBroadcast, Handler: countingHandler(&b)})

	if err := d.Emit(Event{Type: evtType}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if a != 1 || b != 1 {
		t.Fatalf("unnamed registrations conflicted: a=%d b=%d", a, b)
	}
}

func TestDeliveryOrder(t *testing.T) {
	d := NewDispatcher(nil)
	evtType := NewType()
	owner := Owner{ID: "obj", Scene: "main"}

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		d.Register(owner, Registration{Type: evtType, Scope: ScopeBroadcast, Name: name, Handler: func(Event) error {
			order = append(order, name)
			return nil
		}})
	}

	if err := d.Emit(Event{Type: evtType}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("registration order not kept: %v", order)
	}
}

func TestHandlerErrorsAreIsolated(t *testing.T) {
	d := NewDispatcher(nil)
	evtType := NewType()
	owner := Owner{ID: "obj", Scene: "main"}

	boom := errors.New("boom")
	var after int
	d.Register(owner, Registration{Type: evtType, Scope: ScopeBroadcast, Name: "failing", Handler: func(Event) error { return boom }})
	d.Register(owner, Registration{Type: evtType, Scope: ScopeBroadcast, Name: "healthy", Handler: countingHandler(&after)})

	err := d.Emit(Event{Type: evtType})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if after != 1 {
		t.Fatalf("handler after a failing one did not run")
	}
}

func TestRemoveOwner(t *testing.T) {
	d := NewDispatcher(nil)
	evtType := NewType()
	x := Owner{ID: "obj-x", Scene: "main"}
	y := Owner{ID: "obj-y", Scene: "main"}

	var xFired, yFired int
	d.Bind(x,
		Registration{Type: evtType, Scope: ScopeLocal, Name: "a", Handler: countingHandler(&xFired)},
		Registration{Type: evtType, Scope: ScopeBroadcastScene, Name: "b", Handler: countingHandler(&xFired)},
		Registration{Type: evtType, Scope: ScopeBroadcast, Name: "c", Handler: countingHandler(&xFired)},
	)
	d.Register(y, Registration{Type: evtType, Scope: ScopeBroadcast, Name: "d", Handler: countingHandler(&yFired)})

	d.RemoveOwner("obj-x")
	if err := d.Emit(Event{Type: evtType, Target: "obj-x", Scene: "main"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if xFired != 0 {
		t.Fatalf("removed owner still received events")
	}
	if yFired != 1 {
		t.Fatalf("unrelated owner lost its registration")
	}
}

func TestEmitExternalIsBroadcastOnly(t *testing.T) {
	d := NewDispatcher(nil)
	evtType := NewType()
	owner := Owner{ID: "obj", Scene: "main"}

	var local, global int
	d.Register(owner, Registration{Type: evtType, Scope: ScopeLocal, Name: "l", Handler: countingHandler(&local)})
	d.Register(owner, Registration{Type: evtType, Scope: ScopeBroadcast, Name: "g", Handler: func(evt Event) error {
		if evt.Source != "client-1" {
			t.Fatalf("source not carried: %q", evt.Source)
		}
		global++
		return nil
	}})

	if err := d.EmitExternal(evtType, "client-1", map[string]any{"key": "w"}); err != nil {
		t.Fatalf("emit external: %v", err)
	}
	if local != 0 {
		t.Fatalf("external event reached a local listener")
	}
	if global != 1 {
		t.Fatalf("external event missed broadcast listeners")
	}
}
