package script

import (
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/sceneforge/sceneforge/internal/core/events"
	"github.com/sceneforge/sceneforge/internal/core/object"
)

// LuaScript runs one lua chunk as a script instance. Each instance owns its
// own state; the engine's single control flow drives it, so no locking.
//
// Script files declare an exported name and optional hooks:
//
//	export = "move_script"
//	function init(args) ... end
//	function update(dt) ... end
//	listeners = { { event = 5, scope = "broadcast", handler = "on_ping" } }
//	function on_ping(event) ... end
type LuaScript struct {
	state  *lua.State
	source *object.GameObject
	regs   []events.Registration
}

// ExportName loads path far enough to read its export global. Used by the
// script loader to key the registry without instantiating the script.
func ExportName(path string) (string, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)
	if err := lua.DoFile(l, path); err != nil {
		return "", fmt.Errorf("load script %s: %w", path, err)
	}
	l.Global("export")
	name, ok := l.ToString(-1)
	l.Pop(1)
	if !ok || name == "" {
		return "", fmt.Errorf("script %s: missing export name", path)
	}
	return name, nil
}

// NewLuaFactory wraps a script file as a Factory. The dispatcher backs the
// emit function exposed to the script.
func NewLuaFactory(path string, dispatcher *events.Dispatcher) Factory {
	return func(args map[string]any, source *object.GameObject) (Script, error) {
		l := lua.NewState()
		lua.OpenLibraries(l)

		s := &LuaScript{state: l, source: source}
		s.bindSource()
		s.bindEmit(dispatcher)

		if err := lua.DoFile(l, path); err != nil {
			return nil, fmt.Errorf("load script %s: %w", path, err)
		}
		if err := s.callInit(args); err != nil {
			return nil, fmt.Errorf("script %s: %w", path, err)
		}
		if err := s.discoverListeners(); err != nil {
			return nil, fmt.Errorf("script %s: %w", path, err)
		}
		return s, nil
	}
}

func (s *LuaScript) Update(dt float64) {
	s.state.Global("update")
	if s.state.TypeOf(-1) != lua.TypeFunction {
		s.state.Pop(1)
		return
	}
	s.state.PushNumber(dt)
	_ = s.state.ProtectedCall(1, 0, 0)
}

func (s *LuaScript) Listeners() []events.Registration { return s.regs }

// Source is the owning game object, never the hosting component.
func (s *LuaScript) Source() *object.GameObject { return s.source }

func (s *LuaScript) bindSource() {
	s.state.NewTable()
	s.state.PushString(s.source.ID())
	s.state.SetField(-2, "id")
	s.state.PushString(s.source.Name())
	s.state.SetField(-2, "name")
	s.state.PushString(s.source.Scene())
	s.state.SetField(-2, "scene")
	s.state.SetGlobal("source")
}

func (s *LuaScript) bindEmit(dispatcher *events.Dispatcher) {
	src := s.source
	s.state.PushGoFunction(func(l *lua.State) int {
		eventType, _ := l.ToInteger(1)
		data := map[string]any{}
		if l.TypeOf(2) == lua.TypeTable {
			data = tableToMap(l, 2)
		}
		_ = dispatcher.Emit(events.Event{
			Type:   eventType,
			Scene:  src.Scene(),
			Source: src.Name(),
			Data:   data,
		})
		return 0
	})
	s.state.SetGlobal("emit")
}

func (s *LuaScript) callInit(args map[string]any) error {
	s.state.Global("init")
	if s.state.TypeOf(-1) != lua.TypeFunction {
		s.state.Pop(1)
		return nil
	}
	pushValue(s.state, args)
	if err := s.state.ProtectedCall(1, 0, 0); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

func (s *LuaScript) discoverListeners() error {
	s.state.Global("listeners")
	defer s.state.Pop(1)
	if s.state.TypeOf(-1) != lua.TypeTable {
		return nil
	}

	n := s.state.RawLength(-1)
	for i := 1; i <= n; i++ {
		s.state.RawGetInt(-1, i)

		s.state.Field(-1, "event")
		eventType, _ := s.state.ToInteger(-1)
		s.state.Pop(1)

		s.state.Field(-1, "scope")
		scopeName, _ := s.state.ToString(-1)
		s.state.Pop(1)

		s.state.Field(-1, "handler")
		handlerName, _ := s.state.ToString(-1)
		s.state.Pop(1)

		s.state.Pop(1) // entry table

		scope, err := parseScope(scopeName)
		if err != nil {
			return err
		}
		if handlerName == "" {
			return fmt.Errorf("listener %d: missing handler", i)
		}
		s.regs = append(s.regs, events.Registration{
			Type:    eventType,
			Scope:   scope,
			Name:    handlerName,
			Handler: s.handler(handlerName),
		})
	}
	return nil
}

func (s *LuaScript) handler(name string) events.Handler {
	return func(evt events.Event) error {
		s.state.Global(name)
		if s.state.TypeOf(-1) != lua.TypeFunction {
			s.state.Pop(1)
			return fmt.Errorf("lua handler %q not defined", name)
		}
		pushEvent(s.state, evt)
		if err := s.state.ProtectedCall(1, 0, 0); err != nil {
			return fmt.Errorf("lua handler %q: %w", name, err)
		}
		return nil
	}
}

func parseScope(name string) (events.Scope, error) {
	switch name {
	case "local":
		return events.ScopeLocal, nil
	case "broadcast_scene", "scene":
		return events.ScopeBroadcastScene, nil
	case "broadcast", "":
		return events.ScopeBroadcast, nil
	default:
		return 0, fmt.Errorf("unknown listener scope %q", name)
	}
}

func pushEvent(l *lua.State, evt events.Event) {
	l.NewTable()
	l.PushInteger(evt.Type)
	l.SetField(-2, "type")
	l.PushString(evt.Scene)
	l.SetField(-2, "scene")
	l.PushString(evt.Target)
	l.SetField(-2, "target")
	l.PushString(evt.Source)
	l.SetField(-2, "source")
	pushValue(l, evt.Data)
	l.SetField(-2, "data")
}

func pushValue(l *lua.State, v any) {
	switch tv := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(tv)
	case int:
		l.PushInteger(tv)
	case int64:
		l.PushInteger(int(tv))
	case float64:
		l.PushNumber(tv)
	case string:
		l.PushString(tv)
	case map[string]any:
		l.NewTable()
		for k, item := range tv {
			pushValue(l, item)
			l.SetField(-2, k)
		}
	case []any:
		l.NewTable()
		for i, item := range tv {
			pushValue(l, item)
			l.RawSetInt(-2, i+1)
		}
	default:
		l.PushString(fmt.Sprintf("%v", tv))
	}
}

func tableToMap(l *lua.State, index int) map[string]any {
	out := make(map[string]any)
	l.PushNil()
	for l.Next(index) {
		key, keyOK := l.ToString(-2)
		if keyOK {
			switch l.TypeOf(-1) {
			case lua.TypeBoolean:
				out[key] = l.ToBoolean(-1)
			case lua.TypeNumber:
				n, _ := l.ToNumber(-1)
				out[key] = n
			case lua.TypeString:
				str, _ := l.ToString(-1)
				out[key] = str
			}
		}
		l.Pop(1)
	}
	return out
}
