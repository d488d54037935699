package lualib

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/dyno"
)

// Sentinel errors for script loading.
var (
	// ErrNoBehaviorTable is returned when a script defines no global
	// "behavior" table.
	ErrNoBehaviorTable = errors.New("script defines no behavior table")

	// ErrBadDeclaration is returned when a declaration table holds a value
	// of an unusable type.
	ErrBadDeclaration = errors.New("bad behavior declaration")
)

// ScriptBehavior is a behavior whose properties, methods and event
// handlers live in a Lua script. It owns its Lua state; the state is
// single-threaded like the object that hosts it.
type ScriptBehavior struct {
	dyno.Base

	state  *lua.LState
	events map[string]any

	// slots is the script's properties table; plain-value slots read and
	// write through it directly.
	slots *lua.LTable
}

// Option configures script loading.
type Option func(*scriptConfig)

type scriptConfig struct {
	name    string
	globals map[string]any
}

// WithName sets the name used in property error messages. Defaults to
// "lua".
func WithName(name string) Option {
	return func(c *scriptConfig) {
		c.name = name
	}
}

// WithGlobal pre-installs a global in the script's environment before the
// chunk runs.
func WithGlobal(name string, value any) Option {
	return func(c *scriptConfig) {
		if c.globals == nil {
			c.globals = make(map[string]any)
		}
		c.globals[name] = value
	}
}

// New runs the script source in a fresh Lua state and bridges its behavior
// table into a Behavior. The caller owns the result and must Close it when
// the behavior is no longer needed.
func New(source string, opts ...Option) (*ScriptBehavior, error) {
	cfg := scriptConfig{name: "lua"}
	for _, opt := range opts {
		opt(&cfg)
	}

	L := lua.NewState()
	for name, value := range cfg.globals {
		L.SetGlobal(name, toLua(L, value))
	}
	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("load behavior script: %w", err)
	}

	decl, ok := L.GetGlobal("behavior").(*lua.LTable)
	if !ok {
		L.Close()
		return nil, ErrNoBehaviorTable
	}

	sb := &ScriptBehavior{state: L}
	if err := sb.bridge(cfg.name, decl); err != nil {
		L.Close()
		return nil, err
	}
	return sb, nil
}

// Events returns the script's declared event subscriptions.
func (s *ScriptBehavior) Events() map[string]any {
	return s.events
}

// Close releases the Lua state. The behavior must be detached first.
func (s *ScriptBehavior) Close() {
	if s.state != nil {
		s.state.Close()
		s.state = nil
	}
}

// bridge builds the resolver and event map from the declaration table.
func (s *ScriptBehavior) bridge(name string, decl *lua.LTable) error {
	acc := dyno.NewAccessors()

	if props, ok := decl.RawGetString("properties").(*lua.LTable); ok {
		s.slots = props
		var declErr error
		props.ForEach(func(k, v lua.LValue) {
			key, ok := k.(lua.LString)
			if !ok {
				declErr = fmt.Errorf("%w: non-string property key %s", ErrBadDeclaration, k.String())
				return
			}
			if pair, ok := v.(*lua.LTable); ok && isAccessorPair(pair) {
				s.declareAccessorPair(acc, string(key), pair)
				return
			}
			s.declareSlot(acc, string(key))
		})
		if declErr != nil {
			return declErr
		}
	}

	if methods, ok := decl.RawGetString("methods").(*lua.LTable); ok {
		var declErr error
		methods.ForEach(func(k, v lua.LValue) {
			fn, ok := v.(*lua.LFunction)
			if !ok {
				declErr = fmt.Errorf("%w: method %s is not a function", ErrBadDeclaration, k.String())
				return
			}
			acc.Method(k.String(), s.method(fn))
		})
		if declErr != nil {
			return declErr
		}
	}

	if events, ok := decl.RawGetString("events").(*lua.LTable); ok {
		s.events = make(map[string]any)
		var declErr error
		events.ForEach(func(k, v lua.LValue) {
			fn, ok := v.(*lua.LFunction)
			if !ok {
				declErr = fmt.Errorf("%w: event %s handler is not a function", ErrBadDeclaration, k.String())
				return
			}
			s.events[k.String()] = s.handler(fn)
		})
		if declErr != nil {
			return declErr
		}
	}

	s.SetResolver(dyno.NewResolver(name, acc, nil))
	return nil
}

// isAccessorPair reports whether a property value table declares get/set
// functions rather than being a plain table value.
func isAccessorPair(t *lua.LTable) bool {
	_, hasGet := t.RawGetString("get").(*lua.LFunction)
	_, hasSet := t.RawGetString("set").(*lua.LFunction)
	return hasGet || hasSet
}

// declareAccessorPair wires a {get=..., set=...} property.
func (s *ScriptBehavior) declareAccessorPair(acc *dyno.Accessors, name string, pair *lua.LTable) {
	if get, ok := pair.RawGetString("get").(*lua.LFunction); ok {
		acc.Getter(name, func() any {
			v, err := s.call(get, 1)
			if err != nil {
				return nil
			}
			return toGo(v)
		})
	}
	if set, ok := pair.RawGetString("set").(*lua.LFunction); ok {
		acc.Setter(name, func(v any) error {
			_, err := s.call(set, 0, toLua(s.state, v))
			return err
		})
	}
}

// declareSlot wires a plain-value property backed by the script's
// properties table.
func (s *ScriptBehavior) declareSlot(acc *dyno.Accessors, name string) {
	acc.Property(name,
		func() any {
			return toGo(s.slots.RawGetString(name))
		},
		func(v any) error {
			s.slots.RawSetString(name, toLua(s.state, v))
			return nil
		},
	)
}

// method wraps a Lua function as an invocable member.
func (s *ScriptBehavior) method(fn *lua.LFunction) dyno.Method {
	return func(args ...any) (any, error) {
		largs := make([]lua.LValue, len(args))
		for i, a := range args {
			largs[i] = toLua(s.state, a)
		}
		v, err := s.call(fn, 1, largs...)
		if err != nil {
			return nil, err
		}
		return toGo(v), nil
	}
}

// handler wraps a Lua function as an event handler. The script receives a
// table view of the Event and may set its "handled" field.
func (s *ScriptBehavior) handler(fn *lua.LFunction) dyno.Handler {
	return func(e *dyno.Event) error {
		view := s.state.NewTable()
		view.RawSetString("name", lua.LString(e.Name))
		view.RawSetString("handled", lua.LBool(e.Handled))
		view.RawSetString("data", toLua(s.state, e.Data))
		if _, err := s.call(fn, 0, view); err != nil {
			return err
		}
		if handled, ok := view.RawGetString("handled").(lua.LBool); ok {
			e.Handled = bool(handled)
		}
		return nil
	}
}

// call invokes a Lua function with protection, returning its first result
// when nret is 1.
func (s *ScriptBehavior) call(fn *lua.LFunction, nret int, args ...lua.LValue) (lua.LValue, error) {
	if err := s.state.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		return nil, err
	}
	if nret == 0 {
		return lua.LNil, nil
	}
	v := s.state.Get(-1)
	s.state.Pop(1)
	return v, nil
}
