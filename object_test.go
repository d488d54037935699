package dyno

import (
	"errors"
	"strings"
	"testing"
)

// counterBehavior contributes a "count" property, an "increment" method,
// and a declared subscription on "tick".
type counterBehavior struct {
	Base
	count int
	ticks int
}

func newCounterBehavior() *counterBehavior {
	b := &counterBehavior{}
	b.SetResolver(NewResolver("counter", NewAccessors().
		Property("count",
			func() any { return b.count },
			func(v any) error {
				if v == nil {
					b.count = 0
					return nil
				}
				n, ok := v.(int)
				if !ok {
					return errors.New("count wants an int")
				}
				b.count = n
				return nil
			}).
		Method("increment", func(args ...any) (any, error) {
			b.count++
			return b.count, nil
		}), nil))
	return b
}

func (b *counterBehavior) Events() map[string]any {
	return map[string]any{
		"tick": func(e *Event) error {
			b.ticks++
			return nil
		},
	}
}

// namedHandlerBehavior declares its subscription as a string method
// reference instead of a closure.
type namedHandlerBehavior struct {
	Base
	saves int
}

func newNamedHandlerBehavior() *namedHandlerBehavior {
	b := &namedHandlerBehavior{}
	b.SetResolver(NewResolver("named", NewAccessors().
		Method("onSave", func(args ...any) (any, error) {
			b.saves++
			return nil, nil
		}), nil))
	return b
}

func (b *namedHandlerBehavior) Events() map[string]any {
	return map[string]any{"save": "onSave"}
}

func TestObject_AttachBehavior_PropertyDelegation(t *testing.T) {
	o := newTestObject()
	b := newCounterBehavior()

	if _, err := o.AttachBehavior("counter", b); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	if err := o.Set("count", 7); err != nil {
		t.Fatalf("Set count error: %v", err)
	}
	v, err := o.Get("count")
	if err != nil {
		t.Fatalf("Get count error: %v", err)
	}
	if v != 7 {
		t.Errorf("count = %v, want 7", v)
	}
	if b.count != 7 {
		t.Errorf("behavior count = %d, want 7", b.count)
	}
}

func TestObject_AttachBehavior_MethodDelegation(t *testing.T) {
	o := newTestObject()
	if _, err := o.AttachBehavior("counter", newCounterBehavior()); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	if !o.HasMethod("increment", true) {
		t.Error("expected behavior method to be visible")
	}
	if o.HasMethod("increment", false) {
		t.Error("expected behavior method to be invisible without behavior check")
	}

	v, err := o.Call("increment")
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if v != 1 {
		t.Errorf("increment = %v, want 1", v)
	}
}

func TestObject_AttachBehavior_InstallsDeclaredEvents(t *testing.T) {
	o := newTestObject()
	b := newCounterBehavior()
	if _, err := o.AttachBehavior("counter", b); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	if err := o.Trigger("tick", nil); err != nil {
		t.Fatalf("Trigger error: %v", err)
	}
	if b.ticks != 1 {
		t.Errorf("ticks = %d, want 1", b.ticks)
	}
	if b.Owner() != o {
		t.Error("expected behavior owner to be the host")
	}
}

func TestObject_AttachBehavior_StringMethodReference(t *testing.T) {
	o := newTestObject()
	b := newNamedHandlerBehavior()
	if _, err := o.AttachBehavior("named", b); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	if err := o.Trigger("save", nil); err != nil {
		t.Fatalf("Trigger error: %v", err)
	}
	if b.saves != 1 {
		t.Errorf("saves = %d, want 1", b.saves)
	}
}

func TestObject_AttachBehavior_BadStringReference(t *testing.T) {
	o := newTestObject()
	b := &namedHandlerBehavior{}
	b.SetResolver(NewResolver("named", NewAccessors(), nil))

	_, err := o.AttachBehavior("named", b)
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("AttachBehavior error = %v, want ErrUnknownMethod", err)
	}
	if o.GetBehavior("named") != nil {
		t.Error("expected failed attach to leave the slot empty")
	}
}

func TestObject_DetachBehavior_RemovesHandlersAndMembers(t *testing.T) {
	o := newTestObject()
	b := newCounterBehavior()
	if _, err := o.AttachBehavior("counter", b); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	got := o.DetachBehavior("counter")
	if got != Behavior(b) {
		t.Error("expected detach to return the attached behavior")
	}
	if b.Owner() != nil {
		t.Error("expected owner to be cleared")
	}

	if err := o.Trigger("tick", nil); err != nil {
		t.Fatalf("Trigger error: %v", err)
	}
	if b.ticks != 0 {
		t.Errorf("ticks = %d, want 0 after detach", b.ticks)
	}
	if _, err := o.Get("count"); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Get error = %v, want ErrUnknownProperty after detach", err)
	}
	if o.DetachBehavior("counter") != nil {
		t.Error("expected second detach to return nil")
	}
}

func TestObject_DetachBehavior_SparesOtherHandlers(t *testing.T) {
	o := newTestObject()
	fired := 0
	o.On("tick", func(e *Event) error {
		fired++
		return nil
	})

	if _, err := o.AttachBehavior("counter", newCounterBehavior()); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}
	o.DetachBehavior("counter")

	if err := o.Trigger("tick", nil); err != nil {
		t.Fatalf("Trigger error: %v", err)
	}
	if fired != 1 {
		t.Errorf("fired = %d, want 1 (direct handler survives behavior detach)", fired)
	}
}

func TestObject_AttachBehavior_SlotReplacement(t *testing.T) {
	o := newTestObject()
	first := newCounterBehavior()
	second := newCounterBehavior()

	if _, err := o.AttachBehavior("counter", first); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}
	if _, err := o.AttachBehavior("counter", second); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	if first.Owner() != nil {
		t.Error("expected replaced behavior to be detached")
	}
	if second.Owner() != o {
		t.Error("expected replacement to be attached")
	}

	if err := o.Trigger("tick", nil); err != nil {
		t.Fatalf("Trigger error: %v", err)
	}
	if first.ticks != 0 || second.ticks != 1 {
		t.Errorf("ticks = %d/%d, want 0/1", first.ticks, second.ticks)
	}
}

func TestObject_AttachBehavior_AnonymousSlots(t *testing.T) {
	o := newTestObject()

	if _, err := o.AttachBehavior("", newCounterBehavior()); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}
	if _, err := o.AttachBehavior("", newCounterBehavior()); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	if o.GetBehavior("0") == nil || o.GetBehavior("1") == nil {
		t.Errorf("behaviors = %v, want slots 0 and 1", o.behaviorOrder)
	}
}

func TestObject_EnsureBehaviors_DeclaredOnce(t *testing.T) {
	calls := 0
	o := newTestObject(WithBehaviors(func() map[string]any {
		calls++
		return map[string]any{"counter": newCounterBehavior()}
	}))

	// Any property access materializes the declaration exactly once.
	if _, err := o.Get("count"); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if _, err := o.Get("count"); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if calls != 1 {
		t.Errorf("declaration calls = %d, want 1", calls)
	}
	if o.GetBehavior("counter") == nil {
		t.Error("expected declared behavior to be attached")
	}
}

func TestObject_EnsureBehaviors_TriggerFirst(t *testing.T) {
	b := newCounterBehavior()
	o := newTestObject(WithBehaviors(func() map[string]any {
		return map[string]any{"counter": b}
	}))

	// Event dispatch as the very first use must still materialize the
	// declared behaviors and their subscriptions.
	if err := o.Trigger("tick", nil); err != nil {
		t.Fatalf("Trigger error: %v", err)
	}
	if b.ticks != 1 {
		t.Errorf("ticks = %d, want 1", b.ticks)
	}
}

func TestObject_EnsureBehaviors_HasEventHandlersFirst(t *testing.T) {
	o := newTestObject(WithBehaviors(func() map[string]any {
		return map[string]any{"counter": newCounterBehavior()}
	}))

	if !o.HasEventHandlers("tick") {
		t.Error("expected declared subscription to report before any other use")
	}
}

func TestObject_EnsureBehaviors_OnKeepsDeclaredOrder(t *testing.T) {
	b := newCounterBehavior()
	o := newTestObject(WithBehaviors(func() map[string]any {
		return map[string]any{"counter": b}
	}))
	ticksWhenDirectRan := -1

	// On materializes declarations before appending, so the declared
	// subscription sits ahead of handlers attached afterwards.
	o.On("tick", func(e *Event) error {
		ticksWhenDirectRan = b.ticks
		return nil
	})

	if err := o.Trigger("tick", nil); err != nil {
		t.Fatalf("Trigger error: %v", err)
	}
	if ticksWhenDirectRan != 1 {
		t.Errorf("declared handler ran %d times before the direct one, want 1", ticksWhenDirectRan)
	}
}

func TestObject_Set_OnPrefix(t *testing.T) {
	o := newTestObject()
	fired := 0

	err := o.Set("on save", func(e *Event) error {
		fired++
		return nil
	})
	if err != nil {
		t.Fatalf("Set error: %v", err)
	}

	if err := o.Trigger("save", nil); err != nil {
		t.Fatalf("Trigger error: %v", err)
	}
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}

func TestObject_Set_OnPrefixRejectsNonHandler(t *testing.T) {
	o := newTestObject()
	err := o.Set("on save", 42)
	if !errors.Is(err, ErrInvalidCall) {
		t.Errorf("Set error = %v, want ErrInvalidCall", err)
	}
}

func TestObject_Set_AsPrefix(t *testing.T) {
	o := newTestObject()
	if err := o.Set("as counter", newCounterBehavior()); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if o.GetBehavior("counter") == nil {
		t.Error("expected behavior attached under slot counter")
	}
}

func TestObject_Set_OwnSetterShadowsPrefix(t *testing.T) {
	var got any
	acc := NewAccessors().Setter("on save", func(v any) error {
		got = v
		return nil
	})
	o := newTestObject(WithAccessors(acc))

	if err := o.Set("on save", "value"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got != "value" {
		t.Error("expected declared setter to win over the prefix syntax")
	}
	if o.HasEventHandlers("save") {
		t.Error("expected no handler attached when a setter shadows the prefix")
	}
}

func TestObject_Get_OwnBeforeBehavior(t *testing.T) {
	o := newTestObject(WithFields(map[string]any{"count": "own"}))
	if _, err := o.AttachBehavior("counter", newCounterBehavior()); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	v, err := o.Get("count")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if v != "own" {
		t.Errorf("count = %v, want own field value", v)
	}
}

func TestObject_PropertyChecks_Behaviors(t *testing.T) {
	o := newTestObject()
	if _, err := o.AttachBehavior("counter", newCounterBehavior()); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	if !o.CanGetProperty("count", true, true) {
		t.Error("expected behavior property to be readable")
	}
	if o.CanGetProperty("count", true, false) {
		t.Error("expected behavior property hidden without behavior check")
	}
	if !o.CanSetProperty("Count", true, true) {
		t.Error("expected case-insensitive behavior property to be writable")
	}
	if !o.HasProperty("count", true, true) {
		t.Error("expected HasProperty to see the behavior property")
	}
}

func TestObject_IsSetAndUnset_Behaviors(t *testing.T) {
	o := newTestObject()
	if _, err := o.AttachBehavior("counter", newCounterBehavior()); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	if err := o.Set("count", 3); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if !o.IsSet("count") {
		t.Error("expected count to be set")
	}
	if err := o.Unset("count"); err != nil {
		t.Fatalf("Unset error: %v", err)
	}
	v, err := o.Get("count")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if v != 0 {
		t.Errorf("count = %v, want 0 after unset", v)
	}
	if o.IsSet("missing") {
		t.Error("expected unknown property to read as not set")
	}
}

func TestObject_Clone_ResetsInstanceState(t *testing.T) {
	o := newTestObject(WithFields(map[string]any{"name": "orig"}))
	o.On("save", func(e *Event) error { return nil })
	if _, err := o.AttachBehavior("counter", newCounterBehavior()); err != nil {
		t.Fatalf("AttachBehavior error: %v", err)
	}

	c := o.Clone()
	if c.Class() != o.Class() {
		t.Error("expected clone to share class identity")
	}
	if c.HasEventHandlers("save") {
		t.Error("expected clone to carry no instance handlers")
	}
	if c.GetBehavior("counter") != nil {
		t.Error("expected clone to carry no attached behaviors")
	}

	if err := c.Set("name", "copy"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	v, err := o.Get("name")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if v != "orig" {
		t.Errorf("source name = %v, want orig (field maps must not be shared)", v)
	}
}

func TestObject_AttachBehavior_NoConstructor(t *testing.T) {
	o := newTestObject()
	_, err := o.AttachBehavior("x", map[string]any{"type": "counter"})
	if !errors.Is(err, ErrNoConstructor) {
		t.Errorf("AttachBehavior error = %v, want ErrNoConstructor", err)
	}
}

func TestObject_Call_Unknown(t *testing.T) {
	o := newTestObject()
	_, err := o.Call("fly")
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("Call error = %v, want ErrUnknownMethod", err)
	}
	var merr *MethodError
	if !errors.As(err, &merr) || merr.Method != "fly" {
		t.Errorf("error detail = %+v, want method fly", merr)
	}
	if !strings.Contains(err.Error(), "fly") {
		t.Errorf("error text %q should name the method", err.Error())
	}
}
