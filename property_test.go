package dyno

import (
	"errors"
	"fmt"
	"testing"
)

// testResolver builds a resolver with a read/write "name" property, a
// read-only "id" property, a write-only "secret" property, and a declared
// "note" field.
func testResolver() (*Resolver, *struct {
	name   string
	id     int
	secret string
}) {
	state := &struct {
		name   string
		id     int
		secret string
	}{name: "initial", id: 7}

	acc := NewAccessors().
		Property("name",
			func() any { return state.name },
			func(v any) error {
				if v == nil {
					state.name = ""
					return nil
				}
				s, ok := v.(string)
				if !ok {
					return fmt.Errorf("name: want string, got %T", v)
				}
				state.name = s
				return nil
			}).
		Getter("id", func() any { return state.id }).
		Setter("secret", func(v any) error {
			state.secret, _ = v.(string)
			return nil
		})

	return NewResolver("test/resolver", acc, map[string]any{"note": "hello"}), state
}

func TestResolver_Get(t *testing.T) {
	r, _ := testResolver()

	v, err := r.Get("name", true)
	if err != nil {
		t.Fatalf("Get(name) error: %v", err)
	}
	if v != "initial" {
		t.Errorf("Get(name) = %v, want initial", v)
	}
}

func TestResolver_Get_CaseInsensitive(t *testing.T) {
	r, _ := testResolver()

	if _, err := r.Get("NAME", true); err != nil {
		t.Errorf("Get(NAME) error: %v", err)
	}
	if _, err := r.Get("Name", true); err != nil {
		t.Errorf("Get(Name) error: %v", err)
	}
}

func TestResolver_Get_Field(t *testing.T) {
	r, _ := testResolver()

	v, err := r.Get("note", true)
	if err != nil {
		t.Fatalf("Get(note) error: %v", err)
	}
	if v != "hello" {
		t.Errorf("Get(note) = %v, want hello", v)
	}

	if _, err := r.Get("note", false); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Get(note) without fields: got %v, want ErrUnknownProperty", err)
	}
}

func TestResolver_Get_WriteOnly(t *testing.T) {
	r, _ := testResolver()

	_, err := r.Get("secret", true)
	if !errors.Is(err, ErrInvalidCall) {
		t.Errorf("Get(secret) = %v, want ErrInvalidCall", err)
	}
}

func TestResolver_Get_Unknown(t *testing.T) {
	r, _ := testResolver()

	_, err := r.Get("missing", true)
	if !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Get(missing) = %v, want ErrUnknownProperty", err)
	}

	var perr *PropertyError
	if !errors.As(err, &perr) {
		t.Fatal("expected a *PropertyError")
	}
	if perr.Class != "test/resolver" || perr.Property != "missing" || perr.Op != "get" {
		t.Errorf("unexpected error detail: %+v", perr)
	}
}

func TestResolver_Set(t *testing.T) {
	r, state := testResolver()

	if err := r.Set("name", "updated", true); err != nil {
		t.Fatalf("Set(name) error: %v", err)
	}
	if state.name != "updated" {
		t.Errorf("state.name = %q, want updated", state.name)
	}
}

func TestResolver_Set_ReadOnly(t *testing.T) {
	r, _ := testResolver()

	err := r.Set("id", 9, true)
	if !errors.Is(err, ErrInvalidCall) {
		t.Errorf("Set(id) = %v, want ErrInvalidCall", err)
	}
}

func TestResolver_Set_Field(t *testing.T) {
	r, _ := testResolver()

	if err := r.Set("note", "changed", true); err != nil {
		t.Fatalf("Set(note) error: %v", err)
	}
	v, _ := r.Get("note", true)
	if v != "changed" {
		t.Errorf("Get(note) = %v, want changed", v)
	}
}

func TestResolver_Set_Unknown(t *testing.T) {
	r, _ := testResolver()

	if err := r.Set("missing", 1, true); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Set(missing) = %v, want ErrUnknownProperty", err)
	}
}

func TestResolver_IsSet(t *testing.T) {
	r, _ := testResolver()

	if !r.IsSet("name") {
		t.Error("expected name to be set")
	}
	if err := r.Set("name", nil, true); err != nil {
		t.Fatalf("Set(name, nil) error: %v", err)
	}
	// The setter maps nil to the empty string; the getter then yields a
	// non-nil value, so the property still reads as set.
	if !r.IsSet("name") {
		t.Error("expected name to remain set after clearing to empty string")
	}
	if r.IsSet("missing") {
		t.Error("expected missing to not be set")
	}
}

func TestResolver_IsSet_NilField(t *testing.T) {
	acc := NewAccessors()
	r := NewResolver("t", acc, map[string]any{"empty": nil, "full": 1})

	if r.IsSet("empty") {
		t.Error("expected nil field to not be set")
	}
	if !r.IsSet("full") {
		t.Error("expected non-nil field to be set")
	}
}

func TestResolver_Unset(t *testing.T) {
	r, state := testResolver()

	if err := r.Unset("name"); err != nil {
		t.Fatalf("Unset(name) error: %v", err)
	}
	if state.name != "" {
		t.Errorf("state.name = %q, want empty", state.name)
	}
}

func TestResolver_Unset_ReadOnly(t *testing.T) {
	r, _ := testResolver()

	if err := r.Unset("id"); !errors.Is(err, ErrInvalidCall) {
		t.Errorf("Unset(id) = %v, want ErrInvalidCall", err)
	}
}

func TestResolver_Unset_Unknown_NoOp(t *testing.T) {
	r, _ := testResolver()

	if err := r.Unset("missing"); err != nil {
		t.Errorf("Unset(missing) = %v, want nil", err)
	}
}

func TestResolver_CanGetCanSet(t *testing.T) {
	r, _ := testResolver()

	tests := []struct {
		name        string
		checkFields bool
		canGet      bool
		canSet      bool
	}{
		{"name", true, true, true},
		{"id", true, true, false},
		{"secret", true, false, true},
		{"note", true, true, true},
		{"note", false, false, false},
		{"missing", true, false, false},
	}

	for _, tt := range tests {
		if got := r.CanGet(tt.name, tt.checkFields); got != tt.canGet {
			t.Errorf("CanGet(%q, %v) = %v, want %v", tt.name, tt.checkFields, got, tt.canGet)
		}
		if got := r.CanSet(tt.name, tt.checkFields); got != tt.canSet {
			t.Errorf("CanSet(%q, %v) = %v, want %v", tt.name, tt.checkFields, got, tt.canSet)
		}
	}
}

func TestResolver_Call(t *testing.T) {
	calls := 0
	acc := NewAccessors().Method("Bump", func(args ...any) (any, error) {
		calls++
		return calls, nil
	})
	r := NewResolver("t", acc, nil)

	if !r.HasMethod("bump") {
		t.Error("expected method lookup to be case-insensitive")
	}
	v, err := r.Call("BUMP")
	if err != nil {
		t.Fatalf("Call(BUMP) error: %v", err)
	}
	if v != 1 {
		t.Errorf("Call(BUMP) = %v, want 1", v)
	}

	_, err = r.Call("missing")
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("Call(missing) = %v, want ErrUnknownMethod", err)
	}
}
