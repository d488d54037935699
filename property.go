package dyno

import (
	"reflect"
	"strings"
)

// Getter reads one named property.
type Getter func() any

// Setter writes one named property. Implementations may reject values they
// cannot hold.
type Setter func(v any) error

// Method is an invocable member of an object or behavior.
type Method func(args ...any) (any, error)

// canonicalName normalizes a property or method name for lookup. Matching
// is case-insensitive, so names are folded once here rather than compared
// case-insensitively per call.
func canonicalName(name string) string {
	return strings.ToLower(name)
}

// Accessors is the fixed, pre-declared member surface of an object or
// behavior: getter and setter functions keyed by canonical property name,
// and invocable methods keyed the same way. Capability discovery is a
// lookup against this table, not reflection.
type Accessors struct {
	getters map[string]Getter
	setters map[string]Setter
	methods map[string]Method
}

// NewAccessors creates an empty accessor table.
func NewAccessors() *Accessors {
	return &Accessors{
		getters: make(map[string]Getter),
		setters: make(map[string]Setter),
		methods: make(map[string]Method),
	}
}

// Getter declares a read accessor for the named property.
func (a *Accessors) Getter(name string, fn Getter) *Accessors {
	a.getters[canonicalName(name)] = fn
	return a
}

// Setter declares a write accessor for the named property.
func (a *Accessors) Setter(name string, fn Setter) *Accessors {
	a.setters[canonicalName(name)] = fn
	return a
}

// Property declares both accessors for the named property. Either function
// may be nil to declare a one-way property.
func (a *Accessors) Property(name string, get Getter, set Setter) *Accessors {
	if get != nil {
		a.Getter(name, get)
	}
	if set != nil {
		a.Setter(name, set)
	}
	return a
}

// Method declares an invocable member.
func (a *Accessors) Method(name string, fn Method) *Accessors {
	a.methods[canonicalName(name)] = fn
	return a
}

// Resolver implements the get/set/has/unset protocol for a single owner
// using its declared accessors and fields. It is the own-object resolution
// path of an Object and the member descriptor of a behavior.
type Resolver struct {
	class  string
	acc    *Accessors
	fields map[string]any
}

// NewResolver creates a resolver over the given accessor table and declared
// fields. The class name is used in error messages only. Either argument
// may be nil.
func NewResolver(class string, acc *Accessors, fields map[string]any) *Resolver {
	if acc == nil {
		acc = NewAccessors()
	}
	if fields != nil {
		norm := make(map[string]any, len(fields))
		for k, v := range fields {
			norm[canonicalName(k)] = v
		}
		fields = norm
	}
	return &Resolver{class: class, acc: acc, fields: fields}
}

func (r *Resolver) getter(name string) (Getter, bool) {
	fn, ok := r.acc.getters[canonicalName(name)]
	return fn, ok
}

func (r *Resolver) setter(name string) (Setter, bool) {
	fn, ok := r.acc.setters[canonicalName(name)]
	return fn, ok
}

func (r *Resolver) method(name string) (Method, bool) {
	fn, ok := r.acc.methods[canonicalName(name)]
	return fn, ok
}

// hasField reports whether the named field was declared.
func (r *Resolver) hasField(name string) bool {
	if r.fields == nil {
		return false
	}
	_, ok := r.fields[canonicalName(name)]
	return ok
}

// Get resolves a read. Precedence: getter, then declared field when
// checkFields is set. A name with a setter but no getter is write-only and
// fails with ErrInvalidCall; an unresolvable name fails with
// ErrUnknownProperty.
func (r *Resolver) Get(name string, checkFields bool) (any, error) {
	if fn, ok := r.getter(name); ok {
		return fn(), nil
	}
	if checkFields && r.hasField(name) {
		return r.fields[canonicalName(name)], nil
	}
	if _, ok := r.setter(name); ok {
		return nil, invalidCall(r.class, "get", name)
	}
	return nil, unknownProperty(r.class, "get", name)
}

// Set resolves a write, mirroring Get for read-only detection.
func (r *Resolver) Set(name string, value any, checkFields bool) error {
	if fn, ok := r.setter(name); ok {
		return fn(value)
	}
	if checkFields && r.hasField(name) {
		r.fields[canonicalName(name)] = value
		return nil
	}
	if _, ok := r.getter(name); ok {
		return invalidCall(r.class, "set", name)
	}
	return unknownProperty(r.class, "set", name)
}

// IsSet reports whether the property resolves to a non-nil value. It never
// fails: an unresolvable name is simply not set.
func (r *Resolver) IsSet(name string) bool {
	if fn, ok := r.getter(name); ok {
		return !isNilValue(fn())
	}
	if r.hasField(name) {
		return !isNilValue(r.fields[canonicalName(name)])
	}
	return false
}

// Unset clears the property by writing the nil sentinel through its setter.
// A getter-only property fails with ErrInvalidCall; a name with neither
// accessor is a silent no-op.
func (r *Resolver) Unset(name string) error {
	if fn, ok := r.setter(name); ok {
		return fn(nil)
	}
	if _, ok := r.getter(name); ok {
		return invalidCall(r.class, "unset", name)
	}
	return nil
}

// CanGet reports whether the property is readable here.
func (r *Resolver) CanGet(name string, checkFields bool) bool {
	if _, ok := r.getter(name); ok {
		return true
	}
	return checkFields && r.hasField(name)
}

// CanSet reports whether the property is writable here.
func (r *Resolver) CanSet(name string, checkFields bool) bool {
	if _, ok := r.setter(name); ok {
		return true
	}
	return checkFields && r.hasField(name)
}

// HasMethod reports whether an invocable of the name is declared.
func (r *Resolver) HasMethod(name string) bool {
	_, ok := r.method(name)
	return ok
}

// Call invokes a declared method.
func (r *Resolver) Call(name string, args ...any) (any, error) {
	fn, ok := r.method(name)
	if !ok {
		return nil, &MethodError{Class: r.class, Method: name}
	}
	return fn(args...)
}

// isNilValue reports whether v is the nil sentinel, including typed nils
// boxed in an interface.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
