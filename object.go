package dyno

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/dyno/wildcard"
)

// baseClass is the class identity objects get when none is supplied.
var baseClass = NewClass("dyno/object")

// onPrefix and asPrefix are the special Set syntaxes: setting "on save"
// attaches the value as an event handler for "save", setting "as timestamp"
// attaches the value as the behavior named "timestamp".
const (
	onPrefix = "on "
	asPrefix = "as "
)

// Object is an eventable, composable dynamic object: property resolution
// through declared accessors and fields, delegation to attached behaviors,
// and instance-plus-global event dispatch.
//
// An Object and its instance tables are owned by one goroutine at a time;
// only the Registry it points at is safe for shared use.
type Object struct {
	class       *Class
	resolver    *Resolver
	registry    *Registry
	constructor Constructor
	declared    func() map[string]any

	// Instance event tables. Allocated lazily.
	exact         map[string]handlerList
	wildcards     map[string]handlerList
	wildcardPats  map[string]*wildcard.Pattern
	wildcardOrder []string

	// Behavior slots. A nil map means "not yet loaded", distinct from
	// "loaded but empty"; behaviors materialize exactly once per lifetime.
	behaviors     map[string]Behavior
	behaviorOrder []string
	anonSeq       int
}

// ObjectOption configures an Object.
type ObjectOption func(*Object)

// WithAccessors declares the object's own accessor surface.
func WithAccessors(acc *Accessors) ObjectOption {
	return func(o *Object) {
		o.resolver.acc = acc
	}
}

// WithFields declares the object's directly-held fields with their initial
// values. Field names are canonicalized; only declared fields resolve.
func WithFields(fields map[string]any) ObjectOption {
	return func(o *Object) {
		norm := make(map[string]any, len(fields))
		for k, v := range fields {
			norm[canonicalName(k)] = v
		}
		o.resolver.fields = norm
	}
}

// WithRegistry points the object at a class-level event registry other
// than DefaultRegistry.
func WithRegistry(r *Registry) ObjectOption {
	return func(o *Object) {
		o.registry = r
	}
}

// WithConstructor injects the construction service used to realize
// behavior specs that are not already Behavior instances.
func WithConstructor(c Constructor) ObjectOption {
	return func(o *Object) {
		o.constructor = c
	}
}

// WithBehaviors sets the behavior declaration point: specs returned here
// are attached automatically the first time behaviors are materialized.
func WithBehaviors(declare func() map[string]any) ObjectOption {
	return func(o *Object) {
		o.declared = declare
	}
}

// NewObject creates an object with the given class identity. A nil class
// gets the generic base class.
func NewObject(class *Class, opts ...ObjectOption) *Object {
	if class == nil {
		class = baseClass
	}
	o := &Object{class: class}
	o.resolver = NewResolver(class.Name(), nil, nil)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Class returns the object's class identity.
func (o *Object) Class() *Class {
	return o.class
}

// Resolver returns the object's own-path resolver: accessors plus declared
// fields, without behavior delegation.
func (o *Object) Resolver() *Resolver {
	return o.resolver
}

// reg returns the registry in effect for this object.
func (o *Object) reg() *Registry {
	if o.registry != nil {
		return o.registry
	}
	return DefaultRegistry
}

// Get resolves a property read: own getter, own field, then attached
// behaviors in attachment order. An unresolvable name fails with
// ErrUnknownProperty; a write-only name fails with ErrInvalidCall.
func (o *Object) Get(name string) (any, error) {
	r := o.resolver
	if fn, ok := r.getter(name); ok {
		return fn(), nil
	}
	if r.hasField(name) {
		return r.fields[canonicalName(name)], nil
	}
	if err := o.EnsureBehaviors(); err != nil {
		return nil, err
	}
	for _, key := range o.behaviorOrder {
		if br := o.behaviors[key].Resolver(); br.CanGet(name, true) {
			return br.Get(name, true)
		}
	}
	if _, ok := r.setter(name); ok {
		return nil, invalidCall(o.class.Name(), "get", name)
	}
	return nil, unknownProperty(o.class.Name(), "get", name)
}

// Set resolves a property write: own setter, the special "on "/"as "
// prefixes, own field, then attached behaviors in attachment order. A
// read-only name fails with ErrInvalidCall.
func (o *Object) Set(name string, value any) error {
	r := o.resolver
	if fn, ok := r.setter(name); ok {
		return fn(value)
	}
	if strings.HasPrefix(name, onPrefix) {
		h, err := coerceHandler(value)
		if err != nil {
			return &PropertyError{Class: o.class.Name(), Property: name, Op: "set", Err: err}
		}
		o.On(strings.TrimSpace(name[len(onPrefix):]), h)
		return nil
	}
	if strings.HasPrefix(name, asPrefix) {
		_, err := o.AttachBehavior(strings.TrimSpace(name[len(asPrefix):]), value)
		return err
	}
	if r.hasField(name) {
		r.fields[canonicalName(name)] = value
		return nil
	}
	if err := o.EnsureBehaviors(); err != nil {
		return err
	}
	for _, key := range o.behaviorOrder {
		if br := o.behaviors[key].Resolver(); br.CanSet(name, true) {
			return br.Set(name, value, true)
		}
	}
	if _, ok := r.getter(name); ok {
		return invalidCall(o.class.Name(), "set", name)
	}
	return unknownProperty(o.class.Name(), "set", name)
}

// IsSet reports whether the property resolves to a non-nil value. Never
// fails; an unresolvable name is simply not set.
func (o *Object) IsSet(name string) bool {
	r := o.resolver
	if fn, ok := r.getter(name); ok {
		return !isNilValue(fn())
	}
	if r.hasField(name) {
		return !isNilValue(r.fields[canonicalName(name)])
	}
	if o.EnsureBehaviors() != nil {
		return false
	}
	for _, key := range o.behaviorOrder {
		if br := o.behaviors[key].Resolver(); br.CanGet(name, true) {
			v, err := br.Get(name, true)
			return err == nil && !isNilValue(v)
		}
	}
	return false
}

// Unset clears the property through its setter, or through the first
// behavior that can write it. A read-only name fails with ErrInvalidCall;
// an unknown one is a silent no-op.
func (o *Object) Unset(name string) error {
	r := o.resolver
	if fn, ok := r.setter(name); ok {
		return fn(nil)
	}
	if err := o.EnsureBehaviors(); err != nil {
		return err
	}
	for _, key := range o.behaviorOrder {
		if br := o.behaviors[key].Resolver(); br.CanSet(name, true) {
			return br.Set(name, nil, true)
		}
	}
	if _, ok := r.getter(name); ok {
		return invalidCall(o.class.Name(), "unset", name)
	}
	return nil
}

// HasProperty reports whether the property is readable or writable.
func (o *Object) HasProperty(name string, checkFields, checkBehaviors bool) bool {
	return o.CanGetProperty(name, checkFields, checkBehaviors) ||
		o.CanSetProperty(name, checkFields, checkBehaviors)
}

// CanGetProperty reports whether the property is readable, optionally
// consulting declared fields and attached behaviors. Behaviors that fail
// to materialize are treated as absent.
func (o *Object) CanGetProperty(name string, checkFields, checkBehaviors bool) bool {
	if o.resolver.CanGet(name, checkFields) {
		return true
	}
	if !checkBehaviors || o.EnsureBehaviors() != nil {
		return false
	}
	for _, key := range o.behaviorOrder {
		if o.behaviors[key].Resolver().CanGet(name, checkFields) {
			return true
		}
	}
	return false
}

// CanSetProperty reports whether the property is writable, optionally
// consulting declared fields and attached behaviors.
func (o *Object) CanSetProperty(name string, checkFields, checkBehaviors bool) bool {
	if o.resolver.CanSet(name, checkFields) {
		return true
	}
	if !checkBehaviors || o.EnsureBehaviors() != nil {
		return false
	}
	for _, key := range o.behaviorOrder {
		if o.behaviors[key].Resolver().CanSet(name, checkFields) {
			return true
		}
	}
	return false
}

// HasMethod reports whether an invocable of the name exists on the object
// or, when checkBehaviors is set, on an attached behavior.
func (o *Object) HasMethod(name string, checkBehaviors bool) bool {
	if o.resolver.HasMethod(name) {
		return true
	}
	if !checkBehaviors || o.EnsureBehaviors() != nil {
		return false
	}
	for _, key := range o.behaviorOrder {
		if o.behaviors[key].Resolver().HasMethod(name) {
			return true
		}
	}
	return false
}

// Call invokes the named method on the object, or on the first attached
// behavior that declares it. Fails with ErrUnknownMethod when nothing
// resolves the name.
func (o *Object) Call(name string, args ...any) (any, error) {
	if fn, ok := o.resolver.method(name); ok {
		return fn(args...)
	}
	if err := o.EnsureBehaviors(); err != nil {
		return nil, err
	}
	for _, key := range o.behaviorOrder {
		if br := o.behaviors[key].Resolver(); br.HasMethod(name) {
			return br.Call(name, args...)
		}
	}
	return nil, &MethodError{Class: o.class.Name(), Method: name}
}

// EnsureBehaviors materializes declared behaviors. Idempotent: the first
// call loads and attaches every spec from the declaration point; later
// calls are no-ops even when the declaration produced nothing.
func (o *Object) EnsureBehaviors() error {
	if o.behaviors != nil {
		return nil
	}
	o.behaviors = make(map[string]Behavior)
	if o.declared == nil {
		return nil
	}
	specs := o.declared()
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := o.attachBehaviorInternal(name, specs[name]); err != nil {
			return err
		}
	}
	return nil
}

// AttachBehavior attaches a behavior under the given slot name, realizing
// the spec through the construction service when it is not already a
// Behavior. An empty name gets an order-assigned anonymous slot. Attaching
// over an occupied slot fully detaches the old occupant first.
func (o *Object) AttachBehavior(name string, spec any) (Behavior, error) {
	if err := o.EnsureBehaviors(); err != nil {
		return nil, err
	}
	return o.attachBehaviorInternal(name, spec)
}

// AttachBehaviors attaches every spec in the mapping, in sorted slot-name
// order.
func (o *Object) AttachBehaviors(specs map[string]any) error {
	if err := o.EnsureBehaviors(); err != nil {
		return err
	}
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := o.attachBehaviorInternal(name, specs[name]); err != nil {
			return err
		}
	}
	return nil
}

// DetachBehavior detaches and returns the behavior in the named slot, or
// nil when the slot is empty.
func (o *Object) DetachBehavior(name string) Behavior {
	// Materialization failures mean the slot could not exist; treat as empty.
	_ = o.EnsureBehaviors()
	b, ok := o.behaviors[name]
	if !ok {
		return nil
	}
	b.Detach()
	delete(o.behaviors, name)
	for i, key := range o.behaviorOrder {
		if key == name {
			o.behaviorOrder = append(o.behaviorOrder[:i], o.behaviorOrder[i+1:]...)
			break
		}
	}
	return b
}

// DetachBehaviors detaches every attached behavior.
func (o *Object) DetachBehaviors() {
	_ = o.EnsureBehaviors()
	for _, name := range append([]string{}, o.behaviorOrder...) {
		o.DetachBehavior(name)
	}
}

// GetBehavior returns the behavior in the named slot, or nil.
func (o *Object) GetBehavior(name string) Behavior {
	_ = o.EnsureBehaviors()
	return o.behaviors[name]
}

// Behaviors returns the attached behaviors keyed by slot name.
func (o *Object) Behaviors() map[string]Behavior {
	_ = o.EnsureBehaviors()
	out := make(map[string]Behavior, len(o.behaviors))
	for name, b := range o.behaviors {
		out[name] = b
	}
	return out
}

// attachBehaviorInternal realizes the spec, resolves its declared event
// handlers, replaces any previous slot occupant (completing its detach
// before anything new is installed), and installs the new behavior's
// handlers in declaration order.
func (o *Object) attachBehaviorInternal(name string, spec any) (Behavior, error) {
	b, err := o.coerceBehavior(spec)
	if err != nil {
		return nil, err
	}
	handlers, err := resolveDeclaredEvents(b)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = o.anonKey()
	}
	if old, ok := o.behaviors[name]; ok {
		old.Detach()
	} else {
		o.behaviorOrder = append(o.behaviorOrder, name)
	}
	// A behavior still bound elsewhere must complete that teardown first.
	b.Detach()
	bb := b.base()
	bb.owner = o
	for _, dh := range handlers {
		entry := o.attachEntry(dh.name, newEntry(dh.fn, nil), true)
		bb.installed = append(bb.installed, installedHandler{name: dh.name, entry: entry})
	}
	o.behaviors[name] = b
	return b, nil
}

// anonKey assigns the next free integer-like anonymous slot key.
func (o *Object) anonKey() string {
	for {
		key := strconv.Itoa(o.anonSeq)
		o.anonSeq++
		if _, taken := o.behaviors[key]; !taken {
			return key
		}
	}
}

// coerceBehavior realizes a spec into a Behavior instance.
func (o *Object) coerceBehavior(spec any) (Behavior, error) {
	if b, ok := spec.(Behavior); ok {
		return b, nil
	}
	if o.constructor == nil {
		return nil, fmt.Errorf("attach behavior on %s: %w", o.class.Name(), ErrNoConstructor)
	}
	return o.constructor.Construct(spec)
}

// declaredHandler is one resolved event subscription of a behavior.
type declaredHandler struct {
	name string
	fn   Handler
}

// resolveDeclaredEvents resolves a behavior's Events mapping into concrete
// handlers. String values name one of the behavior's own methods. Event
// names are installed in sorted order to keep declaration order
// deterministic across map iteration.
func resolveDeclaredEvents(b Behavior) ([]declaredHandler, error) {
	events := b.Events()
	if len(events) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(events))
	for name := range events {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]declaredHandler, 0, len(names))
	for _, evName := range names {
		raw := events[evName]
		if ref, ok := raw.(string); ok {
			br := b.Resolver()
			if !br.HasMethod(ref) {
				return nil, fmt.Errorf("behavior event %q references undeclared method %q: %w", evName, ref, ErrUnknownMethod)
			}
			method := ref
			out = append(out, declaredHandler{name: evName, fn: func(e *Event) error {
				_, err := br.Call(method, e)
				return err
			}})
			continue
		}
		fn, err := coerceHandler(raw)
		if err != nil {
			return nil, fmt.Errorf("behavior event %q: %w", evName, err)
		}
		out = append(out, declaredHandler{name: evName, fn: fn})
	}
	return out, nil
}

// coerceHandler accepts the handler shapes the attach surfaces allow.
func coerceHandler(v any) (Handler, error) {
	switch h := v.(type) {
	case Handler:
		return h, nil
	case func(*Event) error:
		return h, nil
	case func(*Event):
		return func(e *Event) error {
			h(e)
			return nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %T is not an event handler", ErrInvalidCall, v)
	}
}

// Clone returns a copy of the object with the same class identity,
// accessor surface, field values, registry, and construction wiring, but
// with empty instance event tables and an unloaded behavior cache: a clone
// never inherits the source's attached behaviors or instance handlers.
// Accessor closures still reference whatever they were built over.
func (o *Object) Clone() *Object {
	c := &Object{
		class:       o.class,
		registry:    o.registry,
		constructor: o.constructor,
		declared:    o.declared,
	}
	var fields map[string]any
	if o.resolver.fields != nil {
		fields = make(map[string]any, len(o.resolver.fields))
		for k, v := range o.resolver.fields {
			fields[k] = v
		}
	}
	c.resolver = &Resolver{class: o.resolver.class, acc: o.resolver.acc, fields: fields}
	return c
}
