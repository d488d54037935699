package dyno

// Behavior is a composable module attached to an Object. While attached,
// the properties and methods its Resolver declares appear as the host's
// own, and the event subscriptions it declares through Events are installed
// on the host's instance event table.
//
// Concrete behaviors embed Base, which supplies the lifecycle machinery,
// and shadow Events and Resolver as needed:
//
//	type audit struct {
//		dyno.Base
//		saves int
//	}
//
//	func (a *audit) Events() map[string]any {
//		return map[string]any{"save": a.onSave}
//	}
//
// A behavior belongs to at most one host at a time. The host detaches the
// previous occupant of a slot before installing a new one; behaviors never
// manage that themselves.
type Behavior interface {
	// Events returns the event subscriptions the behavior wants on its
	// host: event name to handler. A value may be a Handler, a plain
	// func(*Event) error, or a string naming one of the behavior's own
	// methods, resolved against the behavior at attach time.
	Events() map[string]any

	// Resolver returns the behavior's member descriptor: the properties
	// and methods it contributes to the host.
	Resolver() *Resolver

	// Owner returns the host the behavior is attached to, or nil.
	Owner() *Object

	// Detach removes exactly the handlers installed at attach time from
	// the host and clears the owner reference. Detaching an already
	// detached behavior is a no-op.
	Detach()

	// base forces concrete behaviors to embed Base.
	base() *Base
}

// Constructor realizes behavior specs that are not already behavior
// instances. The runtime calls this single entry point and never inspects
// construction internals.
type Constructor interface {
	Construct(spec any) (Behavior, error)
}

// installedHandler records one handler entry a behavior installed on its
// host, so detach can remove exactly that entry.
type installedHandler struct {
	name  string
	entry *handlerEntry
}

// Base provides the Behavior lifecycle machinery for embedding: the owner
// reference and the bookkeeping of installed handlers. The zero value is
// ready to use.
type Base struct {
	owner     *Object
	resolver  *Resolver
	installed []installedHandler
}

// Events returns no subscriptions. Concrete behaviors shadow this.
func (b *Base) Events() map[string]any {
	return nil
}

// Resolver returns the behavior's member descriptor, creating an empty one
// on first use if none was set.
func (b *Base) Resolver() *Resolver {
	if b.resolver == nil {
		b.resolver = NewResolver("", nil, nil)
	}
	return b.resolver
}

// SetResolver installs the behavior's member descriptor. Typically called
// once while constructing the concrete behavior.
func (b *Base) SetResolver(r *Resolver) {
	b.resolver = r
}

// Owner returns the current host, or nil when detached.
func (b *Base) Owner() *Object {
	return b.owner
}

// Detach removes the handlers installed at attach time from the host,
// matched by entry identity, then clears the owner reference.
func (b *Base) Detach() {
	if b.owner == nil {
		return
	}
	for _, ih := range b.installed {
		b.owner.removeEntry(ih.name, ih.entry)
	}
	b.installed = nil
	b.owner = nil
}

func (b *Base) base() *Base {
	return b
}
