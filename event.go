package dyno

import "reflect"

// Event is the context passed by reference through a handler chain. A fresh
// Event is created per Trigger call unless the caller supplies one.
type Event struct {
	// Name is the event name this Event is firing under. Set by Trigger.
	Name string

	// Sender is the object the event was triggered on. Trigger fills it in
	// when unset, so it is only worth assigning when triggering on behalf of
	// another object.
	Sender any

	// Handled stops the remaining handlers in the chain when set to true by
	// a handler. It does not stop the handler currently running.
	Handled bool

	// Data is the opaque value that was supplied when the current handler
	// was attached. Installed immediately before each handler invocation.
	Data any
}

// Handler is a callback invoked when its event fires. A non-nil error aborts
// the remainder of the trigger call and propagates to the caller; the
// runtime neither swallows nor logs handler failures.
type Handler func(e *Event) error

// handlerID returns a comparable identity for a handler. Two handlers
// compare equal when they share a code pointer; distinct closures created
// from the same function literal are therefore indistinguishable, which is
// as close to reference identity as Go allows.
func handlerID(h Handler) uintptr {
	if h == nil {
		return 0
	}
	return reflect.ValueOf(h).Pointer()
}

// handlerEntry is one attached handler plus its opaque user data. Entries
// are held by pointer so behavior teardown can remove exactly the entries
// it installed.
type handlerEntry struct {
	fn   Handler
	data any
	id   uintptr
}

func newEntry(h Handler, data any) *handlerEntry {
	return &handlerEntry{fn: h, data: data, id: handlerID(h)}
}

// handlerList is an ordered handler chain. Insertion order is significant.
type handlerList []*handlerEntry

// insert appends or prepends an entry.
func (l handlerList) insert(e *handlerEntry, appendTo bool) handlerList {
	if appendTo {
		return append(l, e)
	}
	return append(handlerList{e}, l...)
}

// removeByID removes every entry whose handler identity matches h.
// Reports whether anything was removed.
func (l handlerList) removeByID(h Handler) (handlerList, bool) {
	id := handlerID(h)
	out := l[:0]
	removed := false
	for _, e := range l {
		if e.id == id {
			removed = true
			continue
		}
		out = append(out, e)
	}
	if !removed {
		return l, false
	}
	return out, true
}

// removeEntry removes the exact entry, matched by pointer.
func (l handlerList) removeEntry(target *handlerEntry) (handlerList, bool) {
	for i, e := range l {
		if e == target {
			return append(l[:i], l[i+1:]...), true
		}
	}
	return l, false
}
