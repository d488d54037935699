package dyno

import "github.com/dshills/dyno/wildcard"

// attachConfig carries the optional parameters of handler attachment.
type attachConfig struct {
	data    any
	prepend bool
}

// AttachOption configures handler attachment.
type AttachOption func(*attachConfig)

// WithData associates an opaque value with the handler; it is installed on
// the Event as Data immediately before each invocation.
func WithData(data any) AttachOption {
	return func(c *attachConfig) {
		c.data = data
	}
}

// Prepend inserts the handler at the front of its list instead of the back.
func Prepend() AttachOption {
	return func(c *attachConfig) {
		c.prepend = true
	}
}

// On attaches a handler for the named event. A name containing a wildcard
// character registers against every matching event. Handlers fire in
// attachment order unless attached with Prepend.
func (o *Object) On(name string, h Handler, opts ...AttachOption) {
	// Declared behaviors materialize on first use of any event surface, so
	// their subscriptions keep declaration position in the lists.
	_ = o.EnsureBehaviors()
	var cfg attachConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	o.attachEntry(name, newEntry(h, cfg.data), !cfg.prepend)
}

// attachEntry inserts an entry into the exact or wildcard table. Malformed
// wildcard patterns are kept as exact names; they can still be detached.
func (o *Object) attachEntry(name string, entry *handlerEntry, appendTo bool) *handlerEntry {
	if wildcard.ContainsWildcard(name) {
		pat, err := wildcard.Compile(name)
		if err == nil {
			if o.wildcards == nil {
				o.wildcards = make(map[string]handlerList)
				o.wildcardPats = make(map[string]*wildcard.Pattern)
			}
			if _, ok := o.wildcards[name]; !ok {
				o.wildcardOrder = append(o.wildcardOrder, name)
				o.wildcardPats[name] = pat
			}
			o.wildcards[name] = o.wildcards[name].insert(entry, appendTo)
			return entry
		}
	}
	if o.exact == nil {
		o.exact = make(map[string]handlerList)
	}
	o.exact[name] = o.exact[name].insert(entry, appendTo)
	return entry
}

// Off detaches handlers for the named event. With a nil handler the whole
// list for the name is removed, exact and wildcard alike, and Off reports
// whether anything existed. With a handler, every occurrence matching by
// identity is removed from the exact-name list first; only when none
// matched there is the wildcard list under the literal name tried.
func (o *Object) Off(name string, h Handler) bool {
	_ = o.EnsureBehaviors()
	if h == nil {
		existed := len(o.exact[name]) > 0 || len(o.wildcards[name]) > 0
		delete(o.exact, name)
		o.pruneWildcard(name)
		return existed
	}
	if list, ok := o.exact[name]; ok {
		if next, removed := list.removeByID(h); removed {
			if len(next) == 0 {
				delete(o.exact, name)
			} else {
				o.exact[name] = next
			}
			return true
		}
	}
	if list, ok := o.wildcards[name]; ok {
		if next, removed := list.removeByID(h); removed {
			if len(next) == 0 {
				o.pruneWildcard(name)
			} else {
				o.wildcards[name] = next
			}
			return true
		}
	}
	return false
}

// removeEntry removes one entry by identity; used by behavior detach.
func (o *Object) removeEntry(name string, target *handlerEntry) {
	if list, ok := o.exact[name]; ok {
		if next, removed := list.removeEntry(target); removed {
			if len(next) == 0 {
				delete(o.exact, name)
			} else {
				o.exact[name] = next
			}
			return
		}
	}
	if list, ok := o.wildcards[name]; ok {
		if next, removed := list.removeEntry(target); removed {
			if len(next) == 0 {
				o.pruneWildcard(name)
			} else {
				o.wildcards[name] = next
			}
		}
	}
}

// pruneWildcard drops an emptied wildcard pattern entirely so triggers stop
// testing dead patterns.
func (o *Object) pruneWildcard(name string) {
	if _, ok := o.wildcards[name]; !ok {
		return
	}
	delete(o.wildcards, name)
	delete(o.wildcardPats, name)
	for i, pat := range o.wildcardOrder {
		if pat == name {
			o.wildcardOrder = append(o.wildcardOrder[:i], o.wildcardOrder[i+1:]...)
			break
		}
	}
}

// HasEventHandlers reports whether any instance handler is attached for
// the name, directly or through a matching wildcard pattern, or whether
// the class-level registry has handlers for it.
func (o *Object) HasEventHandlers(name string) bool {
	// Behaviors that fail to materialize contribute no handlers.
	_ = o.EnsureBehaviors()
	for _, pat := range o.wildcardOrder {
		if len(o.wildcards[pat]) > 0 && o.wildcardPats[pat].Match(name) {
			return true
		}
	}
	if len(o.exact[name]) > 0 {
		return true
	}
	return o.reg().HasHandlers(o, name)
}

// Trigger fires the named event: handlers under matching wildcard patterns
// first, in pattern creation order, then exact-name handlers, each list in
// attachment order. A handler that sets Handled stops the chain, including
// the class-level registry. Otherwise the registry fires handlers
// registered against the object's class hierarchy with the same Event.
//
// A handler error aborts the remainder of the trigger call and propagates;
// later handlers stay uninvoked.
func (o *Object) Trigger(name string, ev *Event) error {
	if err := o.EnsureBehaviors(); err != nil {
		return err
	}
	var firing handlerList
	for _, pat := range o.wildcardOrder {
		if o.wildcardPats[pat].Match(name) {
			firing = append(firing, o.wildcards[pat]...)
		}
	}
	firing = append(firing, o.exact[name]...)

	if len(firing) > 0 {
		if ev == nil {
			ev = &Event{}
		}
		if ev.Sender == nil {
			ev.Sender = o
		}
		ev.Handled = false
		ev.Name = name
		for _, e := range firing {
			ev.Data = e.data
			if err := e.fn(ev); err != nil {
				return err
			}
			if ev.Handled {
				return nil
			}
		}
	}
	return o.reg().Trigger(o, name, ev)
}
