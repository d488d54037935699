package dyno

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/dyno/wildcard"
)

// DefaultRegistry is the registry objects use unless pointed elsewhere with
// WithRegistry. It is process-wide shared state with an explicit reset
// (OffAll); nothing tears it down implicitly.
var DefaultRegistry = NewRegistry()

// Registry holds class-level event handlers shared by every instance of
// every class: exact tables keyed by event name then class name, and
// wildcard tables keyed by event-name pattern then class-name pattern.
// Pattern creation order is significant and preserved.
//
// A single mutex guards all tables; registration and triggering are safe
// from multiple goroutines. Handlers fire outside the lock, so a handler
// may itself register or trigger without deadlocking.
type Registry struct {
	mu sync.Mutex

	// exact[eventName][className]
	exact map[string]map[string]handlerList

	// wild[namePattern][classPattern], with creation order per level.
	wild           map[string]map[string]handlerList
	wildNameOrder  []string
	wildClassOrder map[string][]string

	// pats caches compiled patterns for both key levels. A malformed
	// pattern caches as nil and matches nothing.
	pats map[string]*wildcard.Pattern

	log zerolog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger enables debug-level tracing of registration lifecycle. The
// dispatch path itself never logs.
func WithLogger(log zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates an empty class-level event registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		exact:          make(map[string]map[string]handlerList),
		wild:           make(map[string]map[string]handlerList),
		wildClassOrder: make(map[string][]string),
		pats:           make(map[string]*wildcard.Pattern),
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// On registers a handler for the named event on the named class. Either
// key may be a wildcard pattern; a wildcard in either routes the handler
// to the wildcard tables. Leading class-name separators are stripped so
// fully- and partially-qualified forms match.
func (r *Registry) On(class, name string, h Handler, opts ...AttachOption) {
	class = normalizeClassName(class)
	var cfg attachConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	entry := newEntry(h, cfg.data)

	r.mu.Lock()
	defer r.mu.Unlock()

	if wildcard.ContainsWildcard(class) || wildcard.ContainsWildcard(name) {
		cells, ok := r.wild[name]
		if !ok {
			cells = make(map[string]handlerList)
			r.wild[name] = cells
			r.wildNameOrder = append(r.wildNameOrder, name)
		}
		if _, ok := cells[class]; !ok {
			r.wildClassOrder[name] = append(r.wildClassOrder[name], class)
		}
		cells[class] = cells[class].insert(entry, !cfg.prepend)
	} else {
		cells, ok := r.exact[name]
		if !ok {
			cells = make(map[string]handlerList)
			r.exact[name] = cells
		}
		cells[class] = cells[class].insert(entry, !cfg.prepend)
	}
	r.log.Debug().Str("class", class).Str("event", name).Msg("class-level handler registered")
}

// Off removes handlers from the (name, class) cell. With a nil handler the
// whole cell is removed and Off reports whether it existed; with a handler
// every identity match is removed and emptied cells are pruned.
func (r *Registry) Off(class, name string, h Handler) bool {
	class = normalizeClassName(class)

	r.mu.Lock()
	defer r.mu.Unlock()

	wild := wildcard.ContainsWildcard(class) || wildcard.ContainsWildcard(name)
	var cells map[string]handlerList
	if wild {
		cells = r.wild[name]
	} else {
		cells = r.exact[name]
	}
	if cells == nil {
		return false
	}
	list, ok := cells[class]
	if !ok {
		return false
	}

	if h == nil {
		r.dropCell(wild, name, class, cells)
		r.log.Debug().Str("class", class).Str("event", name).Msg("class-level handlers cleared")
		return len(list) > 0
	}

	next, removed := list.removeByID(h)
	if !removed {
		return false
	}
	if len(next) == 0 {
		r.dropCell(wild, name, class, cells)
	} else {
		cells[class] = next
	}
	return true
}

// dropCell removes one (name, class) cell and prunes emptied tables and
// order bookkeeping. Caller holds the lock.
func (r *Registry) dropCell(wild bool, name, class string, cells map[string]handlerList) {
	delete(cells, class)
	if !wild {
		if len(cells) == 0 {
			delete(r.exact, name)
		}
		return
	}
	order := r.wildClassOrder[name]
	for i, c := range order {
		if c == class {
			r.wildClassOrder[name] = append(order[:i], order[i+1:]...)
			break
		}
	}
	if len(cells) == 0 {
		delete(r.wild, name)
		delete(r.wildClassOrder, name)
		for i, n := range r.wildNameOrder {
			if n == name {
				r.wildNameOrder = append(r.wildNameOrder[:i], r.wildNameOrder[i+1:]...)
				break
			}
		}
	}
}

// OffAll clears every table: the global reset.
func (r *Registry) OffAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact = make(map[string]map[string]handlerList)
	r.wild = make(map[string]map[string]handlerList)
	r.wildNameOrder = nil
	r.wildClassOrder = make(map[string][]string)
	r.log.Debug().Msg("class-level registry reset")
}

// pat returns the cached compiled pattern for s. Caller holds the lock.
func (r *Registry) pat(s string) *wildcard.Pattern {
	p, ok := r.pats[s]
	if !ok {
		p, _ = wildcard.Compile(s)
		r.pats[s] = p
	}
	return p
}

// matches tests a candidate against a stored key, which may be a literal
// or a pattern.
func (r *Registry) matches(key, candidate string) bool {
	if !wildcard.ContainsWildcard(key) {
		return key == candidate
	}
	p := r.pat(key)
	return p != nil && p.Match(candidate)
}

// classOf extracts the class identity from a trigger target: an *Object,
// a *Class, or a class name string.
func classOf(target any) *Class {
	switch t := target.(type) {
	case *Object:
		return t.Class()
	case *Class:
		return t
	case string:
		return NewClass(t)
	default:
		return nil
	}
}

// HasHandlers reports whether any handler is registered for the event name
// against the target's class, an ancestor, or an implemented capability,
// through the exact or wildcard tables.
func (r *Registry) HasHandlers(target any, name string) bool {
	cls := classOf(target)
	if cls == nil {
		return false
	}
	candidates := cls.candidates()

	r.mu.Lock()
	defer r.mu.Unlock()

	if cells := r.exact[name]; cells != nil {
		for _, c := range candidates {
			if len(cells[c]) > 0 {
				return true
			}
		}
	}
	for _, namePat := range r.wildNameOrder {
		if !r.matches(namePat, name) {
			continue
		}
		cells := r.wild[namePat]
		for _, classPat := range r.wildClassOrder[namePat] {
			if len(cells[classPat]) == 0 {
				continue
			}
			for _, c := range candidates {
				if r.matches(classPat, c) {
					return true
				}
			}
		}
	}
	return false
}

// Trigger fires class-level handlers for the event on the target's class
// hierarchy. The walk visits the class itself, then its ancestors, then
// its capabilities; for each the matching wildcard cells (each wildcard
// class pattern contributes to at most one class per trigger, first match
// wins) merge with the exact cell and fire in order. A handler that sets
// Handled stops the entire walk; a handler error aborts and propagates.
func (r *Registry) Trigger(target any, name string, ev *Event) error {
	cls := classOf(target)
	if cls == nil {
		return nil
	}
	candidates := cls.candidates()

	type pendingCell struct {
		classPat string
		list     handlerList
	}

	r.mu.Lock()
	var pending []pendingCell
	for _, namePat := range r.wildNameOrder {
		if !r.matches(namePat, name) {
			continue
		}
		cells := r.wild[namePat]
		for _, classPat := range r.wildClassOrder[namePat] {
			if len(cells[classPat]) > 0 {
				pending = append(pending, pendingCell{classPat: classPat, list: cells[classPat]})
			}
		}
	}
	used := make([]bool, len(pending))
	var plan []handlerList
	for _, class := range candidates {
		var merged handlerList
		for i := range pending {
			if used[i] {
				continue
			}
			if r.matches(pending[i].classPat, class) {
				used[i] = true
				merged = append(merged, pending[i].list...)
			}
		}
		if cells := r.exact[name]; cells != nil {
			merged = append(merged, cells[class]...)
		}
		if len(merged) > 0 {
			plan = append(plan, merged)
		}
	}
	r.mu.Unlock()

	if len(plan) == 0 {
		return nil
	}
	if ev == nil {
		ev = &Event{}
	}
	if ev.Sender == nil {
		if obj, ok := target.(*Object); ok {
			ev.Sender = obj
		}
	}
	ev.Handled = false
	ev.Name = name
	for _, merged := range plan {
		for _, e := range merged {
			ev.Data = e.data
			if err := e.fn(ev); err != nil {
				return err
			}
			if ev.Handled {
				return nil
			}
		}
	}
	return nil
}
