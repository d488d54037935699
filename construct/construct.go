package construct

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/dyno"
)

// Sentinel errors for spec realization.
var (
	// ErrUnknownType is returned when a spec names a type the factory has
	// no constructor for.
	ErrUnknownType = errors.New("unknown behavior type")

	// ErrBadSpec is returned when a spec document is malformed or of an
	// unsupported shape.
	ErrBadSpec = errors.New("bad behavior spec")
)

// Factory builds behaviors from specs. It implements dyno.Constructor and
// is safe for concurrent use.
type Factory struct {
	mu    sync.RWMutex
	types map[string]func() dyno.Behavior
	log   zerolog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger enables debug-level tracing of construction.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Factory) {
		f.log = log
	}
}

// NewFactory creates an empty factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		types: make(map[string]func() dyno.Behavior),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Register maps a type name to a constructor function. Later registrations
// under the same name replace earlier ones.
func (f *Factory) Register(name string, fn func() dyno.Behavior) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types[name] = fn
}

// Construct realizes a spec into a Behavior. See the package documentation
// for accepted spec shapes.
func (f *Factory) Construct(spec any) (dyno.Behavior, error) {
	switch s := spec.(type) {
	case dyno.Behavior:
		return s, nil
	case string:
		return f.construct(s, nil)
	case map[string]any:
		class, _ := s["class"].(string)
		if class == "" {
			return nil, fmt.Errorf("%w: missing class", ErrBadSpec)
		}
		props, _ := s["properties"].(map[string]any)
		return f.construct(class, props)
	case []byte:
		return f.constructJSON(gjson.ParseBytes(s))
	case gjson.Result:
		return f.constructJSON(s)
	default:
		return nil, fmt.Errorf("%w: unsupported spec type %T", ErrBadSpec, spec)
	}
}

// constructJSON realizes a parsed JSON spec document.
func (f *Factory) constructJSON(doc gjson.Result) (dyno.Behavior, error) {
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: spec document is not an object", ErrBadSpec)
	}
	class := doc.Get("class").String()
	if class == "" {
		return nil, fmt.Errorf("%w: missing class", ErrBadSpec)
	}
	var props map[string]any
	if p := doc.Get("properties"); p.IsObject() {
		props = make(map[string]any)
		p.ForEach(func(key, value gjson.Result) bool {
			props[key.String()] = value.Value()
			return true
		})
	}
	return f.construct(class, props)
}

// construct instantiates the named type and applies initial properties
// through the behavior's property protocol.
func (f *Factory) construct(class string, props map[string]any) (dyno.Behavior, error) {
	f.mu.RLock()
	fn, ok := f.types[class]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, class)
	}
	b := fn()
	for name, value := range props {
		if err := b.Resolver().Set(name, value, true); err != nil {
			return nil, fmt.Errorf("construct %q: %w", class, err)
		}
	}
	f.log.Debug().Str("class", class).Int("properties", len(props)).Msg("behavior constructed")
	return b, nil
}

// Snapshot exports the named properties of an object as a JSON document.
// Dotted names become nested paths, so "owner.name" lands under an "owner"
// object.
func Snapshot(o *dyno.Object, names ...string) ([]byte, error) {
	out := []byte("{}")
	for _, name := range names {
		v, err := o.Get(name)
		if err != nil {
			return nil, err
		}
		out, err = sjson.SetBytes(out, name, v)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
