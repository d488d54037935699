package dyno

import "strings"

// ClassSeparator separates namespace segments in class names, as in
// "app/models/user". Leading separators are stripped, so "/app/models/user"
// and "app/models/user" name the same class.
const ClassSeparator = "/"

// Class describes an object's type identity for class-level event lookup:
// a namespaced name, an optional parent class, and the capability names the
// class implements. Go has no inheritance, so the hierarchy the registry
// walks is declared here as data.
type Class struct {
	name         string
	parent       *Class
	capabilities []string
}

// ClassOption configures a Class.
type ClassOption func(*Class)

// WithParent sets the parent class.
func WithParent(parent *Class) ClassOption {
	return func(c *Class) {
		c.parent = parent
	}
}

// WithCapabilities declares capability names the class implements.
func WithCapabilities(names ...string) ClassOption {
	return func(c *Class) {
		for _, n := range names {
			c.capabilities = append(c.capabilities, normalizeClassName(n))
		}
	}
}

// NewClass creates a class descriptor with the given namespaced name.
func NewClass(name string, opts ...ClassOption) *Class {
	c := &Class{name: normalizeClassName(name)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the normalized class name.
func (c *Class) Name() string {
	return c.name
}

// Parent returns the parent class, or nil for a root class.
func (c *Class) Parent() *Class {
	return c.parent
}

// Capabilities returns the capability names declared on this class only.
func (c *Class) Capabilities() []string {
	return append([]string{}, c.capabilities...)
}

// candidates returns the candidate class set for event lookup: the class
// itself, then its ancestors root-ward, then every capability implemented
// anywhere in the chain, deduplicated in first-seen order.
func (c *Class) candidates() []string {
	var names []string
	for cur := c; cur != nil; cur = cur.parent {
		names = append(names, cur.name)
	}
	seen := make(map[string]bool)
	for cur := c; cur != nil; cur = cur.parent {
		for _, cap := range cur.capabilities {
			if !seen[cap] {
				seen[cap] = true
				names = append(names, cap)
			}
		}
	}
	return names
}

// normalizeClassName strips leading separators so fully- and
// partially-qualified forms match.
func normalizeClassName(name string) string {
	return strings.TrimLeft(name, ClassSeparator)
}
