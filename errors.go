package dyno

import "errors"

// Sentinel errors for the object runtime.
var (
	// ErrUnknownProperty is returned when no accessor, field, or behavior
	// resolves a property name.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidCall is returned when a property is accessed against its
	// declared direction (writing a read-only property, reading a write-only
	// property, unsetting a read-only property) or when a behavior lifecycle
	// invariant is violated.
	ErrInvalidCall = errors.New("invalid call")

	// ErrUnknownMethod is returned when a method call cannot be resolved on
	// the object itself or any attached behavior.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrNoConstructor is returned when a behavior spec requires construction
	// but no construction service is configured on the object.
	ErrNoConstructor = errors.New("no constructor configured")
)

// PropertyError wraps a property resolution failure with the owning class
// and property name.
type PropertyError struct {
	// Class is the class name of the object the access was made on.
	Class string

	// Property is the property name as given by the caller.
	Property string

	// Op is the operation that failed: "get", "set", or "unset".
	Op string

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *PropertyError) Error() string {
	return e.Op + " " + e.Class + "." + e.Property + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *PropertyError) Unwrap() error {
	return e.Err
}

// MethodError wraps a method resolution failure with the owning class and
// method name.
type MethodError struct {
	// Class is the class name of the object the call was made on.
	Class string

	// Method is the method name as given by the caller.
	Method string
}

// Error implements the error interface.
func (e *MethodError) Error() string {
	return "call " + e.Class + "." + e.Method + ": " + ErrUnknownMethod.Error()
}

// Is allows errors.Is to match MethodError with ErrUnknownMethod.
func (e *MethodError) Is(target error) bool {
	return target == ErrUnknownMethod
}

// unknownProperty builds a PropertyError wrapping ErrUnknownProperty.
func unknownProperty(class, op, name string) error {
	return &PropertyError{Class: class, Property: name, Op: op, Err: ErrUnknownProperty}
}

// invalidCall builds a PropertyError wrapping ErrInvalidCall.
func invalidCall(class, op, name string) error {
	return &PropertyError{Class: class, Property: name, Op: op, Err: ErrInvalidCall}
}
