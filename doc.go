// Package dyno is a dynamic object runtime: a uniform protocol for resolving
// named properties backed by accessor methods or composed behaviors, and for
// dispatching named events through ordered handler chains at both instance
// and class-hierarchy scope.
//
// # Architecture
//
// The runtime consists of four cooperating pieces:
//
//	┌────────────────────────────────────────────────┐
//	│                    Object                       │
//	│  - Own accessor/field resolution (Resolver)     │
//	│  - Attached behaviors (ordered delegation)      │
//	│  - Instance event tables (exact + wildcard)     │
//	└────────────────────────────────────────────────┘
//	          │                          │
//	          ▼                          ▼
//	┌─────────────────┐       ┌──────────────────────┐
//	│    Behavior     │       │       Registry        │
//	│  - Property and │       │  - Class-level event  │
//	│    method mixin │       │    tables (exact +    │
//	│  - Declared     │       │    wildcard, shared   │
//	│    event subs   │       │    process-wide)      │
//	└─────────────────┘       └──────────────────────┘
//
// # Properties
//
// An Object's property surface is fixed and pre-declared through an Accessors
// table of getter and setter functions plus an optional map of declared
// fields. Lookup is case-insensitive; names are canonicalized once at
// registration. Resolution order for a read is: own getter, own field,
// attached behaviors in attachment order. Unresolvable reads and writes fail
// with ErrUnknownProperty; direction violations (writing a read-only
// property, reading a write-only one) fail with ErrInvalidCall.
//
// # Events
//
// Handlers attach to an object by exact event name or by glob pattern
// ("save", "entity.*"). Trigger fires wildcard matches first (in pattern
// creation order), then exact-name handlers, each in attachment order. A
// handler that sets Event.Handled stops the chain. If no instance handler
// short-circuits, the object's Registry fires handlers registered against
// the object's class, its ancestors and its capabilities, in that order.
//
// # Behaviors
//
// A Behavior is a composable module whose properties and methods appear as
// the host's own while attached, and whose declared event subscriptions are
// installed on attach and removed exactly on detach. Behaviors are built by
// embedding Base and overriding Events and the property descriptor.
//
// # Concurrency
//
// A Registry is safe for concurrent use; a single mutex guards its tables.
// An Object and its instance tables are owned by a single goroutine at a
// time. Mutating a handler list from a handler currently firing over it is
// undefined behavior.
package dyno
