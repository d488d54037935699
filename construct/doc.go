// Package construct realizes behavior specs into behavior instances. It is
// the construction service an Object calls when a spec is not already a
// Behavior: the runtime only ever invokes Construct and never inspects
// what happens inside.
//
// A Factory maps registered type names to constructor functions and
// accepts specs in several shapes:
//
//	dyno.Behavior          passed through unchanged
//	"audit"                a registered type name
//	map[string]any         {"class": "audit", "properties": {...}}
//	[]byte / gjson.Result  the same document as JSON
//
// Properties in a spec are applied through the constructed behavior's
// property protocol, so they respect its declared accessor surface.
package construct
