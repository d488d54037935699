// Package wildcard compiles glob-style patterns and tests strings against
// them. Supported syntax:
//
//	*        any run of characters, including none
//	?        exactly one character
//	[abc]    one character from the set
//	[a-z]    one character from the range
//	[!a-z]   one character outside the set or range
//	\x       the literal character x (unless escaping is disabled)
//
// Matching is anchored: the whole candidate string must match, not a
// substring. A bare "*" pattern always matches and skips compilation
// entirely unless file-path mode is on.
//
// Options select case-insensitive matching and a file-path mode in which
// wildcards and classes never cross the '/' separator.
//
// Patterns using only '*' and '?' under default options are delegated to
// github.com/tidwall/match, which matches without allocating.
package wildcard
