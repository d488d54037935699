package wildcard

import (
	"errors"
	"strings"
	"unicode"

	"github.com/tidwall/match"
)

// ErrBadPattern is returned by Compile for malformed patterns: an
// unterminated character class or a trailing escape character.
var ErrBadPattern = errors.New("syntax error in pattern")

// Separator is the path separator respected in file-path mode.
const Separator = '/'

// config holds compilation options.
type config struct {
	caseInsensitive bool
	filePath        bool
	noEscape        bool
}

// Option configures pattern compilation.
type Option func(*config)

// CaseInsensitive makes matching ignore letter case.
func CaseInsensitive() Option {
	return func(c *config) {
		c.caseInsensitive = true
	}
}

// FilePath makes '*', '?' and character classes stop at the '/' separator.
func FilePath() Option {
	return func(c *config) {
		c.filePath = true
	}
}

// WithoutEscape disables backslash escaping; '\' matches itself.
func WithoutEscape() Option {
	return func(c *config) {
		c.noEscape = true
	}
}

// ContainsWildcard reports whether s contains any glob metacharacter and
// would therefore be treated as a pattern rather than a plain name.
func ContainsWildcard(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// tokKind enumerates compiled pattern elements.
type tokKind int

const (
	tokLiteral tokKind = iota
	tokStar
	tokOne
	tokClass
)

// runeRange is an inclusive rune range inside a character class.
type runeRange struct {
	lo, hi rune
}

// token is one element of a compiled pattern program.
type token struct {
	kind    tokKind
	lit     []rune
	negated bool
	ranges  []runeRange
}

// Pattern is a compiled glob pattern. It is immutable and safe for
// concurrent use.
type Pattern struct {
	source string
	cfg    config

	// alwaysMatch is set for the bare "*" pattern outside file-path mode.
	alwaysMatch bool

	// fast is set when matching can be delegated to tidwall/match.
	fast bool

	toks []token
}

// Compile parses a glob pattern into a matcher.
func Compile(pattern string, opts ...Option) (*Pattern, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pattern{source: pattern, cfg: cfg}

	if pattern == "*" && !cfg.filePath {
		p.alwaysMatch = true
		return p, nil
	}

	// Simple '*'/'?' patterns under default options need no program.
	if !cfg.caseInsensitive && !cfg.filePath && !strings.ContainsAny(pattern, "[\\") {
		p.fast = true
		return p, nil
	}

	toks, err := tokenize(pattern, cfg)
	if err != nil {
		return nil, err
	}
	p.toks = toks
	return p, nil
}

// MustCompile is like Compile but panics on a malformed pattern. Intended
// for patterns known valid at build time.
func MustCompile(pattern string, opts ...Option) *Pattern {
	p, err := Compile(pattern, opts...)
	if err != nil {
		panic("wildcard: " + pattern + ": " + err.Error())
	}
	return p
}

// Match is a convenience that compiles pattern and tests s against it.
// Malformed patterns match nothing.
func Match(pattern, s string, opts ...Option) bool {
	p, err := Compile(pattern, opts...)
	if err != nil {
		return false
	}
	return p.Match(s)
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.source
}

// Match reports whether s matches the whole pattern.
func (p *Pattern) Match(s string) bool {
	if p.alwaysMatch {
		return true
	}
	if p.fast {
		return match.Match(s, p.source)
	}
	return matchTokens(p.toks, []rune(s), p.cfg)
}

// tokenize compiles the pattern source into a token program. Consecutive
// literal runes collapse into a single literal token and consecutive stars
// into one.
func tokenize(pattern string, cfg config) ([]token, error) {
	var toks []token
	rs := []rune(pattern)

	lit := func(r rune) {
		if cfg.caseInsensitive {
			r = unicode.ToLower(r)
		}
		if n := len(toks); n > 0 && toks[n-1].kind == tokLiteral {
			toks[n-1].lit = append(toks[n-1].lit, r)
			return
		}
		toks = append(toks, token{kind: tokLiteral, lit: []rune{r}})
	}

	for i := 0; i < len(rs); i++ {
		switch r := rs[i]; r {
		case '*':
			if n := len(toks); n > 0 && toks[n-1].kind == tokStar {
				continue
			}
			toks = append(toks, token{kind: tokStar})
		case '?':
			toks = append(toks, token{kind: tokOne})
		case '\\':
			if cfg.noEscape {
				lit(r)
				continue
			}
			if i+1 >= len(rs) {
				return nil, ErrBadPattern
			}
			i++
			lit(rs[i])
		case '[':
			tok, width, err := parseClass(rs[i:], cfg)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += width - 1
		default:
			lit(r)
		}
	}
	return toks, nil
}

// parseClass parses a character class starting at rs[0] == '['. Returns the
// class token and the number of runes consumed.
func parseClass(rs []rune, cfg config) (token, int, error) {
	tok := token{kind: tokClass}
	i := 1
	if i < len(rs) && (rs[i] == '!' || rs[i] == '^') {
		tok.negated = true
		i++
	}
	first := true
	for i < len(rs) {
		r := rs[i]
		if r == ']' && !first {
			return tok, i + 1, nil
		}
		first = false
		if r == '\\' && !cfg.noEscape {
			if i+1 >= len(rs) {
				return token{}, 0, ErrBadPattern
			}
			i++
			r = rs[i]
		}
		lo, hi := r, r
		if i+2 < len(rs) && rs[i+1] == '-' && rs[i+2] != ']' {
			hi = rs[i+2]
			if hi == '\\' && !cfg.noEscape {
				if i+3 >= len(rs) {
					return token{}, 0, ErrBadPattern
				}
				hi = rs[i+3]
				i++
			}
			i += 2
		}
		if cfg.caseInsensitive {
			lo = unicode.ToLower(lo)
			hi = unicode.ToLower(hi)
		}
		tok.ranges = append(tok.ranges, runeRange{lo: lo, hi: hi})
		i++
	}
	return token{}, 0, ErrBadPattern
}

// matchTokens tests the token program against the candidate runes with
// backtracking on '*'.
func matchTokens(toks []token, rs []rune, cfg config) bool {
	if len(toks) == 0 {
		return len(rs) == 0
	}

	tok := toks[0]
	switch tok.kind {
	case tokLiteral:
		if len(rs) < len(tok.lit) {
			return false
		}
		for i, want := range tok.lit {
			got := rs[i]
			if cfg.caseInsensitive {
				got = unicode.ToLower(got)
			}
			if got != want {
				return false
			}
		}
		return matchTokens(toks[1:], rs[len(tok.lit):], cfg)

	case tokOne:
		if len(rs) == 0 {
			return false
		}
		if cfg.filePath && rs[0] == Separator {
			return false
		}
		return matchTokens(toks[1:], rs[1:], cfg)

	case tokClass:
		if len(rs) == 0 {
			return false
		}
		if cfg.filePath && rs[0] == Separator {
			return false
		}
		if !tok.matchesRune(rs[0], cfg) {
			return false
		}
		return matchTokens(toks[1:], rs[1:], cfg)

	case tokStar:
		// Try consuming zero or more runes, shortest first.
		for i := 0; ; i++ {
			if matchTokens(toks[1:], rs[i:], cfg) {
				return true
			}
			if i >= len(rs) {
				return false
			}
			if cfg.filePath && rs[i] == Separator {
				return false
			}
		}
	}
	return false
}

// matchesRune tests one rune against a class token.
func (t token) matchesRune(r rune, cfg config) bool {
	if cfg.caseInsensitive {
		r = unicode.ToLower(r)
	}
	in := false
	for _, rr := range t.ranges {
		if r >= rr.lo && r <= rr.hi {
			in = true
			break
		}
	}
	return in != t.negated
}
