// Package pattern validates prefix, suffix and regular expression
// specifications and compiles them into identifier matchers.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/danielewood/vanitycrx/appid"
)

// Wildcard matches any single identifier character in a prefix or suffix.
const Wildcard = '?'

// regexpSyntax lists the structural characters accepted in a free-form
// expression besides the identifier alphabet.
const regexpSyntax = "^$[]()?:|.-"

// hardChars is the number of constrained characters above which a search is
// expected to dominate running time.
const hardChars = 5

// ErrInvalidSpec is returned for empty or malformed specifications.
var ErrInvalidSpec = errors.New("invalid pattern")

var bracketGroup = regexp.MustCompile(`\[[^\]]*\]`)

// Spec describes which identifiers are acceptable. Regexp, when set,
// overrides Prefix and Suffix.
type Spec struct {
	Prefix string
	Suffix string
	Regexp string
}

// Pattern is a compiled Spec.
type Pattern struct {
	re    *regexp.Regexp
	chars int
}

// Compile validates spec and compiles it into a Pattern.
func Compile(spec Spec) (*Pattern, error) {
	if spec.Prefix == "" && spec.Suffix == "" && spec.Regexp == "" {
		return nil, fmt.Errorf("%w: prefix, suffix or regexp required", ErrInvalidSpec)
	}

	var expr string
	if spec.Regexp != "" {
		if bad := disallowed(spec.Regexp, appid.Alphabet+regexpSyntax); bad != "" {
			return nil, fmt.Errorf("%w: regexp %q contains disallowed characters %q", ErrInvalidSpec, spec.Regexp, bad)
		}
		expr = spec.Regexp
	} else {
		if bad := disallowed(spec.Prefix, appid.Alphabet+string(Wildcard)); bad != "" {
			return nil, fmt.Errorf("%w: prefix %q contains disallowed characters %q", ErrInvalidSpec, spec.Prefix, bad)
		}
		if bad := disallowed(spec.Suffix, appid.Alphabet+string(Wildcard)); bad != "" {
			return nil, fmt.Errorf("%w: suffix %q contains disallowed characters %q", ErrInvalidSpec, spec.Suffix, bad)
		}
		if n := len(spec.Prefix) + len(spec.Suffix); n > appid.Length {
			return nil, fmt.Errorf("%w: prefix and suffix span %d characters, identifiers have %d", ErrInvalidSpec, n, appid.Length)
		}
		expr = combine(wildcards(spec.Prefix), wildcards(spec.Suffix))
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}

	p := &Pattern{re: re, chars: countChars(expr)}
	log.Debugf("Compiled %q, %d constrained characters", expr, p.chars)
	if p.Hard() {
		log.Warnf("Pattern %q constrains %d characters; expect about %s attempts",
			expr, p.chars, p.SearchSpace().String())
	}
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(spec Spec) *Pattern {
	p, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether id is accepted.
func (p *Pattern) Match(id string) bool {
	return p.re.MatchString(id)
}

// String returns the compiled expression.
func (p *Pattern) String() string {
	return p.re.String()
}

// Chars returns the number of identifier positions the pattern constrains.
// Bracket groups, wildcards and structural characters are not counted, so
// the value is only a rough guide for expressions using alternation.
func (p *Pattern) Chars() int {
	return p.chars
}

// SearchSpace returns 16^Chars, the expected number of attempts.
func (p *Pattern) SearchSpace() decimal.Decimal {
	base := decimal.New(int64(len(appid.Alphabet)), 0)
	space := decimal.New(1, 0)
	for range p.chars {
		space = space.Mul(base)
	}
	return space
}

// Hard reports whether the search is expected to take a long time.
func (p *Pattern) Hard() bool {
	return p.chars > hardChars
}

// disallowed returns the characters of s not present in allowed, in order
// of first appearance.
func disallowed(s, allowed string) string {
	var bad []rune
	for _, r := range s {
		if !strings.ContainsRune(allowed, r) && !containsRune(bad, r) {
			bad = append(bad, r)
		}
	}
	return string(bad)
}

func containsRune(rs []rune, r rune) bool {
	for _, c := range rs {
		if c == r {
			return true
		}
	}
	return false
}

func wildcards(s string) string {
	return strings.ReplaceAll(s, string(Wildcard), ".")
}

func combine(prefix, suffix string) string {
	switch {
	case prefix != "" && suffix != "":
		return "^" + prefix + ".*" + suffix + "$"
	case prefix != "":
		return "^" + prefix
	default:
		return suffix + "$"
	}
}

func countChars(expr string) int {
	n := 0
	for _, c := range bracketGroup.ReplaceAllString(expr, "") {
		if c >= 'a' && c <= 'p' {
			n++
		}
	}
	return n
}
