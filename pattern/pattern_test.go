package pattern

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// id pads head and tail with 'h' to a full 32 character identifier.
func id(head, tail string) string {
	return head + strings.Repeat("h", 32-len(head)-len(tail)) + tail
}

func TestCompile_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    Spec
		wantSub string
	}{
		{name: "empty", spec: Spec{}, wantSub: "required"},
		{name: "prefix outside alphabet", spec: Spec{Prefix: "xyz"}, wantSub: `"xyz"`},
		{name: "suffix outside alphabet", spec: Spec{Suffix: "abq"}, wantSub: `"q"`},
		{name: "uppercase prefix", spec: Spec{Prefix: "AB"}, wantSub: `"AB"`},
		{name: "regexp metachar", spec: Spec{Regexp: "^a+"}, wantSub: `"+"`},
		{name: "regexp letter", spec: Spec{Regexp: "^zz"}, wantSub: `"z"`},
		{name: "regexp syntax", spec: Spec{Regexp: "^(ab"}, wantSub: "missing closing )"},
		{name: "too long", spec: Spec{Prefix: strings.Repeat("a", 20), Suffix: strings.Repeat("b", 13)}, wantSub: "33 characters"},
		{name: "bad regexp ignores prefix", spec: Spec{Prefix: "ab", Regexp: "^a*"}, wantSub: `"*"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := Compile(tt.spec)
			if err == nil {
				t.Fatalf("Compile(%+v) = %v, want error", tt.spec, p)
			}
			if !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("error = %v, want %v", err, ErrInvalidSpec)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestCompile_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		spec   Spec
		expr   string
		accept []string
		reject []string
	}{
		{
			name:   "prefix with wildcard",
			spec:   Spec{Prefix: "ab?d"},
			expr:   "^ab.d",
			accept: []string{id("abad", ""), id("abpd", ""), id("abcd", "")},
			reject: []string{id("acad", ""), id("abac", ""), id("habad", "")},
		},
		{
			name:   "suffix",
			spec:   Spec{Suffix: "mnop"},
			expr:   "mnop$",
			accept: []string{id("", "mnop"), id("mnop", "mnop")},
			reject: []string{id("mnop", ""), id("", "mnoa")},
		},
		{
			name:   "prefix and suffix",
			spec:   Spec{Prefix: "ab", Suffix: "op"},
			expr:   "^ab.*op$",
			accept: []string{id("ab", "op"), id("abcdefghijklmn", "op")},
			reject: []string{id("ab", "oa"), id("ba", "op")},
		},
		{
			name:   "regexp overrides prefix",
			spec:   Spec{Prefix: "pp", Regexp: "^(aa|bb)"},
			expr:   "^(aa|bb)",
			accept: []string{id("aa", ""), id("bb", "")},
			reject: []string{id("pp", ""), id("ab", "")},
		},
		{
			name:   "unanchored regexp",
			spec:   Spec{Regexp: "nope"},
			expr:   "nope",
			accept: []string{id("", "nope"), id("nope", ""), id("hhnope", "")},
			reject: []string{id("", "")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := Compile(tt.spec)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if got := p.String(); got != tt.expr {
				t.Errorf("String() = %q, want %q", got, tt.expr)
			}
			for _, s := range tt.accept {
				if !p.Match(s) {
					t.Errorf("Match(%q) = false, want true", s)
				}
			}
			for _, s := range tt.reject {
				if p.Match(s) {
					t.Errorf("Match(%q) = true, want false", s)
				}
			}
		})
	}
}

func TestPattern_Difficulty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		spec  Spec
		chars int
		space string
		hard  bool
	}{
		{name: "three letters", spec: Spec{Prefix: "abc"}, chars: 3, space: "4096"},
		{name: "wildcards not counted", spec: Spec{Prefix: "ab?d"}, chars: 3, space: "4096"},
		{name: "prefix and suffix", spec: Spec{Prefix: "abc", Suffix: "op"}, chars: 5, space: "1048576"},
		{name: "bracket groups stripped", spec: Spec{Regexp: "^[abc]d"}, chars: 1, space: "16"},
		{name: "six letters is hard", spec: Spec{Prefix: "abcdef"}, chars: 6, space: "16777216", hard: true},
		{name: "alternation overcounts", spec: Spec{Regexp: "^(aa|bb)"}, chars: 4, space: "65536"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := MustCompile(tt.spec)
			if got := p.Chars(); got != tt.chars {
				t.Errorf("Chars() = %d, want %d", got, tt.chars)
			}
			if got := p.SearchSpace().String(); got != tt.space {
				t.Errorf("SearchSpace() = %s, want %s", got, tt.space)
			}
			if got := p.Hard(); got != tt.hard {
				t.Errorf("Hard() = %v, want %v", got, tt.hard)
			}
		})
	}
}

func TestPattern_SearchSpaceFullLength(t *testing.T) {
	t.Parallel()

	p := MustCompile(Spec{Prefix: strings.Repeat("a", 32)})
	want, err := decimal.NewFromString("340282366920938463463374607431768211456")
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}
	if !p.SearchSpace().Equal(want) {
		t.Errorf("SearchSpace() = %s, want %s", p.SearchSpace(), want)
	}
}

func TestMustCompile_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("MustCompile did not panic")
		}
	}()
	MustCompile(Spec{})
}
