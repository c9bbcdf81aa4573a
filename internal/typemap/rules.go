// Package typemap translates raw column type strings into target type names.
//
// A Rules value is an immutable, compiled pattern → type table. Patterns are
// regular expressions tested against the raw type in byte-wise lexicographic
// order of the pattern text; the first match wins. Callers who want a rule to
// take precedence over a looser one must make it sort first, e.g. by anchoring
// it ("^tinyint\(1\)$" sorts before "^tinyint\(\d+\)$").
package typemap

import (
	"regexp"
	"sort"
	"strings"

	"github.com/koustreak/sqlreverse/internal/errs"
)

// Fallback is the type used when no rule matches.
const Fallback = "string"

type rule struct {
	pattern string
	target  string
	re      *regexp.Regexp
}

// Rules is safe for concurrent use; it is never modified after New.
type Rules struct {
	rules []rule
}

// New compiles table into a Rules value. Patterns are trimmed of surrounding
// whitespace. The first pattern that fails to compile aborts with an
// invalid-input error naming it.
func New(table map[string]string) (*Rules, error) {
	rules := make([]rule, 0, len(table))
	for pattern, target := range table {
		p := strings.TrimSpace(pattern)
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "bad type pattern "+p, err)
		}
		rules = append(rules, rule{pattern: p, target: target, re: re})
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].pattern != rules[j].pattern {
			return rules[i].pattern < rules[j].pattern
		}
		return rules[i].target < rules[j].target
	})
	return &Rules{rules: rules}, nil
}

// MustNew is New for tables known at compile time.
func MustNew(table map[string]string) *Rules {
	r, err := New(table)
	if err != nil {
		panic(err)
	}
	return r
}

// Map returns the target type of the first matching rule. When nothing
// matches it returns Fallback and false; the caller decides how loudly to
// report it.
func (r *Rules) Map(raw string) (string, bool) {
	for _, rl := range r.rules {
		if rl.re.MatchString(raw) {
			return rl.target, true
		}
	}
	return Fallback, false
}

// Len reports the number of rules.
func (r *Rules) Len() int {
	return len(r.rules)
}

// Patterns returns the rule patterns in match order.
func (r *Rules) Patterns() []string {
	out := make([]string, len(r.rules))
	for i, rl := range r.rules {
		out[i] = rl.pattern
	}
	return out
}

// Table returns a copy of the pattern → type mapping.
func (r *Rules) Table() map[string]string {
	out := make(map[string]string, len(r.rules))
	for _, rl := range r.rules {
		out[rl.pattern] = rl.target
	}
	return out
}
