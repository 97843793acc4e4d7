package rule

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
)

// ErrUnknownRuleSet is returned by Builtin for names it does not know.
var ErrUnknownRuleSet = errors.New("unknown rule set")

// Set is an ordered collection of transformations. The order is the order
// in which the search engine tries the rules.
type Set struct {
	Name  string
	Rules []*Transformation
}

// NewSet creates a rule set.
func NewSet(name string, rules ...*Transformation) Set {
	return Set{Name: name, Rules: rules}
}

// Len returns the number of rules in the set.
func (s Set) Len() int { return len(s.Rules) }

// Append returns a new set with rules added after the existing ones.
func (s Set) Append(rules ...*Transformation) Set {
	out := make([]*Transformation, 0, len(s.Rules)+len(rules))
	out = append(out, s.Rules...)
	out = append(out, rules...)
	return Set{Name: s.Name, Rules: out}
}

// Fingerprint identifies the set by the rendered form of its rules, in
// order. Two sets with the same rules in the same order share a fingerprint.
func (s Set) Fingerprint() string {
	h := fnv.New64a()
	for _, r := range s.Rules {
		h.Write([]byte(r.String()))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

type setConstructor func() Set

var builtinSets = map[string]setConstructor{
	"boolean":         BooleanAlgebra,
	"boolean-oneway":  BooleanOneWay,
	"double-negation": DoubleNegation,
}

// Builtin returns a freshly built rule set by name.
func Builtin(name string) (Set, error) {
	ctor, ok := builtinSets[name]
	if !ok {
		return Set{}, fmt.Errorf("%w: %q", ErrUnknownRuleSet, name)
	}
	return ctor(), nil
}

// BuiltinNames lists the names accepted by Builtin.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinSets))
	for name := range builtinSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DoubleNegation contains the single rule !!$a -> $a.
func DoubleNegation() Set {
	return NewSet("double-negation",
		MustParse("double-negation", "!!$a", "$a"),
	)
}

// BooleanOneWay contains simplifying boolean identities only. No rule of
// the set undoes another one.
func BooleanOneWay() Set {
	return NewSet("boolean-oneway", simplifyingRules()...)
}

// BooleanAlgebra is BooleanOneWay plus the De Morgan laws stated in the
// folding direction. Including both directions widens the search without
// adding new fixed points.
func BooleanAlgebra() Set {
	rules := simplifyingRules()
	inverse := []*Transformation{
		MustParse("de-morgan-or-fold", "(!$a)||(!$b)", "!($a&&$b)"),
		MustParse("de-morgan-and-fold", "(!$a)&&(!$b)", "!($a||$b)"),
	}
	// folding rules sit right after the unfolding ones
	out := make([]*Transformation, 0, len(rules)+len(inverse))
	out = append(out, rules[:3]...)
	out = append(out, inverse...)
	out = append(out, rules[3:]...)
	return NewSet("boolean", out...)
}

func simplifyingRules() []*Transformation {
	return []*Transformation{
		MustParse("double-negation", "!!$a", "$a"),
		MustParse("de-morgan-and", "!($a&&$b)", "(!$a)||(!$b)"),
		MustParse("de-morgan-or", "!($a||$b)", "(!$a)&&(!$b)"),
		MustParse("and-idempotence", "$a&&$a", "$a"),
		MustParse("or-idempotence", "$a||$a", "$a"),
		MustParse("not-false", "!false", "true"),
		MustParse("not-true", "!true", "false"),
		MustParse("or-true-left", "true||$a", "true"),
		MustParse("or-true-right", "$a||true", "true"),
		MustParse("and-false-left", "false&&$a", "false"),
		MustParse("and-false-right", "$a&&false", "false"),
		MustParse("or-false-left", "false||$a", "$a"),
		MustParse("or-false-right", "$a||false", "$a"),
		MustParse("and-true-left", "true&&$a", "$a"),
		MustParse("and-true-right", "$a&&true", "$a"),
	}
}
