package rule

import (
	"errors"
	"fmt"

	"github.com/gnolang/trs/internal/expr"
)

// ErrUnboundVariable is returned when a rule's output refers to a variable
// its input never binds.
var ErrUnboundVariable = errors.New("unbound output variable")

// Transformation rewrites expressions matching Input into Output.
// It only ever looks at the root of the expression it is given.
type Transformation struct {
	Name   string
	Input  expr.Expr
	Output expr.Expr
}

// New creates a transformation after checking that every variable of
// output is bound by input.
func New(name string, input, output expr.Expr) (*Transformation, error) {
	if input == nil || output == nil {
		return nil, fmt.Errorf("rule %q: input and output are required", name)
	}
	bound := make(map[string]bool)
	for _, id := range expr.Variables(input) {
		bound[id] = true
	}
	for _, id := range expr.Variables(output) {
		if !bound[id] {
			return nil, fmt.Errorf("rule %q: %w $%s", name, ErrUnboundVariable, id)
		}
	}
	return &Transformation{Name: name, Input: input, Output: output}, nil
}

// MustNew is like New but panics on a malformed rule.
func MustNew(name string, input, output expr.Expr) *Transformation {
	t, err := New(name, input, output)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse creates a transformation from the textual forms of its input and
// output patterns.
func Parse(name, pattern, replacement string) (*Transformation, error) {
	input, err := expr.Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %q: pattern %q: %w", name, pattern, err)
	}
	output, err := expr.Parse(replacement)
	if err != nil {
		return nil, fmt.Errorf("rule %q: replacement %q: %w", name, replacement, err)
	}
	return New(name, input, output)
}

// MustParse is like Parse but panics on error.
func MustParse(name, pattern, replacement string) *Transformation {
	t, err := Parse(name, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return t
}

// Matches reports whether e matches the input pattern, recording the
// captured variables in env.
func (t *Transformation) Matches(e expr.Expr, env Bindings) bool {
	return Match(t.Input, e, env)
}

// Transform returns the output template with the bindings of env
// substituted in.
func (t *Transformation) Transform(_ expr.Expr, env Bindings) expr.Expr {
	return substitute(t.Output, env)
}

// Match matches e against the input with a fresh environment.
func (t *Transformation) Match(e expr.Expr) (Bindings, bool) {
	env := make(Bindings)
	if !t.Matches(e, env) {
		return nil, false
	}
	return env, true
}

// Rewrite applies the transformation to e if it matches.
func (t *Transformation) Rewrite(e expr.Expr) (expr.Expr, bool) {
	env, ok := t.Match(e)
	if !ok {
		return nil, false
	}
	return t.Transform(e, env), true
}

func (t *Transformation) String() string {
	return t.Input.String() + " -> " + t.Output.String()
}
