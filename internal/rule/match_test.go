package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/trs/internal/expr"
)

func TestMatch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		pattern   string
		candidate string
		wantMatch bool
		wantVars  map[string]string
	}{
		{
			name:      "symbol matches itself",
			pattern:   "x",
			candidate: "x",
			wantMatch: true,
			wantVars:  map[string]string{},
		},
		{
			name:      "symbol does not match other symbol",
			pattern:   "x",
			candidate: "y",
		},
		{
			name:      "constant matches constant",
			pattern:   "true",
			candidate: "True",
			wantMatch: true,
			wantVars:  map[string]string{},
		},
		{
			name:      "constant does not match symbol",
			pattern:   "true",
			candidate: "x",
		},
		{
			name:      "variable captures subtree",
			pattern:   "!!$a",
			candidate: "!!(x&&y)",
			wantMatch: true,
			wantVars:  map[string]string{"a": "(x&&y)"},
		},
		{
			name:      "repeated variable must bind equal subtrees",
			pattern:   "$a&&$a",
			candidate: "x&&x",
			wantMatch: true,
			wantVars:  map[string]string{"a": "x"},
		},
		{
			name:      "repeated variable rejects different subtrees",
			pattern:   "$a&&$a",
			candidate: "x&&y",
		},
		{
			name:      "arity must agree",
			pattern:   "$a&&$b",
			candidate: "x&&y&&z",
		},
		{
			name:      "tag must agree",
			pattern:   "$a&&$b",
			candidate: "x||y",
		},
		{
			name:      "signature constrains the candidate",
			pattern:   "$a:!$b",
			candidate: "!x",
			wantMatch: true,
			wantVars:  map[string]string{"a": "!x", "b": "x"},
		},
		{
			name:      "signature rejects the candidate",
			pattern:   "$a:!$b",
			candidate: "x",
		},
		{
			name:      "operator pattern does not match atom",
			pattern:   "!$a",
			candidate: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := make(Bindings)
			ok := Match(expr.MustParse(tt.pattern), expr.MustParse(tt.candidate), env)
			require.Equal(t, tt.wantMatch, ok)
			if !tt.wantMatch {
				assert.Empty(t, env, "failed match must not leave bindings behind")
				return
			}
			got := make(map[string]string, len(env))
			for id, e := range env {
				got[id] = e.String()
			}
			assert.Equal(t, tt.wantVars, got)
		})
	}
}

func TestMatchRollsBackOnFailure(t *testing.T) {
	t.Parallel()
	env := Bindings{"z": expr.Sym("kept")}

	// $a binds to x before the second operand fails
	ok := Match(expr.MustParse("$a&&y"), expr.MustParse("x&&w"), env)
	require.False(t, ok)
	assert.Len(t, env, 1)
	assert.True(t, expr.Equal(expr.Sym("kept"), env["z"]))

	// the retried match on the same env is not polluted by $a=x
	ok = Match(expr.MustParse("$a&&w"), expr.MustParse("q&&w"), env)
	require.True(t, ok)
	assert.Equal(t, "q", env["a"].String())
}

func TestMatchHonoursExistingBindings(t *testing.T) {
	t.Parallel()
	env := Bindings{"a": expr.Sym("x")}
	assert.False(t, Match(expr.Var("a"), expr.Sym("y"), env))
	assert.True(t, Match(expr.Var("a"), expr.Sym("x"), env))
}

func TestMatchGroundPatternOnlyMatchesItself(t *testing.T) {
	t.Parallel()
	exprs := []string{"x", "!x", "(x&&y)", "!(x||true)", "((a&&b)||!c)"}
	for _, p := range exprs {
		for _, c := range exprs {
			env := make(Bindings)
			got := Match(expr.MustParse(p), expr.MustParse(c), env)
			assert.Equal(t, p == c, got, "pattern %s candidate %s", p, c)
			assert.Empty(t, env)
		}
	}
}

func TestBindingsLookup(t *testing.T) {
	t.Parallel()
	env := make(Bindings)
	require.True(t, Match(expr.MustParse("$a&&$b"), expr.MustParse("x&&!y"), env))

	e, ok := env.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "!y", e.String())
	_, ok = env.Lookup("c")
	assert.False(t, ok)
}
