package search

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gnolang/trs/internal/expr"
	"github.com/gnolang/trs/internal/rule"
)

func rules(defs ...[2]string) rule.Set {
	set := rule.NewSet("test")
	for i, d := range defs {
		set = set.Append(rule.MustParse(strings.Repeat("r", i+1), d[0], d[1]))
	}
	return set
}

func pathStrings(path []expr.Expr) []string {
	out := make([]string, len(path))
	for i, e := range path {
		out[i] = e.String()
	}
	return out
}

func TestTripleNegation(t *testing.T) {
	t.Parallel()
	start := expr.MustParse("!!!True")
	m := Simplify(start, rules([2]string{"!!$a", "$a"}), 1)

	path, ok := m.Get(expr.MustParse("!true"))
	require.True(t, ok)
	assert.Equal(t, []string{"!!!true", "!true"}, pathStrings(path))
	assert.Equal(t, 1, m.Sorted(Ascending)[0].Steps())
}

func TestNegatedDisjunction(t *testing.T) {
	t.Parallel()
	start := expr.MustParse("!!(!(x||y))")
	set := rules(
		[2]string{"!($a||$b)", "(!$a)&&(!$b)"},
		[2]string{"!!$a", "$a"},
	)
	m := Simplify(start, set, 3)

	path, ok := m.Get(expr.MustParse("(!x)&&(!y)"))
	require.True(t, ok)
	require.Len(t, path, 3, "two rewrites expected, got %v", pathStrings(path))
	assert.Equal(t, "!!!(x||y)", path[0].String())
	assert.Equal(t, "(!x&&!y)", path[2].String())

	// the rewrite below the root negation is found as well
	_, ok = m.Get(expr.MustParse("!!((!x)&&(!y))"))
	assert.True(t, ok)
}

func TestRecombinationAlignsPaths(t *testing.T) {
	t.Parallel()
	start := expr.MustParse("(x&&x)&&y")
	m := Simplify(start, rules([2]string{"$a&&$a", "$a"}), 2)

	path, ok := m.Get(expr.MustParse("x&&y"))
	require.True(t, ok)
	assert.Equal(t, []string{"((x&&x)&&y)", "(x&&y)"}, pathStrings(path))
	assert.Equal(t, 2, m.Len())
}

func TestEmptyRuleSetReturnsIdentity(t *testing.T) {
	t.Parallel()
	start := expr.MustParse("!(x&&!y)")
	m := Simplify(start, rule.NewSet("empty"), 10)

	require.Equal(t, 1, m.Len())
	assert.True(t, expr.Equal(start, m.Start()))
	path, ok := m.Get(start)
	require.True(t, ok)
	assert.Equal(t, []string{"!(x&&!y)"}, pathStrings(path))
	assert.Empty(t, m.Reachable())
}

func TestNegativeDepthOnlyReturnsStart(t *testing.T) {
	t.Parallel()
	m := Simplify(expr.MustParse("!!x"), rule.DoubleNegation(), -1)
	assert.Equal(t, 1, m.Len())
}

func TestCyclicRulesTerminate(t *testing.T) {
	t.Parallel()
	set := rules(
		[2]string{"!!$a", "$a"},
		[2]string{"$a&&$b", "$b&&$a"},
	)

	done := make(chan *PathMap, 1)
	go func() {
		done <- Simplify(expr.MustParse("!!(x&&y)"), set, 50)
	}()

	select {
	case m := <-done:
		assert.Equal(t, []string{"!!(x&&y)", "!!(y&&x)", "(y&&x)", "(x&&y)"}, keys(m.Entries()))
	case <-time.After(10 * time.Second):
		t.Fatal("search did not terminate")
	}
}

func TestDepthBoundsGrowingRules(t *testing.T) {
	t.Parallel()
	set := rules([2]string{"$a", "!!$a"})

	for depth := 0; depth < 3; depth++ {
		m := Simplify(expr.Sym("x"), set, depth)
		assert.GreaterOrEqual(t, m.Len(), depth+2, "depth %d", depth)
		for _, e := range m.Entries() {
			s := e.Expr.String()
			negations := strings.Count(s, "!")
			assert.Equal(t, 0, negations%2, "%s", s)
			assert.Equal(t, strings.Repeat("!", negations)+"x", s)
		}
	}
	assert.Equal(t, 2, Simplify(expr.Sym("x"), set, 0).Len())
	assert.Equal(t, 3, Simplify(expr.Sym("x"), set, 1).Len())
}

func TestNoDuplicateKeys(t *testing.T) {
	t.Parallel()
	start := expr.MustParse("!(!(a&&b)||!(c||!d))")
	m := Simplify(start, rule.BooleanAlgebra(), 1)

	seen := make(map[string]bool)
	for _, e := range m.Entries() {
		s := e.Expr.String()
		assert.False(t, seen[s], "duplicate key %s", s)
		seen[s] = true

		require.NotEmpty(t, e.Path)
		assert.True(t, expr.Equal(start, e.Path[0]), "path of %s must start at the start expression", s)
		assert.True(t, expr.Equal(e.Expr, e.Path[len(e.Path)-1]), "path of %s must end at its key", s)
	}
}

func TestAsymmetricOperandsAreDistinct(t *testing.T) {
	t.Parallel()
	set := rules([2]string{"$a||$b", "$b||$a"})
	m := Simplify(expr.MustParse("p||q"), set, 3)
	assert.Equal(t, []string{"(p||q)", "(q||p)"}, keys(m.Entries()))
}

func TestSearchIsDeterministic(t *testing.T) {
	t.Parallel()
	start := expr.MustParse("!!(!(x||y))&&(true||z)")
	first := Simplify(start, rule.BooleanAlgebra(), 2)
	second := Simplify(start, rule.BooleanAlgebra(), 2)

	require.Equal(t, first.Len(), second.Len())
	for i, e := range first.Entries() {
		other := second.Entries()[i]
		assert.Equal(t, e.String(), other.String())
	}
}

func TestParallelSearchMatchesSequential(t *testing.T) {
	t.Parallel()
	start := expr.MustParse("(!!a&&!(b&&c))||(!!d&&(e||e))")
	sequential, _ := SimplifyWithOptions(start, rule.BooleanAlgebra(), Options{MaxDepth: 1})
	parallel, stats := SimplifyWithOptions(start, rule.BooleanAlgebra(), Options{MaxDepth: 1, Workers: 4})

	assert.NotZero(t, stats.Expansions)
	require.Equal(t, sequential.Len(), parallel.Len())
	for i, e := range sequential.Entries() {
		assert.Equal(t, e.String(), parallel.Entries()[i].String())
	}
}

func TestMaxExpansions(t *testing.T) {
	t.Parallel()
	m, stats := SimplifyWithOptions(
		expr.MustParse("!!!!x&&!!y"),
		rule.DoubleNegation(),
		Options{MaxDepth: 10, MaxExpansions: 1, Workers: 4},
	)
	assert.True(t, stats.BudgetExhausted)
	assert.Equal(t, 1, stats.Expansions)
	assert.Equal(t, 1, m.Len(), "operand searches were refused, no rule matches the root")
}

func TestStatsAndLogging(t *testing.T) {
	t.Parallel()
	_, stats := SimplifyWithOptions(
		expr.MustParse("!!!true"),
		rule.BooleanOneWay(),
		Options{MaxDepth: 1, Logger: zaptest.NewLogger(t)},
	)
	assert.NotZero(t, stats.RuleApplications)
	assert.NotZero(t, stats.Recombinations)
	assert.NotZero(t, stats.DepthCutoffs)
	assert.False(t, stats.BudgetExhausted)
}

func TestLiftPaths(t *testing.T) {
	t.Parallel()
	chosen := []Entry{
		{Expr: expr.Sym("a2"), Path: []expr.Expr{expr.Sym("a1"), expr.Sym("a2")}},
		{Expr: expr.Sym("b"), Path: []expr.Expr{expr.Sym("b")}},
		{Expr: expr.Sym("c3"), Path: []expr.Expr{expr.Sym("c1"), expr.Sym("c2"), expr.Sym("c3")}},
	}
	got := liftPaths(expr.TagAnd, chosen)
	assert.Equal(t, []string{"(a1&&b&&c1)", "(a2&&b&&c2)", "(a2&&b&&c3)"}, pathStrings(got))
}

// randomExpr builds a ground expression of at most the given height.
func randomExpr(r *rand.Rand, height int) expr.Expr {
	if height == 0 || r.Intn(4) == 0 {
		switch r.Intn(4) {
		case 0:
			return expr.True()
		case 1:
			return expr.False()
		case 2:
			return expr.Sym("x")
		default:
			return expr.Sym("y")
		}
	}
	switch r.Intn(3) {
	case 0:
		return expr.Not(randomExpr(r, height-1))
	case 1:
		return expr.And(randomExpr(r, height-1), randomExpr(r, height-1))
	default:
		return expr.Or(randomExpr(r, height-1), randomExpr(r, height-1))
	}
}

func TestSimplifyTerminatesOnRandomInputs(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	const (
		runs         = 200
		stepBudget   = 1_000_000
		perRunBudget = 10 * time.Second
	)

	for i := 0; i < runs; i++ {
		start := randomExpr(r, 3)
		depth := r.Intn(3)

		began := time.Now()
		m, stats := SimplifyWithOptions(start, rule.BooleanAlgebra(), Options{MaxDepth: depth})
		elapsed := time.Since(began)

		require.Less(t, stats.Expansions, stepBudget, "start %s depth %d", start, depth)
		require.Less(t, elapsed, perRunBudget, "start %s depth %d", start, depth)
		require.GreaterOrEqual(t, m.Len(), 1)
		require.False(t, stats.BudgetExhausted)
	}
}

func keys(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Expr.String()
	}
	return out
}

func BenchmarkSimplify(b *testing.B) {
	start := expr.MustParse("!!(!(x||y))&&(true||!!z)")
	set := rule.BooleanAlgebra()
	for _, depth := range []int{1, 2} {
		b.Run(fmt.Sprintf("depth=%d", depth), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				Simplify(start, set, depth)
			}
		})
	}
}

func BenchmarkSimplifyParallel(b *testing.B) {
	start := expr.MustParse("(!!a&&!(b&&c))||(!!d&&(e||e))")
	set := rule.BooleanAlgebra()
	for i := 0; i < b.N; i++ {
		SimplifyWithOptions(start, set, Options{MaxDepth: 1, Workers: 4})
	}
}
