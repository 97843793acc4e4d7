package search

import (
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/trs/internal/expr"
	"github.com/gnolang/trs/internal/rule"
)

// Options tunes a search.
type Options struct {
	// MaxDepth bounds the recursion: an expression found at depth d is only
	// expanded further while d <= MaxDepth. The start expression is at
	// depth 0.
	MaxDepth int
	// MaxExpansions stops the search after that many expansions.
	// Zero means no limit. A limit forces a sequential search so the
	// truncation point stays reproducible.
	MaxExpansions int
	// Workers is the number of goroutines used to search the operands of
	// an operator concurrently. Values below 2 search sequentially.
	Workers int
	Logger  *zap.Logger
}

// Stats describes the work done by a search.
type Stats struct {
	Expansions       int
	RuleApplications int
	Recombinations   int
	// DepthCutoffs counts expansions refused by MaxDepth.
	DepthCutoffs int
	// BudgetExhausted is set when MaxExpansions stopped the search.
	BudgetExhausted bool
}

// Simplify explores every expression reachable from start by applying
// rules anywhere in the tree and returns one discovery path per expression.
//
// The search only terminates because of maxDepth: a rule set that keeps
// producing new expressions (e.g. $a -> !!$a) grows the result with every
// extra level, and the number of entries can be exponential in maxDepth and
// operator arity. Callers pick a depth that suits their rule set.
func Simplify(start expr.Expr, rules rule.Set, maxDepth int) *PathMap {
	m, _ := SimplifyWithOptions(start, rules, Options{MaxDepth: maxDepth})
	return m
}

// SimplifyWithOptions is Simplify with explicit options and statistics.
func SimplifyWithOptions(start expr.Expr, rules rule.Set, opts Options) (*PathMap, Stats) {
	s := newSearcher(rules, opts)
	m := newPathMap(start)
	s.expand(start, []expr.Expr{start}, m, 0)

	stats := s.stats()
	s.logger.Debug("search finished",
		zap.Stringer("start", start),
		zap.Int("discovered", m.Len()),
		zap.Int("expansions", stats.Expansions),
		zap.Int("depthCutoffs", stats.DepthCutoffs),
		zap.Bool("budgetExhausted", stats.BudgetExhausted),
	)
	return m, stats
}

type searcher struct {
	rules  []*rule.Transformation
	opts   Options
	logger *zap.Logger
	// sem bounds the goroutines started for operand searches.
	sem chan struct{}

	expansions     atomic.Int64
	applications   atomic.Int64
	recombinations atomic.Int64
	cutoffs        atomic.Int64
	exhausted      atomic.Bool
}

func newSearcher(rules rule.Set, opts Options) *searcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &searcher{
		rules:  rules.Rules,
		opts:   opts,
		logger: logger,
	}
	if opts.Workers > 1 && opts.MaxExpansions == 0 {
		s.sem = make(chan struct{}, opts.Workers-1)
	}
	return s
}

func (s *searcher) stats() Stats {
	return Stats{
		Expansions:       int(s.expansions.Load()),
		RuleApplications: int(s.applications.Load()),
		Recombinations:   int(s.recombinations.Load()),
		DepthCutoffs:     int(s.cutoffs.Load()),
		BudgetExhausted:  s.exhausted.Load(),
	}
}

// take claims one expansion from the budget.
func (s *searcher) take() bool {
	if s.opts.MaxExpansions == 0 {
		s.expansions.Add(1)
		return true
	}
	if s.expansions.Load() >= int64(s.opts.MaxExpansions) {
		s.exhausted.Store(true)
		return false
	}
	s.expansions.Add(1)
	return true
}

// expand discovers the successors of e. Operand-level rewrites are
// recombined first, then every rule is tried at the root of e.
func (s *searcher) expand(e expr.Expr, path []expr.Expr, m *PathMap, depth int) {
	if depth > s.opts.MaxDepth {
		s.cutoffs.Add(1)
		return
	}
	if !s.take() {
		return
	}
	if op, ok := e.(*expr.Operator); ok {
		s.recombine(op, path, m, depth)
	}
	s.applyRules(e, path, m, depth)
}

func (s *searcher) applyRules(e expr.Expr, path []expr.Expr, m *PathMap, depth int) {
	for _, r := range s.rules {
		env := make(rule.Bindings)
		if !r.Matches(e, env) {
			continue
		}
		candidate := r.Transform(e, env)
		s.applications.Add(1)

		next := extend(path, candidate)
		if !m.add(candidate, next) {
			continue
		}
		if ce := s.logger.Check(zap.DebugLevel, "rule applied"); ce != nil {
			ce.Write(
				zap.String("rule", r.Name),
				zap.Stringer("from", e),
				zap.Stringer("to", candidate),
				zap.Int("depth", depth),
			)
		}
		s.expand(candidate, next, m, depth+1)
	}
}

// recombine rewrites op through its operands: every operand is searched on
// its own and each combination of operand results yields a new parent.
func (s *searcher) recombine(op *expr.Operator, path []expr.Expr, m *PathMap, depth int) {
	operandMaps := s.searchOperands(op, depth)

	n := op.Arity()
	idx := make([]int, n)
	chosen := make([]Entry, n)
	for {
		operands := make([]expr.Expr, n)
		for i := range idx {
			chosen[i] = operandMaps[i].entries[idx[i]]
			operands[i] = chosen[i].Expr
		}

		parent := expr.Op(op.Tag(), operands...)
		if !expr.Equal(parent, op) && !m.Contains(parent) {
			next := extend(path, liftPaths(op.Tag(), chosen)...)
			m.add(parent, next)
			s.recombinations.Add(1)
			s.expand(parent, next, m, depth+1)
		}

		// advance the odometer, last operand fastest
		i := n - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(operandMaps[i].entries) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// searchOperands runs an independent search rooted at every operand of op.
// Each operand map starts with the identity entry, and the paths it records
// do not repeat the operand itself.
func (s *searcher) searchOperands(op *expr.Operator, depth int) []*PathMap {
	maps := make([]*PathMap, op.Arity())
	search := func(i int) {
		operand := op.Operand(i)
		m := newPathMap(operand)
		s.expand(operand, nil, m, depth)
		maps[i] = m
	}

	if s.sem == nil || op.Arity() < 2 {
		for i := range maps {
			search(i)
		}
		return maps
	}

	var g errgroup.Group
	for i := range maps {
		select {
		case s.sem <- struct{}{}:
			g.Go(func() error {
				defer func() { <-s.sem }()
				search(i)
				return nil
			})
		default:
			// no free worker, stay on this goroutine
			search(i)
		}
	}
	_ = g.Wait()
	return maps
}

// liftPaths wraps operand paths into parent paths. Shorter paths are padded
// with their last element so that all of them have the same length, then
// the i-th elements are combined under tag.
func liftPaths(tag string, chosen []Entry) []expr.Expr {
	longest := 0
	for _, c := range chosen {
		longest = max(longest, len(c.Path))
	}
	lifted := make([]expr.Expr, longest)
	for step := range longest {
		operands := make([]expr.Expr, len(chosen))
		for i, c := range chosen {
			operands[i] = c.Path[min(step, len(c.Path)-1)]
		}
		lifted[step] = expr.Op(tag, operands...)
	}
	return lifted
}

func extend(path []expr.Expr, tail ...expr.Expr) []expr.Expr {
	out := make([]expr.Expr, 0, len(path)+len(tail))
	out = append(out, path...)
	return append(out, tail...)
}
