package rewrite

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gnolang/trs/internal/cache"
	"github.com/gnolang/trs/internal/config"
	"github.com/gnolang/trs/internal/expr"
	"github.com/gnolang/trs/internal/rule"
	"github.com/gnolang/trs/internal/search"
	"github.com/gnolang/trs/internal/types"
)

// ErrPatternVariable is returned for inputs that contain $variables. Those
// only have a meaning inside rule patterns.
var ErrPatternVariable = errors.New("pattern variables are not allowed in expressions")

// Simplifier produces the report for a single textual expression.
type Simplifier interface {
	Simplify(ctx context.Context, input string) (*Result, error)
}

// Result is a report together with how it was obtained.
type Result struct {
	types.Report
	// Stats is nil when the report came from the cache.
	Stats  *search.Stats `json:"stats,omitempty"`
	Cached bool          `json:"cached,omitempty"`
}

// Engine runs searches for a fixed configuration and rule set.
type Engine struct {
	cfg    config.Config
	rules  rule.Set
	order  search.Order
	cache  *cache.Cache
	logger *zap.Logger

	customRules bool
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCache uses c instead of the cache described by the configuration.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithRules replaces the configured rules.
func WithRules(rules rule.Set) Option {
	return func(e *Engine) {
		e.rules = rules
		e.customRules = true
	}
}

func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		order:  cfg.SearchOrder(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if !e.customRules {
		rules, err := cfg.LoadRules()
		if err != nil {
			return nil, err
		}
		e.rules = rules
	}

	if e.cache == nil && cfg.Cache.Dir != "" {
		c, err := cache.New(cfg.Cache.Dir, e.logger)
		if err != nil {
			return nil, err
		}
		c.SetMaxAge(cfg.Cache.MaxAge)
		if err := c.Prune(); err != nil {
			e.logger.Warn("failed to prune cache", zap.Error(err))
		}
		e.cache = c
	}

	return e, nil
}

// ClearCache drops every cached report. It is a no-op without a cache.
func (e *Engine) ClearCache() error {
	if e.cache == nil {
		return nil
	}
	if err := e.cache.InvalidateAll(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	e.logger.Debug("cache cleared", zap.String("dir", e.cache.Dir))
	return nil
}

// NewFromFile loads the configuration at configurationPath and builds an
// engine from it.
func NewFromFile(configurationPath string, opts ...Option) (*Engine, error) {
	cfg, err := config.Load(configurationPath)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

func (e *Engine) Rules() rule.Set       { return e.rules }
func (e *Engine) Config() config.Config { return e.cfg }
func (e *Engine) Cache() *cache.Cache   { return e.cache }
func (e *Engine) Order() search.Order   { return e.order }

// Options returns the search options derived from the configuration.
func (e *Engine) Options() search.Options {
	return search.Options{
		MaxDepth:      e.cfg.Depth,
		MaxExpansions: e.cfg.MaxExpansions,
		Workers:       e.cfg.Workers,
		Logger:        e.logger,
	}
}

// Search runs the rewrite search from start without touching the cache.
func (e *Engine) Search(start expr.Expr) (*search.PathMap, search.Stats) {
	return search.SimplifyWithOptions(start, e.rules, e.Options())
}

type outcome struct {
	paths *search.PathMap
	stats search.Stats
}

// Simplify parses input and lists every expression reachable from it,
// ordered by cost. The search itself cannot be interrupted; when ctx ends
// first, Simplify returns ctx.Err() and the search result is discarded.
func (e *Engine) Simplify(ctx context.Context, input string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start, err := expr.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", input, err)
	}
	if !expr.IsGround(start) {
		return nil, fmt.Errorf("invalid expression %q: %w", input, ErrPatternVariable)
	}

	key := e.cacheKey(start)
	if e.cache != nil {
		if report, ok := e.cache.Get(key); ok {
			e.logger.Debug("cache hit", zap.String("input", key.Input))
			return &Result{Report: report, Cached: true}, nil
		}
	}

	done := make(chan outcome, 1)
	go func() {
		m, stats := e.Search(start)
		done <- outcome{paths: m, stats: stats}
	}()

	var o outcome
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o = <-done:
	}

	report := e.report(start, o.paths, o.stats)
	e.logger.Debug("expression simplified",
		zap.String("input", report.Input),
		zap.Int("transformations", len(report.Transformations)),
		zap.Int("longestPath", longestPath(o.paths)),
		zap.Int("expansions", o.stats.Expansions),
	)

	if e.cache != nil {
		if err := e.cache.Set(key, report); err != nil {
			e.logger.Warn("failed to store result in cache", zap.Error(err))
		}
	}

	return &Result{Report: report, Stats: &o.stats}, nil
}

func (e *Engine) cacheKey(start expr.Expr) cache.Key {
	return cache.Key{
		Input:         start.String(),
		Fingerprint:   e.rules.Fingerprint(),
		Depth:         e.cfg.Depth,
		Order:         e.order.String(),
		MaxExpansions: e.cfg.MaxExpansions,
	}
}

func (e *Engine) report(start expr.Expr, m *search.PathMap, stats search.Stats) types.Report {
	sorted := m.Sorted(e.order)
	transformations := make([]types.Transformation, len(sorted))
	for i, entry := range sorted {
		transformations[i] = Render(entry)
	}
	return types.Report{
		Input:           start.String(),
		RuleSet:         e.rules.Name,
		Depth:           e.cfg.Depth,
		Order:           e.order.String(),
		Transformations: transformations,
		Truncated:       stats.BudgetExhausted,
	}
}

// longestPath returns the most rewrite steps needed to reach an entry.
func longestPath(m *search.PathMap) int {
	longest := 0
	for _, entry := range m.Entries() {
		longest = max(longest, entry.Steps())
	}
	return longest
}

// Render converts a search entry into its textual form.
func Render(entry search.Entry) types.Transformation {
	path := make([]string, len(entry.Path))
	for i, step := range entry.Path {
		path[i] = step.String()
	}
	return types.Transformation{
		Expr: entry.Expr.String(),
		Cost: entry.Expr.Cost(),
		Path: path,
	}
}
