package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/trs/internal/config"
	"github.com/gnolang/trs/internal/search"
	"github.com/gnolang/trs/rewrite"
)

// searchFlags override configuration values for a single command.
type searchFlags struct {
	depth         int
	workers       int
	maxExpansions int
	ruleSet       string
	rulesFile     string
	order         string
	cacheDir      string
	clearCache    bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	defaults := config.Default()
	flags := cmd.Flags()
	flags.IntVarP(&f.depth, "depth", "d", defaults.Depth, "Maximum rewrite depth")
	flags.IntVar(&f.workers, "workers", defaults.Workers, "Goroutines used to search operands concurrently")
	flags.IntVar(&f.maxExpansions, "max-expansions", defaults.MaxExpansions, "Stop after this many expansions (0 means no limit)")
	flags.StringVar(&f.ruleSet, "ruleset", defaults.RuleSet, "Built-in rule set (boolean, boolean-oneway, double-negation)")
	flags.StringVar(&f.rulesFile, "rules", "", "YAML file with additional rules")
	flags.StringVar(&f.order, "order", defaults.Order, "Result order by cost (asc or desc)")
	flags.StringVar(&f.cacheDir, "cache-dir", "", "Directory of the result cache")
	flags.BoolVar(&f.clearCache, "clear-cache", false, "Drop every cached result before running")
}

// apply copies the flags set on the command line into cfg.
func (f *searchFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("depth") {
		cfg.Depth = f.depth
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("max-expansions") {
		cfg.MaxExpansions = f.maxExpansions
	}
	if flags.Changed("ruleset") {
		cfg.RuleSet = f.ruleSet
	}
	if flags.Changed("rules") {
		cfg.RulesFile = f.rulesFile
	}
	if flags.Changed("order") {
		if _, err := search.ParseOrder(f.order); err != nil {
			return err
		}
		cfg.Order = f.order
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = f.cacheDir
	}
	return cfg.Validate()
}

func (f *searchFlags) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if err := f.apply(cmd, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (f *searchFlags) newEngine(cmd *cobra.Command) (*rewrite.Engine, error) {
	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded",
		zap.String("file", cfgFile),
		zap.Int("depth", cfg.Depth),
		zap.String("ruleset", cfg.RuleSet),
		zap.String("rulesFile", cfg.RulesFile),
	)
	return f.build(cfg)
}

// build creates the engine for cfg and applies the cache flags to it.
func (f *searchFlags) build(cfg config.Config) (*rewrite.Engine, error) {
	engine, err := rewrite.New(cfg, rewrite.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if f.clearCache {
		if err := engine.ClearCache(); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// outputFlags select how results are written.
type outputFlags struct {
	json     bool
	outPath  string
	showCost bool
	noColor  bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&f.json, "json", false, "Output results in JSON format")
	flags.StringVarP(&f.outPath, "output", "o", "", "Output path (when using JSON)")
	flags.BoolVar(&f.showCost, "cost", false, "Show the cost of every reachable expression")
	flags.BoolVar(&f.noColor, "no-color", false, "Disable colored output")
}
