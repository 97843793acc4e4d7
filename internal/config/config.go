package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/trs/internal/rule"
	"github.com/gnolang/trs/internal/search"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = ".trs.yaml"

const (
	defaultDepth       = 3
	defaultRuleSet     = "boolean"
	defaultCacheMaxAge = 24 * time.Hour
)

// Config represents the settings of a rewriting run.
type Config struct {
	Name          string            `yaml:"name"`
	Depth         int               `yaml:"depth"`
	Order         string            `yaml:"order"`
	Workers       int               `yaml:"workers"`
	MaxExpansions int               `yaml:"max_expansions"`
	RuleSet       string            `yaml:"ruleset"`
	RulesFile     string            `yaml:"rules_file,omitempty"`
	Rules         []rule.Definition `yaml:"rules,omitempty"`
	Cache         CacheConfig       `yaml:"cache"`
}

type CacheConfig struct {
	// Dir enables the result cache when not empty.
	Dir    string        `yaml:"dir,omitempty"`
	MaxAge time.Duration `yaml:"max_age"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Name:    "trs",
		Depth:   defaultDepth,
		Order:   search.Ascending.String(),
		Workers: 1,
		RuleSet: defaultRuleSet,
		Cache: CacheConfig{
			MaxAge: defaultCacheMaxAge,
		},
	}
}

// Load reads the configuration file at path on top of the defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := Decode(f, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r into cfg and validates the result.
func Decode(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	if c.Depth < 0 {
		return fmt.Errorf("depth must not be negative, got %d", c.Depth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxExpansions < 0 {
		return fmt.Errorf("max_expansions must not be negative, got %d", c.MaxExpansions)
	}
	if _, err := search.ParseOrder(c.Order); err != nil {
		return err
	}
	if c.RuleSet == "" && c.RulesFile == "" && len(c.Rules) == 0 {
		return errors.New("no rules configured")
	}
	return nil
}

// SearchOrder returns the parsed result order.
func (c Config) SearchOrder() search.Order {
	order, _ := search.ParseOrder(c.Order)
	return order
}

// LoadRules assembles the rule set: the built-in set first, then the rules
// file, then the inline rules.
func (c Config) LoadRules() (rule.Set, error) {
	var (
		names []string
		rules []*rule.Transformation
	)

	if c.RuleSet != "" {
		builtin, err := rule.Builtin(c.RuleSet)
		if err != nil {
			return rule.Set{}, err
		}
		names = append(names, builtin.Name)
		rules = append(rules, builtin.Rules...)
	}

	if c.RulesFile != "" {
		fromFile, err := rule.LoadSet(c.RulesFile)
		if err != nil {
			return rule.Set{}, fmt.Errorf("failed to load rules file: %w", err)
		}
		names = append(names, fromFile.Name)
		rules = append(rules, fromFile.Rules...)
	}

	if len(c.Rules) > 0 {
		inline, err := rule.Compile("inline", c.Rules)
		if err != nil {
			return rule.Set{}, fmt.Errorf("invalid inline rule: %w", err)
		}
		names = append(names, inline.Name)
		rules = append(rules, inline.Rules...)
	}

	return rule.NewSet(strings.Join(names, "+"), rules...), nil
}

// Write stores cfg as YAML at path, replacing any existing file.
func Write(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath
	}

	d, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(d)
	return err
}
