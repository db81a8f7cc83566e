package engine

import (
	"fmt"
	"time"
)

// Config controls how the engine runs a rule set.
type Config struct {
	// Workers is the maximum number of rules evaluated concurrently.
	// Rows within a rule are always scanned sequentially.
	// Default: 4.
	Workers int

	// RuleTimeout bounds a single rule's evaluation, covering source
	// resolution and row iteration. A rule that exceeds it is recorded
	// as errored; the run continues.
	// Default: 30s.
	RuleTimeout time.Duration

	// MaxViolationsPerRule caps how many violations a rule result
	// retains. Counts stay exact past the cap; only the list is bounded,
	// keeping results small over very non-compliant data.
	// Default: 1000.
	MaxViolationsPerRule int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Workers:              4,
		RuleTimeout:          30 * time.Second,
		MaxViolationsPerRule: 1000,
	}
}

// Validate validates the engine configuration.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.RuleTimeout <= 0 {
		return fmt.Errorf("%w: rule timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxViolationsPerRule < 0 {
		return fmt.Errorf("%w: max violations per rule cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// WithWorkers sets the worker count.
func (c *Config) WithWorkers(n int) *Config {
	c.Workers = n
	return c
}

// WithRuleTimeout sets the per-rule timeout.
func (c *Config) WithRuleTimeout(timeout time.Duration) *Config {
	c.RuleTimeout = timeout
	return c
}

// WithMaxViolationsPerRule sets the violation list cap.
func (c *Config) WithMaxViolationsPerRule(max int) *Config {
	c.MaxViolationsPerRule = max
	return c
}
