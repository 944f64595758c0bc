// Package config handles YAML config file loading for isohyet runs.
package config

import (
	"fmt"
	"sort"

	"github.com/isohyet-io/isohyet/types"
)

// Config represents an isohyet.yaml configuration file. It is the immutable
// snapshot consumed by one pipeline run; CLI flags override config values.
type Config struct {
	// StartDate and EndDate bound the inclusive date range of the initial
	// pass. The retry pass ignores them and uses the ledger instead.
	StartDate types.Date `yaml:"start_date"`
	EndDate   types.Date `yaml:"end_date"`

	// Concurrency caps simultaneously executing day workers.
	Concurrency int `yaml:"concurrency"`

	DataDir string `yaml:"data_dir"`
	LogDir  string `yaml:"log_dir"`

	Archive ArchiveConfig `yaml:"archive"`

	// Variables maps archive variable name to its aggregation method.
	Variables map[string]types.AggMethod `yaml:"variables"`

	// Derived names the derived-variable computations to enable; each must
	// be registered in the aggregate package.
	Derived []string `yaml:"derived"`

	Validation ValidationConfig `yaml:"validation"`

	Export ExportConfig `yaml:"export"`
}

// ArchiveConfig holds remote hourly-archive settings.
type ArchiveConfig struct {
	// Backend is "s3" or "stub" (stub is test-only).
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Region  string `yaml:"region"`
	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string `yaml:"endpoint"`
	// RatePerMinute caps archive object fetches across all workers.
	// Zero disables client-side rate limiting.
	RatePerMinute int `yaml:"rate_per_minute"`
}

// ValidationConfig holds the plausibility rules applied to every daily
// aggregate before it is persisted.
type ValidationConfig struct {
	// Ranges are per-variable min/max bounds. A nil bound is unchecked.
	Ranges []RangeRuleConfig `yaml:"ranges"`
	// DewpointRule enables the internal-consistency check that dewpoint
	// never exceeds air temperature.
	DewpointRule *DewpointRuleConfig `yaml:"dewpoint_rule,omitempty"`
}

// RangeRuleConfig is one per-variable bound pair from config.
type RangeRuleConfig struct {
	Variable string   `yaml:"variable"`
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
}

// DewpointRuleConfig names the dewpoint and temperature variables compared
// by the consistency rule.
type DewpointRuleConfig struct {
	Dewpoint    string `yaml:"dewpoint"`
	Temperature string `yaml:"temperature"`
}

// ExportConfig holds settings for exporting daily aggregates into a Lode
// dataset for downstream analytical consumers.
type ExportConfig struct {
	Dataset string `yaml:"dataset"`
	// Backend is "fs" or "s3".
	Backend string `yaml:"backend"`
	// Path is a directory for fs, bucket/prefix for s3.
	Path   string `yaml:"path"`
	Region string `yaml:"region"`
}

// Validate checks the config invariants that every command relies on.
func (c *Config) Validate() error {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("start_date and end_date are required")
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end_date %s precedes start_date %s", c.EndDate, c.StartDate)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if len(c.Variables) == 0 {
		return fmt.Errorf("at least one variable is required")
	}
	for name, method := range c.Variables {
		if !method.Valid() {
			return fmt.Errorf("variable %s: invalid aggregation method %q", name, method)
		}
	}
	for _, r := range c.Validation.Ranges {
		if r.Variable == "" {
			return fmt.Errorf("validation range rule missing variable name")
		}
		if r.Min == nil && r.Max == nil {
			return fmt.Errorf("validation range rule for %s has no bounds", r.Variable)
		}
	}
	return nil
}

// VariableNames returns the configured variable names sorted for
// deterministic iteration order.
func (c *Config) VariableNames() []string {
	names := make([]string, 0, len(c.Variables))
	for name := range c.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
