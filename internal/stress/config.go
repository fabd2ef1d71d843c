package stress

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"baton/internal/demo"
)

// Config drives a stress session: how many conducts of which demos, how
// many in flight, and how each conduct is paced.
type Config struct {
	// Runs is how many times each scenario is executed.
	Runs int

	// Parallel caps how many conducts run at once.
	Parallel int

	// ClockPeriod paces each conduct's advance checks. Zero keeps the
	// demo or conduct default.
	ClockPeriod time.Duration

	// Timeout bounds each conduct. Zero keeps the demo or conduct
	// default.
	Timeout time.Duration

	// FailFast stops scheduling new runs after the first failure.
	FailFast bool

	// Scenarios names the demos to run. Empty selects all of them.
	Scenarios []string

	// ReportPath, when set, is where the JSON report is written.
	ReportPath string
}

// fileConfig is the YAML shape of a stress configuration. Durations are
// written as Go duration strings, e.g. "250ms" or "2s".
type fileConfig struct {
	Runs        int      `yaml:"runs"`
	Parallel    int      `yaml:"parallel"`
	ClockPeriod string   `yaml:"clockPeriod"`
	Timeout     string   `yaml:"timeout"`
	FailFast    bool     `yaml:"failFast"`
	Scenarios   []string `yaml:"scenarios"`
	Report      string   `yaml:"report"`
}

// DefaultConfig returns the stress defaults: every scenario, twenty runs
// each, four in flight.
func DefaultConfig() Config {
	return Config{
		Runs:     20,
		Parallel: 4,
	}
}

// LoadConfig reads a YAML stress configuration from path, filling omitted
// fields from the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading stress config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parsing stress config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if fc.Runs > 0 {
		cfg.Runs = fc.Runs
	}
	if fc.Parallel > 0 {
		cfg.Parallel = fc.Parallel
	}
	if fc.ClockPeriod != "" {
		d, err := time.ParseDuration(fc.ClockPeriod)
		if err != nil {
			return Config{}, fmt.Errorf("parsing clockPeriod in %s: %w", path, err)
		}
		cfg.ClockPeriod = d
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parsing timeout in %s: %w", path, err)
		}
		cfg.Timeout = d
	}
	cfg.FailFast = fc.FailFast
	if len(fc.Scenarios) > 0 {
		cfg.Scenarios = fc.Scenarios
	}
	if fc.Report != "" {
		cfg.ReportPath = fc.Report
	}
	return cfg, nil
}

// Validate checks the configuration, including that every named scenario
// exists.
func (c Config) Validate() error {
	if c.Runs < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", c.Runs)
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	if c.ClockPeriod < 0 {
		return fmt.Errorf("clock period must not be negative, got %v", c.ClockPeriod)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	for _, name := range c.Scenarios {
		if _, ok := demo.Find(name); !ok {
			return fmt.Errorf("unknown scenario %q", name)
		}
	}
	return nil
}
