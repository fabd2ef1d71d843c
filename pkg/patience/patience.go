// Package patience centralizes the timing knobs shared by the concurrency
// test helpers: how long to keep trying, and how long to pause between tries.
//
// Every duration handed out by this package is multiplied by a scale factor
// read once from the BATON_TIME_FACTOR environment variable, so a slow CI
// machine can stretch all timeouts uniformly without touching test code:
//
//	BATON_TIME_FACTOR=4 go test ./...
package patience

import (
	"os"
	"strconv"
	"sync"
	"time"

	"baton/pkg/logging"
)

const (
	// DefaultTimeout is how long callers keep retrying before giving up.
	DefaultTimeout = 150 * time.Millisecond
	// DefaultInterval is the pause between retry attempts.
	DefaultInterval = 15 * time.Millisecond

	// EnvTimeFactor names the environment variable holding the scale factor.
	EnvTimeFactor = "BATON_TIME_FACTOR"
)

// Config bundles the two timing knobs.
type Config struct {
	// Timeout is the total budget before giving up.
	Timeout time.Duration
	// Interval is the pause between attempts.
	Interval time.Duration
}

// Option mutates a Config.
type Option func(*Config)

// WithTimeout overrides the total budget.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithInterval overrides the pause between attempts.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// Default returns the default configuration with the scale factor applied.
func Default() Config {
	return Config{
		Timeout:  Scale(DefaultTimeout),
		Interval: Scale(DefaultInterval),
	}
}

// Merge applies the given options on top of the default configuration.
func Merge(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

var (
	factorOnce sync.Once
	factor     float64
)

// Factor returns the time scale factor. It is read from BATON_TIME_FACTOR on
// first use; unset, empty, non-numeric or non-positive values yield 1.
func Factor() float64 {
	factorOnce.Do(func() {
		factor = 1
		raw := os.Getenv(EnvTimeFactor)
		if raw == "" {
			return
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			logging.Warn("Patience", "ignoring invalid %s value %q", EnvTimeFactor, raw)
			return
		}
		factor = parsed
	})
	return factor
}

// Scale multiplies a duration by the configured time factor.
func Scale(d time.Duration) time.Duration {
	f := Factor()
	if f == 1 {
		return d
	}
	return time.Duration(float64(d) * f)
}
