// Package timelimit bounds a single operation with a wall-clock budget.
//
// Go cannot interrupt a goroutine, so the operation receives a context that
// expires at the limit and is expected to honor it; an operation that does
// not is abandoned, and an optional signal hook gives the caller a place to
// unblock it (close a connection, poke a channel) when the limit strikes.
package timelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DeadlineError reports that the operation outlived its limit.
type DeadlineError struct {
	// Limit is the budget that was exceeded.
	Limit time.Duration
}

// Error implements the error interface for DeadlineError.
func (e *DeadlineError) Error() string {
	return fmt.Sprintf("operation exceeded its time limit of %v", e.Limit)
}

// IsDeadline checks whether an error is (or wraps) a DeadlineError.
func IsDeadline(err error) bool {
	var deadline *DeadlineError
	return errors.As(err, &deadline)
}

type config struct {
	signal func()
}

// Option configures a FailAfter call.
type Option func(*config)

// WithSignal registers a hook fired exactly once when the limit expires,
// before FailAfter returns. It is the caller's chance to unblock an
// operation that cannot watch its context.
func WithSignal(fn func()) Option {
	return func(c *config) {
		c.signal = fn
	}
}

// FailAfter runs operation with a context that expires after limit. It
// returns the operation's own result when it finishes in time and a
// DeadlineError when it does not. A panicking operation panics FailAfter
// with the same value.
func FailAfter(limit time.Duration, operation func(ctx context.Context) error, opts ...Option) error {
	if limit <= 0 {
		return fmt.Errorf("time limit must be positive, got %v", limit)
	}
	if operation == nil {
		return fmt.Errorf("the operation must not be nil")
	}
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), limit)
	defer cancel()

	type outcome struct {
		err        error
		panicValue interface{}
		panicked   bool
	}
	done := make(chan outcome, 1)
	go func() {
		var out outcome
		defer func() {
			if r := recover(); r != nil {
				out.panicked = true
				out.panicValue = r
			}
			done <- out
		}()
		out.err = operation(ctx)
	}()

	select {
	case out := <-done:
		if out.panicked {
			panic(out.panicValue)
		}
		return out.err
	case <-ctx.Done():
		if cfg.signal != nil {
			cfg.signal()
		}
		return &DeadlineError{Limit: limit}
	}
}
