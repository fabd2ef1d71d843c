// Package eventually retries an assertion until it holds or a patience
// budget runs out. It is the polling counterpart to the conduct package:
// where a Conductor pins an interleaving, Eventually accepts any
// interleaving that settles into the expected state.
package eventually

import (
	"errors"
	"fmt"
	"time"

	"baton/pkg/patience"
)

// GaveUpError reports that the condition never held within the budget. It
// wraps the condition's last error, so errors.Is and errors.As reach
// through to it.
type GaveUpError struct {
	// Attempts is how many times the condition was tried.
	Attempts int

	// Elapsed is the wall time spent across all attempts.
	Elapsed time.Duration

	// Last is the error from the final attempt.
	Last error
}

// Error implements the error interface for GaveUpError.
func (e *GaveUpError) Error() string {
	return fmt.Sprintf("condition never held, gave up after %d attempts in %v: %v",
		e.Attempts, e.Elapsed, e.Last)
}

// Unwrap exposes the final attempt's error.
func (e *GaveUpError) Unwrap() error {
	return e.Last
}

// IsGaveUp checks whether an error is (or wraps) a GaveUpError.
func IsGaveUp(err error) bool {
	var gaveUp *GaveUpError
	return errors.As(err, &gaveUp)
}

// Eventually calls condition immediately and then once per interval until
// it returns nil or the timeout budget is spent, whichever comes first.
// Exhaustion yields a GaveUpError wrapping the last attempt's error.
func Eventually(condition func() error, opts ...patience.Option) error {
	if condition == nil {
		return fmt.Errorf("the condition must not be nil")
	}
	cfg := patience.Merge(opts...)

	start := time.Now()
	attempts := 0
	for {
		attempts++
		err := condition()
		if err == nil {
			return nil
		}
		if elapsed := time.Since(start); elapsed >= cfg.Timeout {
			return &GaveUpError{Attempts: attempts, Elapsed: elapsed, Last: err}
		}
		time.Sleep(cfg.Interval)
	}
}

// Value retries produce until it succeeds, returning the produced value.
// On exhaustion the zero value is returned together with the GaveUpError.
func Value[T any](produce func() (T, error), opts ...patience.Option) (T, error) {
	var result T
	if produce == nil {
		return result, fmt.Errorf("the producer must not be nil")
	}
	err := Eventually(func() error {
		v, err := produce()
		if err != nil {
			return err
		}
		result = v
		return nil
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
