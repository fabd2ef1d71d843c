// Package waiter carries verdicts from helper goroutines back to the test
// goroutine. Go's testing.T must only be failed from the goroutine running
// the test, so goroutines spawned by a test hand their failures to a Waiter
// instead: they Dismiss on success or Reject with an error, and the test
// goroutine collects the verdict in Await.
package waiter

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"baton/pkg/patience"
)

// ExpiredError reports that Await ran out of time before enough dismissals
// arrived.
type ExpiredError struct {
	// Waited is how long Await blocked before expiring.
	Waited time.Duration

	// Got is how many dismissals had arrived by then.
	Got int

	// Want is how many dismissals Await required.
	Want int
}

// Error implements the error interface for ExpiredError.
func (e *ExpiredError) Error() string {
	return fmt.Sprintf("waiter expired after %v with %d of %d dismissals", e.Waited, e.Got, e.Want)
}

// IsExpired checks whether an error is (or wraps) an ExpiredError.
func IsExpired(err error) bool {
	var expired *ExpiredError
	return errors.As(err, &expired)
}

type config struct {
	dismissals int
	timeout    time.Duration
}

// Option configures a single Await call.
type Option func(*config)

// WithDismissals sets how many dismissals Await requires before returning.
// Values below one count as one.
func WithDismissals(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.dismissals = n
	}
}

// WithTimeout overrides how long Await blocks before expiring.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Waiter accumulates dismissals and at most one rejection. The zero value
// is not usable; construct with New.
type Waiter struct {
	mu         sync.Mutex
	changed    chan struct{}
	dismissals int
	rejection  error
}

// New returns an empty Waiter.
func New() *Waiter {
	return &Waiter{changed: make(chan struct{})}
}

// Dismiss records one successful verdict and wakes every Await.
func (w *Waiter) Dismiss() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dismissals++
	w.broadcastLocked()
}

// Reject hands err to Await. The first rejection sticks, later ones and nil
// are ignored, and the recorded error surfaces from Await unwrapped.
func (w *Waiter) Reject(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rejection == nil {
		w.rejection = err
		w.broadcastLocked()
	}
}

// broadcastLocked wakes the waiters by rolling the signal channel. Callers
// hold mu.
func (w *Waiter) broadcastLocked() {
	close(w.changed)
	w.changed = make(chan struct{})
}

// Await blocks until the required number of dismissals arrived (one, unless
// WithDismissals says otherwise), a rejection was recorded, or the timeout
// budget passed. A rejection wins over dismissals and is returned as-is;
// expiry yields an ExpiredError carrying the dismissal tally.
func (w *Waiter) Await(opts ...Option) error {
	cfg := config{dismissals: 1, timeout: patience.Default().Timeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	timer := time.NewTimer(cfg.timeout)
	defer timer.Stop()

	for {
		w.mu.Lock()
		if w.rejection != nil {
			rejection := w.rejection
			w.mu.Unlock()
			return rejection
		}
		if w.dismissals >= cfg.dismissals {
			w.mu.Unlock()
			return nil
		}
		wait := w.changed
		w.mu.Unlock()

		select {
		case <-wait:
		case <-timer.C:
			w.mu.Lock()
			defer w.mu.Unlock()
			if w.rejection != nil {
				return w.rejection
			}
			if w.dismissals >= cfg.dismissals {
				return nil
			}
			return &ExpiredError{Waited: time.Since(start), Got: w.dismissals, Want: cfg.dismissals}
		}
	}
}
