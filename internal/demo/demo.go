// Package demo ships the built-in choreographies the baton CLI runs. Each
// demo scripts a small concurrency scenario against a Conductor, records
// what its threads observed in a Trace, and verifies the outcome, so the
// clock's guarantees can be shown (and stress-tested) end to end.
package demo

import (
	"fmt"
	"time"

	"baton/pkg/conduct"
	"baton/pkg/logging"
	"baton/pkg/patience"
)

// Demo is one runnable choreography.
type Demo struct {
	// Name identifies the demo on the command line.
	Name string

	// Description says what the demo shows, one sentence.
	Description string

	// Threads is how many threads the script registers.
	Threads int

	// Beats is the final beat a clean run ends on.
	Beats int

	// Timeout overrides the conduct budget when the caller does not give
	// one. Demos that are meant to trip the deadlock detector keep it
	// short.
	Timeout time.Duration

	// ExpectTimeout marks a demo whose intended outcome is the deadlock
	// budget expiring rather than a clean completion.
	ExpectTimeout bool

	// Script registers the demo's threads on a fresh Conductor. It must
	// not start conducting itself.
	Script func(c *conduct.Conductor, tr *Trace) error

	// Verify checks the recorded trace after the conduct. Optional.
	Verify func(tr *Trace) error
}

// All returns the built-in demos in presentation order.
func All() []Demo {
	return []Demo{
		newHandoff(),
		newBoundedBuffer(),
		newReadersWriter(),
		newStall(),
	}
}

// Find returns the named demo.
func Find(name string) (Demo, bool) {
	for _, d := range All() {
		if d.Name == name {
			return d, true
		}
	}
	return Demo{}, false
}

// Execute runs the demo under a fresh Conductor and returns its trace. Zero
// pacing values fall back to the demo's own timeout override, then to the
// conduct defaults. A demo that expects the deadlock budget to expire
// succeeds exactly when it does.
func Execute(d Demo, clockPeriod, timeout time.Duration) (*Trace, error) {
	if clockPeriod <= 0 {
		clockPeriod = patience.Scale(conduct.DefaultClockPeriod)
	}
	if timeout <= 0 {
		timeout = d.Timeout
	}
	if timeout <= 0 {
		timeout = patience.Scale(conduct.DefaultTimeout)
	}

	logging.Debug("Demo", "running %q (clock period %v, timeout %v)", d.Name, clockPeriod, timeout)
	c := conduct.New()
	tr := NewTrace()
	if err := d.Script(c, tr); err != nil {
		return tr, fmt.Errorf("scripting %q: %w", d.Name, err)
	}

	conductErr := c.ConductWithin(clockPeriod, timeout)

	if d.ExpectTimeout {
		switch {
		case conductErr == nil:
			return tr, fmt.Errorf("demo %q expected the conduct to time out, but it completed at beat %d", d.Name, c.Beat())
		case !conduct.IsTimeout(conductErr):
			return tr, conductErr
		}
	} else if conductErr != nil {
		return tr, conductErr
	}

	if d.Verify != nil {
		if err := d.Verify(tr); err != nil {
			return tr, fmt.Errorf("verifying %q: %w", d.Name, err)
		}
	}
	logging.Debug("Demo", "%q finished at beat %d with %d events", d.Name, c.Beat(), len(tr.Events()))
	return tr, nil
}
