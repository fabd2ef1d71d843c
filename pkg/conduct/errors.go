package conduct

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// UsageError reports a violation of the Conductor's calling contract: wrong
// lifecycle state, wrong goroutine, or an argument outside the allowed range.
// Usage errors are always returned synchronously to the offending caller and
// are never deferred to result collection.
//
// Each violation has its own fixed message so tests can match on the text.
type UsageError struct {
	// Message describes the contract violation.
	Message string
}

// Error implements the error interface for UsageError.
func (e *UsageError) Error() string {
	return e.Message
}

// IsUsageError checks whether an error is (or wraps) a UsageError.
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}

func newUsageError(format string, args ...interface{}) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// Constructors for each distinct contract violation.
var (
	// newConductTwiceError reports a second Conduct invocation.
	newConductTwiceError = func() *UsageError {
		return newUsageError("conduct may only be invoked once on a Conductor")
	}

	// newThreadAfterConductError reports a registration attempt on a spent
	// Conductor.
	newThreadAfterConductError = func() *UsageError {
		return newUsageError("a thread cannot be registered once conduct has completed")
	}

	// newThreadOutsideWorkerError reports a mid-conduct registration from a
	// goroutine that is not one of the Conductor's own threads.
	newThreadOutsideWorkerError = func() *UsageError {
		return newUsageError("a thread can only be registered before conduct is invoked, or from inside an already registered thread")
	}

	// newDuplicateThreadError reports a name collision, naming the duplicate.
	newDuplicateThreadError = func(name string) *UsageError {
		return newUsageError("a thread named %q is already registered", name)
	}

	// newBeatZeroError reports a wait for the starting beat.
	newBeatZeroError = func() *UsageError {
		return newUsageError("cannot wait for beat zero; a Conductor starts at beat zero, so only beats greater than zero can be awaited")
	}

	// newNegativeBeatError reports a wait for a negative beat.
	newNegativeBeatError = func(beat int) *UsageError {
		return newUsageError("cannot wait for a negative beat: %d", beat)
	}

	// newClockPeriodError reports a non-positive clock period.
	newClockPeriodError = func(d time.Duration) *UsageError {
		return newUsageError("clock period must be positive, got %v", d)
	}

	// newConductTimeoutError reports a non-positive conduct timeout.
	newConductTimeoutError = func(d time.Duration) *UsageError {
		return newUsageError("conduct timeout must be positive, got %v", d)
	}

	// newWhenFinishedCallerError reports WhenFinished from the wrong goroutine.
	newWhenFinishedCallerError = func() *UsageError {
		return newUsageError("WhenFinished may only be called by the goroutine that created the Conductor")
	}

	// newRunOnceError reports a second WhenFinished invocation.
	newRunOnceError = func() *UsageError {
		return newUsageError("a Conductor can only be run once")
	}

	// newNilFunctionError reports a nil function argument.
	newNilFunctionError = func(what string) *UsageError {
		return newUsageError("the %s must not be nil", what)
	}
)

// TimeoutError reports that a conduct's wall-clock budget expired before all
// threads terminated. It is the Conductor's captured failure in that case and
// is a distinct kind from a thread-body failure, so callers can tell "a thread
// broke" apart from "nothing ever finished".
type TimeoutError struct {
	// Limit is the budget that was exceeded.
	Limit time.Duration

	// Stragglers names the threads that were still live when the budget
	// expired, in no particular order.
	Stragglers []string
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	if len(e.Stragglers) == 0 {
		return fmt.Sprintf("conduct timed out after %v", e.Limit)
	}
	return fmt.Sprintf("conduct timed out after %v with threads still running: %s",
		e.Limit, strings.Join(e.Stragglers, ", "))
}

// IsTimeout checks whether an error is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// PanicError wraps a non-error value recovered from a panicking thread body.
// Panic values that already are errors are captured directly instead, so the
// original error identity survives result collection.
type PanicError struct {
	// Value is the value the body panicked with.
	Value interface{}

	// Stack is the stack trace captured at recovery.
	Stack []byte
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("thread panicked: %v", e.Value)
}

// ErrConductAborted is returned from a beat wait that was cut short because
// the conduct ended before the awaited beat arrived, whether its deadline
// expired or every thread finished. A registered thread can only see the
// former, since a conduct cannot complete while one of its threads is parked.
var ErrConductAborted = errors.New("conduct ended before the awaited beat arrived")
