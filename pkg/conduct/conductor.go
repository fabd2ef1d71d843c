package conduct

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"baton/pkg/logging"
	"baton/pkg/patience"
)

// Lifecycle states. A Conductor only ever moves forward through them, and
// the transition out of stateUnstarted is a compare-and-swap so racing
// Conduct calls are rejected deterministically.
const (
	stateUnstarted int32 = iota
	stateConducting
	stateConducted
)

// Default pacing for Conduct. Both values pass through the shared patience
// factor, so slow environments can stretch them with BATON_TIME_FACTOR.
const (
	// DefaultClockPeriod is how often the conduct loop checks whether the
	// beat can safely advance.
	DefaultClockPeriod = 10 * time.Millisecond

	// DefaultTimeout is the wall-clock budget for a whole conduct.
	DefaultTimeout = 5 * time.Second
)

// Conductor choreographs a troupe of named threads against a shared logical
// clock. Threads are registered first, held at their gate, and released
// together by Conduct; within their bodies they order themselves around
// beats with WaitForBeat and pin the clock with WithConductorFrozen.
//
// A Conductor is single-use. Conduct may be invoked exactly once, and every
// contract violation is answered synchronously with a UsageError rather than
// being deferred to result collection.
type Conductor struct {
	clock *clock
	state atomic.Int32

	// creatorGID is the goroutine that called New. Only it may call
	// WhenFinished.
	creatorGID uint64

	mu        sync.Mutex
	workers   []*Worker
	byName    map[string]*Worker
	byGID     map[uint64]*Worker
	autoIndex int
	ranOnce   bool
	failure   error
}

// New creates a Conductor at beat zero with no threads registered.
func New() *Conductor {
	return &Conductor{
		clock:      newClock(),
		creatorGID: currentGoroutineID(),
		byName:     make(map[string]*Worker),
		byGID:      make(map[uint64]*Worker),
	}
}

// Thread registers body as a new auto-named thread. Names are assigned as
// Thread-0, Thread-1, ... in registration order.
func (c *Conductor) Thread(body func() error) (*Worker, error) {
	return c.register("", body)
}

// NamedThread registers body as a new thread under the given name. Each
// name may be used only once per Conductor.
func (c *Conductor) NamedThread(name string, body func() error) (*Worker, error) {
	return c.register(name, body)
}

// Proc adapts a plain procedure to the error-returning shape thread bodies
// and post conditions use. A nil fn yields a nil body, which registration
// rejects.
func Proc(fn func()) func() error {
	if fn == nil {
		return nil
	}
	return func() error {
		fn()
		return nil
	}
}

// register adds a thread under the lifecycle rules: anyone may register
// before conducting begins, only a registered thread may register while it
// is under way, and nobody may register once it has completed. An empty
// name requests the next auto-assigned one.
func (c *Conductor) register(name string, body func() error) (*Worker, error) {
	if body == nil {
		return nil, newNilFunctionError("thread body")
	}
	gid := currentGoroutineID()

	c.mu.Lock()

	var gate int
	var startNow bool
	switch c.state.Load() {
	case stateConducted:
		c.mu.Unlock()
		return nil, newThreadAfterConductError()
	case stateConducting:
		if c.byGID[gid] == nil {
			c.mu.Unlock()
			return nil, newThreadOutsideWorkerError()
		}
		// A thread registered mid-conduct joins at the current beat and
		// starts right away.
		gate = c.clock.current()
		startNow = true
	default:
		gate = 1
	}

	if name == "" {
		name = fmt.Sprintf("Thread-%d", c.autoIndex)
		c.autoIndex++
	}
	if _, taken := c.byName[name]; taken {
		c.mu.Unlock()
		return nil, newDuplicateThreadError(name)
	}

	w := newWorker(c, name, body, gate)
	c.workers = append(c.workers, w)
	c.byName[name] = w
	c.mu.Unlock()

	logging.Debug("Conductor", "registered thread %s, gated on beat %d", name, gate)
	if startNow {
		w.start()
	}
	return w, nil
}

// Conduct runs the choreography with the default clock period and timeout.
func (c *Conductor) Conduct() error {
	return c.ConductWithin(patience.Scale(DefaultClockPeriod), patience.Scale(DefaultTimeout))
}

// ConductWithin releases every registered thread and advances the clock
// whenever the whole troupe is parked on future beats, checking every
// clockPeriod. It returns once all threads have terminated, surfacing the
// first captured failure in registration order, or a TimeoutError naming
// the still-live threads if the budget expires first.
//
// With no threads registered the conduct completes immediately at beat zero.
func (c *Conductor) ConductWithin(clockPeriod, timeout time.Duration) error {
	if clockPeriod <= 0 {
		return newClockPeriodError(clockPeriod)
	}
	if timeout <= 0 {
		return newConductTimeoutError(timeout)
	}
	if !c.state.CompareAndSwap(stateUnstarted, stateConducting) {
		return newConductTwiceError()
	}

	c.mu.Lock()
	starting := make([]*Worker, len(c.workers))
	copy(starting, c.workers)
	c.mu.Unlock()

	logging.Debug("Conductor", "conducting %d threads (clock period %v, timeout %v)",
		len(starting), clockPeriod, timeout)
	for _, w := range starting {
		w.start()
	}

	deadline := time.Now().Add(timeout)
	for c.clock.liveCount() > 0 {
		if time.Now().After(deadline) {
			stragglers := c.clock.liveNames()
			c.clock.abort()
			failure := &TimeoutError{Limit: timeout, Stragglers: stragglers}
			c.finish(failure)
			logging.Debug("Conductor", "conduct timed out after %v, threads still live: %v",
				timeout, stragglers)
			return failure
		}
		c.clock.advanceIfPossible()
		time.Sleep(clockPeriod)
	}

	// The troupe is re-read because threads registered mid-conduct extend
	// it beyond the starting snapshot.
	c.mu.Lock()
	troupe := make([]*Worker, len(c.workers))
	copy(troupe, c.workers)
	c.mu.Unlock()

	for _, w := range troupe {
		<-w.done
	}

	var failure error
	for _, w := range troupe {
		if err := w.Failure(); err != nil {
			failure = err
			break
		}
	}
	c.finish(failure)
	logging.Debug("Conductor", "conduct complete at beat %d", c.clock.current())
	return failure
}

// finish records the captured failure, retires the Conductor, and releases
// any observers still parked on the clock.
func (c *Conductor) finish(failure error) {
	c.mu.Lock()
	c.failure = failure
	c.mu.Unlock()
	c.state.Store(stateConducted)
	c.clock.finish()
}

// WhenFinished conducts the choreography if conducting has not already
// begun, then runs postCondition regardless of how the threads fared. A
// postCondition error takes precedence; otherwise the conduct's captured
// failure, if any, is surfaced.
//
// Only the goroutine that created the Conductor may call WhenFinished, and
// only once.
func (c *Conductor) WhenFinished(postCondition func() error) error {
	if postCondition == nil {
		return newNilFunctionError("post condition")
	}
	if currentGoroutineID() != c.creatorGID {
		return newWhenFinishedCallerError()
	}

	c.mu.Lock()
	if c.ranOnce {
		c.mu.Unlock()
		return newRunOnceError()
	}
	c.ranOnce = true
	c.mu.Unlock()

	switch c.state.Load() {
	case stateUnstarted:
		if err := c.Conduct(); err != nil && IsUsageError(err) {
			return err
		}
	case stateConducting:
		// Another goroutine is conducting right now, so the final state
		// the post condition should observe does not exist yet.
		return newRunOnceError()
	}

	if err := postCondition(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// WaitForBeat blocks the caller until the clock reaches the given beat,
// returning ErrConductAborted if the conduct ends first: its budget expired,
// or, for a caller outside the troupe, every thread finished with the beat
// still out of reach. Beats arrive in order, so a caller released at beat n
// observes Beat() == n until it parks again or terminates.
//
// The clock starts at beat zero, so zero and negative beats cannot be
// awaited.
func (c *Conductor) WaitForBeat(beat int) error {
	if beat == 0 {
		return newBeatZeroError()
	}
	if beat < 0 {
		return newNegativeBeatError(beat)
	}
	w := c.callerWorker()
	if w != nil {
		logging.Debug("Conductor", "thread %s waiting for beat %d", w.name, beat)
	}
	return c.clock.await(w, beat)
}

// WithConductorFrozen runs fn with the clock pinned to the current beat.
// Frozen sections nest; the beat can only advance again once every one of
// them has unwound.
func (c *Conductor) WithConductorFrozen(fn func() error) error {
	if fn == nil {
		return newNilFunctionError("frozen section")
	}
	c.clock.freeze()
	defer c.clock.unfreeze()
	return fn()
}

// Beat returns the clock's current beat.
func (c *Conductor) Beat() int {
	return c.clock.current()
}

// ConductingHasBegun reports whether a conduct has been started on this
// Conductor, running or finished.
func (c *Conductor) ConductingHasBegun() bool {
	return c.state.Load() != stateUnstarted
}

// IsConductorFrozen reports whether at least one frozen section is active.
func (c *Conductor) IsConductorFrozen() bool {
	return c.clock.isFrozen()
}

// adopt records which goroutine runs the given thread, so calls back into
// the Conductor can be resolved to their thread.
func (c *Conductor) adopt(gid uint64, w *Worker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byGID[gid] = w
}

func (c *Conductor) disown(gid uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byGID, gid)
}

// callerWorker resolves the calling goroutine to its registered thread, or
// nil when the caller is not one of the Conductor's threads.
func (c *Conductor) callerWorker() *Worker {
	gid := currentGoroutineID()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byGID[gid]
}
