package conduct

import (
	"runtime"
	"sync"

	"baton/pkg/logging"
)

// Worker is one named thread in a Conductor's troupe. The handle stays valid
// after the conduct finishes, so tests can inspect which threads terminated
// and what failure, if any, each body produced.
type Worker struct {
	name string
	body func() error
	gate int
	c    *Conductor

	// done closes once the outcome below is recorded and the thread has
	// left the clock.
	done chan struct{}

	mu         sync.Mutex
	terminated bool
	failure    error
}

func newWorker(c *Conductor, name string, body func() error, gate int) *Worker {
	return &Worker{
		name: name,
		body: body,
		gate: gate,
		c:    c,
		done: make(chan struct{}),
	}
}

// Name returns the thread's registered name.
func (w *Worker) Name() string {
	return w.name
}

// Terminated reports whether the thread's body has finished running.
func (w *Worker) Terminated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terminated
}

// Failure returns the error the thread's body ended with: the body's own
// return value, the recovered panic, or ErrConductAborted if the conduct
// timed out while the thread was parked. Nil means the body succeeded or has
// not terminated yet.
func (w *Worker) Failure() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failure
}

// start enters the clock on the calling goroutine and then spawns the
// thread. Entering first means the clock can never advance in the gap
// between registration and the thread's first park.
func (w *Worker) start() {
	w.c.clock.enter(w)
	go w.run()
}

func (w *Worker) run() {
	gid := currentGoroutineID()
	w.c.adopt(gid, w)
	logging.Debug("Conductor", "thread %s started, gated on beat %d", w.name, w.gate)

	err := w.holdAndRun()

	w.mu.Lock()
	w.failure = err
	w.terminated = true
	w.mu.Unlock()

	w.c.disown(gid)
	w.c.clock.exit(w)
	close(w.done)

	if err != nil {
		logging.Debug("Conductor", "thread %s terminated with failure: %v", w.name, err)
	} else {
		logging.Debug("Conductor", "thread %s terminated", w.name)
	}
}

// holdAndRun parks the thread at its gate beat, then runs the body under
// panic recovery. A panic value that already is an error is captured as-is
// so its identity survives collection; any other value is wrapped in a
// PanicError together with the stack at the point of recovery.
func (w *Worker) holdAndRun() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if recoveredErr, ok := r.(error); ok {
				err = recoveredErr
				return
			}
			stack := make([]byte, 64<<10)
			stack = stack[:runtime.Stack(stack, false)]
			err = &PanicError{Value: r, Stack: stack}
		}
	}()

	if err := w.c.clock.await(w, w.gate); err != nil {
		return err
	}
	return w.body()
}
