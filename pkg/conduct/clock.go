package conduct

import (
	"sort"
	"sync"

	"baton/pkg/logging"
)

// clock is the shared logical clock a Conductor choreographs its threads
// with. The beat only ever moves forward, one step at a time, and only when
// advanceIfPossible decides the whole troupe is parked on future beats.
//
// All state is guarded by mu; parked waiters block on cond and are released
// by a broadcast whenever the beat moves or the conduct ends.
type clock struct {
	mu       sync.Mutex
	cond     *sync.Cond
	beat     int
	frozen   int
	aborted  bool
	finished bool

	// live holds every thread that has entered the clock and not yet
	// terminated. parked maps a live thread to the beat it is waiting for;
	// a thread is never parked without being live.
	live   map[*Worker]struct{}
	parked map[*Worker]int
}

func newClock() *clock {
	cl := &clock{
		live:   make(map[*Worker]struct{}),
		parked: make(map[*Worker]int),
	}
	cl.cond = sync.NewCond(&cl.mu)
	return cl
}

// current returns the clock's beat.
func (cl *clock) current() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.beat
}

// await blocks the caller until the beat reaches target or the conduct
// ends. A nil worker waits without gating the clock: only registered
// threads count toward the all-parked condition that lets the beat advance.
// Returns ErrConductAborted when the wait was cut short, whether the
// deadline aborted the conduct or the conduct finished with target still
// unreached.
func (cl *clock) await(w *Worker, target int) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.aborted {
		return ErrConductAborted
	}
	if w != nil {
		cl.parked[w] = target
		defer delete(cl.parked, w)
	}
	for cl.beat < target && !cl.aborted && !cl.finished {
		cl.cond.Wait()
	}
	if cl.aborted || cl.beat < target {
		return ErrConductAborted
	}
	return nil
}

// advanceIfPossible moves the beat forward by one if it is safe to do so:
// the clock is not frozen, at least one thread is live, and every live
// thread is parked waiting for a beat strictly beyond the current one. A
// thread whose awaited beat has already arrived counts as runnable even if
// it has not woken yet, so the beat never skips past a satisfied waiter.
func (cl *clock) advanceIfPossible() bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.frozen > 0 || cl.aborted || len(cl.live) == 0 {
		return false
	}
	for w := range cl.live {
		target, isParked := cl.parked[w]
		if !isParked || target <= cl.beat {
			return false
		}
	}

	cl.beat++
	logging.Debug("Conductor", "clock advanced to beat %d", cl.beat)
	cl.cond.Broadcast()
	return true
}

// freeze blocks beat advancement until a matching unfreeze. Freezes nest.
func (cl *clock) freeze() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.frozen++
}

func (cl *clock) unfreeze() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.frozen > 0 {
		cl.frozen--
	}
}

func (cl *clock) isFrozen() bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.frozen > 0
}

// enter adds a thread to the live set. It is called on the registering
// goroutine before the thread's own goroutine is spawned, so the clock can
// never advance in the gap between registration and the thread's first park.
func (cl *clock) enter(w *Worker) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.live[w] = struct{}{}
}

// exit removes a terminated thread from the live set.
func (cl *clock) exit(w *Worker) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	delete(cl.live, w)
}

// liveCount reports how many threads have entered and not yet terminated.
func (cl *clock) liveCount() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.live)
}

// liveNames returns the names of the live threads, sorted for stable output.
func (cl *clock) liveNames() []string {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	names := make([]string, 0, len(cl.live))
	for w := range cl.live {
		names = append(names, w.name)
	}
	sort.Strings(names)
	return names
}

// abort permanently wakes every parked waiter with ErrConductAborted. Used
// when the conduct's wall-clock budget expires with threads still parked.
func (cl *clock) abort() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.aborted {
		return
	}
	cl.aborted = true
	logging.Debug("Conductor", "clock aborted at beat %d", cl.beat)
	cl.cond.Broadcast()
}

// finish releases every waiter still parked once the conduct is over. The
// troupe has terminated by then, so only foreign observers can still be
// waiting, and the beats they wait for can no longer arrive.
func (cl *clock) finish() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.finished {
		return
	}
	cl.finished = true
	cl.cond.Broadcast()
}
