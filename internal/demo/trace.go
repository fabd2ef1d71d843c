package demo

import (
	"sync"

	"baton/pkg/conduct"
	"baton/pkg/logging"
)

// Event is one observation a demo thread recorded, stamped with the beat it
// happened on.
type Event struct {
	Beat   int
	Worker string
	Note   string
}

// Trace collects the events of one demo run. It is safe for concurrent use
// by the demo's threads.
type Trace struct {
	mu     sync.Mutex
	events []Event
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Mark records note for worker at the Conductor's current beat.
func (t *Trace) Mark(c *conduct.Conductor, worker, note string) {
	ev := Event{Beat: c.Beat(), Worker: worker, Note: note}
	t.mu.Lock()
	t.events = append(t.events, ev)
	t.mu.Unlock()
	logging.Debug("Demo", "beat %d: %s %s", ev.Beat, worker, note)
}

// Events returns a copy of the recorded events in record order.
func (t *Trace) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	events := make([]Event, len(t.events))
	copy(events, t.events)
	return events
}

// Beats returns the beat stamps in record order.
func (t *Trace) Beats() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	beats := make([]int, len(t.events))
	for i, ev := range t.events {
		beats[i] = ev.Beat
	}
	return beats
}

// Notes returns the notes in record order.
func (t *Trace) Notes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	notes := make([]string, len(t.events))
	for i, ev := range t.events {
		notes[i] = ev.Note
	}
	return notes
}
