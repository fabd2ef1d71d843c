package demo

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"baton/pkg/conduct"
	"baton/pkg/patience"
)

func newHandoff() Demo {
	return Demo{
		Name:        "handoff",
		Description: "Three threads relay the letters A through I in strict beat order, showing the clock serializes their handoffs.",
		Threads:     3,
		Beats:       9,
		Script: func(c *conduct.Conductor, tr *Trace) error {
			type step struct {
				beat   int
				letter string
			}
			relay := func(name string, steps []step) func() error {
				return func() error {
					for _, s := range steps {
						if err := c.WaitForBeat(s.beat); err != nil {
							return err
						}
						tr.Mark(c, name, s.letter)
					}
					return nil
				}
			}

			parts := map[string][]step{
				"first":  {{1, "A"}, {3, "C"}, {6, "F"}},
				"second": {{2, "B"}, {5, "E"}, {8, "H"}},
				"third":  {{4, "D"}, {7, "G"}, {9, "I"}},
			}
			for _, name := range []string{"first", "second", "third"} {
				if _, err := c.NamedThread(name, relay(name, parts[name])); err != nil {
					return err
				}
			}
			return nil
		},
		Verify: func(tr *Trace) error {
			got := strings.Join(tr.Notes(), "")
			if got != "ABCDEFGHI" {
				return fmt.Errorf("relay produced %q, want %q", got, "ABCDEFGHI")
			}
			for i, beat := range tr.Beats() {
				if beat != i+1 {
					return fmt.Errorf("letter %d landed on beat %d, want %d", i, beat, i+1)
				}
			}
			return nil
		},
	}
}

func newBoundedBuffer() Demo {
	return Demo{
		Name:        "bounded-buffer",
		Description: "A producer fills a two-slot buffer at beat 1; the consumer inspects it under a frozen clock at beat 2, then drains it in order.",
		Threads:     2,
		Beats:       2,
		Script: func(c *conduct.Conductor, tr *Trace) error {
			buffer := make(chan int, 2)

			if _, err := c.NamedThread("producer", func() error {
				buffer <- 42
				buffer <- 17
				tr.Mark(c, "producer", "filled the buffer")
				return nil
			}); err != nil {
				return err
			}

			_, err := c.NamedThread("consumer", func() error {
				if err := c.WaitForBeat(2); err != nil {
					return err
				}
				if err := c.WithConductorFrozen(func() error {
					if got := len(buffer); got != 2 {
						return fmt.Errorf("expected a full buffer at beat 2, found %d items", got)
					}
					tr.Mark(c, "consumer", "found the buffer full")
					return nil
				}); err != nil {
					return err
				}
				first, second := <-buffer, <-buffer
				if first != 42 || second != 17 {
					return fmt.Errorf("drained %d then %d, want 42 then 17", first, second)
				}
				tr.Mark(c, "consumer", "drained in order")
				return nil
			})
			return err
		},
		Verify: func(tr *Trace) error {
			want := []string{"filled the buffer", "found the buffer full", "drained in order"}
			notes := tr.Notes()
			if len(notes) != len(want) {
				return fmt.Errorf("recorded %d events, want %d", len(notes), len(want))
			}
			for i := range want {
				if notes[i] != want[i] {
					return fmt.Errorf("event %d was %q, want %q", i, notes[i], want[i])
				}
			}
			if beats := tr.Beats(); beats[0] != 1 || beats[1] != 2 || beats[2] != 2 {
				return fmt.Errorf("events landed on beats %v, want [1 2 2]", beats)
			}
			return nil
		},
	}
}

func newReadersWriter() Demo {
	return Demo{
		Name:        "readers-writer",
		Description: "A writer publishes at beat 1 while two readers are held until beat 2, so both observe the value exclusively written before them.",
		Threads:     3,
		Beats:       2,
		Script: func(c *conduct.Conductor, tr *Trace) error {
			var mu sync.RWMutex
			value := 0

			if _, err := c.NamedThread("writer", func() error {
				if err := c.WaitForBeat(1); err != nil {
					return err
				}
				mu.Lock()
				value = 7
				mu.Unlock()
				tr.Mark(c, "writer", "published 7")
				return nil
			}); err != nil {
				return err
			}

			reader := func(name string) func() error {
				return func() error {
					if err := c.WaitForBeat(2); err != nil {
						return err
					}
					mu.RLock()
					got := value
					mu.RUnlock()
					if got != 7 {
						return fmt.Errorf("%s read %d before the write landed", name, got)
					}
					tr.Mark(c, name, "read 7")
					return nil
				}
			}
			for _, name := range []string{"reader-1", "reader-2"} {
				if _, err := c.NamedThread(name, reader(name)); err != nil {
					return err
				}
			}
			return nil
		},
		Verify: func(tr *Trace) error {
			events := tr.Events()
			if len(events) != 3 {
				return fmt.Errorf("recorded %d events, want 3", len(events))
			}
			if events[0].Worker != "writer" || events[0].Beat != 1 {
				return fmt.Errorf("first event was %q at beat %d, want the writer at beat 1", events[0].Worker, events[0].Beat)
			}
			// The readers run the same beat, so their order may vary.
			for _, ev := range events[1:] {
				if ev.Beat != 2 || ev.Note != "read 7" {
					return fmt.Errorf("reader event %+v, want a read of 7 at beat 2", ev)
				}
			}
			return nil
		},
	}
}

func newStall() Demo {
	return Demo{
		Name:          "stall",
		Description:   "One thread computes off the clock while its sibling waits for a beat that can never come, tripping the deadlock budget.",
		Threads:       2,
		Beats:         1,
		Timeout:       patience.Scale(300 * time.Millisecond),
		ExpectTimeout: true,
		Script: func(c *conduct.Conductor, tr *Trace) error {
			if _, err := c.NamedThread("busy", func() error {
				tr.Mark(c, "busy", "computing off the clock")
				time.Sleep(patience.Scale(time.Second))
				return nil
			}); err != nil {
				return err
			}
			_, err := c.NamedThread("stuck", func() error {
				err := c.WaitForBeat(5)
				if errors.Is(err, conduct.ErrConductAborted) {
					tr.Mark(c, "stuck", "woken by the abort")
				}
				return err
			})
			return err
		},
		Verify: func(tr *Trace) error {
			events := tr.Events()
			if len(events) == 0 {
				return errors.New("the busy thread never made progress")
			}
			// The troupe is released at beat 1 and the busy thread never
			// parks again, so the clock must still be there.
			for _, ev := range events {
				if ev.Beat != 1 {
					return fmt.Errorf("the clock moved to beat %d during the stall", ev.Beat)
				}
			}
			return nil
		},
	}
}
