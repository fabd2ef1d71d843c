// Package conduct choreographs multi-goroutine tests around a shared
// logical clock.
//
// Concurrency bugs tend to hide in interleavings that free-running
// goroutines rarely produce. A Conductor makes a chosen interleaving
// repeatable: tests register named threads, and the threads order
// themselves around an integer beat counter instead of real time. The beat
// starts at zero and only advances when every live thread is parked in
// WaitForBeat for a future beat, so "thread B runs after thread A's write"
// becomes a property of the script rather than of scheduler luck. Threads
// registered before the conduct begins are held at a starting gate: their
// bodies first run when the clock reaches beat 1.
//
// A minimal choreography:
//
//	c := conduct.New()
//
//	c.NamedThread("producer", func() error {
//		buf.Put(42)
//		return nil
//	})
//	c.NamedThread("consumer", func() error {
//		if err := c.WaitForBeat(2); err != nil {
//			return err
//		}
//		got := buf.Take()
//		...
//		return nil
//	})
//
//	err := c.WhenFinished(func() error {
//		// runs after every thread has terminated
//		return nil
//	})
//
// Both bodies start at beat 1. The consumer cannot pass WaitForBeat(2)
// before beat 2, and beat 2 cannot arrive before the producer has either
// parked for a later beat or terminated, so Take always observes the Put.
// The clock's advance rule only sees threads parked on the clock itself: a
// thread blocked on a channel, a lock, or I/O counts as still running, and
// a troupe wedged that way is eventually reported as a TimeoutError naming
// the stragglers.
//
// A Conductor is single-use. Conduct (or WhenFinished, which runs it) may
// be invoked once; misuse such as conducting twice, registering a thread
// after completion, or waiting for beat zero is rejected synchronously with
// a UsageError carrying a fixed message. Thread bodies report failure by
// returning an error or by panicking; the first failure in registration
// order becomes the conduct's result with its identity intact.
//
// Run wraps the whole lifecycle for ordinary tests, conducting
// automatically after the script unless the script already did.
package conduct
