// Package logging provides the structured logging layer for baton, built on
// Go's standard slog package with level filtering and subsystem tagging.
//
// # Log Levels
//
//   - Debug: beat-by-beat choreography traces and internal decisions
//   - Info: high-level progress of demo and stress runs
//   - Warn: recoverable oddities (for example an unparsable time factor)
//   - Error: failures surfaced with their error value
//
// # Modes
//
// Console mode writes formatted entries to the configured writer and is what
// the CLI uses:
//
//	logging.InitForConsole(logging.LevelInfo, os.Stdout)
//	logging.Info("Stress", "starting %d runs", cfg.Runs)
//
// Capture mode delivers every entry on a buffered channel instead, which lets
// tests assert on what was logged without scraping process output:
//
//	entries := logging.InitForCapture(0)
//	...
//	e := <-entries
//
// # Subsystems
//
// Entries carry a free-form subsystem tag. The conventional tags in this
// repository are "Conductor" for the choreography engine, "Demo" for the
// built-in scenarios, "Stress" for the repeated-run harness and "Bootstrap"
// for CLI startup.
//
// Logging before any Init call is a silent no-op, so the library packages can
// emit traces unconditionally and stay quiet when embedded in a test binary
// that never initializes logging.
package logging
