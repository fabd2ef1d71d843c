package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SlogLevel converts a LogLevel to the corresponding slog.Level.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// LogEntry is the structured log entry delivered on the capture channel.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

var (
	mu             sync.RWMutex
	defaultLogger  *slog.Logger
	captureChannel chan LogEntry
	isCaptureMode  bool
)

const captureChannelBufferSize = 2048

// initCommon initializes the logger for either console or capture mode.
// This should be called once at application startup.
func initCommon(mode string, level LogLevel, output io.Writer, channelBufferSize int) <-chan LogEntry {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}

	var handler slog.Handler
	if mode == "capture" {
		isCaptureMode = true
		if channelBufferSize <= 0 {
			channelBufferSize = captureChannelBufferSize
		}
		captureChannel = make(chan LogEntry, channelBufferSize)
		// Capture mode delivers entries via the channel; direct slog output
		// from defaultLogger is discarded.
		handler = slog.NewTextHandler(io.Discard, opts)
	} else { // console mode
		isCaptureMode = false
		handler = slog.NewTextHandler(output, opts)
	}
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	if isCaptureMode {
		return captureChannel
	}
	return nil
}

// InitForConsole initializes the logging system for console output.
// Typically invoked once from the CLI entry point.
func InitForConsole(filterLevel LogLevel, output io.Writer) {
	initCommon("console", filterLevel, output, 0)
}

// InitForCapture initializes the logging system in capture mode and returns
// the channel on which every log entry is delivered. Capture mode is used by
// tests that assert on emitted log entries.
func InitForCapture(bufferSize int) <-chan LogEntry {
	return initCommon("capture", LevelDebug, io.Discard, bufferSize)
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	mu.RLock()
	logger := defaultLogger
	capture := isCaptureMode
	captureCh := captureChannel
	mu.RUnlock()

	// In console mode, check whether the level is enabled before formatting.
	// Capture mode always delivers; consumers do their own filtering.
	if !capture {
		if logger == nil || !logger.Enabled(context.Background(), level.SlogLevel()) {
			return
		}
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	now := time.Now()

	if capture {
		entry := LogEntry{
			Timestamp: now,
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
		}
		select {
		case captureCh <- entry:
		default:
			// Channel full; fall back to stderr rather than blocking the caller.
			fmt.Fprintf(os.Stderr, "[LOGGING] capture channel full, dropping: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
		}
		return
	}

	var slogAttrs []slog.Attr
	slogAttrs = append(slogAttrs, slog.String("subsystem", subsystem))
	if err != nil {
		slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
	}

	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// CloseCaptureChannel closes the capture channel. Should be called when the
// capture consumer is done, never while log producers may still be running.
func CloseCaptureChannel() {
	mu.Lock()
	defer mu.Unlock()
	if captureChannel != nil {
		close(captureChannel)
		captureChannel = nil
		isCaptureMode = false
	}
}
