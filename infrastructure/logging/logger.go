// Package logging provides structured diagnostic logging using bolt.
// Diagnostic logs always go to stderr: stdout is reserved exclusively
// for the stdio IPC transport's outbound wire messages (see
// infrastructure/ipc/stdio). Task-level log forwarding to the
// coordinator is handled separately by TaskLogger in tasklog.go.
package logging

import (
	"os"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	defaultLogger *bolt.Logger
	once          sync.Once
)

// Config configures the diagnostic logger.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format is the output format (json or console).
	Format string

	// Output is the output destination. Defaults to os.Stderr; must
	// never be set to os.Stdout.
	Output *os.File
}

// DefaultConfig returns a configuration with sensible defaults for local
// development.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: os.Stderr}
}

// ProductionConfig returns the configuration used when run under a
// coordinator.
func ProductionConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

func parseLevel(s string) bolt.Level {
	switch s {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "info":
		return bolt.INFO
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// Init initializes the default logger with the given configuration. Only
// the first call takes effect.
func Init(config Config) {
	once.Do(func() {
		output := config.Output
		if output == nil {
			output = os.Stderr
		}

		var handler bolt.Handler
		if config.Format == "json" {
			handler = bolt.NewJSONHandler(output)
		} else {
			handler = bolt.NewConsoleHandler(output)
		}

		defaultLogger = bolt.New(handler).SetLevel(parseLevel(config.Level))
	})
}

// Get returns the default logger, initializing it with DefaultConfig if
// Init hasn't been called yet.
func Get() *bolt.Logger {
	if defaultLogger == nil {
		Init(DefaultConfig())
	}
	return defaultLogger
}

// SetLevel changes the log level of the default logger.
func SetLevel(level string) {
	Get().SetLevel(parseLevel(level))
}

// LogEvent wraps a bolt.Event to allow applying Fields before sending.
type LogEvent struct {
	event *bolt.Event
}

// Add applies a field to the event and returns the wrapper for chaining.
func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

// Msg sends the log event with a message.
func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

// Send sends the log event without a message.
func (l *LogEvent) Send() {
	l.event.Send()
}

// Trace returns a LogEvent wrapper for trace level logging.
func Trace() *LogEvent { return &LogEvent{event: Get().Trace()} }

// Debug returns a LogEvent wrapper for debug level logging.
func Debug() *LogEvent { return &LogEvent{event: Get().Debug()} }

// Info returns a LogEvent wrapper for info level logging.
func Info() *LogEvent { return &LogEvent{event: Get().Info()} }

// Warn returns a LogEvent wrapper for warn level logging.
func Warn() *LogEvent { return &LogEvent{event: Get().Warn()} }

// Error returns a LogEvent wrapper for error level logging.
func Error() *LogEvent { return &LogEvent{event: Get().Error()} }

// Fatal returns a LogEvent wrapper for fatal level logging.
func Fatal() *LogEvent { return &LogEvent{event: Get().Fatal()} }
