package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration
// decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines the minimal logging interface for loopkit. Users can
// provide their own implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// LoggerConfig configures construction of a structured logger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: false}
}

// NewLogger builds a Logger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) Logger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

// NewSlogLogger creates a Logger with the specified level and format.
func NewSlogLogger(level LogLevel, format string, addSource bool) Logger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RunLogger decorates a Logger with run-scoped attributes and domain
// helpers for model calls and tool executions.
type RunLogger struct {
	logger Logger
	runID  string
	agent  string
}

// NewRunLogger binds a logger to a run and agent. A nil logger is
// replaced by NoOpLogger.
func NewRunLogger(logger Logger, runID, agent string) *RunLogger {
	if logger == nil {
		logger = NoOpLogger{}
	}
	return &RunLogger{logger: logger, runID: runID, agent: agent}
}

// WithAgent returns a copy bound to a different agent name, used after a
// handoff switches the active agent.
func (l *RunLogger) WithAgent(agent string) *RunLogger {
	return &RunLogger{logger: l.logger, runID: l.runID, agent: agent}
}

// Logger returns the underlying logger.
func (l *RunLogger) Logger() Logger { return l.logger }

func (l *RunLogger) attrs(args []any) []any {
	return append([]any{"run_id", l.runID, "agent", l.agent}, args...)
}

// Debug logs a debug message with run attributes attached.
func (l *RunLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, l.attrs(args)...) }

// Info logs an info message with run attributes attached.
func (l *RunLogger) Info(msg string, args ...any) { l.logger.Info(msg, l.attrs(args)...) }

// Warn logs a warning with run attributes attached.
func (l *RunLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, l.attrs(args)...) }

// Error logs an error with run attributes attached.
func (l *RunLogger) Error(msg string, args ...any) { l.logger.Error(msg, l.attrs(args)...) }

// LogModelCall records model call latency and success.
func (l *RunLogger) LogModelCall(turn int, dur time.Duration, err error) {
	if err != nil {
		l.Error("model.call.failed", "turn", turn, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("model.call.completed", "turn", turn, "duration_ms", dur.Milliseconds())
}

// LogToolCall records execution details for a tool invocation.
func (l *RunLogger) LogToolCall(tool string, dur time.Duration, err error) {
	if err != nil {
		l.Error("tool.call.failed", "tool", tool, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("tool.call.completed", "tool", tool, "duration_ms", dur.Milliseconds())
}

// NoOpLogger discards all log messages. Useful for testing or when
// logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
