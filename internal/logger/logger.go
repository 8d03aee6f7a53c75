// Package logger wraps log/slog with the fields a backtest run attaches to
// its records.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Logger wraps slog.Logger with convenience methods
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      slog.Level
	Format     string // "json" or "text"
	AddSource  bool
	OutputPath string    // empty means Output, or stdout
	Output     io.Writer // takes precedence over OutputPath when set
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:     slog.LevelInfo,
		Format:    "json",
		AddSource: false,
	}
}

// ConfigFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_ADD_SOURCE and
// LOG_OUTPUT_PATH on top of the defaults
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.Level = ParseLevel(os.Getenv("LOG_LEVEL"))

	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "text":
		cfg.Format = "text"
	case "json":
		cfg.Format = "json"
	}

	if v, err := strconv.ParseBool(os.Getenv("LOG_ADD_SOURCE")); err == nil {
		cfg.AddSource = v
	}
	cfg.OutputPath = os.Getenv("LOG_OUTPUT_PATH")
	return cfg
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a new structured logger
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level,
		AddSource: config.AddSource,
	}

	var output io.Writer = os.Stdout
	switch {
	case config.Output != nil:
		output = config.Output
	case config.OutputPath != "":
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err == nil {
			output = file
		}
	}

	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops every record
func Discard() *Logger {
	return New(&Config{Level: slog.LevelError, Output: io.Discard})
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// WithField returns a logger with an additional field
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{
		Logger: l.Logger.With(key, value),
	}
}

// WithError returns a logger with an error field
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{
		Logger: l.Logger.With("error", err.Error()),
	}
}

// Component returns a logger for a specific component
func (l *Logger) Component(name string) *Logger {
	return l.WithField("component", name)
}

// Run returns a logger tagged with a backtest run ID
func (l *Logger) Run(id string) *Logger {
	return l.WithField("run_id", id)
}

// Symbol returns a logger for a specific trading symbol
func (l *Logger) Symbol(symbol string) *Logger {
	return l.WithField("symbol", symbol)
}

// Fill logs an executed order
func (l *Logger) Fill(fields map[string]any) {
	l.WithFields(fields).Info("order filled")
}

// Skip logs a tick the driver did not process
func (l *Logger) Skip(reason string, fields map[string]any) {
	l.WithFields(fields).Warn("tick skipped", "reason", reason)
}

// Global logger instance
var defaultLogger = New(DefaultConfig())

// SetDefault sets the default global logger
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the default global logger
func Default() *Logger {
	return defaultLogger
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// WithField returns a logger with a field
func WithField(key string, value any) *Logger {
	return defaultLogger.WithField(key, value)
}

// WithError returns a logger with an error
func WithError(err error) *Logger {
	return defaultLogger.WithError(err)
}

// Component returns a component logger
func Component(name string) *Logger {
	return defaultLogger.Component(name)
}
