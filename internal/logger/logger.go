package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// Logger is the global logger instance
	Logger  *slog.Logger
	logFile *os.File
)

// Options controls where and how log records are written
type Options struct {
	Level  string
	JSON   bool
	ToFile bool
	// Quiet drops the stderr sink, e.g. while a full-screen TUI owns the terminal
	Quiet bool
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Init (re)initializes the global logger. Calling it again closes the log
// file opened by the previous call.
func Init(opts Options) error {
	if err := Close(); err != nil {
		return fmt.Errorf("failed to close previous log file: %w", err)
	}

	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}

	if opts.ToFile {
		logPath, err := getLogFilePath()
		if err != nil {
			return fmt.Errorf("failed to determine log file path: %w", err)
		}

		logDir := filepath.Dir(logPath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}

		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		logFile = f
		writers = append(writers, f)
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	Logger = slog.New(handler)
	return nil
}

// getLogFilePath returns the platform-appropriate log file path
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		// Fallback to home directory if cache dir unavailable
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheDir = filepath.Join(homeDir, ".cache")
	}
	return filepath.Join(cacheDir, "onix", "logs", "onix.log"), nil
}

// GetLogFilePath returns the expected log file path without creating it
func GetLogFilePath() (string, error) {
	return getLogFilePath()
}

// Close closes the log file if one is open
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	if Logger != nil {
		Logger.Debug(msg, args...)
	}
}

// Info logs an info message
func Info(msg string, args ...any) {
	if Logger != nil {
		Logger.Info(msg, args...)
	}
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	if Logger != nil {
		Logger.Warn(msg, args...)
	}
}

// Error logs an error message
func Error(msg string, args ...any) {
	if Logger != nil {
		Logger.Error(msg, args...)
	}
}
