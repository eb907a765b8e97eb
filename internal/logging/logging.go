// Package logging provides structured logging using zerolog, scoped to an
// explicit directory provider rather than a package-level global so that
// multiple profiles (each with its own log directory) can run logging
// concurrently within one process.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level represents log levels.
type Level = zerolog.Level

// Log levels exposed for convenience.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// LogDirProvider resolves the directory logs for the current profile should
// be written to. Implementations typically wrap internal/profile's active
// profile resolution; a constant provider is fine for tests.
type LogDirProvider interface {
	LogDir() (string, error)
}

// StaticDir is a LogDirProvider that always resolves to the same directory.
type StaticDir string

func (d StaticDir) LogDir() (string, error) { return string(d), nil }

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Output is where logs are written in addition to any file. Defaults to os.Stderr.
	Output io.Writer
	// Pretty enables human-readable console output.
	Pretty bool
	// TimeFormat specifies the time format. Defaults to RFC3339.
	TimeFormat string
	// LogToFile enables logging to a timestamped file under the resolved log dir.
	LogToFile bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Level:      InfoLevel,
		Output:     os.Stderr,
		Pretty:     false,
		TimeFormat: time.RFC3339,
		LogToFile:  false,
	}
}

// Logger wraps a zerolog.Logger plus the open log file, if any, so callers
// can close it on shutdown instead of relying on package-level state.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New builds a Logger for the given config, resolving the log directory from
// dir only if cfg.LogToFile is set.
func New(cfg Config, dir LogDirProvider) (*Logger, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}

	var writers []io.Writer
	var consoleOutput io.Writer = cfg.Output
	if cfg.Pretty {
		consoleOutput = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: cfg.TimeFormat,
		}
	}
	writers = append(writers, consoleOutput)

	var file *os.File
	if cfg.LogToFile {
		if dir == nil {
			return nil, fmt.Errorf("logging: LogToFile set but no LogDirProvider given")
		}
		logDir, err := dir.LogDir()
		if err != nil {
			return nil, fmt.Errorf("logging: resolve log dir: %w", err)
		}
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		timestamp := time.Now().Format("20060102-150405")
		logPath := filepath.Join(logDir, fmt.Sprintf("acta-%s.log", timestamp))
		file, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		writers = append(writers, file)
	}

	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = zerolog.MultiLevelWriter(writers...)
	}

	zl := zerolog.New(output).Level(cfg.Level).With().Timestamp().Logger()
	return &Logger{Logger: zl, file: file}, nil
}

// LogFilePath returns the open log file's path, or "" if not logging to file.
func (l *Logger) LogFilePath() string {
	if l.file != nil {
		return l.file.Name()
	}
	return ""
}

// Close closes the underlying log file, if one is open.
func (l *Logger) Close() error {
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// ParseLevel parses a log level string (case-insensitive).
// Supported values: DEBUG, INFO, WARN, ERROR, FATAL.
// Returns InfoLevel if the string is not recognized.
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// Nop returns a Logger that discards all output, for use in tests that don't
// care about log lines but need a non-nil *Logger.
func Nop() *Logger {
	zl := zerolog.New(io.Discard)
	return &Logger{Logger: zl}
}
