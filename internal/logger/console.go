// Package logger provides leveled logging for pipeline execution.
//
// The console implementation is thread-safe, prefixes every line with a
// [HH:MM:SS] timestamp, and colorizes level tags when writing to a TTY.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Logger is the logging interface pipeline components accept.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Level filtering constants.
const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

// ConsoleLogger writes leveled, timestamped messages to a writer.
// A nil writer discards all output.
type ConsoleLogger struct {
	writer      io.Writer
	minLevel    int
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger writing to w at the given
// level. Valid levels: debug, info, warn, error (case-insensitive);
// empty or unknown defaults to info. Color is enabled only when w is a
// terminal and NO_COLOR is unset.
func NewConsoleLogger(w io.Writer, level string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		minLevel:    parseLevel(level),
		colorOutput: isTerminal(w) && !color.NoColor,
	}
}

// isTerminal reports whether w is a TTY-backed stdout/stderr.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// Debugf logs at debug level.
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.logf(levelDebug, "DEBUG", format, args...)
}

// Infof logs at info level.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.logf(levelInfo, "INFO", format, args...)
}

// Warnf logs at warn level.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.logf(levelWarn, "WARN", format, args...)
}

// Errorf logs at error level.
func (cl *ConsoleLogger) Errorf(format string, args ...interface{}) {
	cl.logf(levelError, "ERROR", format, args...)
}

func (cl *ConsoleLogger) logf(level int, tag, format string, args ...interface{}) {
	if cl.writer == nil || level < cl.minLevel {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := time.Now().Format("15:04:05")
	if cl.colorOutput {
		tag = colorizeTag(tag)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, tag, fmt.Sprintf(format, args...))
}

func colorizeTag(tag string) string {
	switch tag {
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(tag)
	case "INFO":
		return color.New(color.FgBlue).Sprint(tag)
	case "WARN":
		return color.New(color.FgYellow).Sprint(tag)
	case "ERROR":
		return color.New(color.FgRed).Sprint(tag)
	}
	return tag
}

// NoOpLogger discards all messages. Useful in tests and when logging is
// disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

// Debugf is a no-op.
func (n *NoOpLogger) Debugf(format string, args ...interface{}) {}

// Infof is a no-op.
func (n *NoOpLogger) Infof(format string, args ...interface{}) {}

// Warnf is a no-op.
func (n *NoOpLogger) Warnf(format string, args ...interface{}) {}

// Errorf is a no-op.
func (n *NoOpLogger) Errorf(format string, args ...interface{}) {}
