// Package logger provides leveled console diagnostics for pathfind.
//
// Diagnostics are prefixed with the program name, filtered by level and
// colored only when the destination is a terminal. All methods are safe
// for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelDebug int = 0
	levelInfo  int = 1
	levelWarn  int = 2
	levelError int = 3
)

// Console writes prefixed diagnostics to a writer with level filtering.
// If the writer is nil, messages are silently discarded.
type Console struct {
	writer io.Writer
	level  int
	mu     sync.Mutex
	color  bool
}

// New creates a Console writing to w. Valid levels are debug, info, warn
// and error (case-insensitive); empty or unknown levels default to info.
// Color is enabled automatically when w is a terminal.
func New(w io.Writer, level string) *Console {
	return &Console{
		writer: w,
		level:  parseLevel(level),
		color:  isTerminal(w) && !color.NoColor,
	}
}

// DisableColor turns off colored output regardless of terminal detection.
func (c *Console) DisableColor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.color = false
}

// parseLevel converts a log level string to its numeric value, defaulting
// to info for empty or unknown levels.
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

// isTerminal reports whether w is a TTY that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Debugf logs a debug-level diagnostic.
func (c *Console) Debugf(format string, args ...any) {
	c.logf(levelDebug, nil, format, args...)
}

// Infof logs an info-level diagnostic.
func (c *Console) Infof(format string, args ...any) {
	c.logf(levelInfo, nil, format, args...)
}

// Warnf logs a warning. Warnings are yellow on a terminal.
func (c *Console) Warnf(format string, args ...any) {
	c.logf(levelWarn, color.New(color.FgYellow), format, args...)
}

// Errorf logs an error. Errors are red on a terminal.
func (c *Console) Errorf(format string, args ...any) {
	c.logf(levelError, color.New(color.FgRed), format, args...)
}

func (c *Console) logf(level int, style *color.Color, format string, args ...any) {
	if c.writer == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if level < c.level {
		return
	}
	line := "pathfind: " + fmt.Sprintf(format, args...)
	if c.color && style != nil {
		line = style.Sprint(line)
	}
	fmt.Fprintln(c.writer, line)
}
