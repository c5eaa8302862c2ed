// Package logging writes structured JSON log lines.
package logging

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Fields are extra key/value pairs attached to a log line.
type Fields map[string]interface{}

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	return levelNames[l]
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(s string) Level {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return l
		}
	}
	return LevelInfo
}

// Logger writes JSON lines at or above its minimum level.
type Logger struct {
	mu    sync.Mutex
	out   *log.Logger
	min   Level
	base  Fields
	clock func() time.Time
}

// New creates a Logger writing to w.
func New(w io.Writer, min Level) *Logger {
	return &Logger{
		out:   log.New(w, "", 0),
		min:   min,
		clock: time.Now,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

var std = New(os.Stderr, LevelInfo)

// Default returns the process-wide logger.
func Default() *Logger {
	return std
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	std = l
}

// With returns a logger that adds fields to every line.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{out: l.out, min: l.min, base: merged, clock: l.clock}
}

func (l *Logger) output(level Level, msg string, fields Fields) {
	if l == nil || level < l.min {
		return
	}
	line := make(Fields, len(l.base)+len(fields)+3)
	for k, v := range l.base {
		line[k] = v
	}
	for k, v := range fields {
		line[k] = v
	}
	line["level"] = level.String()
	line["ts"] = l.clock().UTC().Format(time.RFC3339)
	line["msg"] = msg

	l.mu.Lock()
	defer l.mu.Unlock()
	b, err := json.Marshal(line)
	if err != nil {
		// fallback to plain logging
		l.out.Printf("%s: %s (%v)", level, msg, fields)
		return
	}
	l.out.Println(string(b))
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields Fields) {
	l.output(LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, fields Fields) {
	l.output(LevelInfo, msg, fields)
}

// Warn logs a warning.
func (l *Logger) Warn(msg string, fields Fields) {
	l.output(LevelWarn, msg, fields)
}

// Error logs an error message and includes the error text in the fields.
func (l *Logger) Error(msg string, err error, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.output(LevelError, msg, fields)
}
