package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Logger takes in a message and tag pairs. Tags are logged as
// key/value pairs, e.g. log.Error("subgraph request failed", "name",
// subgraph, "error", err) — an odd tag with no value is logged bare.
type Logger interface {
	Debug(msg string, tags ...interface{})
	Info(msg string, tags ...interface{})
	Warn(msg string, tags ...interface{})
	Error(msg string, tags ...interface{})
}

type logger struct{ out io.Writer }

// New creates a logger that writes to stdout.
func New() Logger { return &logger{os.Stdout} }

func (l *logger) print(level, msg string, tags ...interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s level=%s msg=%q", time.Now().UTC().Format(time.RFC3339), level, msg)
	for i := 0; i < len(tags); i += 2 {
		if i+1 < len(tags) {
			fmt.Fprintf(&b, " %v=%v", tags[i], tags[i+1])
		} else {
			fmt.Fprintf(&b, " %v", tags[i])
		}
	}
	fmt.Fprintln(l.out, b.String())
}

// Debug creates a debug log entry.
func (l *logger) Debug(msg string, tags ...interface{}) { l.print("debug", msg, tags...) }

// Info creates an info log entry.
func (l *logger) Info(msg string, tags ...interface{}) { l.print("info", msg, tags...) }

// Warn creates a warn log entry.
func (l *logger) Warn(msg string, tags ...interface{}) { l.print("warn", msg, tags...) }

// Error creates an error log entry.
func (l *logger) Error(msg string, tags ...interface{}) { l.print("error", msg, tags...) }
