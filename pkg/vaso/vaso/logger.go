package vaso

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambeau/vaso/pkg/vaso/engine"
)

// Logger receives what a program prints.
type Logger = engine.Logger

// WriterLogger sends printed lines straight to w. The CLI and REPL pass their
// stdout here.
func WriterLogger(w io.Writer) Logger {
	return writerLogger{w: w}
}

type writerLogger struct {
	w io.Writer
}

func (l writerLogger) Log(values ...any) {
	io.WriteString(l.w, printed(values))
}

func (l writerLogger) LogLine(values ...any) {
	io.WriteString(l.w, printed(values)+"\n")
}

// Transcript records everything a program prints so it can be compared after
// the run. print statements from concurrent runs may share one Transcript.
type Transcript struct {
	mu      sync.Mutex
	lines   []string
	pending strings.Builder
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Log(values ...any) {
	t.mu.Lock()
	t.pending.WriteString(printed(values))
	t.mu.Unlock()
}

// LogLine appends values to any partial line and closes it.
func (t *Transcript) LogLine(values ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, t.pending.String()+printed(values))
	t.pending.Reset()
}

// String is the transcript as it would have appeared on a terminal.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sb strings.Builder
	for _, line := range t.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(t.pending.String())
	return sb.String()
}

// Lines returns the completed lines; a trailing partial line is left out.
func (t *Transcript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = nil
	t.pending.Reset()
}

type discard struct{}

func (discard) Log(...any)     {}
func (discard) LogLine(...any) {}

// NullLogger drops all printed output, for runs where only the final
// variable state matters.
func NullLogger() Logger { return discard{} }

// printed joins values with single spaces, the way print renders arguments.
func printed(values []any) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
