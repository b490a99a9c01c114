package mocap

import (
	"io"
	"log"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

type stream int

const (
	opsStream stream = iota
	diagStream
	traceStream
	streamCount
)

// streamPrefixes tag every line with the stream it was logged to.
var streamPrefixes = [streamCount]string{
	opsStream:   "[mocap] ",
	diagStream:  "[mocap diag] ",
	traceStream: "[mocap trace] ",
}

var (
	mu      sync.RWMutex
	loggers [streamCount]*log.Logger
)

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream. All streams start
// disabled.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	defer mu.Unlock()
	for s, out := range [streamCount]io.Writer{w.Ops, w.Diag, w.Trace} {
		loggers[s] = newLogger(streamPrefixes[s], out)
	}
}

// newLogger creates a *log.Logger for a given writer, or returns nil if w is nil.
func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

func logf(s stream, format string, args []any) {
	mu.RLock()
	l := loggers[s]
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Opsf logs to the ops stream: unresolved marker roles, bad config,
// storage and publishing failures.
func Opsf(format string, args ...any) {
	logf(opsStream, format, args)
}

// Diagf logs to the diag stream: role bindings, body proportion milestones.
func Diagf(format string, args ...any) {
	logf(diagStream, format, args)
}

// Tracef logs to the trace stream (per-frame telemetry). Keep it off in
// production; at capture rates it is noisy.
func Tracef(format string, args ...any) {
	logf(traceStream, format, args)
}
