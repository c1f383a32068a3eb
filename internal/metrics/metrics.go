// Package metrics decouples pipeline instrumentation from any vendor
// client. Callers record against a process-wide Backend; binaries choose
// the backend at startup and the default is a nop, so library code never
// has to check whether metrics are enabled.
package metrics

import (
	"sync"
	"time"
)

// Labels tag one observation. Backends map them onto their own tag or
// label model.
type Labels map[string]string

// Backend consumes observations. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Flusher is implemented by backends that buffer observations and submit
// them in batches.
type Flusher interface {
	Flush() error
}

var (
	mu      sync.RWMutex
	current Backend = nopBackend{}
)

// SetBackend replaces the process-wide backend. Passing nil restores the
// nop backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()

	if b == nil {
		b = nopBackend{}
	}
	current = b
}

func backend() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Flush submits buffered observations on backends that buffer. Backends
// without a buffer flush to nothing.
func Flush() error {
	if f, ok := backend().(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// RecordStage records one pipeline stage outcome and its duration.
func RecordStage(stage string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	labels := Labels{"stage": stage, "status": status}

	b := backend()
	b.IncCounter("etl_stage_total", 1, labels)
	b.ObserveHistogram("etl_stage_duration_seconds", d.Seconds(), labels)
}

// RecordRows records rows written to one warehouse table.
func RecordRows(table string, n int64) {
	if n <= 0 {
		return
	}
	backend().IncCounter("etl_rows_total", float64(n), Labels{"table": table})
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
