package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// captureBackend records every observation it receives.
type captureBackend struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
	labels     map[string]Labels
	flushed    int
}

func newCapture() *captureBackend {
	return &captureBackend{
		counters:   map[string]float64{},
		histograms: map[string][]float64{},
		labels:     map[string]Labels{},
	}
}

func (c *captureBackend) IncCounter(name string, delta float64, labels Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += delta
	c.labels[name] = labels
}

func (c *captureBackend) ObserveHistogram(name string, value float64, labels Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.histograms[name] = append(c.histograms[name], value)
	c.labels[name] = labels
}

func (c *captureBackend) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushed++
	return nil
}

// TestRecordStage verifies both the counter and the duration observation
// land with stage and status labels.
func TestRecordStage(t *testing.T) {
	b := newCapture()
	SetBackend(b)
	defer SetBackend(nil)

	RecordStage("resolve_entities", nil, 250*time.Millisecond)
	RecordStage("write_schema", errors.New("insert movies: boom"), time.Second)

	if got := b.counters["etl_stage_total"]; got != 2 {
		t.Fatalf("etl_stage_total=%v, want 2", got)
	}
	if got := b.histograms["etl_stage_duration_seconds"]; len(got) != 2 || got[0] != 0.25 {
		t.Fatalf("durations=%v", got)
	}
	if got := b.labels["etl_stage_total"]["status"]; got != "error" {
		t.Fatalf("last status label=%q, want error", got)
	}
	if got := b.labels["etl_stage_total"]["stage"]; got != "write_schema" {
		t.Fatalf("last stage label=%q", got)
	}
}

// TestRecordRows verifies row counts accumulate and non-positive deltas
// are dropped.
func TestRecordRows(t *testing.T) {
	b := newCapture()
	SetBackend(b)
	defer SetBackend(nil)

	RecordRows("movies", 4803)
	RecordRows("movies", 0)
	RecordRows("genres", -1)

	if got := b.counters["etl_rows_total"]; got != 4803 {
		t.Fatalf("etl_rows_total=%v, want 4803", got)
	}
	if got := b.labels["etl_rows_total"]["table"]; got != "movies" {
		t.Fatalf("table label=%q", got)
	}
}

// TestFlush verifies Flush reaches backends that buffer and is a nop for
// the default backend.
func TestFlush(t *testing.T) {
	SetBackend(nil)
	if err := Flush(); err != nil {
		t.Fatalf("nop flush returned %v", err)
	}

	b := newCapture()
	SetBackend(b)
	defer SetBackend(nil)

	if err := Flush(); err != nil {
		t.Fatalf("flush returned %v", err)
	}
	if b.flushed != 1 {
		t.Fatalf("flushed=%d, want 1", b.flushed)
	}
}
