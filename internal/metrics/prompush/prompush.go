// Package prompush implements a metrics backend that pushes to a
// Prometheus Pushgateway.
//
// A warehouse build finishes long before any scrape interval comes
// around, so the backend accumulates counters and histograms in a
// private registry and pushes the final state under one Pushgateway
// job grouping when the run flushes.
package prompush

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tmdbetl/internal/metrics"
)

// durationBuckets spans quick in-memory stages through multi-minute
// bulk loads.
var durationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300}

// Backend implements metrics.Backend against a Prometheus Pushgateway.
//
// Metric families are created lazily on first use. The label key set
// seen first for a metric name is fixed for the life of the backend;
// later records with a different key set are dropped rather than
// corrupting the family.
type Backend struct {
	pusher *push.Pusher

	mu         sync.Mutex
	reg        *prometheus.Registry
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	labelKeys  map[string][]string
}

// NewBackend constructs a Pushgateway backend. job names the gateway
// grouping; url is the gateway base URL, e.g. "http://localhost:9091".
func NewBackend(job, url string) (*Backend, error) {
	if job == "" {
		return nil, fmt.Errorf("prompush: empty job name")
	}
	if url == "" {
		return nil, fmt.Errorf("prompush: empty pushgateway url")
	}

	reg := prometheus.NewRegistry()
	return &Backend{
		pusher:     push.New(url, job).Gatherer(reg),
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labelKeys:  make(map[string][]string),
	}, nil
}

// IncCounter implements metrics.Backend. Non-positive deltas are
// dropped.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	keys, values, ok := b.labelPairs(name, labels)
	if !ok {
		return
	}

	cv, ok := b.counters[name]
	if !ok {
		cv = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name,
				Help: "Counter pushed at the end of a warehouse build.",
			},
			keys,
		)
		if err := b.reg.Register(cv); err != nil {
			return
		}
		b.counters[name] = cv
	}
	cv.WithLabelValues(values...).Add(delta)
}

// ObserveHistogram implements metrics.Backend. Negative values are
// dropped.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	keys, values, ok := b.labelPairs(name, labels)
	if !ok {
		return
	}

	hv, ok := b.histograms[name]
	if !ok {
		hv = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name,
				Help:    "Histogram pushed at the end of a warehouse build.",
				Buckets: durationBuckets,
			},
			keys,
		)
		if err := b.reg.Register(hv); err != nil {
			return
		}
		b.histograms[name] = hv
	}
	hv.WithLabelValues(values...).Observe(value)
}

// labelPairs returns the sorted label keys and matching values for one
// record. The first key set seen for a name wins; mismatched later key
// sets report ok=false. Callers must hold b.mu.
func (b *Backend) labelPairs(name string, labels metrics.Labels) (keys, values []string, ok bool) {
	keys = make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if seen, fixed := b.labelKeys[name]; fixed {
		if !slices.Equal(seen, keys) {
			return nil, nil, false
		}
	} else {
		b.labelKeys[name] = keys
	}

	values = make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, labels[k])
	}
	return keys, values, true
}

// Flush pushes the accumulated registry state, replacing whatever the
// gateway held for this job grouping.
func (b *Backend) Flush() error {
	if err := b.pusher.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}

var (
	_ metrics.Backend = (*Backend)(nil)
	_ metrics.Flusher = (*Backend)(nil)
)
