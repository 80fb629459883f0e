package registry

import (
	"sync"
	"time"

	gohistogram "github.com/VividCortex/gohistogram"
	kitmetrics "github.com/go-kit/kit/metrics"
)

// estimatorBins is the bin budget for the streaming quantile estimator,
// matching what go-kit's generic histogram uses.
const estimatorBins = 50

// Timer accumulates duration samples for one tagged metric identity:
// count, total, min/max, and a streaming percentile estimate. It
// implements go-kit's metrics.Histogram, observing in milliseconds, so
// it composes with metrics.DurationTimer and friends.
//
// Timers are created through a Registry and are safe for concurrent
// use.
type Timer struct {
	reg       *Registry
	name      string
	tags      []string
	quantiles []float64

	mu    sync.Mutex
	count int64
	sum   time.Duration
	min   time.Duration
	max   time.Duration
	hist  *gohistogram.NumericHistogram
}

var _ kitmetrics.Histogram = (*Timer)(nil)

func newTimer(reg *Registry, name string, tags []string, quantiles []float64) *Timer {
	return &Timer{
		reg:       reg,
		name:      name,
		tags:      tags,
		quantiles: quantiles,
		hist:      gohistogram.NewHistogram(estimatorBins),
	}
}

// Name returns the metric name.
func (t *Timer) Name() string { return t.name }

// Tags returns the canonical tag pairs, alternating key/value.
func (t *Timer) Tags() []string {
	return append([]string(nil), t.tags...)
}

// Tag returns the value of the given tag key, or "" if unset.
func (t *Timer) Tag(key string) string {
	for i := 0; i+1 < len(t.tags); i += 2 {
		if t.tags[i] == key {
			return t.tags[i+1]
		}
	}
	return ""
}

// Record adds one duration sample. Negative durations are clamped to
// zero.
func (t *Timer) Record(d time.Duration) {
	if d < 0 {
		d = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.count++
	t.sum += d
	t.hist.Add(float64(d) / float64(time.Millisecond))
}

// Observe implements metrics.Histogram, interpreting v as milliseconds.
func (t *Timer) Observe(v float64) {
	t.Record(time.Duration(v * float64(time.Millisecond)))
}

// With implements metrics.Histogram, returning the timer for this
// name with the merged tag set.
func (t *Timer) With(labelValues ...string) kitmetrics.Histogram {
	tags := append(append([]string(nil), t.tags...), labelValues...)
	return t.reg.GetOrRegisterTimer(t.name, tags...)
}

// Percentile is one configured quantile of a timer's distribution.
type Percentile struct {
	Quantile float64
	Value    time.Duration
}

// Snapshot is a point-in-time read of a timer's accumulated state. The
// percentile list length is exactly the quantile list configured for
// the metric name, zero if none was configured.
type Snapshot struct {
	Name        string
	Tags        []string
	Count       int64
	TotalTime   time.Duration
	Min         time.Duration
	Max         time.Duration
	Percentiles []Percentile
}

// Mean returns the average sample duration, zero when empty.
func (s Snapshot) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Count)
}

// Snapshot extracts the timer's current state.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		Name:      t.name,
		Tags:      append([]string(nil), t.tags...),
		Count:     t.count,
		TotalTime: t.sum,
		Min:       t.min,
		Max:       t.max,
	}
	if len(t.quantiles) > 0 {
		s.Percentiles = make([]Percentile, 0, len(t.quantiles))
		for _, q := range t.quantiles {
			var v time.Duration
			if t.count > 0 {
				v = time.Duration(t.hist.Quantile(q) * float64(time.Millisecond))
			}
			s.Percentiles = append(s.Percentiles, Percentile{Quantile: q, Value: v})
		}
	}
	return s
}
