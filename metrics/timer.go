package metrics

import (
	"time"

	kitmetrics "github.com/go-kit/kit/metrics"
)

// defaultTimingUnit is the resolution used for all duration observations.
const defaultTimingUnit = time.Millisecond

// DurationTimer acts as a stopwatch, sending observations to a wrapped
// histogram in milliseconds. It is sugar for h.Observe(time.Since(x)).
type DurationTimer struct {
	h kitmetrics.Histogram
	t time.Time
	d time.Duration
}

// NewDurationTimer wraps the given histogram and records the current time.
func NewDurationTimer(h kitmetrics.Histogram) *DurationTimer {
	return &DurationTimer{
		h: h,
		t: time.Now(),
		d: defaultTimingUnit,
	}
}

// ObserveDuration captures the number of time units since the timer was
// constructed and forwards that observation to the histogram.
func (t *DurationTimer) ObserveDuration() {
	measureSince(t.h, t.t, time.Now(), t.d)
}

// MeasureSince observes the total duration of an operation on h. It is
// intended to be called via defer, e.g. defer MeasureSince(h, time.Now()).
func MeasureSince(h kitmetrics.Histogram, t0 time.Time) {
	measureSince(h, t0, time.Now(), defaultTimingUnit)
}

func measureSince(h kitmetrics.Histogram, t0, t1 time.Time, unit time.Duration) {
	d := t1.Sub(t0)
	if d < 0 {
		d = 0
	}
	h.Observe(float64(d) / float64(unit))
}
