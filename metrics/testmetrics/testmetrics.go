// Package testmetrics provides assertion helpers for checking the
// timers accumulated in a metrics registry during a test.
package testmetrics

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/substratehq/webmetrics/metrics/registry"
)

// Checker wraps a registry with test assertions keyed by metric name
// and tag pairs.
type Checker struct {
	t   testing.TB
	reg *registry.Registry
}

// New constructs a Checker for the given registry.
func New(t testing.TB, reg *registry.Registry) *Checker {
	return &Checker{t: t, reg: reg}
}

// CheckTimerCount asserts that the timer with the given identity exists
// and holds exactly want samples.
func (c *Checker) CheckTimerCount(name string, want int64, tags ...string) {
	c.t.Helper()

	s := c.snapshot(name, tags...)
	if s.Count != want {
		c.t.Fatalf("%s %v count = %d, want %d", name, tags, s.Count, want)
	}
}

// CheckNoTimer asserts that no timer was ever registered under the
// given identity.
func (c *Checker) CheckNoTimer(name string, tags ...string) {
	c.t.Helper()

	if _, err := c.reg.Timer(name, tags...); !errors.Is(err, registry.ErrNotFound) {
		c.t.Fatalf("a timer named %s with tags %v was found", name, tags)
	}
}

// CheckTimerPercentileCount asserts that the timer's snapshot exposes
// exactly want percentile values.
func (c *Checker) CheckTimerPercentileCount(name string, want int, tags ...string) {
	c.t.Helper()

	s := c.snapshot(name, tags...)
	if got := len(s.Percentiles); got != want {
		c.t.Fatalf("%s %v percentiles = %d, want %d", name, tags, got, want)
	}
}

// CheckObservationsMinMax asserts that every recorded sample of the
// timer falls within [min, max].
func (c *Checker) CheckObservationsMinMax(name string, min, max time.Duration, tags ...string) {
	c.t.Helper()

	s := c.snapshot(name, tags...)
	if s.Count == 0 {
		c.t.Fatalf("%s %v has no observations", name, tags)
	}
	if s.Min < min || s.Max > max {
		c.t.Fatalf("%s %v observed %v..%v, want within %v..%v", name, tags, s.Min, s.Max, min, max)
	}
}

func (c *Checker) snapshot(name string, tags ...string) registry.Snapshot {
	c.t.Helper()

	tm, err := c.reg.Timer(name, tags...)
	if err != nil {
		available := strings.Join(c.reg.Identities(), "\n")
		c.t.Fatalf("no timer named %s with tags %v out of available timers:\n%s", name, tags, available)
	}
	return tm.Snapshot()
}
