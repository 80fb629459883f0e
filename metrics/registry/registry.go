// Package registry implements a queryable, concurrency-safe registry of
// tagged timer metrics.
//
// Timers are created lazily on first observation of a new (name, tag
// set) identity and live for the registry's lifetime. Identities are
// canonical under tag reordering, so a timer registered with
// ("uri", "/a", "status", "200") is the same timer as one registered
// with ("status", "200", "uri", "/a"). Looking up an identity that was
// never observed fails with ErrNotFound, which is distinguishable from
// finding a timer whose count is zero.
package registry

import (
	"sort"
	"strings"
	"sync"

	kitmetrics "github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/generic"
	"github.com/pkg/errors"

	"github.com/substratehq/webmetrics/metrics"
)

// ErrNotFound is returned by lookups for a metric identity that was
// never observed.
var ErrNotFound = errors.New("metric not found")

// Registry holds tagged timers plus go-kit counters and gauges, all
// created lazily by name. It implements metrics.Provider.
type Registry struct {
	mu       sync.Mutex
	timers   map[string]*Timer
	counters map[string]*generic.Counter
	gauges   map[string]*generic.Gauge

	// quantiles per metric name, fixed at construction.
	quantiles map[string][]float64
}

var _ metrics.Provider = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithPercentiles fixes the percentile list exposed by snapshots of
// timers registered under name. Values outside [0, 1] are ignored.
// Names without a configured list expose no percentiles.
func WithPercentiles(name string, quantiles []float64) Option {
	return func(r *Registry) {
		qs := make([]float64, 0, len(quantiles))
		for _, q := range quantiles {
			if q < 0 || q > 1 {
				continue
			}
			qs = append(qs, q)
		}
		r.quantiles[name] = qs
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		timers:    make(map[string]*Timer),
		counters:  make(map[string]*generic.Counter),
		gauges:    make(map[string]*generic.Gauge),
		quantiles: make(map[string][]float64),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// GetOrRegisterTimer returns the timer for the given identity, creating
// it on first use. Tags are alternating key/value pairs.
func (r *Registry) GetOrRegisterTimer(name string, tags ...string) *Timer {
	k, canonical := keyFor(name, tags)

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[k]; ok {
		return t
	}
	t := newTimer(r, name, canonical, r.quantiles[name])
	r.timers[k] = t
	return t
}

// Timer looks up the timer for the given identity. It returns
// ErrNotFound if no sample was ever recorded under that exact name and
// tag set.
func (r *Registry) Timer(name string, tags ...string) (*Timer, error) {
	k, _ := keyFor(name, tags)

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[k]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, k)
	}
	return t, nil
}

// Snapshots returns a point-in-time snapshot of every registered timer,
// ordered by identity.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	keys := make([]string, 0, len(r.timers))
	for k := range r.timers {
		keys = append(keys, k)
	}
	timers := make([]*Timer, 0, len(keys))
	sort.Strings(keys)
	for _, k := range keys {
		timers = append(timers, r.timers[k])
	}
	r.mu.Unlock()

	snaps := make([]Snapshot, 0, len(timers))
	for _, t := range timers {
		snaps = append(snaps, t.Snapshot())
	}
	return snaps
}

// Identities returns the canonical identity strings of all registered
// timers, sorted. Useful in test failure messages.
func (r *Registry) Identities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.timers))
	for k := range r.timers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewCounter implements metrics.Provider.
func (r *Registry) NewCounter(name string) kitmetrics.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.counters[name]; ok {
		return c
	}
	c := generic.NewCounter(name)
	r.counters[name] = c
	return c
}

// NewGauge implements metrics.Provider.
func (r *Registry) NewGauge(name string) kitmetrics.Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := generic.NewGauge(name)
	r.gauges[name] = g
	return g
}

// NewHistogram implements metrics.Provider. The returned histogram is
// the untagged timer for name; buckets is ignored in favor of the
// registry's streaming estimator.
func (r *Registry) NewHistogram(name string, _ int) kitmetrics.Histogram {
	return r.GetOrRegisterTimer(name)
}

// Stop implements metrics.Provider. The registry holds no external
// resources, so it is a no-op.
func (r *Registry) Stop() {}

// keyFor canonicalizes an identity: tag pairs are sorted by key so the
// same tag set always yields the same key regardless of argument order.
// An odd trailing tag key gets the value "unknown", mirroring go-kit's
// label handling.
func keyFor(name string, tags []string) (key string, canonical []string) {
	if len(tags)%2 != 0 {
		tags = append(tags, "unknown")
	}

	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(tags)/2)
	for i := 0; i < len(tags); i += 2 {
		pairs = append(pairs, pair{tags[i], tags[i+1]})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	var b strings.Builder
	b.WriteString(name)
	canonical = make([]string, 0, len(tags))
	for _, p := range pairs {
		b.WriteString("|")
		b.WriteString(p.k)
		b.WriteString("=")
		b.WriteString(p.v)
		canonical = append(canonical, p.k, p.v)
	}
	return b.String(), canonical
}
