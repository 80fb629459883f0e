// Package metrics wraps the standard go-kit metric types behind a
// Provider interface and adds duration-timing helpers.
//
// We duplicate the Provider definition from go-kit rather than
// importing its provider package so that implementations (notably
// metrics/registry) can extend it without pulling in every backend
// go-kit supports.
package metrics

import (
	"github.com/go-kit/kit/metrics"
)

// Provider represents the metric types a backend can expose. Metrics
// are created lazily by name; implementations must be safe for
// concurrent use.
type Provider interface {
	NewCounter(name string) metrics.Counter
	NewGauge(name string) metrics.Gauge
	NewHistogram(name string, buckets int) metrics.Histogram
	Stop()
}
