package httpmetrics

import (
	"io"

	"github.com/sirupsen/logrus"
)

const (
	// ServerMetric is the timer recording inbound request durations.
	ServerMetric = "http.server.requests"
	// ClientMetric is the timer recording outbound request durations.
	ClientMetric = "http.client.requests"

	// tag keys
	uriTag    = "uri"
	hostTag   = "host"
	methodTag = "method"
	statusTag = "status"

	// notFoundURI tags requests that matched no route.
	notFoundURI = "NOT_FOUND"
	// unknownURI tags outbound requests with no declared route
	// template; using the raw path would create unbounded identities.
	unknownURI = "UNKNOWN"
	// clientErrorStatus tags outbound exchanges that failed below the
	// HTTP layer and so have no status code.
	clientErrorStatus = "CLIENT_ERROR"
)

type options struct {
	logger   logrus.FieldLogger
	mappings []ErrorMapping
}

// Option configures the instrumentation filters.
type Option func(*options)

// WithLogger sets the logger used to report recovered panics. The
// default discards them after recording the sample.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithErrorMappings registers the ordered fault-to-response chain
// consulted when a handler panics. The first mapping whose Match
// accepts the fault decides the response; without a match the response
// is 500.
func WithErrorMappings(mappings ...ErrorMapping) Option {
	return func(o *options) {
		o.mappings = append(o.mappings, mappings...)
	}
}

func evalOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.logger = l
	}
	return o
}
