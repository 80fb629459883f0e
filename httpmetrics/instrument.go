package httpmetrics

import (
	"net/http"

	"github.com/substratehq/webmetrics/metrics/registry"
)

// Instrumentation is the conditionally composed pair of HTTP metric
// filters. When the configuration disables metrics, neither filter
// exists: Middleware returns nil and Transport returns its argument
// unchanged, so request pipelines are built without a timing stage.
type Instrumentation struct {
	cfg        Config
	reg        *registry.Registry
	middleware func(http.Handler) http.Handler
}

// New evaluates cfg and builds the instrumentation. With both enable
// flags true it carries a live registry configured with the role
// percentile lists, a server middleware, and a client transport
// factory. With either flag false it is inert.
func New(cfg Config, opts ...Option) (*Instrumentation, error) {
	if !cfg.FiltersEnabled() {
		return &Instrumentation{cfg: cfg}, nil
	}

	serverPct, err := ParsePercentiles(cfg.ServerPercentiles)
	if err != nil {
		return nil, err
	}
	clientPct, err := ParsePercentiles(cfg.ClientPercentiles)
	if err != nil {
		return nil, err
	}

	reg := registry.New(
		registry.WithPercentiles(ServerMetric, serverPct),
		registry.WithPercentiles(ClientMetric, clientPct),
	)

	return &Instrumentation{
		cfg:        cfg,
		reg:        reg,
		middleware: NewServer(reg, opts...),
	}, nil
}

// Enabled reports whether the filters were installed.
func (i *Instrumentation) Enabled() bool {
	return i.reg != nil
}

// Config returns the configuration the instrumentation was built from.
func (i *Instrumentation) Config() Config {
	return i.cfg
}

// Registry returns the backing registry, nil when disabled.
func (i *Instrumentation) Registry() *registry.Registry {
	return i.reg
}

// Middleware returns the server timing filter, nil when disabled.
func (i *Instrumentation) Middleware() func(http.Handler) http.Handler {
	return i.middleware
}

// Transport wraps base with the client timing filter. When disabled it
// returns base untouched (or http.DefaultTransport for nil base).
func (i *Instrumentation) Transport(base http.RoundTripper) http.RoundTripper {
	if !i.Enabled() {
		if base == nil {
			return http.DefaultTransport
		}
		return base
	}
	return NewTransport(i.reg, base)
}

// Client returns a template-expanding client rooted at baseURL. When
// disabled the client still works but records nothing.
func (i *Instrumentation) Client(baseURL string, hc *http.Client) *Client {
	if !i.Enabled() {
		var c http.Client
		if hc != nil {
			c = *hc
		}
		return &Client{base: &c, baseURL: trimBase(baseURL)}
	}
	return NewClient(i.reg, baseURL, hc)
}
