package httpmetrics

import (
	"strconv"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/pkg/errors"
)

// Config is the startup configuration surface for the HTTP metric
// filters. Both Enabled and WebEnabled must be true for the filters to
// be installed; the percentile lists apply only to their own role.
type Config struct {
	// Enabled is the global metrics switch.
	Enabled bool `env:"METRICS_ENABLED,default=true"`

	// WebEnabled gates the HTTP filters specifically.
	WebEnabled bool `env:"METRICS_WEB_ENABLED,default=true"`

	// ServerPercentiles is a comma-separated list of percentile values
	// in [0, 1] exposed by http.server.requests snapshots, e.g.
	// "0.95,0.99". Empty means no percentiles.
	ServerPercentiles string `env:"METRICS_WEB_SERVER_PERCENTILES"`

	// ClientPercentiles is the http.client.requests counterpart,
	// independent of ServerPercentiles.
	ClientPercentiles string `env:"METRICS_WEB_CLIENT_PERCENTILES"`
}

// ConfigFromEnv reads Config from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding httpmetrics config")
	}
	return cfg, nil
}

// FiltersEnabled reports whether the filters should be installed at
// all. Disabling either flag removes both the server and client
// filters.
func (c Config) FiltersEnabled() bool {
	return c.Enabled && c.WebEnabled
}

// ParsePercentiles parses a comma-separated percentile list. Each
// value must be a float in [0, 1]. An empty string yields nil.
func ParsePercentiles(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	ps := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		p, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing percentile %q", part)
		}
		if p < 0 || p > 1 {
			return nil, errors.Errorf("percentile %v out of range [0, 1]", p)
		}
		ps = append(ps, p)
	}
	return ps, nil
}
