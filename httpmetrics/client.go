package httpmetrics

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/substratehq/webmetrics/metrics/registry"
)

type routeTagKey struct{}

// WithRouteTag attaches a route template to the context for the
// outbound request built from it. The transport uses the template as
// the uri tag so that calls to the same route with different path
// parameters aggregate into one timer.
func WithRouteTag(ctx context.Context, template string) context.Context {
	return context.WithValue(ctx, routeTagKey{}, template)
}

// RouteTag returns the route template attached to ctx, or "".
func RouteTag(ctx context.Context) string {
	template, _ := ctx.Value(routeTagKey{}).(string)
	return template
}

// Transport records one sample into the http.client.requests timer for
// every outbound exchange, including ones that fail below the HTTP
// layer.
type Transport struct {
	reg  *registry.Registry
	base http.RoundTripper
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport wraps base with client-side timing. A nil base means
// http.DefaultTransport.
func NewTransport(reg *registry.Registry, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{reg: reg, base: base}
}

// RoundTrip implements http.RoundTripper. The sample is recorded with
// the final status code, or CLIENT_ERROR when the exchange produced no
// response at all (connection failure, timeout, context cancellation).
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start)

	uri := RouteTag(req.Context())
	if uri == "" {
		uri = unknownURI
	}

	status := clientErrorStatus
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	t.reg.GetOrRegisterTimer(ClientMetric,
		uriTag, uri,
		methodTag, req.Method,
		hostTag, req.URL.Host,
		statusTag, status,
	).Record(dur)

	return resp, err
}

// Params holds path-parameter values for URI template expansion.
type Params map[string]string

// ExpandTemplate interpolates {name} placeholders in template from
// params. Every placeholder must have a value; extra params are
// ignored.
func ExpandTemplate(template string, params Params) (string, error) {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return "", errors.Errorf("unterminated placeholder in template %q", template)
		}
		name := rest[open+1 : open+closing]
		v, ok := params[name]
		if !ok {
			return "", errors.Errorf("no value for path parameter %q in template %q", name, template)
		}
		b.WriteString(rest[:open])
		b.WriteString(v)
		rest = rest[open+closing+1:]
	}
}

// Client is a thin wrapper over http.Client which expands URI templates
// and tags every request with the template it was built from. Route
// templates are declared explicitly at the call site, never derived
// from the response.
type Client struct {
	base    *http.Client
	baseURL string
}

// NewClient returns a Client rooted at baseURL whose transport records
// into reg. The given http.Client is copied, not mutated; a nil client
// means a zero http.Client.
func NewClient(reg *registry.Registry, baseURL string, hc *http.Client) *Client {
	var c http.Client
	if hc != nil {
		c = *hc
	}
	c.Transport = NewTransport(reg, c.Transport)
	return &Client{
		base:    &c,
		baseURL: trimBase(baseURL),
	}
}

func trimBase(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/")
}

// Get issues a GET for the expanded template.
func (c *Client) Get(ctx context.Context, template string, params Params) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, template, params, nil)
}

// Do issues a request for the expanded template. The route template,
// not the interpolated path, becomes the uri tag on the recorded
// sample.
func (c *Client) Do(ctx context.Context, method, template string, params Params, body io.Reader) (*http.Response, error) {
	path, err := ExpandTemplate(template, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(WithRouteTag(ctx, template), method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	return c.base.Do(req)
}
