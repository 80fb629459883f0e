package httpmetrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/substratehq/webmetrics/metrics/registry"
)

// NewServer returns middleware which records one sample into the
// http.server.requests timer for every completed inbound exchange,
// tagged with the matched route template, method, host, and final
// status.
//
// Panics raised by downstream handlers are recovered here: the fault is
// run through the configured error-mapping chain, the winning status
// (default 500) is written if the handler had not started the response,
// and the recorded status is always what the client actually received.
// A panic never escapes the middleware, with the single exception of
// http.ErrAbortHandler, which is re-raised after the sample is
// recorded so the server can abort the connection.
//
// Requests that match no chi route are recorded with uri=NOT_FOUND and
// whatever status the fallback handler wrote, normally 404.
func NewServer(reg *registry.Registry, opts ...Option) func(http.Handler) http.Handler {
	o := evalOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				rec := recover()
				if rec != nil && rec != http.ErrAbortHandler {
					fault := faultFromPanic(rec)
					status, body := resolve(o.mappings, fault)
					o.logger.WithError(fault).WithFields(logrus.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
						"status": status,
					}).Error("recovered panic in http handler")

					if ww.Status() == 0 && ww.BytesWritten() == 0 {
						http.Error(ww, body, status)
					}
				}

				status := ww.Status()
				if status == 0 {
					// No Write or WriteHeader happened; the server
					// will send 200.
					status = http.StatusOK
				}

				reg.GetOrRegisterTimer(ServerMetric,
					uriTag, serverRoute(r, status),
					methodTag, r.Method,
					hostTag, r.Host,
					statusTag, strconv.Itoa(status),
				).Record(time.Since(start))

				if rec == http.ErrAbortHandler {
					panic(rec)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// serverRoute resolves the uri tag for an inbound request: the chi
// route template when one matched, NOT_FOUND for unmatched 404s, and
// UNKNOWN when no routing information is available at all.
func serverRoute(r *http.Request, status int) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if route := joinPatterns(rctx.RoutePatterns); route != "" {
			return route
		}
	}
	if status == http.StatusNotFound {
		return notFoundURI
	}
	return unknownURI
}

// joinPatterns flattens nested router patterns into a single template.
// A request dispatched through a mount produces patterns like
// ["/api/*", "/users/{id}"], which flatten to "/api/users/{id}".
func joinPatterns(patterns []string) string {
	var route string
	for _, p := range patterns {
		route += p
	}
	return strings.ReplaceAll(route, "/*/", "/")
}
