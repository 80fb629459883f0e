// Package requestlog provides a logrus request-logging middleware which
// reports the same request attributes the metric filters tag with.
package requestlog

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/substratehq/webmetrics/requestid"
)

// New returns middleware logging one line per completed request with
// method, host, route, status, duration, and request id.
func New(l logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww, ok := w.(middleware.WrapResponseWriter)
			if !ok {
				ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			}

			t0 := time.Now()
			defer func() {
				logRequest(l, r, ww, time.Since(t0))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func logRequest(l logrus.FieldLogger, r *http.Request, ww middleware.WrapResponseWriter, d time.Duration) {
	log := l.WithFields(logrus.Fields{
		"method":      r.Method,
		"host":        r.Host,
		"path":        r.URL.RequestURI(),
		"remote_addr": r.RemoteAddr,
		"service":     fmt.Sprintf("%dms", d/time.Millisecond),
	})

	if id, ok := requestid.FromContext(r.Context()); ok {
		log = log.WithField("request_id", id)
	}

	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if route := rctx.RoutePattern(); route != "" {
			log = log.WithField("route", route)
		}
	}

	if status := ww.Status(); status > 0 {
		log = log.WithField("status", status)
	}
	if bytes := ww.BytesWritten(); bytes > 0 {
		log = log.WithField("bytes", bytes)
	}

	log.Info("request served")
}
