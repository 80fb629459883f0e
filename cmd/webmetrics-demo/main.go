// Command webmetrics-demo runs a small HTTP service whose routes
// exercise every path the metric filters care about: plain responses,
// templated routes, deliberate conflict statuses, unhandled and handled
// panics, and unmatched paths. Accumulated timers are visible at
// /debug/metrics.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joeshaw/envdecode"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/substratehq/webmetrics/httpmetrics"
	"github.com/substratehq/webmetrics/metrics/registry"
	"github.com/substratehq/webmetrics/requestid"
	"github.com/substratehq/webmetrics/requestlog"
)

type config struct {
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
	Metrics  httpmetrics.Config
}

// errBadInput is the fault kind the demo maps to 400 instead of 500.
var errBadInput = errors.New("bad input")

func main() {
	var cfg config
	envdecode.MustStrictDecode(&cfg)

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	inst, err := httpmetrics.New(cfg.Metrics,
		httpmetrics.WithLogger(logger),
		httpmetrics.WithErrorMappings(
			httpmetrics.MapError(errBadInput, http.StatusBadRequest),
		),
	)
	if err != nil {
		logger.WithError(err).Fatal("building http instrumentation")
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requestlog.New(logger))
	if mw := inst.Middleware(); mw != nil {
		r.Use(mw)
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "root")
	})
	r.Get("/test-http-metrics", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "ok")
	})
	r.Get("/test-http-metrics/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok %s", chi.URLParam(r, "id"))
	})
	r.Get("/conflict", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	r.Get("/fail", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	r.Get("/handled", func(http.ResponseWriter, *http.Request) {
		panic(errBadInput)
	})
	r.Get("/debug/metrics", metricsDump(inst.Registry()))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	var g run.Group

	g.Add(func() error {
		logger.WithField("port", cfg.Port).Info("listening")
		return srv.ListenAndServe()
	}, func(error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("shutting down server")
		}
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	g.Add(func() error {
		select {
		case s := <-sig:
			return errors.Errorf("received signal %v", s)
		case <-done:
			return nil
		}
	}, func(error) {
		close(done)
	})

	if err := g.Run(); err != nil {
		logger.WithError(err).Info("shutdown")
	}
}

type timerView struct {
	Name        string            `json:"name"`
	Tags        map[string]string `json:"tags"`
	Count       int64             `json:"count"`
	TotalMs     float64           `json:"total_ms"`
	MinMs       float64           `json:"min_ms"`
	MaxMs       float64           `json:"max_ms"`
	Percentiles []percentileView  `json:"percentiles,omitempty"`
}

type percentileView struct {
	Quantile float64 `json:"quantile"`
	Ms       float64 `json:"ms"`
}

// metricsDump renders every accumulated timer as JSON. With metrics
// disabled it reports an empty list rather than failing.
func metricsDump(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		views := []timerView{}
		if reg != nil {
			for _, s := range reg.Snapshots() {
				v := timerView{
					Name:    s.Name,
					Tags:    map[string]string{},
					Count:   s.Count,
					TotalMs: ms(s.TotalTime),
					MinMs:   ms(s.Min),
					MaxMs:   ms(s.Max),
				}
				for i := 0; i+1 < len(s.Tags); i += 2 {
					v.Tags[s.Tags[i]] = s.Tags[i+1]
				}
				for _, p := range s.Percentiles {
					v.Percentiles = append(v.Percentiles, percentileView{
						Quantile: p.Quantile,
						Ms:       ms(p.Value),
					})
				}
				views = append(views, v)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(views); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
