package httpmetrics_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/substratehq/webmetrics/httpmetrics"
	"github.com/substratehq/webmetrics/metrics/registry"
	"github.com/substratehq/webmetrics/metrics/testmetrics"
)

func newEchoServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/test-http-metrics/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok %s", chi.URLParam(r, "id"))
	})
	r.Get("/conflict", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return srv, u.Host
}

func TestTransportTagsRouteTemplate(t *testing.T) {
	reg := registry.New()
	srv, host := newEchoServer(t)

	hc := &http.Client{Transport: httpmetrics.NewTransport(reg, nil)}

	ctx := httpmetrics.WithRouteTag(context.Background(), "/test-http-metrics/{id}")
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/test-http-metrics/foo", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "ok foo" {
		t.Fatalf("body = %q, want %q", body, "ok foo")
	}

	c := testmetrics.New(t, reg)
	c.CheckTimerCount(httpmetrics.ClientMetric, 1,
		"uri", "/test-http-metrics/{id}",
		"method", "GET",
		"host", host,
		"status", "200",
	)
	c.CheckNoTimer(httpmetrics.ClientMetric,
		"uri", "/test-http-metrics/foo",
		"method", "GET",
		"host", host,
		"status", "200",
	)
}

func TestTransportWithoutTemplateTagsUnknown(t *testing.T) {
	reg := registry.New()
	srv, host := newEchoServer(t)

	hc := &http.Client{Transport: httpmetrics.NewTransport(reg, nil)}

	resp, err := hc.Get(srv.URL + "/conflict")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	testmetrics.New(t, reg).CheckTimerCount(httpmetrics.ClientMetric, 1,
		"uri", "UNKNOWN",
		"method", "GET",
		"host", host,
		"status", "409",
	)
}

func TestTransportRecordsConnectionFailure(t *testing.T) {
	reg := registry.New()

	srv := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	srv.Close()

	hc := &http.Client{Transport: httpmetrics.NewTransport(reg, nil)}

	ctx := httpmetrics.WithRouteTag(context.Background(), "/gone")
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/gone", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := hc.Do(req); err == nil {
		t.Fatal("expected a transport error against a closed server")
	}

	testmetrics.New(t, reg).CheckTimerCount(httpmetrics.ClientMetric, 1,
		"uri", "/gone",
		"method", "GET",
		"host", u.Host,
		"status", "CLIENT_ERROR",
	)
}

func TestClientExpandsTemplate(t *testing.T) {
	reg := registry.New()
	srv, host := newEchoServer(t)

	client := httpmetrics.NewClient(reg, srv.URL, srv.Client())

	resp, err := client.Get(context.Background(), "/test-http-metrics/{id}", httpmetrics.Params{"id": "foo"})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "ok foo" {
		t.Fatalf("body = %q, want %q", body, "ok foo")
	}

	c := testmetrics.New(t, reg)
	c.CheckTimerCount(httpmetrics.ClientMetric, 1,
		"uri", "/test-http-metrics/{id}",
		"method", "GET",
		"host", host,
		"status", "200",
	)

	if _, err := reg.Timer(httpmetrics.ClientMetric,
		"uri", "/test-http-metrics/foo",
		"method", "GET",
		"host", host,
		"status", "200",
	); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClientMissingParamRecordsNothing(t *testing.T) {
	reg := registry.New()
	srv, _ := newEchoServer(t)

	client := httpmetrics.NewClient(reg, srv.URL, srv.Client())

	if _, err := client.Get(context.Background(), "/test-http-metrics/{id}", nil); err == nil {
		t.Fatal("expected an error for the missing path parameter")
	}

	if ids := reg.Identities(); len(ids) != 0 {
		t.Fatalf("timers registered for an unsent request: %v", ids)
	}
}

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   httpmetrics.Params
		want     string
		wantErr  bool
	}{
		{
			name:     "no placeholders",
			template: "/plain/path",
			want:     "/plain/path",
		},
		{
			name:     "single placeholder",
			template: "/things/{id}",
			params:   httpmetrics.Params{"id": "foo"},
			want:     "/things/foo",
		},
		{
			name:     "multiple placeholders",
			template: "/apps/{app}/dynos/{dyno}",
			params:   httpmetrics.Params{"app": "a1", "dyno": "web.1"},
			want:     "/apps/a1/dynos/web.1",
		},
		{
			name:     "missing parameter",
			template: "/things/{id}",
			params:   httpmetrics.Params{"other": "x"},
			wantErr:  true,
		},
		{
			name:     "unterminated placeholder",
			template: "/things/{id",
			params:   httpmetrics.Params{"id": "foo"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := httpmetrics.ExpandTemplate(tt.template, tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
