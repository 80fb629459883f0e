package httpmetrics_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/substratehq/webmetrics/httpmetrics"
	"github.com/substratehq/webmetrics/metrics/registry"
)

// This example shows how request timers aggregate by route template
// rather than by interpolated path.
func Example() {
	reg := registry.New()

	r := chi.NewRouter()
	r.Use(httpmetrics.NewServer(reg))
	r.Get("/apps/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	// Two different path parameters, one timer identity.
	for _, id := range []string{"1", "2"} {
		resp, err := http.Get(srv.URL + "/apps/" + id)
		if err != nil {
			fmt.Println(err)
			return
		}
		resp.Body.Close()
	}

	u, _ := url.Parse(srv.URL)
	tm, err := reg.Timer("http.server.requests",
		"uri", "/apps/{id}",
		"method", "GET",
		"host", u.Host,
		"status", "200",
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(tm.Snapshot().Count)

	// Output:
	// 2
}
