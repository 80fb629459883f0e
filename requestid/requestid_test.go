package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFromRequestPropagatesHeader(t *testing.T) {
	for _, header := range []string{"Request-Id", "X-Request-Id"} {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set(header, "abc-123")

		id, ok := FromRequest(r)
		if !ok {
			t.Fatalf("ok = false for header %s", header)
		}
		if id != "abc-123" {
			t.Fatalf("id = %q, want abc-123", id)
		}
	}
}

func TestFromRequestGenerates(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	id, ok := FromRequest(r)
	if ok {
		t.Fatal("ok = true for a request without an id header")
	}
	if id == "" {
		t.Fatal("no id generated")
	}
	if got := r.Header.Get("X-Request-Id"); got != id {
		t.Fatalf("header = %q, want the generated id %q", got, id)
	}
}

func TestMiddleware(t *testing.T) {
	var got string
	h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Request-Id", "from-header")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got != "from-header" {
		t.Fatalf("context id = %q, want from-header", got)
	}
}
