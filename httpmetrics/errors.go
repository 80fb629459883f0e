package httpmetrics

import (
	"net/http"

	"github.com/pkg/errors"
)

// ErrorMapping maps one kind of recovered fault to the response the
// client should see. Mappings are evaluated in registration order; the
// first Match that returns true wins.
type ErrorMapping struct {
	// Match reports whether this mapping handles the fault.
	Match func(error) bool
	// Status is the response status to write, e.g. 400.
	Status int
	// Body is the response body. Empty means the standard status text.
	Body string
}

// MapError builds an ErrorMapping matching faults equal to target under
// errors.Is.
func MapError(target error, status int) ErrorMapping {
	return ErrorMapping{
		Match:  func(err error) bool { return errors.Is(err, target) },
		Status: status,
	}
}

// resolve picks the response for a recovered fault: the first matching
// mapping, or 500.
func resolve(mappings []ErrorMapping, err error) (int, string) {
	for _, m := range mappings {
		if m.Match != nil && m.Match(err) {
			body := m.Body
			if body == "" {
				body = http.StatusText(m.Status)
			}
			return m.Status, body
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// faultFromPanic normalizes a recovered panic value into an error.
func faultFromPanic(rec interface{}) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return errors.Errorf("panic: %v", rec)
}
