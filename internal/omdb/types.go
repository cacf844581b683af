package omdb

import (
	"fmt"
	"strconv"
)

// Payload is the raw decoded OMDb response. The service's shape is not
// validated; every field is optional and unknown fields are preserved so
// downstream consumers can keep them verbatim.
type Payload map[string]any

// Str returns the named field when it is a string, or "" otherwise.
func (p Payload) Str(field string) string {
	if p == nil {
		return ""
	}
	if v, ok := p[field].(string); ok {
		return v
	}
	return ""
}

// NotFound reports whether the payload carries OMDb's explicit not-found
// flag (Response == "False"). This is payload-level absence, distinct from a
// cached nil entry.
func (p Payload) NotFound() bool {
	return p.Str("Response") == "False"
}

// Rating parses the imdbRating field. The service uses "N/A" as a sentinel
// for unavailable ratings; that and any non-numeric value yield ok=false,
// never zero.
func (p Payload) Rating() (float64, bool) {
	raw := p.Str("imdbRating")
	if raw == "" || raw == "N/A" {
		return 0, false
	}
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return rating, true
}

// TransportError reports that a lookup never produced a usable response:
// the service was unreachable or answered with a non-success status.
type TransportError struct {
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("omdb request failed: %v", e.Cause)
	}
	return fmt.Sprintf("omdb request failed: HTTP %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
