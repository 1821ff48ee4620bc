package flexdb

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HTTPError is returned when the service answers with a non-2xx status other than 404.
type HTTPError struct {
	StatusCode int
	Body       []byte
	// JSON holds the decoded body when it was valid JSON.
	JSON any
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("flexdb: http error: status=%d body=%s", e.StatusCode, string(e.Body))
}

// Message returns the "error" field of a JSON error body, if any.
func (e *HTTPError) Message() string {
	if e == nil {
		return ""
	}
	if m, ok := e.JSON.(map[string]any); ok {
		if s, ok := m["error"].(string); ok {
			return s
		}
	}
	return ""
}

// TransportError is returned when no HTTP response was obtained at all.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("flexdb: transport error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is returned when a request is rejected locally, before any network call.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("flexdb: invalid request: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConstructionError is returned when a response cannot be turned into a Store.
type ConstructionError struct {
	Reason string
	Data   json.RawMessage
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("flexdb: cannot build store: %s", e.Reason)
}

// IsStatus reports whether err is an *HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}

func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{StatusCode: status, Body: body}
	if len(body) > 0 {
		var payload any
		if err := json.Unmarshal(body, &payload); err == nil {
			e.JSON = payload
		}
	}
	return e
}
