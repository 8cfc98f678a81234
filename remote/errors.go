package remote

import (
	"errors"
	"fmt"
)

// TransportError wraps a failure before an HTTP status was obtained:
// DNS, connect, timeout. Always retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "remote transport error: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the remote service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote api error %d: %s", e.StatusCode, e.Body)
}

// IsPermanent reports whether the failure is a remote rejection that will
// not succeed on retry (4xx-class). Everything else, transport failures
// and 5xx included, counts as transient and goes through backoff.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
	}
	return false
}
