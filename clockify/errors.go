package clockify

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	StatusCode int
	Body       string
}

// NewStatusError creates a StatusError.
func NewStatusError(statusCode int, body string) *StatusError {
	return &StatusError{StatusCode: statusCode, Body: body}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("clockify api error (status %d): %s", e.StatusCode, e.Body)
}

// IsClientError reports whether the API rejected the request as invalid.
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= http.StatusBadRequest && e.StatusCode < http.StatusInternalServerError
}

// IsClientError reports whether err wraps a 4xx StatusError. Such requests
// will not succeed if repeated, so retry policies treat them as permanent.
func IsClientError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.IsClientError()
}
