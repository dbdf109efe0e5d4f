package client

import (
	"errors"
	"fmt"
)

// Sentinel kinds for client errors.
var (
	ErrRelativeURL = errors.New("resolved URL is relative and no base URL is set")
	ErrInvalidURL  = errors.New("invalid request URL")
	ErrRequest     = errors.New("request failed")
	ErrDecode      = errors.New("decode response failed")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}
