package gateway

import (
	"errors"
	"fmt"
)

// Gateway errors.
var (
	ErrUnsupportedProvider   = errors.New("unsupported provider")
	ErrMissingAPIKey         = errors.New("missing API key")
	ErrTokenCountUnsupported = errors.New("native token counting not supported")
	ErrEmptyResponse         = errors.New("provider returned no choices")
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error: HTTP %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// HTTPStatus returns the HTTP status code carried by err, or 0.
func HTTPStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
