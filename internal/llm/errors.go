package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDisabled       = errors.New("llm provider is disabled")
	ErrMissingAPIKey  = errors.New("llm api key is not configured")
	ErrUnauthorized   = errors.New("llm provider rejected the api key")
	ErrTimeout        = errors.New("llm request timed out")
	ErrUnavailable    = errors.New("llm provider unavailable")
	ErrEmptyResponse  = errors.New("llm returned an empty response")
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")
)

// StatusError is a non-2xx response from the provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm provider returned status %d: %s", e.Code, e.Body)
}

// Unwrap maps auth failures onto ErrUnauthorized.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, ErrEmptyResponse)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrEmptyResponse):
		return "EMPTY"
	}
	return "UNKNOWN"
}
