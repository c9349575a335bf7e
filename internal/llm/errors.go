package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrNoBackend is returned when every configured backend is unavailable.
var ErrNoBackend = errors.New("no generation backend available")

// APICallError represents a failed call to a generation backend
type APICallError struct {
	Provider   Provider
	Message    string
	StatusCode int
	Cause      error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s API call failed: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s API call failed: %s", e.Provider, e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// IsQuotaError reports whether err means the backend's quota is exhausted
// (HTTP 429 / RESOURCE_EXHAUSTED).
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APICallError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusTooManyRequests {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "Quota exceeded") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
