// ABOUTME: Error classes returned by the API client
// ABOUTME: Separates server-reported failures from transport failures for user messaging

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// NetworkErrorMessage is shown for any request that could not complete
const NetworkErrorMessage = "Network error. Please try again."

// APIError is a non-success response from the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

// TransportError means the request never produced a response
type TransportError struct {
	BaseURL string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case errors.Is(e.Err, context.Canceled):
		return "request canceled"
	case errors.Is(e.Err, context.DeadlineExceeded):
		return "request timed out"
	}
	return fmt.Sprintf("cannot connect to backend at %s: %v", e.BaseURL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401/403 from the backend
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// IsTransport reports whether err is a transport failure
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// UserMessage converts err into the text shown to the user.
// Server messages are returned verbatim; fallback covers responses without one.
// Local validation errors keep their own text.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if fallback != "" {
			return fallback
		}
		return apiErr.Error()
	}
	if IsTransport(err) {
		return NetworkErrorMessage
	}
	return err.Error()
}
