// Package errors defines the error kinds surfaced by the extraction proxy.
// Every kind carries the HTTP status the handler answers with.
package errors

import (
	"fmt"
	"net/http"
)

// Error is a classified failure of one extraction request.
type Error struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	Cause      error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("[%s] %s (code=%d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s (provider=%s, model=%s, code=%d)",
		e.Type, e.Message, e.Provider, e.Model, e.StatusCode)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatusCode returns the status the caller should receive.
func (e *Error) HTTPStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// Error kinds.
const (
	TypeMissingCredential = "missing_credential"
	TypeUpstream          = "upstream_error"
	TypeInvalidModelJSON  = "invalid_model_json"
	TypeInvalidRequest    = "invalid_request_error"
	TypeMethodNotAllowed  = "method_not_allowed"
	TypeInternalError     = "internal_error"
)

// MissingCredentialMessage is the fixed message returned when no API key is configured.
const MissingCredentialMessage = "No API key."

// NewMissingCredentialError creates the 503 returned when no API key is configured.
func NewMissingCredentialError() *Error {
	return &Error{
		StatusCode: http.StatusServiceUnavailable,
		Message:    MissingCredentialMessage,
		Type:       TypeMissingCredential,
	}
}

// NewUpstreamError mirrors an upstream HTTP failure. The message is prefixed with
// the provider's display name so callers can tell where it originated.
func NewUpstreamError(statusCode int, displayName, provider, model, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("%s API: %s", displayName, message),
		Type:       TypeUpstream,
		Provider:   provider,
		Model:      model,
	}
}

// NewInvalidModelJSONError reports that the model's answer could not be parsed as JSON.
func NewInvalidModelJSONError(provider, model string, cause error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Message:    "AI returned invalid JSON: " + cause.Error(),
		Type:       TypeInvalidModelJSON,
		Provider:   provider,
		Model:      model,
		Cause:      cause,
	}
}

// NewInvalidRequestError reports a malformed local request. It answers 500 like
// every other unclassified failure; the type only aids logging.
func NewInvalidRequestError(message string, cause error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Type:       TypeInvalidRequest,
		Cause:      cause,
	}
}

// NewMethodNotAllowedError creates a 405.
func NewMethodNotAllowedError() *Error {
	return &Error{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    "Method not allowed",
		Type:       TypeMethodNotAllowed,
	}
}

// NewInternalError creates a catch-all 500.
func NewInternalError(provider, model, message string, cause error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		Type:       TypeInternalError,
		Provider:   provider,
		Model:      model,
		Cause:      cause,
	}
}

// IsClientError reports whether the status belongs to the 4xx range.
func IsClientError(statusCode int) bool {
	return statusCode >= 400 && statusCode < 500
}
