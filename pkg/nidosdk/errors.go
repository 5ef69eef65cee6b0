package nidosdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nidohq/nido/pkg/httpx"
)

// Wire error codes. Every failure leaving the service uses one of these;
// raw store or token errors never reach the caller.
const (
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeUnauthorized       = "unauthorized"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeInvalidOrExpired   = "invalid_or_expired_token"
	ErrorCodeMailTransport      = "mail_transport_error"
	ErrorCodeServerError        = "server_error"
)

// APIError is the service's wire error shape. It implements the error
// interface and is used both by the server (to write HTTP responses) and by
// the SDK client (to represent decoded failures).
type APIError struct {
	// StatusCode is the HTTP status code for this error.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code.
	Code string `json:"error"`

	// Description is a human-readable description of the error.
	Description string `json:"error_description"`

	// Field names the offending input field for validation errors.
	Field string `json:"field,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Description)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, e.StatusCode, e)
}

// WithField returns a copy of e naming the offending field. Used to turn a
// duplicate-unique-key failure into a field-specific validation error.
func (e *APIError) WithField(field string) *APIError {
	clone := *e
	clone.Field = field
	return &clone
}

var (
	// ErrInvalidCredentials masks account existence: unknown email, disabled
	// account and wrong password are indistinguishable by design.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	// ErrUnauthorized is returned when no session cookie accompanies a
	// request that requires one.
	ErrUnauthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "authentication required",
	}

	// ErrForbidden covers unusable session tokens and ownership violations.
	ErrForbidden = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbidden,
		Description: "you do not have access to this resource",
	}

	// ErrNotFound is used only where enumeration-safety is not required.
	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "resource not found",
	}

	// ErrValidation is returned for malformed input or duplicate unique
	// fields; combine with WithField for the latter.
	ErrValidation = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidation,
		Description: "request is malformed or contains invalid fields",
	}

	// ErrInvalidOrExpired covers reset tokens and recovery codes that do not
	// match or have passed their expiry.
	ErrInvalidOrExpired = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidOrExpired,
		Description: "token or code is invalid or has expired",
	}

	// ErrMailTransport reports a mail dispatch failure. Recoverable: the
	// caller may simply retry the request.
	ErrMailTransport = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeMailTransport,
		Description: "could not send email, try again later",
	}

	// ErrServerError is the catch-all for unexpected internal failures.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// DecodeError reads an APIError from a non-2xx response body. Falls back to
// a status-only error when the body is not the standard shape.
func DecodeError(resp *http.Response) error {
	var apiErr APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeServerError,
			Description: fmt.Sprintf("unexpected response status %d", resp.StatusCode),
		}
	}
	apiErr.StatusCode = resp.StatusCode
	return &apiErr
}
