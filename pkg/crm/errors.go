package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors matched through errors.Is against an *APIError.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrServerFailure = errors.New("server failure")
)

// Common static errors that can be wrapped with context.
var (
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrConfigRequired   = errors.New("config is required")
	ErrBaseURLRequired  = errors.New("base URL is required")
	ErrInvalidBaseURL   = errors.New("base URL must be an absolute http(s) URL")
	ErrIDRequired       = errors.New("id is required")
	ErrKeyNotFound      = errors.New("key not found")
	ErrEntryExpired     = errors.New("entry expired")
	ErrCacheDisabled    = errors.New("cache is disabled")
	ErrUnknownCacheType = errors.New("unknown cache type")
	ErrNATSURLRequired  = errors.New("NATS URL is required")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// TransportError means the request never reached the server or no response came back.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport failure: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is a structured failure returned by the server.
type APIError struct {
	Status  int      `json:"statusCode"        yaml:"statusCode"`
	Message string   `json:"message"           yaml:"message"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
	Code    string   `json:"error,omitempty"   yaml:"error,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status: %d)", e.Status)
	}

	return fmt.Sprintf("%s (status: %d)", e.Message, e.Status)
}

// Is maps HTTP status classes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrInvalidInput:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrServerFailure:
		return e.Status >= http.StatusInternalServerError
	}

	return false
}

// errorBody is the error envelope of the API. The message is either a string or,
// for validation failures, a list of strings.
type errorBody struct {
	StatusCode int             `json:"statusCode"`
	Message    json.RawMessage `json:"message"`
	Error      string          `json:"error"`
}

// ParseAPIError builds an APIError from a non-2xx response. Bodies that are not the
// JSON envelope still yield an error carrying the status and the raw text.
func ParseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var envelope errorBody

	err := json.Unmarshal(body, &envelope)
	if err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}

		return apiErr
	}

	apiErr.Code = envelope.Error

	var single string

	var list []string

	switch {
	case json.Unmarshal(envelope.Message, &single) == nil:
		apiErr.Message = single
	case json.Unmarshal(envelope.Message, &list) == nil:
		apiErr.Details = list
		apiErr.Message = strings.Join(list, "; ")
	}

	if apiErr.Message == "" {
		apiErr.Message = envelope.Error
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	return apiErr
}

// DecodeError means a response body did not match the expected shape.
type DecodeError struct {
	Target string
	Body   []byte
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Target, e.Err)
}

// Unwrap returns the underlying decoding error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PermissionDeniedError is raised before any network call when the session lacks a
// permission the action needs.
type PermissionDeniedError struct {
	Action  string
	Missing []string
}

// Error implements the error interface.
func (e *PermissionDeniedError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("permission denied: missing %s", strings.Join(e.Missing, ", "))
	}

	return fmt.Sprintf("permission denied for %s: missing %s", e.Action, strings.Join(e.Missing, ", "))
}

// Is makes every PermissionDeniedError match ErrPermissionDenied.
func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsInvalidInput checks if the error is a validation failure, local or remote.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTransport checks if the error is a transport failure.
func IsTransport(err error) bool {
	var transportErr *TransportError

	return errors.As(err, &transportErr)
}

// AsAPIError extracts the APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}
