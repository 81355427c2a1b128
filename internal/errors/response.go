package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Recognized server error details
const (
	DetailMissingTenantHeader = "Missing X-Tenant-Id header"
	DetailTenantNotAllowed    = "Tenant not allowed"
)

// ErrorBody is the JSON error body returned by the console API.
// Either field may be empty.
type ErrorBody struct {
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
}

// DecodeErrorBody parses an error body, returning an empty ErrorBody when the
// payload is not JSON. FastAPI style validation errors carry a list in detail,
// those are ignored.
func DecodeErrorBody(body []byte) ErrorBody {
	var raw struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return ErrorBody{}
	}
	eb := ErrorBody{Message: raw.Message}
	var detail string
	if err := json.Unmarshal(raw.Detail, &detail); err == nil {
		eb.Detail = detail
	}
	return eb
}

// IsMissingTenantHeader reports whether a response describes a request sent without X-Tenant-Id.
func IsMissingTenantHeader(statusCode int, body ErrorBody) bool {
	return statusCode == http.StatusBadRequest && strings.Contains(body.Detail, DetailMissingTenantHeader)
}

// IsTenantNotAllowed reports whether a response rejects the tenant sent in X-Tenant-Id.
func IsTenantNotAllowed(statusCode int, body ErrorBody) bool {
	return statusCode == http.StatusForbidden && body.Detail == DetailTenantNotAllowed
}

// ResponseError is a non 2xx response from the console API
type ResponseError struct {
	StatusCode int
	Body       ErrorBody
}

// NewResponseError decodes the raw response body into a ResponseError
func NewResponseError(statusCode int, body []byte) *ResponseError {
	return &ResponseError{StatusCode: statusCode, Body: DecodeErrorBody(body)}
}

func (e *ResponseError) Error() string {
	if msg := e.DisplayMessage(); msg != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// DisplayMessage returns detail, falling back to message.
func (e *ResponseError) DisplayMessage() string {
	if e.Body.Detail != "" {
		return e.Body.Detail
	}
	return e.Body.Message
}

// Is maps the response onto the error taxonomy
func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrSessionExpired:
		return e.StatusCode == http.StatusUnauthorized
	case ErrTenantUnassigned:
		return IsMissingTenantHeader(e.StatusCode, e.Body) || IsTenantNotAllowed(e.StatusCode, e.Body)
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
