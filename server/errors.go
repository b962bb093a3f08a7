package server

import (
	"maps"
	"net/http"
)

// IAPIError is an error rendered into the response envelope.
type IAPIError interface {
	ErrorCode() string
	Message() string
	HTTPStatus() int
	Details() map[string]any
}

// BaseAPIError provides a basic implementation of IAPIError.
type BaseAPIError struct {
	code       string
	message    string
	httpStatus int
	details    map[string]any
}

// NewBaseAPIError creates a new base API error.
func NewBaseAPIError(code, message string, httpStatus int) *BaseAPIError {
	return &BaseAPIError{
		code:       code,
		message:    message,
		httpStatus: httpStatus,
		details:    make(map[string]any),
	}
}

func (e *BaseAPIError) ErrorCode() string { return e.code }

func (e *BaseAPIError) Message() string { return e.message }

func (e *BaseAPIError) HTTPStatus() int { return e.httpStatus }

// Details returns a copy of the error details.
func (e *BaseAPIError) Details() map[string]any {
	if e.details == nil {
		return nil
	}
	return maps.Clone(e.details)
}

// WithDetails adds a detail entry and returns the error for chaining.
func (e *BaseAPIError) WithDetails(key string, value any) *BaseAPIError {
	e.details[key] = value
	return e
}

// Error returns "CODE: message".
func (e *BaseAPIError) Error() string {
	if e == nil {
		return ""
	}
	if e.code == "" {
		return e.message
	}
	return e.code + ": " + e.message
}

// NewBadRequestError reports a malformed request or description.
func NewBadRequestError(message string) *BaseAPIError {
	return NewBaseAPIError("BAD_REQUEST", message, http.StatusBadRequest)
}

// NewNotFoundError reports a missing resource, such as an unregistered request type.
func NewNotFoundError(message string) *BaseAPIError {
	return NewBaseAPIError("NOT_FOUND", message, http.StatusNotFound)
}

// NewBadGatewayError reports that the upstream kept failing.
func NewBadGatewayError(message string) *BaseAPIError {
	return NewBaseAPIError("BAD_GATEWAY", message, http.StatusBadGateway)
}

// NewRequestTimeoutError reports that the request deadline expired.
func NewRequestTimeoutError(message string) *BaseAPIError {
	return NewBaseAPIError("REQUEST_TIMEOUT", message, http.StatusRequestTimeout)
}

// NewClientClosedError reports that the caller canceled the request.
func NewClientClosedError(message string) *BaseAPIError {
	return NewBaseAPIError("CLIENT_CLOSED_REQUEST", message, StatusClientClosedRequest)
}

// NewInternalServerError reports an unexpected failure.
func NewInternalServerError(message string) *BaseAPIError {
	if message == "" {
		message = "An internal error occurred"
	}
	return NewBaseAPIError("INTERNAL_ERROR", message, http.StatusInternalServerError)
}

func statusToErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestTimeout:
		return "REQUEST_TIMEOUT"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case http.StatusBadGateway:
		return "BAD_GATEWAY"
	default:
		return "INTERNAL_ERROR"
	}
}

var _ IAPIError = (*BaseAPIError)(nil)
