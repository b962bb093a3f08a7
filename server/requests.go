package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/reqengine/engine"
	"github.com/gaborage/reqengine/httpclient"
)

// DispatchRequest is the body of POST /v1/requests. Omitted policy fields
// fall back to the engine defaults.
type DispatchRequest struct {
	Description map[string]any `json:"description" validate:"required"`
	MaxAttempts *int           `json:"max_attempts" validate:"omitempty,min=1"`
	Delay       string         `json:"delay" validate:"duration"`
	Timeout     string         `json:"timeout" validate:"duration"`
}

// DispatchResponse is the data of a successful dispatch.
type DispatchResponse struct {
	Payload     any    `json:"payload"`
	Attempts    int    `json:"attempts"`
	RequestType string `json:"request_type"`
}

// HandlersResponse lists the registered request types.
type HandlersResponse struct {
	Types []string `json:"types"`
}

func (r DispatchRequest) callOptions() []engine.CallOption {
	var opts []engine.CallOption
	if r.MaxAttempts != nil {
		opts = append(opts, engine.WithMaxAttempts(*r.MaxAttempts))
	}
	// Both strings were checked by the duration rule
	if d, err := time.ParseDuration(r.Delay); err == nil {
		opts = append(opts, engine.WithDelay(d))
	}
	if d, err := time.ParseDuration(r.Timeout); err == nil {
		opts = append(opts, engine.WithTimeout(d))
	}
	return opts
}

func (s *Server) dispatch(c echo.Context) error {
	var req DispatchRequest
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, NewBadRequestError("Invalid request body").WithDetails("error", err.Error()))
	}
	if err := c.Validate(&req); err != nil {
		apiErr := NewBadRequestError("Request validation failed")
		var ve *ValidationError
		if errors.As(err, &ve) {
			_ = apiErr.WithDetails("validationErrors", ve.Errors)
		} else {
			_ = apiErr.WithDetails("error", err.Error())
		}
		return s.respondError(c, apiErr)
	}

	ctx := c.Request().Context()
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		ctx = httpclient.WithRequestID(ctx, id)
	}

	result, err := s.engine.Handle(ctx, engine.Description(req.Description), req.callOptions()...)
	if err != nil {
		return s.respondError(c, NewBadRequestError(err.Error()))
	}

	switch result.Status {
	case engine.StatusSucceeded:
		return formatSuccessResponse(c, DispatchResponse{
			Payload:     result.Payload,
			Attempts:    result.Attempts,
			RequestType: string(result.Type),
		})
	case engine.StatusUnsupported:
		return s.respondError(c, NewNotFoundError(fmt.Sprintf("no handler registered for request type %q", result.Type)))
	case engine.StatusExhausted:
		return s.respondError(c, NewBadGatewayError(fmt.Sprintf("request failed after %d attempts", result.Attempts)).
			WithDetails("attempts", result.Attempts).
			WithDetails("error", errorText(result.Err)))
	case engine.StatusCanceled:
		return s.respondError(c, canceledError(result))
	default:
		return s.respondError(c, NewInternalServerError(fmt.Sprintf("unexpected status %q", result.Status)))
	}
}

func canceledError(result engine.Result) *BaseAPIError {
	var apiErr *BaseAPIError
	if errors.Is(result.Err, context.DeadlineExceeded) {
		apiErr = NewRequestTimeoutError("request deadline expired while waiting to retry")
	} else {
		apiErr = NewClientClosedError("request canceled while waiting to retry")
	}
	return apiErr.WithDetails("attempts", result.Attempts).WithDetails("error", errorText(result.Err))
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (s *Server) listHandlers(c echo.Context) error {
	types := s.engine.Handlers()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return formatSuccessResponse(c, HandlersResponse{Types: names})
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
