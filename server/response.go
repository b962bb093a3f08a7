package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gaborage/reqengine/config"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Data  any               `json:"data,omitempty"`
	Error *APIErrorResponse `json:"error,omitempty"`
	Meta  map[string]any    `json:"meta"`
}

// APIErrorResponse is the error part of the envelope.
type APIErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func responseMeta(c echo.Context) map[string]any {
	return map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"requestId": c.Response().Header().Get(echo.HeaderXRequestID),
	}
}

func formatSuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, APIResponse{Data: data, Meta: responseMeta(c)})
}

// formatErrorResponse renders apiErr. Details are only exposed outside production.
func formatErrorResponse(c echo.Context, apiErr IAPIError, env string) error {
	errorResp := &APIErrorResponse{
		Code:    apiErr.ErrorCode(),
		Message: apiErr.Message(),
	}
	if env != config.EnvProduction {
		if details := apiErr.Details(); len(details) > 0 {
			errorResp.Details = details
		}
	}
	return c.JSON(apiErr.HTTPStatus(), APIResponse{Error: errorResp, Meta: responseMeta(c)})
}
