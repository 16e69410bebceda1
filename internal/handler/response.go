package handler

import (
	"github.com/labstack/echo/v4"

	"bptracker/internal/errors"
)

// MessageResponse is the body of every plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// toHTTPError converts a service error into the response the client sees.
// The original error stays attached as internal so the request log keeps it.
func toHTTPError(err error) *echo.HTTPError {
	mapped := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(mapped.StatusCode, mapped.Message).SetInternal(err)
}
