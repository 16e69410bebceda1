package handler

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"bptracker/internal/errors"
	"bptracker/internal/model"
	"bptracker/internal/service"
)

// ReadingHandler handles reading endpoints. Every method acts for the caller
// resolved by the token guard.
type ReadingHandler struct {
	svc service.ReadingService
}

// NewReadingHandler creates a new reading handler.
func NewReadingHandler(svc service.ReadingService) *ReadingHandler {
	return &ReadingHandler{svc: svc}
}

// ReadingRequest documents the body of POST /readings. Numbers may also be
// sent as numeric strings.
type ReadingRequest struct {
	Systolic  int    `json:"systolic" example:"120"`
	Diastolic int    `json:"diastolic" example:"80"`
	Date      string `json:"date" example:"2025-07-10"`
}

// ReadingResponse is the public view of a reading.
type ReadingResponse struct {
	ID        uint   `json:"id"`
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Date      string `json:"date" example:"2025-07-10T00:00:00"`
}

// CreatedReadingResponse acknowledges a stored reading.
type CreatedReadingResponse struct {
	Message string          `json:"message"`
	Reading ReadingResponse `json:"reading"`
}

// SummaryResponse aggregates the caller's readings.
type SummaryResponse struct {
	Count        int64   `json:"count"`
	AvgSystolic  float64 `json:"avg_systolic"`
	AvgDiastolic float64 `json:"avg_diastolic"`
}

func toReadingResponse(r model.Reading) ReadingResponse {
	return ReadingResponse{
		ID:        r.ID,
		Systolic:  r.Systolic,
		Diastolic: r.Diastolic,
		Date:      r.Date.UTC().Format(model.TimestampLayout),
	}
}

// Create godoc
// @Summary Add a reading
// @Tags readings
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body ReadingRequest true "Reading"
// @Success 201 {object} CreatedReadingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /readings [post]
func (h *ReadingHandler) Create(c echo.Context, caller *model.User) error {
	var in service.ReadingInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing data for reading.")
	}

	reading, err := h.svc.Create(c.Request().Context(), caller.ID, in)
	if err != nil {
		if stderrors.Is(err, errors.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "Missing data for reading.")
		}
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, CreatedReadingResponse{
		Message: "New reading added!",
		Reading: toReadingResponse(*reading),
	})
}

// List godoc
// @Summary List the caller's readings, newest first
// @Tags readings
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} ReadingResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /readings [get]
func (h *ReadingHandler) List(c echo.Context, caller *model.User) error {
	readings, err := h.svc.List(c.Request().Context(), caller.ID)
	if err != nil {
		return toHTTPError(err)
	}

	out := make([]ReadingResponse, 0, len(readings))
	for _, r := range readings {
		out = append(out, toReadingResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Summary godoc
// @Summary Count and averages of the caller's readings
// @Tags readings
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} SummaryResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /readings/summary [get]
func (h *ReadingHandler) Summary(c echo.Context, caller *model.User) error {
	summary, err := h.svc.Summary(c.Request().Context(), caller.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, SummaryResponse{
		Count:        summary.Count,
		AvgSystolic:  summary.AvgSystolic.InexactFloat64(),
		AvgDiastolic: summary.AvgDiastolic.InexactFloat64(),
	})
}

// Delete godoc
// @Summary Delete one of the caller's readings
// @Tags readings
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Reading ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /readings/{id} [delete]
func (h *ReadingHandler) Delete(c echo.Context, caller *model.User) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		// an id that can never exist reads the same as someone else's
		return toHTTPError(errors.ErrReadingNotFound)
	}

	if err := h.svc.Delete(c.Request().Context(), caller.ID, uint(id)); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Reading has been deleted!"})
}
