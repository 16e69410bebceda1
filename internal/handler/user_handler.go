package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bptracker/internal/model"
	"bptracker/internal/service"
)

// UserHandler serves the caller's own account.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// Me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context, caller *model.User) error {
	return c.JSON(http.StatusOK, UserResponse{ID: caller.ID, Email: caller.Email})
}

// DeleteMe godoc
// @Summary Delete the current user and all of their readings
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /me [delete]
func (h *UserHandler) DeleteMe(c echo.Context, caller *model.User) error {
	if err := h.svc.DeleteUser(c.Request().Context(), caller.ID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User has been deleted!"})
}
