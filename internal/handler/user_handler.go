package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "crm/internal/errors"
	"crm/internal/middleware"
	"crm/internal/service"
)

// UserHandler serves the administrative user endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateStatusRequest activates or deactivates an account.
type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(10)
// @Success 200 {object} SuccessResponse{data=service.UserPage}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	res, err := h.svc.ListUsers(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} SuccessResponse{data=service.Profile}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("Invalid user id")
	}

	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// UpdateStatus godoc
// @Summary Activate or deactivate a user
// @Description Deactivation also revokes the user's refresh token.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} SuccessResponse{data=service.Profile}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/status [patch]
func (h *UserHandler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("Invalid user id")
	}
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return apperrors.ErrInactiveUser
	}
	if p.ID == id && !*req.IsActive {
		return badRequest("You cannot deactivate your own account")
	}

	user, err := h.svc.SetActive(c.Request().Context(), p.Role, id, *req.IsActive)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// Unlock godoc
// @Summary Clear a user's failed-login lockout
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} SuccessResponse{data=service.Profile}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/unlock [post]
func (h *UserHandler) Unlock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("Invalid user id")
	}
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return apperrors.ErrInactiveUser
	}

	user, err := h.svc.Unlock(c.Request().Context(), p.Role, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}
