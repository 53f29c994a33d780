package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
	"invoicepay/internal/service"
)

// UserHandler serves the admin view of accounts.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UserDetail is the admin view of an account.
type UserDetail struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	EmailConfirmed bool   `json:"emailConfirmed"`
	LockedOut      bool   `json:"lockedOut"`
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID (UUID)"
// @Success 200 {object} UserDetail
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Message: "invalid id",
			Code:    "INVALID_UUID",
		})
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, toUserDetail(user, time.Now()))
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserDetail
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	now := time.Now()
	out := make([]UserDetail, 0, len(users))
	for i := range users {
		out = append(out, toUserDetail(&users[i], now))
	}
	return c.JSON(http.StatusOK, out)
}

func toUserDetail(user *model.User, now time.Time) UserDetail {
	return UserDetail{
		ID:             user.ID.String(),
		Name:           user.Name,
		Email:          user.Email,
		Role:           user.PrimaryRole(),
		EmailConfirmed: user.EmailConfirmed,
		LockedOut:      user.LockoutEnd != nil && user.LockoutEnd.After(now),
	}
}
