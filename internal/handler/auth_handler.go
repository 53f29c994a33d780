package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"invoicepay/internal/auth"
	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
	"invoicepay/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService   service.AuthService
	publicBaseURL string
}

// NewAuthHandler creates a new auth handler. When publicBaseURL is empty the
// confirmation link is built from the incoming request.
func NewAuthHandler(authService service.AuthService, publicBaseURL string) *AuthHandler {
	return &AuthHandler{authService: authService, publicBaseURL: publicBaseURL}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailRequest asks for a new confirmation email.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmEmailQuery carries the link parameters of a confirmation email.
type ConfirmEmailQuery struct {
	Email string `query:"email" validate:"required"`
	Token string `query:"token" validate:"required"`
}

// UserSummary is the public view of an account.
type UserSummary struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req, "User registration failed"); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(err)
	}

	return c.JSON(http.StatusCreated, RegisterResponse{
		Message: "User registered successfully",
		User:    UserSummary{Email: user.Email, Role: model.RoleCustomer},
	})
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req, "Invalid login request"); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		Token:   result.Token,
		User: UserSummary{
			Name:  result.User.Name,
			Email: result.User.Email,
			Role:  result.User.PrimaryRole(),
		},
	})
}

// VerifyEmail godoc
// @Summary Send an email confirmation link
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyEmailRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := bindAndValidate(c, &req, "Invalid email."); err != nil {
		return err
	}

	err := h.authService.RequestVerification(c.Request().Context(), req.Email, h.baseURL(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
				Message: "User not found.",
				Code:    "USER_NOT_FOUND",
			})
		}
		return respondError(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Verification email sent."})
}

// ConfirmEmail godoc
// @Summary Confirm an email address
// @Tags auth
// @Produce json
// @Param email query string true "Account email"
// @Param token query string true "Confirmation token"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/confirm-email [get]
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	var query ConfirmEmailQuery
	if err := bindAndValidate(c, &query, "Invalid email confirmation request."); err != nil {
		return err
	}

	if err := h.authService.ConfirmEmail(c.Request().Context(), query.Email, query.Token); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
				Message: "Invalid email.",
				Code:    "USER_NOT_FOUND",
			})
		}
		return respondError(err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Email verified successfully. Please login."})
}

// ProfileResponse wraps the caller's account.
type ProfileResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

// Profile godoc
// @Summary Get the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Message: "unauthenticated",
			Code:    "UNAUTHENTICATED",
		})
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Message: "unauthenticated",
			Code:    "UNAUTHENTICATED",
		})
	}

	user, err := h.authService.Profile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmailNotVerified) {
			return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
				Message:           "Please verify your email.",
				Code:              "EMAIL_NOT_VERIFIED",
				EmailVerification: apperrors.VerifyEmailPath,
			})
		}
		return respondError(err)
	}

	return c.JSON(http.StatusOK, ProfileResponse{
		Message: "User profile retrieved successfully",
		User: UserSummary{
			ID:    user.ID.String(),
			Name:  user.Name,
			Email: user.Email,
			Role:  user.PrimaryRole(),
		},
	})
}

func (h *AuthHandler) baseURL(c echo.Context) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	return c.Scheme() + "://" + c.Request().Host
}
