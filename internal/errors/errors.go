package errors

import (
	"errors"
	"net/http"
	"strings"
)

// VerifyEmailPath is returned to clients that must confirm their email first.
const VerifyEmailPath = "api/auth/verify-email"

var (
	// ErrEmailAlreadyRegistered is returned when registering an existing email.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked is returned while a lockout window is open.
	ErrAccountLocked = errors.New("account is temporarily locked")
	// ErrEmailNotVerified is returned when an unconfirmed user signs in.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailAlreadyVerified is returned when confirming a confirmed email.
	ErrEmailAlreadyVerified = errors.New("email is already verified")
	// ErrInvalidVerificationToken is returned for a bad or expired confirmation token.
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	// ErrEmailDelivery is returned when the mail transport fails.
	ErrEmailDelivery = errors.New("email delivery failed")
	// ErrInvoiceNotFound is returned when an invoice does not exist or is not visible.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvoiceNumberTaken is returned when an invoice number is reused.
	ErrInvoiceNumberTaken = errors.New("invoice number already exists")
	// ErrInvalidInvoiceState is returned for a transition the invoice cannot make.
	ErrInvalidInvoiceState = errors.New("invalid invoice state")
)

// ValidationError carries every failed input rule.
type ValidationError struct {
	Message string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

// NewValidationError creates a validation error.
func NewValidationError(message string, details ...string) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message           string   `json:"message"`
	Code              string   `json:"code,omitempty"`
	Errors            []string `json:"errors,omitempty"`
	EmailVerification string   `json:"emailVerification,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    []string
	VerifyPath string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message:           e.Message,
		Code:              e.Code,
		Errors:            e.Details,
		EmailVerification: e.VerifyPath,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become a
// generic 500 so internals never leak to clients.
func MapErrorToHTTP(err error) *HTTPError {
	var validation *ValidationError
	if errors.As(err, &validation) {
		httpErr := NewHTTPError(http.StatusBadRequest, validation.Message, "VALIDATION_FAILED")
		httpErr.Details = validation.Details
		return httpErr
	}

	switch {
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return NewHTTPError(http.StatusConflict, "Email already registered", "EMAIL_ALREADY_REGISTERED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "Invalid email or password.", "INVALID_CREDENTIALS")
	case errors.Is(err, ErrAccountLocked):
		return NewHTTPError(http.StatusForbidden, "Account is temporarily locked. Please try again later.", "ACCOUNT_LOCKED")
	case errors.Is(err, ErrEmailNotVerified):
		httpErr := NewHTTPError(http.StatusBadRequest, "Please verify your email before logging in.", "EMAIL_NOT_VERIFIED")
		httpErr.VerifyPath = VerifyEmailPath
		return httpErr
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, "User not found.", "USER_NOT_FOUND")
	case errors.Is(err, ErrEmailAlreadyVerified):
		return NewHTTPError(http.StatusBadRequest, "Email is already verified.", "EMAIL_ALREADY_VERIFIED")
	case errors.Is(err, ErrInvalidVerificationToken):
		return NewHTTPError(http.StatusBadRequest, "Invalid token or email confirmation failed.", "INVALID_TOKEN")
	case errors.Is(err, ErrEmailDelivery):
		return NewHTTPError(http.StatusInternalServerError, "Failed to send verification email. Please try again later.", "EMAIL_DELIVERY_FAILED")
	case errors.Is(err, ErrInvoiceNotFound):
		return NewHTTPError(http.StatusNotFound, "Invoice not found.", "INVOICE_NOT_FOUND")
	case errors.Is(err, ErrInvoiceNumberTaken):
		return NewHTTPError(http.StatusConflict, "Invoice number already exists.", "INVOICE_NUMBER_TAKEN")
	case errors.Is(err, ErrInvalidInvoiceState):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_INVOICE_STATE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
