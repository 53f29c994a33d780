package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "invoicepay/internal/errors"
)

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(sf.Tag.Get("query"), ",")
		}
		if name == "" {
			return sf.Name
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// bindAndValidate decodes the request into out and runs struct validation.
// message is used as the top-level text of a 400 response.
func bindAndValidate(c echo.Context, out interface{}, message string) error {
	if err := c.Bind(out); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Message: message,
			Code:    "INVALID_REQUEST",
			Errors:  bindErrorMessages(err),
		})
	}
	if err := c.Validate(out); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Message: message,
			Code:    "VALIDATION_FAILED",
			Errors:  validationMessages(err),
		})
	}
	return nil
}

// respondError converts a service error into the JSON error envelope.
func respondError(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func bindErrorMessages(err error) []string {
	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return []string{"invalid JSON syntax"}
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		return []string{fmt.Sprintf("%s must be of type %s", typeError.Field, typeError.Type.String())}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if msg, ok := httpErr.Message.(string); ok {
			return []string{msg}
		}
	}
	return []string{"invalid request body"}
}

func validationMessages(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		out = append(out, fieldMessage(fieldPath(fe), fe.Tag(), fe.Param()))
	}
	return out
}

// fieldPath drops the struct name prefix from the namespace, leaving the JSON path.
func fieldPath(fe validator.FieldError) string {
	namespace := fe.Namespace()
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(field, rule, param string) string {
	switch rule {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "eqfield":
		if param == "Password" {
			return "Passwords don't match."
		}
		return field + " must match " + param
	case "min":
		return field + " must be at least " + param
	case "max":
		return field + " must be at most " + param
	case "gt":
		return field + " must be greater than " + param
	case "oneof":
		return field + " must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("%s failed %s validation (%s)", field, rule, param)
		}
		return field + " failed " + rule + " validation"
	}
}
