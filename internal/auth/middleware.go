package auth

import (
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"invoicepay/internal/errors"
)

const claimsContextKey = "user"

// JWTMiddleware authenticates requests with a bearer token and rejects tokens
// whose security stamp no longer matches the published one.
func JWTMiddleware(jwtService *JWTService, stamps StampStore) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := jwtService.ValidateToken(auth)
			if err != nil {
				return nil, err
			}
			if stamps != nil {
				if current := stamps.Current(c.Request().Context(), claims.Subject); current != "" && current != claims.Stamp {
					return nil, ErrInvalidToken
				}
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Message: "unauthenticated",
				Code:    "UNAUTHENTICATED",
			})
		},
	})
}

// ClaimsFromContext returns the authenticated caller's claims.
func ClaimsFromContext(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// RequireRole allows the request only when the caller holds role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Message: "unauthenticated",
					Code:    "UNAUTHENTICATED",
				})
			}
			if !strings.EqualFold(claims.Role, role) {
				return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
					Message: role + " role required",
					Code:    "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}
