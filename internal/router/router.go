package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"

	"invoicepay/internal/auth"
	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/handler"
	"invoicepay/internal/model"
	"invoicepay/internal/observability"
)

// ServiceName labels traces and logs emitted by the HTTP layer.
const (
	ServiceName    = "invoicepay"
	ServiceVersion = "1.0.0"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth    *handler.AuthHandler
	Invoice *handler.InvoiceHandler
	User    *handler.UserHandler
	Health  *handler.HealthHandler
}

// Options carries the cross-cutting collaborators of the router.
type Options struct {
	JWT           *auth.JWTService
	Stamps        auth.StampStore
	Logger        *slog.Logger
	Metrics       *observability.Prom
	Gatherer      prometheus.Gatherer
	AuthRateLimit float64
}

// Register wires routes and middleware.
func Register(e *echo.Echo, h Handlers, opts Options) {
	e.Validator = handler.NewValidator()

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware(ServiceName))
	if opts.Logger != nil {
		e.Use(observability.RequestLogger(opts.Logger))
	}
	if opts.Metrics != nil {
		e.Use(opts.Metrics.EchoMiddleware())
	}

	e.GET("/healthz", h.Health.Healthz)
	e.GET("/readyz", h.Health.Readyz)
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public auth routes, throttled per client IP
	public := api.Group("/auth")
	if opts.AuthRateLimit > 0 {
		public.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStore(rate.Limit(opts.AuthRateLimit)),
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
					Message: "Too many requests. Please try again later.",
					Code:    "RATE_LIMITED",
				})
			},
		}))
	}
	public.POST("/register", h.Auth.Register)
	public.POST("/login", h.Auth.Login)
	public.POST("/verify-email", h.Auth.VerifyEmail)
	public.GET("/confirm-email", h.Auth.ConfirmEmail)

	// Secured routes (require JWT authentication)
	jwtMiddleware := auth.JWTMiddleware(opts.JWT, opts.Stamps)
	api.GET("/auth/profile", h.Auth.Profile, jwtMiddleware)

	invoices := api.Group("/invoices", jwtMiddleware)
	invoices.POST("", h.Invoice.CreateInvoice)
	invoices.GET("", h.Invoice.ListInvoices)
	invoices.GET("/:id", h.Invoice.GetInvoice)
	invoices.DELETE("/:id", h.Invoice.CancelInvoice)
	invoices.POST("/:id/pay", h.Invoice.PayInvoice)
	invoices.PATCH("/:id/status", h.Invoice.UpdateInvoiceStatus)

	users := api.Group("/users", jwtMiddleware, auth.RequireRole(model.RoleAdmin))
	users.GET("", h.User.ListUsers)
	users.GET("/:id", h.User.GetUser)
}
