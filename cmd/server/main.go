package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "invoicepay/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"invoicepay/internal/auth"
	"invoicepay/internal/cache"
	"invoicepay/internal/config"
	"invoicepay/internal/db"
	"invoicepay/internal/handler"
	"invoicepay/internal/mail"
	"invoicepay/internal/observability"
	"invoicepay/internal/repository"
	"invoicepay/internal/repository/memory"
	"invoicepay/internal/router"
	"invoicepay/internal/security"
	"invoicepay/internal/service"
)

// @title Invoice and Payment API
// @version 1.0
// @description Invoice and payment API with email-verified accounts, lockout and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := observability.NewLogger(router.ServiceName, cfg.Env)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName:    router.ServiceName,
		ServiceVersion: router.ServiceVersion,
		Environment:    cfg.Env,
		Endpoint:       cfg.OTLPEndpoint,
		SampleRatio:    cfg.TraceSampling,
	})
	if err != nil {
		logger.Error("tracer init", "err", err)
		os.Exit(1)
	}

	users, roles, invoices, gormDB := openStore(cfg, logger)

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, continuing without cache", "err", err)
	}

	mailer, err := mail.New(ctx, cfg.Mail, logger)
	if err != nil {
		logger.Error("mail init", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewProm(reg)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWT)
	stampStore := auth.NewStampStore(cacheClient)
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	// Initialize services
	authService := service.NewAuthService(service.AuthDependencies{
		Users:   users,
		Roles:   roles,
		Hasher:  hasher,
		Lockout: security.LockoutPolicy{MaxAttempts: cfg.Lockout.MaxAttempts, Duration: cfg.Lockout.Duration},
		Tokens:  jwtService,
		Stamps:  stampStore,
		Mailer:  mailer,
		Metrics: metrics,
		Logger:  logger,
	})
	invoiceService := service.NewInvoiceService(invoices, cacheClient)
	userService := service.NewUserService(users, cacheClient)

	if err := service.NewSeeder(users, roles, hasher, logger).Seed(ctx, cfg.Admin); err != nil {
		logger.Error("seed", "err", err)
		os.Exit(1)
	}

	checks := map[string]handler.Checker{"cache": cacheClient.Ping}
	if gormDB != nil {
		checks["database"] = func(ctx context.Context) error { return db.Ping(ctx, gormDB) }
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, cfg.PublicBaseURL),
		Invoice: handler.NewInvoiceHandler(invoiceService),
		User:    handler.NewUserHandler(userService),
		Health:  handler.NewHealthHandler(checks),
	}, router.Options{
		JWT:           jwtService,
		Stamps:        stampStore,
		Logger:        logger,
		Metrics:       metrics,
		Gatherer:      reg,
		AuthRateLimit: cfg.AuthRateLimit,
	})

	logger.Info("swagger documentation available", "url", swaggerURL(cfg))

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info("server starting", "addr", addr, "store", cfg.Store)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "err", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", "err", err)
	}
	_ = cacheClient.Close()
}

// openStore returns MySQL-backed repositories, or in-memory ones when STORE=memory.
func openStore(cfg *config.Config, logger *slog.Logger) (repository.UserRepository, repository.RoleRepository, repository.InvoiceRepository, *gorm.DB) {
	if cfg.Store == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		users := memory.NewUserRepository()
		return users, users, memory.NewInvoiceRepository(), nil
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Error("database init", "err", err)
		os.Exit(1)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logger.Warn("failed to drop tables (may not exist)", "err", err)
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		logger.Error("migrate", "err", err)
		os.Exit(1)
	}

	return repository.NewUserRepository(gormDB), repository.NewRoleRepository(gormDB), repository.NewInvoiceRepository(gormDB), gormDB
}

func swaggerURL(cfg *config.Config) string {
	if cfg.SwaggerHost == "" {
		return "http://localhost:" + cfg.ServerPort + "/swagger/index.html"
	}
	if strings.HasPrefix(cfg.SwaggerHost, "http://") || strings.HasPrefix(cfg.SwaggerHost, "https://") {
		return cfg.SwaggerHost + "/swagger/index.html"
	}
	return "http://" + cfg.SwaggerHost + "/swagger/index.html"
}
