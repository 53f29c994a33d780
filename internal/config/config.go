package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me"

// Config holds application level configuration loaded from environment variables.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	Env         string
	ServerPort  string
	Store       string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	SwaggerHost string

	JWT     JWTConfig
	Mail    MailConfig
	Admin   AdminConfig
	Lockout LockoutConfig

	PublicBaseURL string
	BcryptCost    int
	AuthRateLimit float64
	OTLPEndpoint  string
	TraceSampling float64
}

// JWTConfig configures bearer and email confirmation tokens.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// MailConfig selects and configures the outbound mail transport.
type MailConfig struct {
	Provider string // smtp | ses | log
	Host     string
	Port     int
	Email    string
	Password string
	FromName string

	AWSRegion string
	SESFrom   string
}

// AdminConfig describes the admin account seeded at startup.
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

// LockoutConfig controls the failed-login lockout policy.
type LockoutConfig struct {
	MaxAttempts int
	Duration    time.Duration
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:         getEnv("APP_ENV", "prod"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Store:       getEnv("STORE", "mysql"),
		MySQLDSN:    getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/invoices?charset=utf8mb4&parseTime=True&loc=UTC"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer:   getEnv("JWT_ISSUER", "invoicepay"),
			Audience: getEnv("JWT_AUDIENCE", "invoicepay-api"),
			TTL:      getEnvDuration("JWT_TTL", time.Hour),
		},
		Mail: MailConfig{
			Provider:  strings.ToLower(getEnv("MAIL_PROVIDER", "smtp")),
			Host:      os.Getenv("SMTP_HOST"),
			Port:      getEnvInt("SMTP_PORT", 587),
			Email:     os.Getenv("SMTP_EMAIL"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			FromName:  getEnv("MAIL_FROM_NAME", "Invoice and Payment System"),
			AWSRegion: getEnv("AWS_REGION", "us-east-1"),
			SESFrom:   os.Getenv("SES_FROM"),
		},
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
			Name:     getEnv("ADMIN_NAME", "System Admin"),
		},
		Lockout: LockoutConfig{
			MaxAttempts: getEnvInt("LOCKOUT_MAX_ATTEMPTS", 5),
			Duration:    getEnvDuration("LOCKOUT_DURATION", 15*time.Minute),
		},
		PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		BcryptCost:    getEnvInt("BCRYPT_COST", 10),
		AuthRateLimit: getEnvFloat("AUTH_RATE_LIMIT", 5),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampling: getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
	}
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Env != "dev" && c.JWT.Secret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed outside dev")
	}
	if c.Lockout.MaxAttempts <= 0 {
		return errors.New("LOCKOUT_MAX_ATTEMPTS must be positive")
	}
	switch c.Mail.Provider {
	case "smtp", "ses", "log":
	default:
		return errors.New("MAIL_PROVIDER must be one of smtp, ses, log")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
