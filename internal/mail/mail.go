// Package mail delivers transactional email through a pluggable transport.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"invoicepay/internal/config"
)

var (
	// ErrNotConfigured is returned when a transport is missing settings.
	ErrNotConfigured = errors.New("mail transport not configured")
	// ErrCircuitOpen is returned while the breaker rejects sends.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, recipient, subject, htmlBody string) error
}

// New builds the configured transport wrapped in a ProtectedSender.
func New(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	var inner Sender
	switch cfg.Provider {
	case "smtp", "":
		smtp, err := NewSMTPSender(cfg)
		if err != nil {
			return nil, err
		}
		inner = smtp
	case "ses":
		ses, err := NewSESSenderFromConfig(ctx, cfg.AWSRegion, cfg.SESFrom)
		if err != nil {
			return nil, err
		}
		inner = ses
	case "log":
		inner = NewLogSender(logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Provider)
	}

	return NewProtectedSender(inner, ProtectedSenderConfig{
		Timeout:          10 * time.Second,
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
	}), nil
}
