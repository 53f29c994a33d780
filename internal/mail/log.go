package mail

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a development transport.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, recipient, subject, htmlBody string) error {
	s.logger.InfoContext(ctx, "mail_send",
		"to", recipient,
		"subject", subject,
		"body", htmlBody,
	)
	return nil
}
