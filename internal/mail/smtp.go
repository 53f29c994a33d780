package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"invoicepay/internal/config"
)

// SMTPSender sends mail over SMTP with mandatory STARTTLS and PLAIN auth.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	fromName string
}

// NewSMTPSender validates cfg and returns an SMTP transport.
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: SMTP host, port, email and password are required", ErrNotConfigured)
	}
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Email,
		password: cfg.Password,
		fromName: cfg.FromName,
	}, nil
}

// Send delivers one HTML message.
func (s *SMTPSender) Send(ctx context.Context, recipient, subject, htmlBody string) error {
	msg, err := s.buildMessage(recipient, subject, htmlBody)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(recipient, subject, htmlBody string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.username); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("smtp recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	return msg, nil
}
