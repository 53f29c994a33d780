package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"invoicepay/internal/auth"
	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/mail"
	"invoicepay/internal/model"
	"invoicepay/internal/observability"
	"invoicepay/internal/repository"
	"invoicepay/internal/security"
)

const (
	verifyEmailSubject = "Verify Your Email"
	confirmEmailPath   = "/api/auth/confirm-email"
)

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult is returned on successful sign-in.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService handles the account lifecycle.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RequestVerification(ctx context.Context, email, baseURL string) error
	ConfirmEmail(ctx context.Context, email, token string) error
	Profile(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// AuthDependencies groups the collaborators of the auth service.
type AuthDependencies struct {
	Users     repository.UserRepository
	Roles     repository.RoleRepository
	Hasher    security.Hasher
	Lockout   security.LockoutPolicy
	Tokens    *auth.JWTService
	Stamps    auth.StampStore
	Mailer    mail.Sender
	Templates *mail.Templates
	Metrics   *observability.Prom
	Logger    *slog.Logger
	Now       func() time.Time
}

type authService struct {
	AuthDependencies
}

// NewAuthService creates a new authentication service.
func NewAuthService(deps AuthDependencies) AuthService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Templates == nil {
		deps.Templates = mail.MustLoadTemplates()
	}
	if deps.Lockout.MaxAttempts <= 0 {
		deps.Lockout = security.DefaultLockoutPolicy()
	}
	return &authService{AuthDependencies: deps}
}

// Register creates an unconfirmed Customer account.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if err := security.ValidateStrength(input.Password); err != nil {
		var violation *security.PolicyViolation
		if errors.As(err, &violation) {
			s.Metrics.AuthEvent("register", "weak_password")
			return nil, apperrors.NewValidationError("User registration failed", violation.Failures...)
		}
		return nil, err
	}

	_, err := s.Users.FindByEmail(ctx, input.Email)
	if err == nil {
		s.Metrics.AuthEvent("register", "conflict")
		return nil, apperrors.ErrEmailAlreadyRegistered
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := s.Hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:            uuid.New(),
		Name:          input.Name,
		Email:         input.Email,
		PasswordHash:  hash,
		SecurityStamp: security.NewSecurityStamp(),
	}
	if _, err := s.Roles.EnsureRole(ctx, model.RoleCustomer); err != nil {
		return nil, fmt.Errorf("ensure role: %w", err)
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyRegistered) {
			s.Metrics.AuthEvent("register", "conflict")
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.Users.AddToRole(ctx, user, model.RoleCustomer); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	s.Metrics.AuthEvent("register", "ok")
	s.Logger.InfoContext(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login checks lockout, then email confirmation, then the password.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.Metrics.AuthEvent("login", "unknown_email")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := s.Now()
	if s.Lockout.IsLockedOut(user, now) {
		s.Metrics.AuthEvent("login", "locked")
		s.Logger.WarnContext(ctx, "login attempt on locked account", "user_id", user.ID)
		return nil, apperrors.ErrAccountLocked
	}

	if !user.EmailConfirmed {
		s.Metrics.AuthEvent("login", "unverified")
		return nil, apperrors.ErrEmailNotVerified
	}

	if err := s.Hasher.Compare(user.PasswordHash, password); err != nil {
		locked := s.Lockout.RecordFailedAttempt(user, now)
		if updateErr := s.Users.Update(ctx, user); updateErr != nil {
			return nil, fmt.Errorf("record failed attempt: %w", updateErr)
		}
		if locked {
			s.Logger.WarnContext(ctx, "account locked", "user_id", user.ID, "until", user.LockoutEnd)
		}
		s.Metrics.AuthEvent("login", "bad_password")
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.AccessFailedCount != 0 || user.LockoutEnd != nil {
		s.Lockout.RecordSuccess(user, now)
		if err := s.Users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("reset failed attempts: %w", err)
		}
	}

	token, expiresAt, err := s.Tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	s.publishStamp(ctx, user)

	s.Metrics.AuthEvent("login", "ok")
	s.Logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// RequestVerification emails a confirmation link valid for 12 hours.
func (s *authService) RequestVerification(ctx context.Context, email, baseURL string) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.EmailConfirmed {
		return apperrors.ErrEmailAlreadyVerified
	}

	token, err := s.Tokens.GenerateConfirmationToken(user)
	if err != nil {
		return err
	}
	link := BuildConfirmationLink(baseURL, user.Email, token)

	body, err := s.Templates.Render(mail.TemplateVerifyEmail, mail.VerifyEmailData{
		Name:  user.Name,
		Link:  link,
		Hours: int(auth.ConfirmationTokenExpiry / time.Hour),
	})
	if err != nil {
		return err
	}

	err = s.Mailer.Send(ctx, user.Email, verifyEmailSubject, body)
	s.Metrics.MailSend(err)
	if err != nil {
		s.Metrics.AuthEvent("verify_request", "delivery_failed")
		s.Logger.ErrorContext(ctx, "verification email failed", "user_id", user.ID, "err", err)
		return fmt.Errorf("%w: %v", apperrors.ErrEmailDelivery, err)
	}

	s.Metrics.AuthEvent("verify_request", "ok")
	s.Logger.InfoContext(ctx, "verification email sent", "user_id", user.ID)
	return nil
}

// ConfirmEmail marks the address confirmed and rotates the security stamp so
// the token cannot be replayed.
func (s *authService) ConfirmEmail(ctx context.Context, email, token string) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("find user: %w", err)
	}
	if user.EmailConfirmed {
		return apperrors.ErrEmailAlreadyVerified
	}

	if err := s.Tokens.ValidateConfirmationToken(user, token); err != nil {
		s.Metrics.AuthEvent("confirm", "invalid_token")
		return apperrors.ErrInvalidVerificationToken
	}

	user.EmailConfirmed = true
	user.SecurityStamp = security.NewSecurityStamp()
	if err := s.Users.Update(ctx, user); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	s.publishStamp(ctx, user)

	s.Metrics.AuthEvent("confirm", "ok")
	s.Logger.InfoContext(ctx, "email confirmed", "user_id", user.ID)
	return nil
}

// Profile returns the caller's account.
func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.EmailConfirmed {
		return nil, apperrors.ErrEmailNotVerified
	}
	return user, nil
}

func (s *authService) publishStamp(ctx context.Context, user *model.User) {
	if s.Stamps == nil {
		return
	}
	_ = s.Stamps.Publish(ctx, user.ID.String(), user.SecurityStamp)
}

// BuildConfirmationLink returns the absolute URL that confirms email.
func BuildConfirmationLink(baseURL, email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return baseURL + confirmEmailPath + "?" + q.Encode()
}
