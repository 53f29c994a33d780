package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"invoicepay/internal/config"
	"invoicepay/internal/model"
)

const (
	// ConfirmationTokenExpiry bounds how long an email confirmation link is valid.
	ConfirmationTokenExpiry = 12 * time.Hour

	purposeEmailConfirmation = "email_confirmation"
	confirmationAudience     = ":email-confirmation"
)

var (
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents bearer token claims.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Stamp string `json:"stamp"`
	jwt.RegisteredClaims
}

// ConfirmationClaims are carried by email confirmation tokens.
type ConfirmationClaims struct {
	Purpose string `json:"purpose"`
	Stamp   string `json:"stamp"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewJWTService creates a new JWT service from configuration.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	s.now = now
	return s
}

// GenerateAccessToken issues a bearer token for the user.
func (s *JWTService) GenerateAccessToken(user *model.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		Email: user.Email,
		Role:  user.PrimaryRole(),
		Stamp: user.SecurityStamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, expiresAt, nil
}

// ValidateToken validates a bearer token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(tokenString, claims, s.audience); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateConfirmationToken issues a single-use email confirmation token bound
// to the user's current security stamp.
func (s *JWTService) GenerateConfirmationToken(user *model.User) (string, error) {
	now := s.now()
	claims := &ConfirmationClaims{
		Purpose: purposeEmailConfirmation,
		Stamp:   user.SecurityStamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience + confirmationAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ConfirmationTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign confirmation token: %w", err)
	}
	return token, nil
}

// ValidateConfirmationToken checks that token was issued for user and that the
// user's security stamp has not changed since.
func (s *JWTService) ValidateConfirmationToken(user *model.User, tokenString string) error {
	claims := &ConfirmationClaims{}
	if err := s.parse(tokenString, claims, s.audience+confirmationAudience); err != nil {
		return err
	}
	if claims.Purpose != purposeEmailConfirmation ||
		claims.Subject != user.ID.String() ||
		claims.Stamp != user.SecurityStamp {
		return ErrInvalidToken
	}
	return nil
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
