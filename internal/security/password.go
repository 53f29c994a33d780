package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8
	// DefaultBcryptCost matches bcrypt cost used for stored credentials.
	DefaultBcryptCost = 10
)

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// PolicyViolation lists every password rule a candidate failed.
type PolicyViolation struct {
	Failures []string
}

func (v *PolicyViolation) Error() string {
	return "password policy: " + strings.Join(v.Failures, "; ")
}

// ValidateStrength checks a password against the strength policy.
// Non-alphanumeric characters are allowed but not required.
func ValidateStrength(password string) error {
	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}

	var failures []string
	if len([]rune(password)) < MinPasswordLength {
		failures = append(failures, fmt.Sprintf("Passwords must be at least %d characters.", MinPasswordLength))
	}
	if !hasDigit {
		failures = append(failures, "Passwords must have at least one digit ('0'-'9').")
	}
	if !hasLower {
		failures = append(failures, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !hasUpper {
		failures = append(failures, "Passwords must have at least one uppercase ('A'-'Z').")
	}

	if len(failures) > 0 {
		return &PolicyViolation{Failures: failures}
	}
	return nil
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher is the default Hasher.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt Hasher with the given cost.
// Out-of-range costs fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare returns ErrPasswordMismatch when password does not match hash.
func (h *BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
