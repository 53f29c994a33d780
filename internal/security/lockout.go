package security

import (
	"time"

	"github.com/google/uuid"

	"invoicepay/internal/model"
)

// LockoutPolicy tracks failed sign-ins and locks accounts for a fixed window.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultLockoutPolicy locks for 15 minutes after 5 failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 5, Duration: 15 * time.Minute}
}

// IsLockedOut reports whether the user's lockout window is still open.
func (p LockoutPolicy) IsLockedOut(user *model.User, now time.Time) bool {
	return user.LockoutEnd != nil && user.LockoutEnd.After(now)
}

// RecordFailedAttempt increments the failure counter and starts a lockout when
// the threshold is reached. It returns true when this attempt locked the account.
func (p LockoutPolicy) RecordFailedAttempt(user *model.User, now time.Time) bool {
	user.AccessFailedCount++
	if user.AccessFailedCount < p.MaxAttempts {
		return false
	}
	end := now.Add(p.Duration)
	user.LockoutEnd = &end
	user.AccessFailedCount = 0
	return true
}

// RecordSuccess clears the failure counter and any elapsed lockout.
func (p LockoutPolicy) RecordSuccess(user *model.User, now time.Time) {
	user.AccessFailedCount = 0
	if user.LockoutEnd != nil && !user.LockoutEnd.After(now) {
		user.LockoutEnd = nil
	}
}

// NewSecurityStamp returns a fresh random stamp. Rotating the stamp revokes
// outstanding confirmation tokens and bearer tokens checked against it.
func NewSecurityStamp() string {
	return uuid.NewString()
}
