package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"invoicepay/internal/model"
)

func TestLockoutPolicy_LocksAfterMaxAttempts(t *testing.T) {
	p := DefaultLockoutPolicy()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	user := &model.User{}

	for i := 0; i < 4; i++ {
		assert.False(t, p.RecordFailedAttempt(user, now))
		assert.False(t, p.IsLockedOut(user, now))
	}

	assert.True(t, p.RecordFailedAttempt(user, now))
	assert.True(t, p.IsLockedOut(user, now))
	assert.Equal(t, 0, user.AccessFailedCount)
	assert.True(t, p.IsLockedOut(user, now.Add(14*time.Minute)))
	assert.False(t, p.IsLockedOut(user, now.Add(15*time.Minute)))
}

func TestLockoutPolicy_RecordSuccess(t *testing.T) {
	p := DefaultLockoutPolicy()
	now := time.Now()
	past := now.Add(-time.Minute)
	user := &model.User{AccessFailedCount: 3, LockoutEnd: &past}

	p.RecordSuccess(user, now)

	assert.Equal(t, 0, user.AccessFailedCount)
	assert.Nil(t, user.LockoutEnd)
}

func TestLockoutPolicy_RecordSuccessKeepsActiveLockout(t *testing.T) {
	p := DefaultLockoutPolicy()
	now := time.Now()
	future := now.Add(time.Minute)
	user := &model.User{LockoutEnd: &future}

	p.RecordSuccess(user, now)

	assert.NotNil(t, user.LockoutEnd)
}

func TestNewSecurityStamp(t *testing.T) {
	assert.NotEqual(t, NewSecurityStamp(), NewSecurityStamp())
}
