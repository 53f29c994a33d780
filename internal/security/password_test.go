package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStrength(t *testing.T) {
	tests := []struct {
		name         string
		password     string
		wantFailures int
	}{
		{name: "valid", password: "Aa123456", wantFailures: 0},
		{name: "valid with symbols", password: "Sup3r$ecret", wantFailures: 0},
		{name: "too short", password: "Aa1", wantFailures: 1},
		{name: "no digit", password: "Abcdefgh", wantFailures: 1},
		{name: "no upper", password: "abc123456", wantFailures: 1},
		{name: "no lower", password: "ABC123456", wantFailures: 1},
		{name: "empty", password: "", wantFailures: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStrength(tt.password)
			if tt.wantFailures == 0 {
				assert.NoError(t, err)
				return
			}
			var violation *PolicyViolation
			require.True(t, errors.As(err, &violation))
			assert.Len(t, violation.Failures, tt.wantFailures)
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("Aa123456")
	require.NoError(t, err)
	assert.NotEqual(t, "Aa123456", hash)

	assert.NoError(t, h.Compare(hash, "Aa123456"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)
}

func TestNewBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(99).cost)
}
