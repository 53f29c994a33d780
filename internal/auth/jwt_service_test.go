package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicepay/internal/config"
	"invoicepay/internal/model"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:   "test-secret",
		Issuer:   "invoicepay-test",
		Audience: "invoicepay-api",
		TTL:      time.Hour,
	}
}

func testUser() *model.User {
	return &model.User{
		ID:            uuid.New(),
		Email:         "a@x.com",
		SecurityStamp: "stamp-1",
		Roles:         []model.Role{{Name: model.RoleCustomer}},
	}
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(testConfig())
	user := testUser()

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, model.RoleCustomer, claims.Role)
	assert.Equal(t, "stamp-1", claims.Stamp)
}

func TestJWTService_ValidateToken_Rejects(t *testing.T) {
	svc := NewJWTService(testConfig())
	user := testUser()
	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	otherSecret := testConfig()
	otherSecret.Secret = "other"
	otherIssuer := testConfig()
	otherIssuer.Issuer = "someone-else"
	otherAudience := testConfig()
	otherAudience.Audience = "another-api"

	tests := []struct {
		name string
		svc  *JWTService
		tok  string
	}{
		{name: "wrong secret", svc: NewJWTService(otherSecret), tok: token},
		{name: "wrong issuer", svc: NewJWTService(otherIssuer), tok: token},
		{name: "wrong audience", svc: NewJWTService(otherAudience), tok: token},
		{name: "expired", svc: NewJWTService(testConfig()).WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) }), tok: token},
		{name: "garbage", svc: svc, tok: "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.ValidateToken(tt.tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTService_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	cfg := testConfig()
	svc := NewJWTService(cfg)

	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    cfg.Issuer,
		Audience:  jwt.ClaimStrings{cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ConfirmationToken(t *testing.T) {
	svc := NewJWTService(testConfig())
	user := testUser()

	token, err := svc.GenerateConfirmationToken(user)
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateConfirmationToken(user, token))

	t.Run("not a bearer token", func(t *testing.T) {
		_, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other user", func(t *testing.T) {
		other := testUser()
		other.SecurityStamp = user.SecurityStamp
		assert.ErrorIs(t, svc.ValidateConfirmationToken(other, token), ErrInvalidToken)
	})

	t.Run("stamp rotated", func(t *testing.T) {
		rotated := *user
		rotated.SecurityStamp = "stamp-2"
		assert.ErrorIs(t, svc.ValidateConfirmationToken(&rotated, token), ErrInvalidToken)
	})

	t.Run("older than 12 hours", func(t *testing.T) {
		later := NewJWTService(testConfig()).WithClock(func() time.Time {
			return time.Now().Add(ConfirmationTokenExpiry + time.Minute)
		})
		assert.ErrorIs(t, later.ValidateConfirmationToken(user, token), ErrInvalidToken)
	})

	t.Run("bearer token is not a confirmation token", func(t *testing.T) {
		bearer, _, err := svc.GenerateAccessToken(user)
		require.NoError(t, err)
		assert.ErrorIs(t, svc.ValidateConfirmationToken(user, bearer), ErrInvalidToken)
	})
}
