package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	user := &model.User{Name: "Ada", Email: "Ada@Example.com", SecurityStamp: "s"}
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.FindByEmail(ctx, "ada@example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	err = repo.Create(ctx, &model.User{Email: "ADA@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyRegistered)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	user := &model.User{Email: "a@x.com"}
	require.NoError(t, repo.Create(ctx, user))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	found.EmailConfirmed = true
	end := time.Now()
	found.LockoutEnd = &end

	again, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, again.EmailConfirmed)
	assert.Nil(t, again.LockoutEnd)

	require.NoError(t, repo.Update(ctx, found))
	again, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, again.EmailConfirmed)
}

func TestUserRepository_Roles(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	first, err := repo.EnsureRole(ctx, model.RoleCustomer)
	require.NoError(t, err)
	second, err := repo.EnsureRole(ctx, model.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	user := &model.User{Email: "a@x.com"}
	require.NoError(t, repo.Create(ctx, user))

	assert.Error(t, repo.AddToRole(ctx, user, "Missing"))
	require.NoError(t, repo.AddToRole(ctx, user, model.RoleCustomer))
	require.NoError(t, repo.AddToRole(ctx, user, model.RoleCustomer))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, found.Roles, 1)
	assert.Equal(t, model.RoleCustomer, found.PrimaryRole())

	found.Roles = nil
	require.NoError(t, repo.Update(ctx, found))
	found, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, found.Roles, 1)
}
