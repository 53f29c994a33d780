package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"invoicepay/internal/cache"
	"invoicepay/internal/model"
	"invoicepay/internal/repository"
)

const userCacheTTL = time.Minute

// UserService exposes read-only user administration.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// cachedUser carries the lockout state that model.User keeps out of JSON.
type cachedUser struct {
	User              model.User `json:"user"`
	LockoutEnd        *time.Time `json:"lockoutEnd,omitempty"`
	AccessFailedCount int        `json:"accessFailedCount"`
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached cachedUser
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		user := cached.User
		user.LockoutEnd = cached.LockoutEnd
		user.AccessFailedCount = cached.AccessFailedCount
		return &user, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), cachedUser{
		User:              *user,
		LockoutEnd:        user.LockoutEnd,
		AccessFailedCount: user.AccessFailedCount,
	}, userCacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}
