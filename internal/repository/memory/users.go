// Package memory provides in-process repositories for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
	"invoicepay/internal/repository"
)

// UserRepository stores users and roles in maps guarded by a RWMutex.
// Values are copied in and out so callers never share state with the store.
type UserRepository struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
	roles   map[string]model.Role
	nextID  uint
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.RoleRepository = (*UserRepository)(nil)
)

// NewUserRepository creates an empty store.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[uuid.UUID]model.User),
		byEmail: make(map[string]uuid.UUID),
		roles:   make(map[string]model.Role),
	}
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := model.NormalizeEmail(user.Email)
	if _, exists := r.byEmail[normalized]; exists {
		return apperrors.ErrEmailAlreadyRegistered
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.NormalizedEmail = normalized
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Roles = nil

	r.users[user.ID] = cloneUser(*user)
	r.byEmail[normalized] = user.ID
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	updated := cloneUser(*user)
	updated.Roles = existing.Roles
	updated.NormalizedEmail = model.NormalizeEmail(user.Email)
	updated.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = updated
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	out := cloneUser(user)
	return &out, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[model.NormalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) AddToRole(_ context.Context, user *model.User, roleName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, ok := r.roles[roleName]
	if !ok {
		return fmt.Errorf("role %s not found", roleName)
	}
	stored, ok := r.users[user.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	for _, existing := range stored.Roles {
		if existing.Name == roleName {
			return nil
		}
	}
	stored.Roles = append(stored.Roles, role)
	r.users[user.ID] = stored
	user.Roles = append([]model.Role(nil), stored.Roles...)
	return nil
}

func (r *UserRepository) List(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, cloneUser(u))
	}
	sortUsers(users)
	return users, nil
}

// EnsureRole returns the named role, creating it if absent.
func (r *UserRepository) EnsureRole(_ context.Context, name string) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if role, ok := r.roles[name]; ok {
		return &role, nil
	}
	r.nextID++
	role := model.Role{ID: r.nextID, Name: name, CreatedAt: time.Now().UTC()}
	r.roles[name] = role
	return &role, nil
}

func cloneUser(u model.User) model.User {
	if u.LockoutEnd != nil {
		end := *u.LockoutEnd
		u.LockoutEnd = &end
	}
	u.Roles = append([]model.Role(nil), u.Roles...)
	return u
}
