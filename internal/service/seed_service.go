package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"invoicepay/internal/config"
	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
	"invoicepay/internal/repository"
	"invoicepay/internal/security"
)

// Seeder creates the roles and admin account the API relies on.
type Seeder struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	hasher security.Hasher
	logger *slog.Logger
}

// NewSeeder creates a new seeder.
func NewSeeder(users repository.UserRepository, roles repository.RoleRepository, hasher security.Hasher, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{users: users, roles: roles, hasher: hasher, logger: logger}
}

// Seed is idempotent: existing roles and users are left as they are, except
// that an existing admin account is re-added to the Admin role.
func (s *Seeder) Seed(ctx context.Context, admin config.AdminConfig) error {
	for _, name := range []string{model.RoleCustomer, model.RoleAdmin} {
		if _, err := s.roles.EnsureRole(ctx, name); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}

	if admin.Email == "" || admin.Password == "" {
		s.logger.Warn("admin seed skipped: ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, admin.Email)
	if err == nil {
		return s.users.AddToRole(ctx, existing, model.RoleAdmin)
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	if err := security.ValidateStrength(admin.Password); err != nil {
		return fmt.Errorf("admin password: %w", err)
	}
	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return err
	}

	name := admin.Name
	if name == "" {
		name = "System Admin"
	}
	user := &model.User{
		Name:           name,
		Email:          admin.Email,
		PasswordHash:   hash,
		EmailConfirmed: true,
		SecurityStamp:  security.NewSecurityStamp(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if err := s.users.AddToRole(ctx, user, model.RoleAdmin); err != nil {
		return fmt.Errorf("assign admin role: %w", err)
	}

	s.logger.Info("admin user seeded", "email", user.Email)
	return nil
}
