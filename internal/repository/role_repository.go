package repository

import (
	"context"

	"gorm.io/gorm"

	"invoicepay/internal/model"
)

// RoleRepository manages authorization roles.
type RoleRepository interface {
	EnsureRole(ctx context.Context, name string) (*model.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository builds a GORM-backed repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// EnsureRole returns the named role, creating it if absent.
func (r *roleRepository) EnsureRole(ctx context.Context, name string) (*model.Role, error) {
	role := model.Role{Name: name}
	if err := r.db.WithContext(ctx).Where(model.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
