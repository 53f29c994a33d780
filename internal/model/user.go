package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names seeded at startup.
const (
	RoleCustomer = "Customer"
	RoleAdmin    = "Admin"
)

// User is an account that can authenticate against the API.
type User struct {
	ID                uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Name              string         `json:"name" gorm:"size:100;not null"`
	Email             string         `json:"email" gorm:"size:255;not null"`
	NormalizedEmail   string         `json:"-" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash      string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	EmailConfirmed    bool           `json:"emailConfirmed" gorm:"default:false"`
	LockoutEnd        *time.Time     `json:"-" gorm:"index"`
	AccessFailedCount int            `json:"-" gorm:"default:0"`
	SecurityStamp     string         `json:"-" gorm:"size:64;not null"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Roles []Role `json:"roles,omitempty" gorm:"many2many:user_roles;"`
}

// BeforeCreate sets UUID and normalized email before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.NormalizedEmail = NormalizeEmail(u.Email)
	return nil
}

// PrimaryRole returns the role carried in bearer tokens: the first role by name.
func (u *User) PrimaryRole() string {
	primary := ""
	for _, r := range u.Roles {
		if primary == "" || r.Name < primary {
			primary = r.Name
		}
	}
	return primary
}

// HasRole reports whether the user is assigned the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r.Name, name) {
			return true
		}
	}
	return false
}

// NormalizeEmail is the canonical form used for uniqueness and lookups.
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}
