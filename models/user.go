package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin   = "admin"
	RoleOffice  = "office"
	RoleMonteur = "monteur"
)

// User represents a staff member (admin, office or monteur)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'monteur'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user may manage jobs, clients and inventory.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleOffice
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOffice, RoleMonteur:
		return true
	}
	return false
}
