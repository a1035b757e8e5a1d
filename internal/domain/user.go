package domain

import (
	"strings"
	"time"

	"github.com/aarondl/null/v8"
)

// Role is the stored access tier code of an account.
type Role string

const (
	RoleSuperAdmin Role = "1"
	RoleManager    Role = "2"
	RoleEmployee   Role = "3"
)

// Valid reports whether r is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Label returns the Persian display name of the role.
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "مدیر کل"
	case RoleManager:
		return "مدیر"
	case RoleEmployee:
		return "کارمند"
	}
	return ""
}

// HomePath is where a freshly logged-in user of this role lands.
func (r Role) HomePath() string {
	switch r {
	case RoleSuperAdmin:
		return "/super-admin/dashboard"
	case RoleManager:
		return "/manager/dashboard"
	case RoleEmployee:
		return "/employee/dashboard"
	}
	return "/login"
}

// User is an account of any role.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	// ManagerID references a user with RoleManager; only employees carry one.
	ManagerID null.String
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsSuperAdmin is a shorthand used by guards and services.
func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == RoleSuperAdmin
}

// ManagedBy reports whether managerID is this user's manager.
func (u *User) ManagedBy(managerID string) bool {
	return u != nil && u.ManagerID.Valid && u.ManagerID.String == managerID
}
