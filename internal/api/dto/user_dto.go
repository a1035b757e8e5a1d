package dto

import (
	"time"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=150"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginForm describes the fields the login screen renders.
type LoginForm struct {
	Fields []FormField `json:"fields"`
	Action string      `json:"action"`
}

// FormField is one input of a form descriptor.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Redirect  string       `json:"redirect"`
	User      UserResponse `json:"user"`
}

// UserCreateRequest is the super-admin's new account form.
type UserCreateRequest struct {
	Username  string      `json:"username" validate:"required,min=3,max=150"`
	Password  string      `json:"password" validate:"required,min=6,max=128"`
	FirstName string      `json:"first_name" validate:"max=150"`
	LastName  string      `json:"last_name" validate:"max=150"`
	UserType  domain.Role `json:"user_type" validate:"required,role_code"`
}

// UserUpdateRequest edits an account; an empty password keeps the old one.
type UserUpdateRequest struct {
	Username  string      `json:"username" validate:"required,min=3,max=150"`
	Password  string      `json:"password" validate:"omitempty,min=6,max=128"`
	FirstName string      `json:"first_name" validate:"max=150"`
	LastName  string      `json:"last_name" validate:"max=150"`
	UserType  domain.Role `json:"user_type" validate:"required,role_code"`
}

// SelectManagerRequest assigns an employee to a manager. Empty clears it.
type SelectManagerRequest struct {
	Manager string `json:"manager" validate:"omitempty,uuid"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	FullName  string      `json:"full_name"`
	UserType  domain.Role `json:"user_type"`
	RoleLabel string      `json:"user_type_label"`
	ManagerID *string     `json:"manager_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserDetailResponse adds the user's profile and visible activities to the
// account view.
type UserDetailResponse struct {
	UserResponse
	Profile    *ProfileResponse   `json:"profile"`
	Activities []ActivityResponse `json:"activities,omitempty"`
}

// PageResponse wraps a paginated listing.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
