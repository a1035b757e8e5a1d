package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-desk/internal/api/dto"
	"github.com/spec-kit/activity-desk/internal/auth"
	"github.com/spec-kit/activity-desk/internal/service"
	"github.com/spec-kit/activity-desk/pkg/validation"
)

// AuthHandler exposes login, logout and the caller's own account.
type AuthHandler struct {
	auth      *service.AuthService
	profiles  *service.ProfileService
	validator *validation.Validator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, profiles *service.ProfileService, v *validation.Validator) *AuthHandler {
	return &AuthHandler{auth: authService, profiles: profiles, validator: v}
}

// LoginForm handles GET /login. Logged-in callers are pointed at their home page.
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if user := auth.CurrentUser(c); user != nil {
		return c.JSON(fiber.Map{"data": fiber.Map{"redirect": user.Role.HomePath()}})
	}
	return c.JSON(fiber.Map{"data": dto.LoginForm{
		Action: "/login",
		Fields: []dto.FormField{
			{Name: "username", Label: "نام کاربری", Type: "text", Required: true},
			{Name: "password", Label: "رمز عبور", Type: "password", Required: true},
		},
	}})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.Session.ExpiresAt,
		Redirect:  result.Redirect,
		User:      userResponse(result.User),
	}})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err := h.auth.Logout(c.UserContext(), principal.Session); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"redirect": "/login"}})
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	resp := dto.UserDetailResponse{UserResponse: userResponse(user)}
	profile, err := h.profiles.ProfileOf(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	if profile != nil {
		p := profileResponse(profile)
		resp.Profile = &p
	}
	return c.JSON(fiber.Map{"data": resp})
}
