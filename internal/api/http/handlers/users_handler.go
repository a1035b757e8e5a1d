package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-desk/internal/api/dto"
	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/repository"
	"github.com/spec-kit/activity-desk/internal/service"
	"github.com/spec-kit/activity-desk/pkg/validation"
)

// UsersHandler serves account management for super-admins and the employee
// listings of managers.
type UsersHandler struct {
	users      *service.UserService
	profiles   *service.ProfileService
	activities *service.ActivityService
	validator  *validation.Validator
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, profiles *service.ProfileService, activities *service.ActivityService, v *validation.Validator) *UsersHandler {
	return &UsersHandler{users: users, profiles: profiles, activities: activities, validator: v}
}

// List handles GET /super-admin/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, err := h.users.ListUsers(c.UserContext(), repository.Unscoped(), parseUserFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pageResponse(page, userResponse)})
}

// Create handles POST /super-admin/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.UserCreateRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	user, err := h.users.CreateUser(c.UserContext(), service.UserCreateInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.UserType,
	})
	if err != nil {
		return err
	}

	data := fiber.Map{"user": userResponse(user)}
	// New employees go on to pick a manager.
	if user.Role == domain.RoleEmployee {
		data["redirect"] = "/super-admin/users/" + user.ID + "/select-manager"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

// Get handles GET /super-admin/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	return h.detail(c)
}

// Update handles PUT /super-admin/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UserUpdateRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateUser(c.UserContext(), c.Params("id"), service.UserUpdateInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.UserType,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Delete handles DELETE /super-admin/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), actor.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Managers handles GET /super-admin/users/:id/select-manager.
func (h *UsersHandler) Managers(c *fiber.Ctx) error {
	managers, err := h.users.Managers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponses(managers)})
}

// SelectManager handles POST /super-admin/users/:id/select-manager.
func (h *UsersHandler) SelectManager(c *fiber.Ctx) error {
	var req dto.SelectManagerRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	user, err := h.users.SelectManager(c.UserContext(), c.Params("id"), req.Manager)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ListEmployees handles GET /manager/users.
func (h *UsersHandler) ListEmployees(c *fiber.Ctx) error {
	manager, err := currentUser(c)
	if err != nil {
		return err
	}
	page, err := h.users.ManagedEmployees(c.UserContext(), manager.ID, parseUserFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pageResponse(page, userResponse)})
}

// GetEmployee handles GET /manager/users/:id. The guard chain has already
// checked that the employee is the caller's and approved.
func (h *UsersHandler) GetEmployee(c *fiber.Ctx) error {
	return h.detail(c)
}

func (h *UsersHandler) detail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := h.users.GetUser(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.UserDetailResponse{UserResponse: userResponse(user)}

	profile, err := h.profiles.ProfileOf(ctx, user.ID)
	if err != nil {
		return err
	}
	if profile != nil {
		p := profileResponse(profile)
		resp.Profile = &p
	}

	activities, err := h.activities.List(ctx, repository.EmployeeOwnActivities(user.ID), parseActivityFilter(c))
	if err != nil {
		return err
	}
	resp.Activities = activityResponses(activities.Items)
	return c.JSON(fiber.Map{"data": resp})
}
