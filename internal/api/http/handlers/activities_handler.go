package handlers

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-desk/internal/api/dto"
	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/repository"
	"github.com/spec-kit/activity-desk/internal/service"
	"github.com/spec-kit/activity-desk/pkg/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ActivitiesHandler serves activity listings, assignment and completion for
// every role. Role scopes are picked per route; guards run before.
type ActivitiesHandler struct {
	activities *service.ActivityService
	validator  *validation.Validator
	now        func() time.Time
}

// NewActivitiesHandler constructs handler.
func NewActivitiesHandler(activities *service.ActivityService, v *validation.Validator) *ActivitiesHandler {
	return &ActivitiesHandler{activities: activities, validator: v, now: time.Now}
}

// List handles GET /super-admin/activities.
func (h *ActivitiesHandler) List(c *fiber.Ctx) error {
	return h.list(c, func(*domain.User) sq.Sqlizer { return repository.Unscoped() })
}

// ListManagerOwn handles GET /manager/activities/my.
func (h *ActivitiesHandler) ListManagerOwn(c *fiber.Ctx) error {
	return h.list(c, func(u *domain.User) sq.Sqlizer { return repository.ManagerOwnActivities(u.ID) })
}

// ListManagerAssigned handles GET /manager/activities/employee.
func (h *ActivitiesHandler) ListManagerAssigned(c *fiber.Ctx) error {
	return h.list(c, func(u *domain.User) sq.Sqlizer { return repository.ManagerAssignedActivities(u.ID) })
}

// ListManagerHidden handles GET /manager/activities/employee/hidden.
func (h *ActivitiesHandler) ListManagerHidden(c *fiber.Ctx) error {
	return h.list(c, func(u *domain.User) sq.Sqlizer { return repository.ManagerHiddenActivities(u.ID) })
}

// ListEmployeeOwn handles GET /employee/activities.
func (h *ActivitiesHandler) ListEmployeeOwn(c *fiber.Ctx) error {
	return h.list(c, func(u *domain.User) sq.Sqlizer { return repository.EmployeeOwnActivities(u.ID) })
}

func (h *ActivitiesHandler) list(c *fiber.Ctx, scopeFor func(*domain.User) sq.Sqlizer) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	page, err := h.activities.List(c.UserContext(), scopeFor(actor), parseActivityFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": pageResponse(page, activityResponse)})
}

// Create handles POST /super-admin/activities and POST /manager/activities/employee.
func (h *ActivitiesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ActivityCreateRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	created, err := h.activities.BulkCreate(c.UserContext(), actor, service.ActivityInput{
		AssigneeIDs: req.Users,
		Title:       req.Title,
		Body:        req.Body,
		StartDate:   req.StartDate,
		StartTime:   req.StartTime,
		EndDate:     req.EndDate,
		EndTime:     req.EndTime,
		Sensitivity: req.Sensitivity,
	})
	if err != nil {
		return err
	}

	resp := make([]dto.ActivityResponse, 0, len(created))
	for i := range created {
		resp = append(resp, activityResponse(&domain.ActivityWithUsers{Activity: created[i]}))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": resp})
}

// Get handles every activity detail route.
func (h *ActivitiesHandler) Get(c *fiber.Ctx) error {
	activity, err := h.activities.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponse(activity)})
}

// Update handles PUT /super-admin/activities/:id.
func (h *ActivitiesHandler) Update(c *fiber.Ctx) error {
	var req dto.ActivityUpdateRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	activity, err := h.activities.Update(c.UserContext(), c.Params("id"), service.ActivityUpdateInput{
		Title:       req.Title,
		Body:        req.Body,
		StartDate:   req.StartDate,
		StartTime:   req.StartTime,
		EndDate:     req.EndDate,
		EndTime:     req.EndTime,
		Sensitivity: req.Sensitivity,
		IsCompleted: req.IsCompleted,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponse(activity)})
}

// Delete handles DELETE /super-admin/activities/:id.
func (h *ActivitiesHandler) Delete(c *fiber.Ctx) error {
	if err := h.activities.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Complete handles the is-completed routes. Ownership, visibility and the
// time window are checked by the route guards.
func (h *ActivitiesHandler) Complete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	activity, err := h.activities.Complete(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponse(activity)})
}

// Export handles GET /super-admin/activities/export. Listing filters apply;
// paging does not.
func (h *ActivitiesHandler) Export(c *fiber.Ctx) error {
	buf, err := h.activities.Export(c.UserContext(), repository.Unscoped(), parseActivityFilter(c))
	if err != nil {
		return err
	}
	name := fmt.Sprintf("activities-%s.xlsx", h.now().Format("20060102-150405"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(buf.Bytes())
}
