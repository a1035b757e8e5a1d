package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/activity-desk/internal/api/dto"
	"github.com/spec-kit/activity-desk/internal/service"
)

// DashboardHandler renders the per-role landing pages.
type DashboardHandler struct {
	dashboards *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Admin handles GET /super-admin/dashboard.
func (h *DashboardHandler) Admin(c *fiber.Ctx) error {
	board, err := h.dashboards.Admin(c.UserContext())
	if err != nil {
		return err
	}
	pending := make([]dto.ProfileResponse, 0, len(board.PendingProfiles))
	for i := range board.PendingProfiles {
		pending = append(pending, profileWithUserResponse(&board.PendingProfiles[i]))
	}
	return c.JSON(fiber.Map{"data": dto.AdminDashboardResponse{
		ManagersCount:          board.ManagersCount,
		EmployeesCount:         board.EmployeesCount,
		VisibleActivitiesCount: board.VisibleActivitiesCount,
		HiddenActivitiesCount:  board.HiddenActivitiesCount,
		PendingProfilesCount:   board.PendingProfilesCount,
		PendingProfiles:        pending,
		HiddenActivities:       activityResponses(board.HiddenActivities),
	}})
}

// Manager handles GET /manager/dashboard.
func (h *DashboardHandler) Manager(c *fiber.Ctx) error {
	manager, err := currentUser(c)
	if err != nil {
		return err
	}
	board, err := h.dashboards.Manager(c.UserContext(), manager.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ManagerDashboardResponse{
		EmployeesCount:        board.EmployeesCount,
		HiddenActivitiesCount: board.HiddenActivitiesCount,
		EmployeeActivities:    activityResponses(board.EmployeeActivities),
		OwnActivities:         activityResponses(board.OwnActivities),
	}})
}

// Employee handles GET /employee/dashboard.
func (h *DashboardHandler) Employee(c *fiber.Ctx) error {
	employee, err := currentUser(c)
	if err != nil {
		return err
	}
	board, err := h.dashboards.Employee(c.UserContext(), employee.ID)
	if err != nil {
		return err
	}
	resp := dto.EmployeeDashboardResponse{Activities: activityResponses(board.Activities)}
	if board.Profile != nil {
		p := profileResponse(board.Profile)
		resp.Profile = &p
	}
	return c.JSON(fiber.Map{"data": resp})
}
