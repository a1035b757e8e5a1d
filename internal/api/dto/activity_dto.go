package dto

import (
	"time"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// ActivityCreateRequest assigns one activity to each listed user.
type ActivityCreateRequest struct {
	Users       []string           `json:"users" validate:"required,min=1,dive,uuid"`
	Title       string             `json:"title" validate:"required,max=1000"`
	Body        string             `json:"body"`
	StartDate   string             `json:"start_date" validate:"required,jalali_date"`
	StartTime   string             `json:"start_time" validate:"required,clock_time"`
	EndDate     string             `json:"end_date" validate:"required,jalali_date"`
	EndTime     string             `json:"end_time" validate:"required,clock_time"`
	Sensitivity domain.Sensitivity `json:"sensitivity" validate:"required,sensitivity"`
}

// ActivityUpdateRequest is the super-admin edit form.
type ActivityUpdateRequest struct {
	Title       string             `json:"title" validate:"required,max=1000"`
	Body        string             `json:"body"`
	StartDate   string             `json:"start_date" validate:"required,jalali_date"`
	StartTime   string             `json:"start_time" validate:"required,clock_time"`
	EndDate     string             `json:"end_date" validate:"required,jalali_date"`
	EndTime     string             `json:"end_time" validate:"required,clock_time"`
	Sensitivity domain.Sensitivity `json:"sensitivity" validate:"required,sensitivity"`
	IsCompleted bool               `json:"is_completed"`
	Visibility  bool               `json:"visibility"`
}

// ActivityResponse is the activity view.
type ActivityResponse struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Body             string             `json:"body"`
	StartDate        string             `json:"start_date"`
	StartTime        string             `json:"start_time"`
	EndDate          string             `json:"end_date"`
	EndTime          string             `json:"end_time"`
	Sensitivity      domain.Sensitivity `json:"sensitivity"`
	SensitivityLabel string             `json:"sensitivity_label"`
	IsCompleted      bool               `json:"is_completed"`
	Visibility       bool               `json:"visibility"`
	CompletedAt      *time.Time         `json:"completed_at"`
	User             *UserResponse      `json:"user,omitempty"`
	Creator          *UserResponse      `json:"creator,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// AdminDashboardResponse is the super-admin landing page.
type AdminDashboardResponse struct {
	ManagersCount          int                `json:"managers_count"`
	EmployeesCount         int                `json:"employees_count"`
	VisibleActivitiesCount int                `json:"visible_activities_count"`
	HiddenActivitiesCount  int                `json:"hidden_activities_count"`
	PendingProfilesCount   int                `json:"pending_profiles_count"`
	PendingProfiles        []ProfileResponse  `json:"pending_profiles"`
	HiddenActivities       []ActivityResponse `json:"hidden_activities"`
}

// ManagerDashboardResponse is the manager landing page.
type ManagerDashboardResponse struct {
	EmployeesCount        int                `json:"employees_count"`
	HiddenActivitiesCount int                `json:"hidden_activities_count"`
	EmployeeActivities    []ActivityResponse `json:"employee_activities"`
	OwnActivities         []ActivityResponse `json:"own_activities"`
}

// EmployeeDashboardResponse is the employee landing page.
type EmployeeDashboardResponse struct {
	Profile    *ProfileResponse   `json:"profile"`
	Activities []ActivityResponse `json:"activities"`
}
