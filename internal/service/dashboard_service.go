package service

import (
	"context"

	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/repository"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

// AdminDashboard summarises the whole organisation.
type AdminDashboard struct {
	ManagersCount          int
	EmployeesCount         int
	VisibleActivitiesCount int
	HiddenActivitiesCount  int
	PendingProfilesCount   int
	PendingProfiles        []domain.ProfileWithUser
	HiddenActivities       []domain.ActivityWithUsers
}

// ManagerDashboard summarises a manager's team.
type ManagerDashboard struct {
	EmployeesCount        int
	HiddenActivitiesCount int
	EmployeeActivities    []domain.ActivityWithUsers
	OwnActivities         []domain.ActivityWithUsers
}

// EmployeeDashboard is an employee's landing page.
type EmployeeDashboard struct {
	Profile    *domain.Profile
	Activities []domain.ActivityWithUsers
}

// DashboardService assembles the per-role landing pages.
type DashboardService struct {
	users      repository.UserRepository
	profiles   repository.ProfileRepository
	activities repository.ActivityRepository
}

// NewDashboardService builds the service.
func NewDashboardService(users repository.UserRepository, profiles repository.ProfileRepository, activities repository.ActivityRepository) *DashboardService {
	return &DashboardService{users: users, profiles: profiles, activities: activities}
}

// Admin builds the super-admin dashboard.
func (s *DashboardService) Admin(ctx context.Context) (*AdminDashboard, error) {
	var (
		out     AdminDashboard
		err     error
		preview = repository.ActivityFilter{Limit: DashboardPreview}
		pending = repository.ProfileFilter{Status: domain.ProfileStatusPending, Limit: DashboardPreview}
	)
	if out.ManagersCount, err = s.users.Count(ctx, nil, repository.Unscoped(), repository.UserFilter{Role: domain.RoleManager}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.EmployeesCount, err = s.users.Count(ctx, nil, repository.Unscoped(), repository.UserFilter{Role: domain.RoleEmployee}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.VisibleActivitiesCount, err = s.activities.Count(ctx, nil, repository.VisibleActivities(), repository.ActivityFilter{}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.HiddenActivitiesCount, err = s.activities.Count(ctx, nil, repository.HiddenActivities(), repository.ActivityFilter{}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.PendingProfilesCount, err = s.profiles.Count(ctx, nil, pending); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.PendingProfiles, err = s.profiles.List(ctx, nil, pending); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.HiddenActivities, err = s.activities.List(ctx, nil, repository.HiddenActivities(), preview); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &out, nil
}

// Manager builds the dashboard of managerID.
func (s *DashboardService) Manager(ctx context.Context, managerID string) (*ManagerDashboard, error) {
	var (
		out     ManagerDashboard
		err     error
		preview = repository.ActivityFilter{Limit: DashboardPreview}
	)
	if out.EmployeesCount, err = s.users.Count(ctx, nil, repository.ManagedEmployees(managerID), repository.UserFilter{}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.HiddenActivitiesCount, err = s.activities.Count(ctx, nil, repository.ManagerHiddenActivities(managerID), repository.ActivityFilter{}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.EmployeeActivities, err = s.activities.List(ctx, nil, repository.ManagerAssignedActivities(managerID), preview); err != nil {
		return nil, apperrors.MapError(err)
	}
	if out.OwnActivities, err = s.activities.List(ctx, nil, repository.ManagerOwnActivities(managerID), preview); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &out, nil
}

// Employee builds the dashboard of userID.
func (s *DashboardService) Employee(ctx context.Context, userID string) (*EmployeeDashboard, error) {
	var out EmployeeDashboard
	profile, err := s.profiles.GetByUserID(ctx, nil, userID)
	switch {
	case err == nil:
		out.Profile = profile
	case !apperrors.IsNoRows(err):
		return nil, apperrors.MapError(err)
	}
	out.Activities, err = s.activities.List(ctx, nil, repository.EmployeeOwnActivities(userID), repository.ActivityFilter{Limit: DashboardPreview})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &out, nil
}
