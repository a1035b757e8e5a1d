package repository

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// Role scopes narrow list queries to the rows a caller may see. They are the
// first WHERE condition of every list query; filters are ANDed after them.
//
// Table aliases: u/p for users and their profiles, a/au/ap for activities,
// their assignee and the assignee's profile, c for conversations.

// Unscoped admits every row. Only super-admin listings use it.
func Unscoped() sq.Sqlizer {
	return sq.And{}
}

// ManagedEmployees is a manager's employee list: employees whose manager is
// managerID and whose profile is approved.
func ManagedEmployees(managerID string) sq.Sqlizer {
	return sq.And{
		sq.Eq{"u.manager_id": managerID},
		sq.Eq{"u.role": string(domain.RoleEmployee)},
		sq.Eq{"p.status": string(domain.ProfileStatusApproved)},
	}
}

// ManagerOwnActivities is what a manager sees as "my activities".
func ManagerOwnActivities(managerID string) sq.Sqlizer {
	return sq.And{
		sq.Eq{"a.visibility": true},
		sq.Eq{"a.user_id": managerID},
	}
}

// ManagerAssignedActivities is the visible work of a manager's approved employees.
func ManagerAssignedActivities(managerID string) sq.Sqlizer {
	return sq.And{
		sq.Eq{"a.visibility": true},
		sq.Eq{"au.manager_id": managerID},
		sq.Eq{"au.role": string(domain.RoleEmployee)},
		sq.Eq{"ap.status": string(domain.ProfileStatusApproved)},
	}
}

// ManagerHiddenActivities are the manager-private activities created by managerID.
func ManagerHiddenActivities(managerID string) sq.Sqlizer {
	return sq.And{
		sq.Eq{"a.creator_id": managerID},
		sq.Eq{"a.visibility": false},
	}
}

// EmployeeOwnActivities is an employee's own visible work.
func EmployeeOwnActivities(userID string) sq.Sqlizer {
	return sq.And{
		sq.Eq{"a.visibility": true},
		sq.Eq{"a.user_id": userID},
	}
}

// HiddenActivities selects every manager-private activity.
func HiddenActivities() sq.Sqlizer {
	return sq.Eq{"a.visibility": false}
}

// VisibleActivities selects every activity created by a super-admin.
func VisibleActivities() sq.Sqlizer {
	return sq.Eq{"a.visibility": true}
}

// ParticipantConversations are the conversations userID takes part in.
func ParticipantConversations(userID string) sq.Sqlizer {
	return sq.Expr(
		"EXISTS (SELECT 1 FROM conversation_participants cp WHERE cp.conversation_id = c.id AND cp.user_id = ?)",
		userID,
	)
}

// TicketTargets are the users actor may open a ticket with: anyone else for a
// super-admin; super-admins and own employees for a manager; super-admins and
// own manager for an employee.
func TicketTargets(actor *domain.User) sq.Sqlizer {
	if actor == nil {
		return nil
	}
	notSelf := sq.NotEq{"u.id": actor.ID}
	admins := sq.Eq{"u.role": string(domain.RoleSuperAdmin)}

	switch actor.Role {
	case domain.RoleSuperAdmin:
		return notSelf
	case domain.RoleManager:
		return sq.And{notSelf, sq.Or{
			admins,
			sq.And{sq.Eq{"u.manager_id": actor.ID}, sq.Eq{"u.role": string(domain.RoleEmployee)}},
		}}
	case domain.RoleEmployee:
		if !actor.ManagerID.Valid {
			return sq.And{notSelf, admins}
		}
		return sq.And{notSelf, sq.Or{admins, sq.Eq{"u.id": actor.ManagerID.String}}}
	}
	return nil
}

// scopeOrNone makes a missing scope match nothing.
func scopeOrNone(scope sq.Sqlizer) sq.Sqlizer {
	if scope == nil {
		return sq.Or{}
	}
	return scope
}
