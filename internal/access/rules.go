package access

import (
	"context"
	"errors"

	"github.com/spec-kit/activity-desk/internal/domain"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

const (
	msgLoginRequired      = "ابتدا باید وارد شوید."
	msgRoleDenied         = "شما دسترسی لازم را ندارید."
	msgProfileNotApproved = "پروفایل شما تایید نشده است."
	msgProfileNotRejected = "پروفایل شما رد نشده است."
	msgNotEmployeeManager = "شما مدیر این کارمند نیستید."
	msgNotActivityOwner   = "شما صاحب این فعالیت نیستید."
	msgNotAssigneeManager = "این فعالیت مربوط به کارمند شما نیست."
	msgActivityHidden     = "این فعالیت مخفی است."
	msgNotProfileOwner    = "این پروفایل متعلق به شما نیست."
	msgTargetNotApproved  = "این کارمند پروفایل تایید شده ندارد."
	msgOutsideWindow      = "این فعالیت در بازه زمانی معتبر نیست."
	msgNotParticipant     = "شما عضو این گفتگو نیستید."
	msgNotMessageAuthor   = "شما نویسنده این پیام نیستید."
)

// Rule is a single authorization predicate. A nil return admits the request.
type Rule func(ctx context.Context, req *Request) error

// Chain evaluates rules in order and stops at the first denial.
type Chain []Rule

// Evaluate runs the chain. An empty chain admits nobody.
func (c Chain) Evaluate(ctx context.Context, req *Request) error {
	if len(c) == 0 {
		return apperrors.NewForbidden(msgRoleDenied)
	}
	for _, rule := range c {
		if err := rule(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// Authenticated requires a logged-in caller.
func Authenticated(_ context.Context, req *Request) error {
	if req.Actor == nil {
		return apperrors.NewUnauthorized(msgLoginRequired)
	}
	return nil
}

// RoleAllowed admits callers whose role is in roles.
func RoleAllowed(roles ...domain.Role) Rule {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(_ context.Context, req *Request) error {
		if req.Actor == nil {
			return apperrors.NewUnauthorized(msgLoginRequired)
		}
		if _, ok := allowed[req.Actor.Role]; !ok {
			return apperrors.NewForbidden(msgRoleDenied)
		}
		return nil
	}
}

// ProfileApproved requires the caller's own profile to be approved.
func ProfileApproved(ctx context.Context, req *Request) error {
	profile, err := req.ActorProfile(ctx)
	if err != nil {
		return err
	}
	if !profile.Approved() {
		return apperrors.NewForbidden(msgProfileNotApproved)
	}
	return nil
}

// ProfileRejected requires the caller's own profile to be rejected.
func ProfileRejected(ctx context.Context, req *Request) error {
	profile, err := req.ActorProfile(ctx)
	if err != nil {
		return err
	}
	if !profile.Rejected() {
		return apperrors.NewForbidden(msgProfileNotRejected)
	}
	return nil
}

// IsEmployeeManager requires the target user to be managed by the caller.
func IsEmployeeManager(ctx context.Context, req *Request) error {
	if req.Actor == nil {
		return apperrors.NewUnauthorized(msgLoginRequired)
	}
	employee, err := req.TargetUser(ctx)
	if err != nil {
		return err
	}
	if employee.Role != domain.RoleEmployee || !employee.ManagedBy(req.Actor.ID) {
		return apperrors.NewForbidden(msgNotEmployeeManager)
	}
	return nil
}

// TargetUserProfileApproved requires the target user's profile to be approved.
func TargetUserProfileApproved(ctx context.Context, req *Request) error {
	if _, err := req.TargetUser(ctx); err != nil {
		return err
	}
	profile, err := req.lookup.ProfileByUserID(ctx, req.TargetID)
	if err != nil && !apperrors.IsNoRows(err) {
		return apperrors.MapError(err)
	}
	if !profile.Approved() {
		return apperrors.NewForbidden(msgTargetNotApproved)
	}
	return nil
}

// IsActivityOwner requires the caller to be the activity's assignee.
func IsActivityOwner(ctx context.Context, req *Request) error {
	if req.Actor == nil {
		return apperrors.NewUnauthorized(msgLoginRequired)
	}
	activity, err := req.Activity(ctx)
	if err != nil {
		return err
	}
	if activity.UserID != req.Actor.ID {
		return apperrors.NewForbidden(msgNotActivityOwner)
	}
	return nil
}

// IsManagerOfActivityAssignee requires the caller to manage the activity's assignee.
func IsManagerOfActivityAssignee(ctx context.Context, req *Request) error {
	if req.Actor == nil {
		return apperrors.NewUnauthorized(msgLoginRequired)
	}
	activity, err := req.Activity(ctx)
	if err != nil {
		return err
	}
	assignee, err := req.lookup.UserByID(ctx, activity.UserID)
	if err != nil {
		return notFoundOr(err, "user", activity.UserID)
	}
	if assignee.Role != domain.RoleEmployee || !assignee.ManagedBy(req.Actor.ID) {
		return apperrors.NewForbidden(msgNotAssigneeManager)
	}
	return nil
}

// ActivityVisible rejects manager-private activities.
func ActivityVisible(ctx context.Context, req *Request) error {
	activity, err := req.Activity(ctx)
	if err != nil {
		return err
	}
	if !activity.Visibility {
		return apperrors.NewForbidden(msgActivityHidden)
	}
	return nil
}

// IsProfileOwner requires the target profile to belong to the caller.
func IsProfileOwner(ctx context.Context, req *Request) error {
	if req.Actor == nil {
		return apperrors.NewUnauthorized(msgLoginRequired)
	}
	profile, err := req.TargetProfile(ctx)
	if err != nil {
		return err
	}
	if profile.UserID != req.Actor.ID {
		return apperrors.NewForbidden(msgNotProfileOwner)
	}
	return nil
}

// WithinActiveTimeWindow requires Now to fall inside the activity's window.
func WithinActiveTimeWindow(ctx context.Context, req *Request) error {
	activity, err := req.Activity(ctx)
	if err != nil {
		return err
	}
	active, err := ActivityActive(activity, req.Now, req.Location)
	if err != nil {
		var dateErr *DateError
		if errors.As(err, &dateErr) {
			return apperrors.NewStoredDateError("activity", dateErr.Field, dateErr.Err)
		}
		return apperrors.MapError(err)
	}
	if !active {
		return apperrors.NewForbidden(msgOutsideWindow)
	}
	return nil
}

// ConversationParticipantOrAdmin admits participants of the target conversation
// and super-admins.
func ConversationParticipantOrAdmin(ctx context.Context, req *Request) error {
	if req.Actor == nil {
		return apperrors.NewUnauthorized(msgLoginRequired)
	}
	conversation, err := req.Conversation(ctx)
	if err != nil {
		return err
	}
	if req.Actor.IsSuperAdmin() || conversation.HasParticipant(req.Actor.ID) {
		return nil
	}
	return apperrors.NewForbidden(msgNotParticipant)
}

// MessageAuthorOrAdmin admits the author of the target message and super-admins.
func MessageAuthorOrAdmin(ctx context.Context, req *Request) error {
	if req.Actor == nil {
		return apperrors.NewUnauthorized(msgLoginRequired)
	}
	message, err := req.Message(ctx)
	if err != nil {
		return err
	}
	if req.Actor.IsSuperAdmin() || message.UserID == req.Actor.ID {
		return nil
	}
	return apperrors.NewForbidden(msgNotMessageAuthor)
}
