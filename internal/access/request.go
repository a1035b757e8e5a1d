// Package access holds the authorization predicates that guard every
// protected endpoint. Rules are pure reads over a Request and compose into a
// Chain that stops at the first denial.
package access

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/activity-desk/internal/domain"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

// Lookup is the read-only view of the datastore the rules consult.
type Lookup interface {
	UserByID(ctx context.Context, id string) (*domain.User, error)
	ProfileByID(ctx context.Context, id string) (*domain.Profile, error)
	ProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	ActivityByID(ctx context.Context, id string) (*domain.Activity, error)
	ConversationByID(ctx context.Context, id string) (*domain.Conversation, error)
	MessageByID(ctx context.Context, id string) (*domain.Message, error)
}

// Request is the input of a rule evaluation. Resources referenced by TargetID
// are loaded at most once per request.
type Request struct {
	Actor    *domain.User
	TargetID string
	Now      time.Time
	Location *time.Location

	lookup Lookup

	actorProfile       *domain.Profile
	actorProfileLoaded bool
	targetUser         *domain.User
	targetProfile      *domain.Profile
	activity           *domain.Activity
	conversation       *domain.Conversation
	message            *domain.Message
}

// NewRequest builds a request for actor (nil when anonymous) against targetID.
func NewRequest(actor *domain.User, targetID string, now time.Time, loc *time.Location, lookup Lookup) *Request {
	if loc == nil {
		loc = time.Local
	}
	return &Request{
		Actor:    actor,
		TargetID: targetID,
		Now:      now,
		Location: loc,
		lookup:   lookup,
	}
}

// ActorProfile returns the caller's profile, or nil when none was submitted.
func (r *Request) ActorProfile(ctx context.Context) (*domain.Profile, error) {
	if r.actorProfileLoaded {
		return r.actorProfile, nil
	}
	if r.Actor == nil {
		return nil, apperrors.NewUnauthorized(msgLoginRequired)
	}
	profile, err := r.lookup.ProfileByUserID(ctx, r.Actor.ID)
	if err != nil && !apperrors.IsNoRows(err) {
		return nil, apperrors.MapError(err)
	}
	r.actorProfile = profile
	r.actorProfileLoaded = true
	return r.actorProfile, nil
}

// TargetUser loads the user addressed by TargetID.
func (r *Request) TargetUser(ctx context.Context) (*domain.User, error) {
	if r.targetUser != nil {
		return r.targetUser, nil
	}
	if err := r.checkTarget("user"); err != nil {
		return nil, err
	}
	user, err := r.lookup.UserByID(ctx, r.TargetID)
	if err != nil {
		return nil, notFoundOr(err, "user", r.TargetID)
	}
	r.targetUser = user
	return user, nil
}

// TargetProfile loads the profile addressed by TargetID.
func (r *Request) TargetProfile(ctx context.Context) (*domain.Profile, error) {
	if r.targetProfile != nil {
		return r.targetProfile, nil
	}
	if err := r.checkTarget("profile"); err != nil {
		return nil, err
	}
	profile, err := r.lookup.ProfileByID(ctx, r.TargetID)
	if err != nil {
		return nil, notFoundOr(err, "profile", r.TargetID)
	}
	r.targetProfile = profile
	return profile, nil
}

// Activity loads the activity addressed by TargetID.
func (r *Request) Activity(ctx context.Context) (*domain.Activity, error) {
	if r.activity != nil {
		return r.activity, nil
	}
	if err := r.checkTarget("activity"); err != nil {
		return nil, err
	}
	activity, err := r.lookup.ActivityByID(ctx, r.TargetID)
	if err != nil {
		return nil, notFoundOr(err, "activity", r.TargetID)
	}
	r.activity = activity
	return activity, nil
}

// Conversation loads the conversation addressed by TargetID with its participants.
func (r *Request) Conversation(ctx context.Context) (*domain.Conversation, error) {
	if r.conversation != nil {
		return r.conversation, nil
	}
	if err := r.checkTarget("conversation"); err != nil {
		return nil, err
	}
	conversation, err := r.lookup.ConversationByID(ctx, r.TargetID)
	if err != nil {
		return nil, notFoundOr(err, "conversation", r.TargetID)
	}
	r.conversation = conversation
	return conversation, nil
}

// Message loads the message addressed by TargetID.
func (r *Request) Message(ctx context.Context) (*domain.Message, error) {
	if r.message != nil {
		return r.message, nil
	}
	if err := r.checkTarget("message"); err != nil {
		return nil, err
	}
	message, err := r.lookup.MessageByID(ctx, r.TargetID)
	if err != nil {
		return nil, notFoundOr(err, "message", r.TargetID)
	}
	r.message = message
	return message, nil
}

func (r *Request) checkTarget(resource string) error {
	if _, err := uuid.Parse(r.TargetID); err != nil {
		return apperrors.NewNotFound(resource, map[string]any{"id": r.TargetID})
	}
	return nil
}

func notFoundOr(err error, resource, id string) error {
	if apperrors.IsNoRows(err) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}
