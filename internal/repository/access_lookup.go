package repository

import (
	"context"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// AccessLookup serves the point reads guard rules need, outside any transaction.
type AccessLookup struct {
	Users         UserRepository
	Profiles      ProfileRepository
	Activities    ActivityRepository
	Conversations ConversationRepository
	Messages      MessageRepository
}

func (l *AccessLookup) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return l.Users.GetByID(ctx, nil, id)
}

func (l *AccessLookup) ProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	item, err := l.Profiles.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return &item.Profile, nil
}

func (l *AccessLookup) ProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	return l.Profiles.GetByUserID(ctx, nil, userID)
}

func (l *AccessLookup) ActivityByID(ctx context.Context, id string) (*domain.Activity, error) {
	item, err := l.Activities.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	activity := item.Activity
	return &activity, nil
}

func (l *AccessLookup) ConversationByID(ctx context.Context, id string) (*domain.Conversation, error) {
	return l.Conversations.GetByID(ctx, nil, id)
}

func (l *AccessLookup) MessageByID(ctx context.Context, id string) (*domain.Message, error) {
	return l.Messages.GetByID(ctx, nil, id)
}
