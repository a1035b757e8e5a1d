package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/activity-desk/internal/config"
	"github.com/spec-kit/activity-desk/internal/events"
)

// NotificationService turns domain events into outbound notifications.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{logger: logger, cfg: cfg}
}

// Notify handles one event.
func (n *NotificationService) Notify(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.ActorID),
	}

	switch payload := event.Payload.(type) {
	case events.ActivitiesAssignedPayload:
		n.logger.Info("ActivitiesAssigned", append(fields,
			zap.Int("count", len(payload.ActivityIDs)),
			zap.Bool("visibility", payload.Visibility))...)
		n.sendEmailNotificationStub(ctx, event)
	case events.ActivityCompletedPayload:
		n.logger.Info("ActivityCompleted", append(fields, zap.String("assignee_id", payload.AssigneeID))...)
		n.sendWebhookNotificationStub(ctx, event)
	case events.ProfileSubmittedPayload:
		n.logger.Info("ProfileSubmitted", append(fields, zap.String("user_id", payload.UserID))...)
		n.sendWebhookNotificationStub(ctx, event)
	case events.ProfileStatusChangedPayload:
		n.logger.Info("ProfileStatusChanged", append(fields,
			zap.String("user_id", payload.UserID),
			zap.String("old_status", string(payload.OldStatus)),
			zap.String("new_status", string(payload.NewStatus)))...)
		n.sendEmailNotificationStub(ctx, event)
	case events.ConversationOpenedPayload:
		n.logger.Info("ConversationOpened", append(fields, zap.Strings("participants", payload.ParticipantIDs))...)
	case events.MessageSentPayload:
		n.logger.Info("MessageSent", append(fields,
			zap.String("conversation_id", payload.ConversationID),
			zap.Strings("recipients", payload.RecipientIDs))...)
		n.sendEmailNotificationStub(ctx, event)
	default:
		n.logger.Debug("event without notification", fields...)
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
