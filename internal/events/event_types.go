package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/activity-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventActivitiesAssigned   EventType = "activities_assigned"
	EventActivityCompleted    EventType = "activity_completed"
	EventProfileSubmitted     EventType = "profile_submitted"
	EventProfileStatusChanged EventType = "profile_status_changed"
	EventConversationOpened   EventType = "conversation_opened"
	EventMessageSent          EventType = "message_sent"
)

// AllTypes lists every event type, for subscribers interested in everything.
var AllTypes = []EventType{
	EventActivitiesAssigned,
	EventActivityCompleted,
	EventProfileSubmitted,
	EventProfileStatusChanged,
	EventConversationOpened,
	EventMessageSent,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, subjectID, actorID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ActivitiesAssignedPayload payload.
type ActivitiesAssignedPayload struct {
	ActivityIDs []string `json:"activity_ids"`
	AssigneeIDs []string `json:"assignee_ids"`
	Visibility  bool     `json:"visibility"`
}

// ActivityCompletedPayload payload.
type ActivityCompletedPayload struct {
	AssigneeID  string    `json:"assignee_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// ProfileSubmittedPayload payload.
type ProfileSubmittedPayload struct {
	UserID string `json:"user_id"`
}

// ProfileStatusChangedPayload payload.
type ProfileStatusChangedPayload struct {
	UserID    string               `json:"user_id"`
	OldStatus domain.ProfileStatus `json:"old_status"`
	NewStatus domain.ProfileStatus `json:"new_status"`
}

// ConversationOpenedPayload payload.
type ConversationOpenedPayload struct {
	ParticipantIDs []string `json:"participant_ids"`
}

// MessageSentPayload payload.
type MessageSentPayload struct {
	ConversationID string   `json:"conversation_id"`
	RecipientIDs   []string `json:"recipient_ids"`
	BodyPreview    string   `json:"body_preview"`
}
