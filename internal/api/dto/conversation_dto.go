package dto

import "time"

// TicketCreateRequest opens (or reopens) the ticket with another user.
type TicketCreateRequest struct {
	User string `json:"user" validate:"required,uuid"`
}

// MessageRequest is the body of a new or edited chat message.
type MessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// TicketSummary is one row of a ticket list.
type TicketSummary struct {
	ID            string         `json:"id"`
	Participants  []UserResponse `json:"participants"`
	Counterpart   *UserResponse  `json:"counterpart"`
	UnseenCount   int            `json:"unseen_count"`
	LastMessageAt *time.Time     `json:"last_message_at"`
}

// TicketListResponse is the ticket page: existing threads and whom the
// caller may open a new one with.
type TicketListResponse struct {
	Tickets []TicketSummary `json:"tickets"`
	Targets []UserResponse  `json:"targets"`
}

// MessageResponse is a chat message.
type MessageResponse struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Body           string        `json:"body"`
	Seen           bool          `json:"seen"`
	Edited         bool          `json:"edited"`
	Author         *UserResponse `json:"author,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// DayGroupResponse is the messages of one local day.
type DayGroupResponse struct {
	Date     string            `json:"date"`
	Label    string            `json:"label"`
	Messages []MessageResponse `json:"messages"`
}

// ChatResponse is an opened conversation.
type ChatResponse struct {
	ID           string             `json:"id"`
	Participants []UserResponse     `json:"participants"`
	Days         []DayGroupResponse `json:"days"`
	HasMore      bool               `json:"has_more"`
}

// MessageWindowResponse answers incremental polling.
type MessageWindowResponse struct {
	Messages []MessageResponse `json:"messages"`
	HasMore  bool              `json:"has_more"`
}
