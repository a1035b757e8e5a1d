package domain

import "time"

// Conversation is a support ticket thread between participants.
type Conversation struct {
	ID string
	// PairKey is set for two-party threads and unique across conversations.
	PairKey      *string
	Participants []User
	CreatedAt    time.Time
}

// ConversationSummary is a conversation as it appears in ticket lists.
type ConversationSummary struct {
	Conversation
	UnseenCount   int
	LastMessageAt *time.Time
}

// PairKey returns the canonical key for the unordered pair {a, b}.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// HasParticipant reports whether userID takes part in the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for i := range c.Participants {
		if c.Participants[i].ID == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the first participant that is not userID.
func (c *Conversation) Counterpart(userID string) *User {
	for i := range c.Participants {
		if c.Participants[i].ID != userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// Message is a single chat entry inside a conversation.
type Message struct {
	ID             string
	ConversationID string
	UserID         string
	Body           string
	// Seen stays false until a participant other than the author opens the thread.
	Seen      bool
	Author    *User
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Edited reports whether the body was changed after sending.
func (m *Message) Edited() bool {
	return m.UpdatedAt.Sub(m.CreatedAt) > time.Second
}
