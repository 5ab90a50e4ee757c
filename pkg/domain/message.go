package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is a valid stored role but is never produced by this service.
	RoleSystem Role = "system"
)

// Reaction values stored in the "like" column.
const (
	ReactionNone    = 0
	ReactionLike    = 1
	ReactionDislike = -1
)

// Message is one row of a chat transcript. MessageID is generated client-side
// before the insert and never changes; Like is the only field mutable after
// the row is persisted.
type Message struct {
	MessageID string    `json:"message_id"`
	ChatID    string    `json:"chat_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Order     int       `json:"order"`
	Like      int       `json:"like"`
	CreatedAt time.Time `json:"created_at"`
}

// FallbackReply is shown in place of an assistant reply when the stream fails.
const FallbackReply = "Sorry, I encountered an error. Please try again."
