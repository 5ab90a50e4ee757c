package domain

import "time"

// Chat is a single conversation thread. CoachType selects the expert persona
// the assistant answers as; it is fixed for the lifetime of the chat.
type Chat struct {
	ChatID    string    `json:"chat_id"`
	UserID    string    `json:"user_id"`
	CoachType Persona   `json:"coach_type"`
	CreatedAt time.Time `json:"created_at"`
}
