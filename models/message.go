package models

import "time"

// MessageKind tags who a chat bubble belongs to. Pending is its own kind so
// that a placeholder can never masquerade as a user-authored message.
type MessageKind string

const (
	MessageUser      MessageKind = "user"
	MessageAssistant MessageKind = "assistant"
	MessagePending   MessageKind = "pending"
)

type ChatMessage struct {
	ID        string      `json:"id"` // server _id, or a local ULID before the server has seen it
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

func (m ChatMessage) Pending() bool {
	return m.Kind == MessagePending
}

// ConversationKey selects one isolated message sequence. It is a structured
// pair rather than a joined string so ids containing a separator can never
// collide.
type ConversationKey struct {
	UserID       string
	RestaurantID string
}
