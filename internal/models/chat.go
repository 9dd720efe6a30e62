package models

import "time"

// ChatRole tags a conversation message
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single entry of a conversation log
type ChatMessage struct {
	Role    ChatRole  `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sent_at"`
}

// ChatWidget is the state of one visitor's chat widget
type ChatWidget struct {
	ID        string        `json:"id"`
	Open      bool          `json:"open"`
	Messages  []ChatMessage `json:"messages"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ChatRequest is the payload of POST /api/v1/chat
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatReply is returned for every chat message
type ChatReply struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	Source         string `json:"source"` // assistant | fallback
}
