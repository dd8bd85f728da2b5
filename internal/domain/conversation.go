package domain

// ConversationTurn is a single caller-supplied exchange, oldest first in the
// request payload. History is never persisted server-side; the client replays
// it on every request. Either side of a turn may be empty.
type ConversationTurn struct {
	UserMessage      string `json:"user_message,omitempty"`
	AssistantMessage string `json:"assistant_message,omitempty"`
}
