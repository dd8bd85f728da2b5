package domain

// ChatMessage is the provider-agnostic chat message shape used by the
// handlers and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries one remote completion call, including the retry
// budget for that call site.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}
