package api

import "fmt"

// Role identifies the author of a chat message. The set is open: roles are
// forwarded to the engine verbatim, only presence is enforced.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one element of the prompt history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound body of a streaming conversation request.
//
// Conversation identifiers are client-chosen opaque strings; they index only
// the in-memory continuation cache and are never interpreted beyond that.
type ChatRequest struct {
	// Model selects the engine model. Empty falls back to the configured
	// default model.
	Model string `json:"model,omitempty"`

	// Provider optionally pins a specific backend provider.
	Provider string `json:"provider,omitempty"`

	// Messages is the ordered prompt history. Required, non-empty.
	Messages []Message `json:"messages"`

	// APIKey is forwarded to the engine as a per-request credential.
	APIKey string `json:"api_key,omitempty"`

	// WebSearch asks the engine to augment the prompt with search results.
	WebSearch bool `json:"web_search,omitempty"`

	// ConversationID resumes the continuation state captured under
	// (provider, conversation_id) by an earlier stream.
	ConversationID string `json:"conversation_id,omitempty"`
}

// Validate checks the request before any streaming starts.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return NewValidationError("messages", "at least one message is required")
	}
	for i, m := range r.Messages {
		if m.Role == "" {
			return NewValidationError(fmt.Sprintf("messages[%d].role", i), "role is required")
		}
	}
	return nil
}
