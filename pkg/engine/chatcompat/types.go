package chatcompat

import (
	"encoding/json"

	"github.com/rhuss/strom/pkg/api"
)

// chatRequest is the request body sent to /v1/chat/completions.
//
// Provider, WebSearch, Conversation and ReturnConversation are dialect
// extensions; backends that do not understand them ignore unknown fields.
type chatRequest struct {
	Model              string          `json:"model"`
	Messages           []api.Message   `json:"messages"`
	Stream             bool            `json:"stream"`
	Provider           string          `json:"provider,omitempty"`
	WebSearch          bool            `json:"web_search,omitempty"`
	Conversation       json.RawMessage `json:"conversation,omitempty"`
	ReturnConversation bool            `json:"return_conversation,omitempty"`
}

// chatChunk is one SSE data payload. Exactly one of the extension fields or
// a choice delta is populated per chunk; chunks carrying neither are skipped.
type chatChunk struct {
	ID           string          `json:"id"`
	Provider     *chunkProvider  `json:"provider,omitempty"`
	Conversation json.RawMessage `json:"conversation,omitempty"`
	Preview      *chunkPreview   `json:"preview,omitempty"`
	Images       *chunkImages    `json:"images,omitempty"`
	Choices      []chunkChoice   `json:"choices"`
	Error        *chatErrorBody  `json:"error,omitempty"`
}

// chunkProvider announces the backend that serves the stream.
type chunkProvider struct {
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
}

// chunkPreview is a transient placeholder image.
type chunkPreview struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// chunkImages is a batch of generated image sources. Resolved sources are
// already durable; unresolved ones still need materialization, optionally
// authenticated by the attached cookies.
type chunkImages struct {
	URLs     []string          `json:"urls"`
	Alt      string            `json:"alt,omitempty"`
	Cookies  map[string]string `json:"cookies,omitempty"`
	Resolved bool              `json:"resolved,omitempty"`
}

// chunkChoice mirrors the Chat Completions streaming choice.
type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// chunkDelta carries the incremental message content.
type chunkDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// chatErrorBody is the error shape backends embed in non-2xx responses and
// in-band error chunks.
type chatErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// chatErrorResponse wraps chatErrorBody for response bodies.
type chatErrorResponse struct {
	Error chatErrorBody `json:"error"`
}

// modelsResponse is the body of GET /v1/models.
type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}
