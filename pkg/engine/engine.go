package engine

import (
	"context"

	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/conversation"
)

// Request describes one generation call.
type Request struct {
	// Model selects the model, already defaulted by the caller.
	Model string

	// Provider pins a specific backend, or is empty for engine-side routing.
	Provider string

	// Messages is the ordered dialogue history, newest last.
	Messages []api.Message

	// APIKey is a caller-supplied backend credential, forwarded verbatim.
	APIKey string

	// WebSearch asks the engine to ground the answer in current web results.
	WebSearch bool

	// Conversation is the opaque continuation state captured from an earlier
	// stream of the same dialogue, or nil to start fresh.
	Conversation conversation.State
}

// Engine abstracts a chat generation backend.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Engine interface {
	// Generate starts one generation. The returned channel carries the
	// fragment sequence of the stream and is closed by the engine when the
	// generation completes, fails, or the context is cancelled. Failures
	// after the channel exists arrive in-band as Failure fragments.
	Generate(ctx context.Context, req *Request) (<-chan Fragment, error)

	// Close releases engine resources (HTTP clients, connections).
	Close() error
}

// ModelInfo describes one model offered by a provider.
type ModelInfo struct {
	ID      string `json:"model"`
	Default bool   `json:"default,omitempty"`
	Vision  bool   `json:"vision,omitempty"`
	Image   bool   `json:"image,omitempty"`
}

// ProviderSummary describes one backend an engine can route to.
type ProviderSummary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}

// Catalog is implemented by engines that can enumerate their backends.
type Catalog interface {
	// Models returns the identifiers of all models the engine can serve.
	Models(ctx context.Context) ([]string, error)

	// ProviderModels returns the models of one provider.
	ProviderModels(ctx context.Context, provider string) ([]ModelInfo, error)

	// Providers returns the backends the engine can route to.
	Providers(ctx context.Context) ([]ProviderSummary, error)
}
