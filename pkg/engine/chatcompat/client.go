package chatcompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/conversation"
	"github.com/rhuss/strom/pkg/engine"
	"github.com/rhuss/strom/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds non-streaming backend calls.
const DefaultTimeout = 120 * time.Second

// Config controls a Client.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:1337".
	BaseURL string

	// APIKey authenticates against the backend. A per-request key takes
	// precedence.
	APIKey string

	// Timeout bounds non-streaming calls. Streaming calls rely on context
	// cancellation instead. <= 0 applies DefaultTimeout.
	Timeout time.Duration
}

// Client talks to a Chat Completions compatible backend. It implements
// engine.Engine and engine.Catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var (
	_ engine.Engine  = (*Client)(nil)
	_ engine.Catalog = (*Client)(nil)
)

// New creates a Client for the backend at cfg.BaseURL.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
					return operation + " " + r.URL.Path
				})),
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// Generate starts a streaming generation against the Chat Completions
// endpoint. The returned channel is closed when the stream completes,
// errors, or the context is cancelled.
//
// The HTTP client timeout is not applied here because a stream can
// legitimately outlast any fixed timeout. Lifecycle control relies on
// context cancellation instead.
func (c *Client) Generate(ctx context.Context, req *engine.Request) (<-chan engine.Fragment, error) {
	provider := providerLabel(req.Provider)

	ctx, span := tracer.Start(ctx, "engine.generate",
		trace.WithAttributes(
			attribute.String("engine.provider", provider),
			attribute.String("engine.model", req.Model),
		))
	fail := func(err error) (<-chan engine.Fragment, error) {
		span.RecordError(err)
		span.End()
		return nil, err
	}

	chatReq := chatRequest{
		Model:              req.Model,
		Messages:           req.Messages,
		Stream:             true,
		Provider:           req.Provider,
		WebSearch:          req.WebSearch,
		ReturnConversation: true,
	}
	if req.Conversation != nil {
		state, err := marshalState(req.Conversation)
		if err != nil {
			return fail(api.NewEngineError(fmt.Sprintf("encoding conversation state: %s", err.Error())))
		}
		chatReq.Conversation = state
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return fail(api.NewEngineError(fmt.Sprintf("encoding request: %s", err.Error())))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fail(api.NewEngineError(fmt.Sprintf("building request: %s", err.Error())))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if key := c.requestKey(req.APIKey); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}

	// A client without timeout; the context owns the stream lifetime.
	streamClient := &http.Client{Transport: c.httpClient.Transport}

	start := time.Now()
	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		observability.EngineRequestsTotal.WithLabelValues(provider, "error").Inc()
		return fail(mapNetworkError(err))
	}
	observability.EngineLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		observability.EngineRequestsTotal.WithLabelValues(provider, "error").Inc()
		return fail(mapHTTPError(httpResp))
	}
	observability.EngineRequestsTotal.WithLabelValues(provider, "ok").Inc()

	ch := make(chan engine.Fragment, 16)
	go func() {
		defer span.End()
		defer close(ch)
		defer httpResp.Body.Close()
		parseStream(ctx, httpResp.Body, ch)
	}()

	return ch, nil
}

// Models returns the identifiers of all models the backend can serve.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	var resp modelsResponse
	if err := c.getJSON(ctx, "/v1/models", &resp); err != nil {
		return nil, err
	}
	models := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// ProviderModels returns the models of one provider.
func (c *Client) ProviderModels(ctx context.Context, provider string) ([]engine.ModelInfo, error) {
	var models []engine.ModelInfo
	if err := c.getJSON(ctx, "/v1/models/"+url.PathEscape(provider), &models); err != nil {
		return nil, err
	}
	return models, nil
}

// Providers returns the backends the engine can route to.
func (c *Client) Providers(ctx context.Context) ([]engine.ProviderSummary, error) {
	var providers []engine.ProviderSummary
	if err := c.getJSON(ctx, "/v1/providers", &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// getJSON performs an authenticated GET against path and decodes the body.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return api.NewEngineError(fmt.Sprintf("building request: %s", err.Error()))
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return mapHTTPError(httpResp)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return api.NewEngineError(fmt.Sprintf("decoding backend response: %s", err.Error()))
	}
	return nil
}

// requestKey resolves the credential for one call.
func (c *Client) requestKey(perRequest string) string {
	if perRequest != "" {
		return perRequest
	}
	return c.apiKey
}

// marshalState passes through state captured by this engine and encodes
// anything else.
func marshalState(state conversation.State) (json.RawMessage, error) {
	if raw, ok := state.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(state)
}

// providerLabel normalizes the provider metric label.
func providerLabel(provider string) string {
	if provider == "" {
		return "auto"
	}
	return provider
}
