package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/conversation"
	"github.com/rhuss/strom/pkg/diag"
	"github.com/rhuss/strom/pkg/engine"
	"github.com/rhuss/strom/pkg/media"
	"github.com/rhuss/strom/pkg/observability"
	"github.com/rhuss/strom/pkg/transport"
)

// CookieSource supplies stored authentication cookies for a provider's media
// fetches. The boolean reports whether anything is stored for the provider.
type CookieSource interface {
	CookiesFor(provider string) (map[string]string, bool)
}

// Config carries the bridge's tunables.
type Config struct {
	// DefaultModel is applied when a request names no model.
	DefaultModel string

	// Diagnostics relays engine diagnostic lines to clients as log
	// envelopes. Off, the lines still reach the ambient logger.
	Diagnostics bool
}

// Bridge turns chat requests into ordered envelope streams.
type Bridge struct {
	engine       engine.Engine
	registry     *conversation.Registry
	materializer *media.Materializer
	cookies      CookieSource
	cfg          Config
}

var _ transport.ChatStreamer = (*Bridge)(nil)

// New creates a Bridge. The engine must not be nil; a nil registry gets an
// unbounded one. The materializer and cookie source are optional: without a
// materializer, image batches needing resolution fail their stream, and
// without a cookie source media fetches carry only the cookies the engine
// attached itself.
func New(eng engine.Engine, registry *conversation.Registry, materializer *media.Materializer, cookies CookieSource, cfg Config) (*Bridge, error) {
	if eng == nil {
		return nil, fmt.Errorf("bridge: engine must not be nil")
	}
	if registry == nil {
		registry = conversation.New(0)
	}
	return &Bridge{
		engine:       eng,
		registry:     registry,
		materializer: materializer,
		cookies:      cookies,
		cfg:          cfg,
	}, nil
}

// StreamChat validates the request, resumes any stored conversation, and
// streams the engine's output to w as envelopes. A non-nil return means
// nothing was written; failures after the stream opened surface as error
// envelopes instead.
func (b *Bridge) StreamChat(ctx context.Context, req *api.ChatRequest, w transport.EnvelopeWriter) error {
	if err := req.Validate(); err != nil {
		return err
	}

	engReq := b.prepare(req)

	if b.cfg.Diagnostics {
		ctx = diag.WithTap(ctx, diag.NewTap(nil))
	}

	observability.StreamsActive.Inc()
	defer observability.StreamsActive.Dec()
	start := time.Now()

	enc := &encoder{
		w:            w,
		tap:          diag.FromContext(ctx),
		registry:     b.registry,
		materializer: b.materializer,
		cookies:      b.cookies,
		provider:     req.Provider,
		requested:    req.Provider,
		conversation: req.ConversationID,
	}

	fragments, err := b.engine.Generate(ctx, engReq)
	if err != nil {
		// The generation failed before producing anything; one error
		// envelope is the whole stream.
		enc.fail(ctx, err)
		observability.StreamDuration.WithLabelValues(metricProvider(enc.provider), "error").Observe(time.Since(start).Seconds())
		return nil
	}

	enc.run(ctx, fragments)

	// Unblock the producer if fragments remain; it stops on its own once
	// the request context is cancelled.
	go func() {
		for range fragments {
		}
	}()

	status := "ok"
	if enc.failed {
		status = "error"
	}
	observability.StreamDuration.WithLabelValues(metricProvider(enc.provider), status).Observe(time.Since(start).Seconds())
	return nil
}

// prepare builds the engine request, applying the default model and resuming
// stored conversation state for the requested provider.
func (b *Bridge) prepare(req *api.ChatRequest) *engine.Request {
	model := req.Model
	if model == "" {
		model = b.cfg.DefaultModel
	}

	engReq := &engine.Request{
		Model:     model,
		Provider:  req.Provider,
		Messages:  req.Messages,
		APIKey:    req.APIKey,
		WebSearch: req.WebSearch,
	}

	if req.ConversationID != "" {
		key := conversation.Key{Provider: req.Provider, ConversationID: req.ConversationID}
		if state, ok := b.registry.Get(key); ok {
			engReq.Conversation = state
		}
	}

	return engReq
}

func metricProvider(provider string) string {
	if provider == "" {
		return "auto"
	}
	return provider
}
