package bridge

import (
	"context"
	"log/slog"

	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/conversation"
	"github.com/rhuss/strom/pkg/diag"
	"github.com/rhuss/strom/pkg/engine"
	"github.com/rhuss/strom/pkg/media"
	"github.com/rhuss/strom/pkg/observability"
	"github.com/rhuss/strom/pkg/transport"
)

type encoderState int

const (
	stateAwaitingFirst encoderState = iota
	stateStreaming
	stateTerminated
)

// encoder turns one fragment sequence into an ordered envelope sequence.
// Each stream owns its own encoder; nothing here is shared.
type encoder struct {
	w            transport.EnvelopeWriter
	tap          *diag.Tap
	registry     *conversation.Registry
	materializer *media.Materializer
	cookies      CookieSource

	// provider is the current attribution: the requested provider until
	// the engine announces the one actually serving.
	provider     string
	requested    string
	conversation string

	state     encoderState
	announced bool
	failed    bool
}

// run consumes fragments until the channel closes, the stream terminates,
// or the client goes away. Normal exhaustion carries no terminal envelope.
func (e *encoder) run(ctx context.Context, fragments <-chan engine.Fragment) {
	for {
		select {
		case <-ctx.Done():
			e.state = stateTerminated
			return
		case frag, ok := <-fragments:
			if !ok {
				e.state = stateTerminated
				return
			}
			if err := e.process(ctx, frag); err != nil {
				// The client is gone; stop consuming.
				e.state = stateTerminated
				return
			}
			if e.state == stateTerminated {
				return
			}
		}
	}
}

// process emits the envelopes for one fragment, then drains any diagnostic
// lines captured while handling it.
func (e *encoder) process(ctx context.Context, frag engine.Fragment) error {
	if err := e.announce(ctx, frag); err != nil {
		return err
	}

	switch f := frag.(type) {
	case engine.ProviderInfo:
		// A late announcement still refines error attribution.
		e.provider = f.Name

	case engine.TextFragment:
		if err := e.emit(ctx, api.ContentEnvelope(f.Text)); err != nil {
			return err
		}

	case engine.ConversationUpdate:
		if err := e.storeConversation(ctx, f); err != nil {
			return err
		}

	case engine.ImagePreview:
		if err := e.emit(ctx, api.PreviewEnvelope(f.String())); err != nil {
			return err
		}

	case engine.ImageResult:
		if err := e.processImages(ctx, f); err != nil {
			return err
		}

	case engine.FinishSignal:
		// Consumed silently.

	case engine.Failure:
		return e.fail(ctx, f.Err)
	}

	return e.drainTap(ctx)
}

// announce emits the provider envelope ahead of the first fragment's own
// output. Streams that never announce themselves still get one, attributed
// to the requested provider.
func (e *encoder) announce(ctx context.Context, frag engine.Fragment) error {
	if e.announced {
		return nil
	}
	if info, ok := frag.(engine.ProviderInfo); ok {
		e.provider = info.Name
	}
	e.announced = true
	e.state = stateStreaming
	return e.emit(ctx, api.ProviderEnvelope(e.provider))
}

// storeConversation records refreshed continuation state and confirms it to
// the client. Updates for requests that supplied no conversation id cannot
// be keyed and are dropped.
func (e *encoder) storeConversation(ctx context.Context, f engine.ConversationUpdate) error {
	if e.conversation == "" {
		slog.Debug("dropping conversation update without conversation id",
			"provider", e.provider,
		)
		return nil
	}

	key := conversation.Key{Provider: e.requested, ConversationID: e.conversation}
	e.registry.Put(key, f.State)
	observability.ConversationsTracked.Set(float64(e.registry.Len()))

	return e.emit(ctx, api.ConversationEnvelope(e.conversation))
}

// processImages resolves an image result into client-visible content.
// Already-resolved results pass through as markdown; everything else goes
// through the materializer, whose failure terminates the stream.
func (e *encoder) processImages(ctx context.Context, f engine.ImageResult) error {
	if f.Resolved {
		return e.emit(ctx, api.ContentEnvelope(f.String()))
	}

	if e.materializer == nil {
		return e.fail(ctx, api.NewMaterializationError("no media store configured"))
	}

	cookies := f.Cookies
	if len(cookies) == 0 && e.cookies != nil {
		if stored, ok := e.cookies.CookiesFor(e.provider); ok {
			cookies = stored
		}
	}

	artifacts, err := e.materializer.Materialize(ctx, f.Sources, cookies)
	if err != nil {
		return e.fail(ctx, err)
	}

	refs := make([]string, len(artifacts))
	for i, a := range artifacts {
		refs[i] = a.PublicPath
	}
	resolved := engine.ImageResult{Sources: refs, Alt: f.Alt, Resolved: true}
	return e.emit(ctx, api.ContentEnvelope(resolved.String()))
}

// fail drains pending diagnostics, emits the terminal error envelope, and
// stops the stream. The error envelope is always the last thing written.
func (e *encoder) fail(ctx context.Context, err error) error {
	e.failed = true
	e.state = stateTerminated

	if derr := e.drainTap(ctx); derr != nil {
		return derr
	}
	return e.emit(ctx, api.ErrorEnvelope(api.Translate(e.provider, err)))
}

// drainTap flushes captured diagnostic lines as log envelopes.
func (e *encoder) drainTap(ctx context.Context) error {
	if e.tap == nil {
		return nil
	}
	for _, line := range e.tap.Drain() {
		if err := e.emit(ctx, api.LogEnvelope(line)); err != nil {
			return err
		}
	}
	return nil
}

// emit writes one envelope and counts it.
func (e *encoder) emit(ctx context.Context, env api.Envelope) error {
	if err := e.w.WriteEnvelope(ctx, env); err != nil {
		return err
	}
	observability.EnvelopesTotal.WithLabelValues(string(env.Kind)).Inc()
	return nil
}
