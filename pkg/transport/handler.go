package transport

import (
	"context"

	"github.com/rhuss/strom/pkg/api"
)

// ChatStreamer handles the core chat-streaming operation. The implementation
// receives a request and writes the resulting envelope sequence to the
// EnvelopeWriter.
//
// A non-nil error means nothing was written and the caller still owns the
// response; once envelopes have been written, failures travel in-band as
// error envelopes and the return is nil.
type ChatStreamer interface {
	StreamChat(ctx context.Context, req *api.ChatRequest, w EnvelopeWriter) error
}

// ChatStreamerFunc is an adapter that allows using an ordinary function
// as a ChatStreamer.
type ChatStreamerFunc func(ctx context.Context, req *api.ChatRequest, w EnvelopeWriter) error

// StreamChat calls f(ctx, req, w).
func (f ChatStreamerFunc) StreamChat(ctx context.Context, req *api.ChatRequest, w EnvelopeWriter) error {
	return f(ctx, req, w)
}

// EnvelopeWriter delivers envelopes to the client. The transport layer
// creates one writer per request and hands it to the handler.
//
// Implementations must deliver envelopes in call order and make each one
// visible to the client without waiting for the stream to end.
type EnvelopeWriter interface {
	// WriteEnvelope sends one envelope. An error means the client is gone
	// and the stream should stop.
	WriteEnvelope(ctx context.Context, env api.Envelope) error
}
