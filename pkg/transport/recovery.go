package transport

import (
	"context"
	"fmt"

	"github.com/rhuss/strom/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to engine errors. The server continues to accept new
// requests after a panic is recovered.
func Recovery() Middleware {
	return func(next ChatStreamer) ChatStreamer {
		return ChatStreamerFunc(func(ctx context.Context, req *api.ChatRequest, w EnvelopeWriter) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					retErr = api.NewEngineError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.StreamChat(ctx, req, w)
		})
	}
}
