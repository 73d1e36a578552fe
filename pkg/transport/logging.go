package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/strom/pkg/api"
)

// Logging returns middleware that emits structured log entries for each
// chat stream. The log entry includes the model, provider, whether the
// request resumes a conversation, duration, request ID (from context), and
// whether the stream started successfully.
//
// Failures that happen mid-stream travel in-band as error envelopes and are
// not visible here; this middleware only sees errors raised before
// streaming began.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ChatStreamer) ChatStreamer {
		return ChatStreamerFunc(func(ctx context.Context, req *api.ChatRequest, w EnvelopeWriter) error {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			err := next.StreamChat(ctx, req, w)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("model", req.Model),
				slog.String("provider", req.Provider),
				slog.Bool("conversation", req.ConversationID != ""),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "chat request rejected", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "chat stream completed", attrs...)
			}

			return err
		})
	}
}
