package chatcompat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/diag"
	"github.com/rhuss/strom/pkg/engine"
)

// parseStream reads SSE chunks from body, translates each into fragments,
// and sends them on ch. The channel is NOT closed by this function; the
// caller is responsible for closing it.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Malformed chunks are reported as diagnostics and skipped. Context
// cancellation stops reading immediately.
func parseStream(ctx context.Context, body io.Reader, ch chan<- engine.Fragment) {
	scanner := bufio.NewScanner(body)
	// Chunks carrying inline image data can exceed the default line limit.
	scanner.Buffer(make([]byte, 0, 64<<10), 16<<20)

	for scanner.Scan() {
		// Check for context cancellation between lines.
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// SSE lines that don't start with "data: " are ignored
		// (e.g., empty lines, comments starting with ":").
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")

		// Handle the [DONE] sentinel.
		if payload == "[DONE]" {
			return
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			diag.Logf(ctx, "skipping malformed chunk: %s: %s", err.Error(), diag.Truncate(payload, 200))
			continue
		}

		if !translateChunk(&chunk, ch) {
			return
		}
	}

	// Scanner error (e.g., connection dropped).
	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		ch <- engine.Failure{Err: api.NewEngineError("stream read error: " + err.Error())}
	}
}

// translateChunk converts a single chunk into zero or more fragments sent on
// ch. It returns false when the stream must stop.
func translateChunk(chunk *chatChunk, ch chan<- engine.Fragment) bool {
	// An in-band error chunk terminates the stream.
	if chunk.Error != nil {
		ch <- engine.Failure{Err: api.NewEngineError(chunk.Error.Message)}
		return false
	}

	if chunk.Provider != nil {
		ch <- engine.ProviderInfo{Name: chunk.Provider.Name}
	}
	if len(chunk.Conversation) > 0 {
		ch <- engine.ConversationUpdate{State: chunk.Conversation}
	}
	if chunk.Preview != nil {
		ch <- engine.ImagePreview{URL: chunk.Preview.URL, Alt: chunk.Preview.Alt}
	}
	if chunk.Images != nil {
		ch <- engine.ImageResult{
			Sources:  chunk.Images.URLs,
			Alt:      chunk.Images.Alt,
			Cookies:  chunk.Images.Cookies,
			Resolved: chunk.Images.Resolved,
		}
	}

	if len(chunk.Choices) == 0 {
		return true
	}
	choice := chunk.Choices[0]

	if choice.Delta.Content != nil && *choice.Delta.Content != "" {
		ch <- engine.TextFragment{Text: *choice.Delta.Content}
	}

	// finish_reason signals stream completion for this choice.
	if choice.FinishReason != nil {
		ch <- engine.FinishSignal{Reason: *choice.FinishReason}
	}

	return true
}
