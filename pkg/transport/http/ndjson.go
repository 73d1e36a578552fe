package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/transport"
)

// ndjsonWriter writes envelopes as newline-delimited JSON and flushes after
// each one so partial responses reach the client immediately.
type ndjsonWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu      sync.Mutex
	started bool
}

var _ transport.EnvelopeWriter = (*ndjsonWriter)(nil)

func newNDJSONWriter(w http.ResponseWriter) *ndjsonWriter {
	return &ndjsonWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// WriteEnvelope serializes one envelope followed by a newline and flushes the
// connection. The stream headers go out with the first envelope.
func (nw *ndjsonWriter) WriteEnvelope(ctx context.Context, env api.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	nw.mu.Lock()
	defer nw.mu.Unlock()

	if !nw.started {
		nw.w.Header().Set("Content-Type", "application/x-ndjson")
		nw.w.Header().Set("Cache-Control", "no-cache")
		nw.w.WriteHeader(http.StatusOK)
		nw.started = true
	}

	line, err := json.Marshal(env)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	if _, err := nw.w.Write(line); err != nil {
		return err
	}
	return nw.rc.Flush()
}

// Started reports whether any envelope has been written. Once true the
// response status is committed and errors can no longer use plain HTTP codes.
func (nw *ndjsonWriter) Started() bool {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	return nw.started
}
