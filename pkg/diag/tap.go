package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Sink receives diagnostic lines forwarded by a tap or emitted without one.
type Sink func(line string)

// ambient is the default chained sink.
func ambient(line string) {
	slog.Debug("engine diagnostic", "line", line)
}

// Tap buffers diagnostic lines for a single generation call. Captured lines
// are drained into log envelopes after each fragment; ownership is scoped
// strictly to the call that created the tap.
type Tap struct {
	mu    sync.Mutex
	lines []string
	next  Sink
}

// NewTap creates a tap chaining to next. A nil next chains to the ambient
// slog sink, so captured lines still reach the process log.
func NewTap(next Sink) *Tap {
	if next == nil {
		next = ambient
	}
	return &Tap{next: next}
}

// Log captures line and forwards it to the chained sink.
func (t *Tap) Log(line string) {
	t.mu.Lock()
	t.lines = append(t.lines, line)
	t.mu.Unlock()
	t.next(line)
}

// Drain returns captured lines in emission order and clears the buffer.
// Returns nil when nothing was captured.
func (t *Tap) Drain() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.lines) == 0 {
		return nil
	}
	drained := t.lines
	t.lines = nil
	return drained
}

// tapKey is a private type for the tap context key.
type tapKey struct{}

// WithTap returns a context carrying tap through the generation call.
func WithTap(ctx context.Context, tap *Tap) context.Context {
	return context.WithValue(ctx, tapKey{}, tap)
}

// FromContext returns the call's tap, or nil when capture is disabled.
func FromContext(ctx context.Context) *Tap {
	if t, ok := ctx.Value(tapKey{}).(*Tap); ok {
		return t
	}
	return nil
}

// Log emits line through the call's tap when one is installed, otherwise to
// the ambient sink only.
func Log(ctx context.Context, line string) {
	if t := FromContext(ctx); t != nil {
		t.Log(line)
		return
	}
	ambient(line)
}

// Logf emits a formatted line through Log.
func Logf(ctx context.Context, format string, args ...any) {
	Log(ctx, fmt.Sprintf(format, args...))
}
