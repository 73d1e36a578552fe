// Package diag provides per-call diagnostic capture for the streaming bridge,
// plus process-wide slog configuration.
//
// A [Tap] collects diagnostic lines emitted by the engine during one
// generation call so the bridge can relay them inline as log envelopes. Taps
// chain to the ambient sink instead of replacing it: every captured line is
// also forwarded. Each call owns its own Tap, carried through the call's
// context, so concurrent requests cannot interleave buffers.
//
// Engines log through the context:
//
//	diag.Logf(ctx, "fetching page %d", n)
package diag

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the process-wide slog default logger.
// Environment overrides config: STROM_LOG_LEVEL, STROM_LOG_FORMAT.
func Init(configLevel, configFormat string) {
	level := os.Getenv("STROM_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}
	format := os.Getenv("STROM_LOG_FORMAT")
	if format == "" {
		format = configFormat
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
