package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/engine"
	"github.com/rhuss/strom/pkg/observability"
	"github.com/rhuss/strom/pkg/transport"
)

// Adapter serves the strom HTTP surface: the NDJSON conversation stream,
// catalog listings, artifact serving, and cookie import. It routes requests
// and serializes responses; stream semantics live behind the ChatStreamer.
type Adapter struct {
	streamer transport.ChatStreamer
	catalog  engine.Catalog
	cookies  CookieReloader
	inflight *transport.InFlightRegistry
	router   chi.Router
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize   int64  // conversation request body cap, default 1 MiB
	MaxUploadSize int64  // cookie upload cap, default 50 MiB
	MediaDir      string // directory served under /images/
	CookieDir     string // directory HAR uploads land in
	Version       string // reported by /v1/version
	MetricsPath   string // empty disables the metrics endpoint
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize:   1 << 20,
		MaxUploadSize: 50 << 20,
		MetricsPath:   "/metrics",
	}
}

// CookieReloader reloads the cookie store after an upload lands.
type CookieReloader interface {
	LoadDir(dir string) error
}

// NewAdapter creates an HTTP adapter around the given ChatStreamer.
// The catalog is optional; without one the listing endpoints report 501.
// The cookie reloader is optional; uploads still land in CookieDir.
// Middleware is applied to the ChatStreamer in the given order.
func NewAdapter(streamer transport.ChatStreamer, catalog engine.Catalog, cookies CookieReloader, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		streamer = transport.Chain(middlewares...)(streamer)
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 50 << 20
	}

	a := &Adapter{
		streamer: streamer,
		catalog:  catalog,
		cookies:  cookies,
		inflight: transport.NewInFlightRegistry(),
		config:   cfg,
	}

	r := chi.NewRouter()
	r.Use(observability.MetricsMiddleware)

	r.Post("/v1/conversation", a.handleConversation)
	r.Get("/v1/models", a.handleModels)
	r.Get("/v1/models/{provider}", a.handleProviderModels)
	r.Get("/v1/providers", a.handleProviders)
	r.Get("/v1/version", a.handleVersion)
	r.Post("/v1/cookies/har", a.handleCookieUpload)
	r.Get("/images/{name}", a.handleImage)
	r.Get("/healthz", a.handleHealthz)
	if cfg.MetricsPath != "" {
		r.Method(http.MethodGet, cfg.MetricsPath, promhttp.Handler())
	}
	a.router = r

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.router)
}

// CancelStreams cancels every in-flight conversation stream and reports how
// many were cut. Called during graceful shutdown.
func (a *Adapter) CancelStreams() int {
	return a.inflight.CancelAll()
}

// handleConversation handles POST /v1/conversation: decode, validate, then
// hand the connection to the streamer as an NDJSON envelope stream.
func (a *Adapter) handleConversation(w http.ResponseWriter, r *http.Request) {
	if ct := contentType(r); ct != "" && ct != "application/json" {
		transport.WriteErrorResponse(w,
			api.NewValidationError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewValidationError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewValidationError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := transport.RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	a.inflight.Register(id, cancel)
	defer a.inflight.Remove(id)

	nw := newNDJSONWriter(w)
	if err := a.streamer.StreamChat(ctx, &req, nw); err != nil {
		if nw.Started() {
			// The stream is committed; the client sees a truncated body.
			slog.ErrorContext(ctx, "stream aborted after first envelope", "error", err)
			return
		}
		transport.WriteError(w, err)
	}
}

// handleModels handles GET /v1/models.
func (a *Adapter) handleModels(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		writeCatalogUnavailable(w)
		return
	}

	models, err := a.catalog.Models(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, models)
}

// handleProviderModels handles GET /v1/models/{provider}.
func (a *Adapter) handleProviderModels(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		writeCatalogUnavailable(w)
		return
	}

	provider := chi.URLParam(r, "provider")
	models, err := a.catalog.ProviderModels(r.Context(), provider)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, models)
}

// handleProviders handles GET /v1/providers. The body is a name-to-label
// object, image-capable providers carrying a label suffix.
func (a *Adapter) handleProviders(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		writeCatalogUnavailable(w)
		return
	}

	providers, err := a.catalog.Providers(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}

	labels := make(map[string]string, len(providers))
	for _, p := range providers {
		label := p.Label
		if label == "" {
			label = p.ID
		}
		labels[p.ID] = label
	}
	writeJSON(w, labels)
}

// handleVersion handles GET /v1/version.
func (a *Adapter) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{
		"version":        a.config.Version,
		"latest_version": a.config.Version,
	})
}

// handleImage handles GET /images/{name}, serving one materialized artifact.
// Names are single path elements produced by the materializer; anything else
// is rejected before touching the filesystem.
func (a *Adapter) handleImage(w http.ResponseWriter, r *http.Request) {
	if a.config.MediaDir == "" {
		http.NotFound(w, r)
		return
	}

	name := chi.URLParam(r, "name")
	if !safeArtifactName(name) {
		transport.WriteErrorResponse(w,
			api.NewValidationError("name", "malformed artifact name"),
			http.StatusBadRequest,
		)
		return
	}

	http.ServeFile(w, r, filepath.Join(a.config.MediaDir, name))
}

// handleHealthz handles GET /healthz.
func (a *Adapter) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeCatalogUnavailable(w http.ResponseWriter) {
	transport.WriteErrorResponse(w,
		api.NewValidationError("", "catalog listing is not available (no engine catalog configured)"),
		http.StatusNotImplemented,
	)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// contentType returns the media type of the request without parameters.
func contentType(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	if base, _, found := strings.Cut(ct, ";"); found {
		return strings.TrimSpace(base)
	}
	return strings.TrimSpace(ct)
}

// safeArtifactName accepts exactly one clean path element: no separators,
// no traversal, no hidden files.
func safeArtifactName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return filepath.Base(name) == name
}

// httpRequestIDMiddleware propagates the X-Request-ID header. A client-sent
// ID lands in the context; the effective ID (client's or generated) is
// echoed on the response before the first write.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

func (w *requestIDResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}
