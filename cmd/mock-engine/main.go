// Command mock-engine runs a deterministic Chat Completions backend for
// development and integration testing. It streams scripted responses based
// on request content, speaking the dialect extensions strom consumes:
// provider announcements, conversation state, image previews and batches,
// and in-band error chunks.
//
// Scripts, keyed off the last user message:
//
//	"count from 1 to 5"  - streams the numbers
//	contains "draw"      - image flow: preview, then an image batch served
//	                       from this process (two images when "two" appears)
//	"already resolved"   - image batch flagged resolved, no fetch needed
//	"fail midway"        - some text, then an in-band error chunk
//	"reject upfront"     - HTTP 502 before any stream
//	"stall"              - one text chunk, then holds until disconnect
//
// A system message turns the reply into a pirate greeting. Requests naming
// provider "BingCreateImages" get image URLs that require a _U cookie.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /v1/models/{provider}", handleProviderModels)
	mux.HandleFunc("GET /v1/providers", handleProviders)
	mux.HandleFunc("GET /mock-images/{name}", handleImage)
	mux.HandleFunc("GET /mock-images/secure/{name}", handleSecureImage)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock engine starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock engine failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock engine shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// --- Request types ---

type chatRequest struct {
	Model              string          `json:"model"`
	Messages           []chatMessage   `json:"messages"`
	Stream             bool            `json:"stream"`
	Provider           string          `json:"provider,omitempty"`
	WebSearch          bool            `json:"web_search,omitempty"`
	Conversation       json.RawMessage `json:"conversation,omitempty"`
	ReturnConversation bool            `json:"return_conversation,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- Chunk types ---

type chunk struct {
	ID           string          `json:"id"`
	Object       string          `json:"object"`
	Model        string          `json:"model,omitempty"`
	Provider     *chunkProvider  `json:"provider,omitempty"`
	Conversation json.RawMessage `json:"conversation,omitempty"`
	Preview      *chunkPreview   `json:"preview,omitempty"`
	Images       *chunkImages    `json:"images,omitempty"`
	Choices      []chunkChoice   `json:"choices,omitempty"`
	Error        *errorBody      `json:"error,omitempty"`
}

type chunkProvider struct {
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
}

type chunkPreview struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type chunkImages struct {
	URLs     []string          `json:"urls"`
	Alt      string            `json:"alt,omitempty"`
	Cookies  map[string]string `json:"cookies,omitempty"`
	Resolved bool              `json:"resolved,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// conversationState is the continuation state this mock hands out and
// accepts back. Turns counts completed exchanges.
type conversationState struct {
	Provider string `json:"provider"`
	Turns    int    `json:"turns"`
}

// --- Chat handler ---

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	lastMsg := strings.ToLower(getLastUserMessage(&req))

	if strings.Contains(lastMsg, "reject upfront") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{
			"error": errorBody{Message: "no provider accepted the request", Type: "server_error"},
		})
		return
	}

	if !req.Stream {
		http.Error(w, `{"error":{"message":"this mock only streams","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	s := &session{
		w:       w,
		flusher: flusher,
		req:     &req,
		baseURL: "http://" + r.Host,
	}
	s.run(r.Context(), lastMsg)
}

// session streams one scripted response.
type session struct {
	w       http.ResponseWriter
	flusher http.Flusher
	req     *chatRequest
	baseURL string
}

func (s *session) run(ctx context.Context, lastMsg string) {
	provider := s.req.Provider
	if provider == "" {
		provider = "MockAuto"
	}

	s.write(chunk{Provider: &chunkProvider{Name: provider, Model: s.model()}})

	switch {
	case strings.Contains(lastMsg, "stall"):
		s.streamText([]string{"stalling"})
		<-ctx.Done()
		return
	case strings.Contains(lastMsg, "fail midway"):
		s.streamText([]string{"partial", " ", "output"})
		s.write(chunk{Error: &errorBody{Message: "provider dropped the connection", Type: "server_error"}})
		return
	case strings.Contains(lastMsg, "already resolved"):
		s.write(chunk{Images: &chunkImages{
			URLs:     []string{"/images/1700000000_cached.png"},
			Alt:      "cached image",
			Resolved: true,
		}})
	case strings.Contains(lastMsg, "draw"):
		s.streamImages(provider, lastMsg)
	case hasSystemPrompt(s.req):
		s.streamText([]string{"Ahoy", " ", "there", ",", " ", "matey", "!"})
	case strings.Contains(lastMsg, "count from 1 to 5"):
		s.streamText([]string{"1", ", ", "2", ", ", "3", ", ", "4", ", ", "5"})
	default:
		s.streamText([]string{"Hello", ",", " ", "nice", " ", "day", "!"})
	}

	if s.req.ReturnConversation {
		state, _ := json.Marshal(conversationState{
			Provider: provider,
			Turns:    s.priorTurns() + 1,
		})
		s.write(chunk{Conversation: state})
	}

	s.finish()
}

func (s *session) streamText(tokens []string) {
	s.write(chunk{Choices: []chunkChoice{{Delta: chunkDelta{Role: "assistant"}}}})
	for _, token := range tokens {
		s.write(chunk{Choices: []chunkChoice{{Delta: chunkDelta{Content: token}}}})
	}
}

func (s *session) streamImages(provider, lastMsg string) {
	count := 1
	if strings.Contains(lastMsg, "two") {
		count = 2
	}

	prefix := s.baseURL + "/mock-images/"
	if provider == "BingCreateImages" {
		prefix = s.baseURL + "/mock-images/secure/"
	}

	s.write(chunk{Preview: &chunkPreview{URL: prefix + "preview.png", Alt: "generating"}})

	urls := make([]string, count)
	for i := range urls {
		urls[i] = fmt.Sprintf("%sgen-%d.png", prefix, i+1)
	}
	s.write(chunk{Images: &chunkImages{URLs: urls, Alt: "a mock drawing"}})
}

func (s *session) finish() {
	reason := "stop"
	s.write(chunk{Choices: []chunkChoice{{FinishReason: &reason}}})
	fmt.Fprintf(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

func (s *session) write(c chunk) {
	c.ID = "chatcmpl-mock"
	c.Object = "chat.completion.chunk"
	if c.Model == "" {
		c.Model = s.model()
	}
	data, _ := json.Marshal(c)
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

func (s *session) model() string {
	if s.req.Model != "" {
		return s.req.Model
	}
	return "mock-model"
}

// priorTurns reads the turn counter out of a resumed conversation state.
func (s *session) priorTurns() int {
	if len(s.req.Conversation) == 0 {
		return 0
	}
	var state conversationState
	if err := json.Unmarshal(s.req.Conversation, &state); err != nil {
		return 0
	}
	return state.Turns
}

// --- Catalog endpoints ---

func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "mock"},
			{"id": "mock-image-model", "object": "model", "owned_by": "mock"},
		},
	}
	writeJSON(w, resp)
}

func handleProviderModels(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	models := []map[string]any{
		{"model": "mock-model", "default": true},
	}
	if strings.Contains(provider, "Image") || provider == "Flux" {
		models = append(models, map[string]any{"model": "mock-image-model", "image": true})
	}
	writeJSON(w, models)
}

func handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []map[string]any{
		{"id": "MockAuto", "label": "MockAuto"},
		{"id": "Copilot", "label": "Copilot"},
		{"id": "Flux", "label": "Flux (Image Generation)"},
		{"id": "BingCreateImages", "label": "BingCreateImages (Image Generation)"},
	})
}

// --- Image endpoints ---

// pngPixel is a 1x1 transparent PNG.
var pngPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func handleImage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Write(pngPixel)
}

func handleSecureImage(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie("_U"); err != nil {
		http.Error(w, "authentication cookie required", http.StatusForbidden)
		return
	}
	handleImage(w, r)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func getLastUserMessage(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

func hasSystemPrompt(req *chatRequest) bool {
	for _, msg := range req.Messages {
		if msg.Role == "system" {
			return true
		}
	}
	return false
}
