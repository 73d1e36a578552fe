package chatcompat

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rhuss/strom/pkg/engine"
)

// collectFragments runs parseStream and returns all fragments.
func collectFragments(t *testing.T, sseData string) []engine.Fragment {
	t.Helper()
	ch := make(chan engine.Fragment, 64)

	go func() {
		defer close(ch)
		parseStream(context.Background(), strings.NewReader(sseData), ch)
	}()

	var fragments []engine.Fragment
	for f := range ch {
		fragments = append(fragments, f)
	}
	return fragments
}

func TestParseStreamTextFragments(t *testing.T) {
	sseData := `data: {"id":"1","provider":{"name":"Bing","model":"gpt-4"},"choices":[{"index":0,"delta":{"role":"assistant"},"finish_reason":null}]}

data: {"id":"1","choices":[{"index":0,"delta":{"content":"Hello"},"finish_reason":null}]}

data: {"id":"1","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":null}]}

data: {"id":"1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}

data: [DONE]
`
	fragments := collectFragments(t, sseData)

	if len(fragments) != 4 {
		t.Fatalf("expected 4 fragments, got %d: %+v", len(fragments), fragments)
	}

	info, ok := fragments[0].(engine.ProviderInfo)
	if !ok {
		t.Fatalf("fragment 0 = %T, want ProviderInfo", fragments[0])
	}
	if info.Name != "Bing" {
		t.Errorf("provider name = %q, want %q", info.Name, "Bing")
	}

	for i, want := range []string{"Hello", " world"} {
		text, ok := fragments[i+1].(engine.TextFragment)
		if !ok {
			t.Fatalf("fragment %d = %T, want TextFragment", i+1, fragments[i+1])
		}
		if text.Text != want {
			t.Errorf("fragment %d text = %q, want %q", i+1, text.Text, want)
		}
	}

	finish, ok := fragments[3].(engine.FinishSignal)
	if !ok {
		t.Fatalf("fragment 3 = %T, want FinishSignal", fragments[3])
	}
	if finish.Reason != "stop" {
		t.Errorf("finish reason = %q, want %q", finish.Reason, "stop")
	}
}

func TestParseStreamConversationUpdate(t *testing.T) {
	sseData := `data: {"id":"1","conversation":{"session":"abc","turns":2}}

data: [DONE]
`
	fragments := collectFragments(t, sseData)

	if len(fragments) != 1 {
		t.Fatalf("expected 1 fragment, got %d: %+v", len(fragments), fragments)
	}
	update, ok := fragments[0].(engine.ConversationUpdate)
	if !ok {
		t.Fatalf("fragment 0 = %T, want ConversationUpdate", fragments[0])
	}

	raw, ok := update.State.(json.RawMessage)
	if !ok {
		t.Fatalf("state = %T, want json.RawMessage", update.State)
	}
	var state struct {
		Session string `json:"session"`
		Turns   int    `json:"turns"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("decoding state: %v", err)
	}
	if state.Session != "abc" || state.Turns != 2 {
		t.Errorf("state = %+v, want session=abc turns=2", state)
	}
}

func TestParseStreamImages(t *testing.T) {
	sseData := `data: {"id":"1","preview":{"url":"https://cdn.example.com/tmp.png","alt":"a fox"}}

data: {"id":"1","images":{"urls":["https://cdn.example.com/a.png","https://cdn.example.com/b.png"],"alt":"a fox","cookies":{"session":"s1"}}}

data: [DONE]
`
	fragments := collectFragments(t, sseData)

	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d: %+v", len(fragments), fragments)
	}

	preview, ok := fragments[0].(engine.ImagePreview)
	if !ok {
		t.Fatalf("fragment 0 = %T, want ImagePreview", fragments[0])
	}
	if preview.URL != "https://cdn.example.com/tmp.png" || preview.Alt != "a fox" {
		t.Errorf("preview = %+v", preview)
	}

	result, ok := fragments[1].(engine.ImageResult)
	if !ok {
		t.Fatalf("fragment 1 = %T, want ImageResult", fragments[1])
	}
	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(result.Sources))
	}
	if result.Resolved {
		t.Error("expected unresolved image result")
	}
	if result.Cookies["session"] != "s1" {
		t.Errorf("cookies = %v, want session=s1", result.Cookies)
	}
}

func TestParseStreamMalformedChunkSkipped(t *testing.T) {
	sseData := `data: {"id":"1","choices":[{"index":0,"delta":{"content":"Hi"},"finish_reason":null}]}

data: {this is not valid json}

data: {"id":"1","choices":[{"index":0,"delta":{"content":"!"},"finish_reason":null}]}

data: [DONE]
`
	fragments := collectFragments(t, sseData)

	var texts []string
	for _, f := range fragments {
		if text, ok := f.(engine.TextFragment); ok {
			texts = append(texts, text.Text)
		}
	}
	if len(texts) != 2 {
		t.Errorf("expected 2 text fragments (malformed skipped), got %d: %v", len(texts), texts)
	}
}

func TestParseStreamErrorChunkTerminates(t *testing.T) {
	sseData := `data: {"id":"1","choices":[{"index":0,"delta":{"content":"Hi"},"finish_reason":null}]}

data: {"id":"1","error":{"message":"model overloaded"}}

data: {"id":"1","choices":[{"index":0,"delta":{"content":"ignored"},"finish_reason":null}]}

data: [DONE]
`
	fragments := collectFragments(t, sseData)

	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d: %+v", len(fragments), fragments)
	}
	failure, ok := fragments[1].(engine.Failure)
	if !ok {
		t.Fatalf("fragment 1 = %T, want Failure", fragments[1])
	}
	if !strings.Contains(failure.Err.Error(), "model overloaded") {
		t.Errorf("failure = %q, want it to name the backend message", failure.Err.Error())
	}
}

func TestParseStreamCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sseData := `data: {"id":"1","choices":[{"index":0,"delta":{"content":"Hi"},"finish_reason":null}]}

data: [DONE]
`
	ch := make(chan engine.Fragment, 64)
	go func() {
		defer close(ch)
		parseStream(ctx, strings.NewReader(sseData), ch)
	}()

	var fragments []engine.Fragment
	for f := range ch {
		fragments = append(fragments, f)
	}
	if len(fragments) != 0 {
		t.Errorf("expected no fragments after cancellation, got %d", len(fragments))
	}
}
