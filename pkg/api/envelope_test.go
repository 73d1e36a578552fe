package api

import (
	"encoding/json"
	"testing"
)

func TestEnvelopeMarshalShape(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{"provider", ProviderEnvelope("OpenaiChat"), `{"type":"provider","provider":"OpenaiChat"}`},
		{"content", ContentEnvelope("hello"), `{"type":"content","content":"hello"}`},
		{"conversation", ConversationEnvelope("c1"), `{"type":"conversation","conversation":"c1"}`},
		{"preview", PreviewEnvelope("![#1 cat](u)"), `{"type":"preview","preview":"![#1 cat](u)"}`},
		{"log", LogEnvelope("fetching page 1"), `{"type":"log","log":"fetching page 1"}`},
		{"error", ErrorEnvelope("EngineFailure: boom"), `{"type":"error","error":"EngineFailure: boom"}`},
		{"empty payload", ProviderEnvelope(""), `{"type":"provider","provider":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.env)
			if err != nil {
				t.Fatalf("unexpected marshal error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEnvelopeMarshalEscapesPayload(t *testing.T) {
	got, err := json.Marshal(ContentEnvelope("line\n\"quoted\""))
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	want := `{"type":"content","content":"line\n\"quoted\""}`
	if string(got) != want {
		t.Errorf("marshal = %s, want %s", got, want)
	}
}

func TestEnvelopeUnmarshalRoundTrip(t *testing.T) {
	orig := ConversationEnvelope("chat-42")
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}

	var back Envelope
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if back != orig {
		t.Errorf("round trip = %+v, want %+v", back, orig)
	}
}

func TestEnvelopeUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing type", `{"content":"hi"}`},
		{"type not a string", `{"type":7}`},
		{"missing payload", `{"type":"content"}`},
		{"payload not a string", `{"type":"content","content":{"x":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Envelope
			if err := json.Unmarshal([]byte(tt.data), &e); err == nil {
				t.Errorf("expected unmarshal error for %s", tt.data)
			}
		})
	}
}
