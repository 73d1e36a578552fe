package integration

import (
	"encoding/json"
	"testing"

	"github.com/rhuss/strom/pkg/api"
	"github.com/rhuss/strom/pkg/conversation"
)

func TestConversationStreamsText(t *testing.T) {
	envelopes := chatTurn(t, userMessage("count from 1 to 5"))

	if len(envelopes) == 0 {
		t.Fatal("expected envelopes, got none")
	}
	if envelopes[0].Kind != api.KindProvider {
		t.Errorf("first envelope kind = %q, want %q", envelopes[0].Kind, api.KindProvider)
	}
	if got := contentOf(envelopes); got != "1, 2, 3, 4, 5" {
		t.Errorf("content = %q, want %q", got, "1, 2, 3, 4, 5")
	}
	if _, found := firstOfKind(envelopes, api.KindError); found {
		t.Error("unexpected error envelope in successful stream")
	}
}

func TestConversationAnnouncesRequestedProvider(t *testing.T) {
	req := userMessage("count from 1 to 5")
	req.Provider = "Copilot"

	envelopes := chatTurn(t, req)

	provider, found := firstOfKind(envelopes, api.KindProvider)
	if !found {
		t.Fatal("no provider envelope in stream")
	}
	if provider.Payload != "Copilot" {
		t.Errorf("provider = %q, want %q", provider.Payload, "Copilot")
	}
}

func TestConversationAppliesDefaultModel(t *testing.T) {
	// The mock echoes the model it was asked for; an empty model in the
	// request must arrive as the configured default.
	envelopes := chatTurn(t, userMessage("echo model"))

	if got := contentOf(envelopes); got != "mock-model" {
		t.Errorf("echoed model = %q, want %q", got, "mock-model")
	}
}

func TestConversationForwardsExplicitModel(t *testing.T) {
	req := userMessage("echo model")
	req.Model = "custom-model"

	envelopes := chatTurn(t, req)

	if got := contentOf(envelopes); got != "custom-model" {
		t.Errorf("echoed model = %q, want %q", got, "custom-model")
	}
}

func TestConversationStateRoundTrip(t *testing.T) {
	req := userMessage("count from 1 to 5")
	req.Provider = "Copilot"
	req.ConversationID = "itest-round-trip"

	// First turn seeds the continuation state.
	envelopes := chatTurn(t, req)
	conv, found := firstOfKind(envelopes, api.KindConversation)
	if !found {
		t.Fatal("no conversation envelope in first turn")
	}
	if conv.Payload != "itest-round-trip" {
		t.Errorf("conversation id = %q, want %q", conv.Payload, "itest-round-trip")
	}

	// Second turn must send the stored state back; the mock counts turns.
	chatTurn(t, req)

	state, ok := testEnv.Registry.Get(conversation.Key{
		Provider:       "Copilot",
		ConversationID: "itest-round-trip",
	})
	if !ok {
		t.Fatal("no stored state after two turns")
	}
	raw, ok := state.(json.RawMessage)
	if !ok {
		t.Fatalf("stored state type = %T, want json.RawMessage", state)
	}
	var got mockState
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshaling stored state: %v", err)
	}
	if got.Turns != 2 {
		t.Errorf("stored turns = %d, want 2 (state not resent to engine)", got.Turns)
	}
	if got.Provider != "Copilot" {
		t.Errorf("stored provider = %q, want %q", got.Provider, "Copilot")
	}
}

func TestConversationWithoutIDStoresNothing(t *testing.T) {
	req := userMessage("count from 1 to 5")
	req.Provider = "Stateless"

	envelopes := chatTurn(t, req)

	if _, found := firstOfKind(envelopes, api.KindConversation); found {
		t.Error("conversation envelope emitted without conversation id")
	}
	if _, ok := testEnv.Registry.Get(conversation.Key{Provider: "Stateless"}); ok {
		t.Error("state stored for a request without conversation id")
	}
}

func TestConversationStateIsolatedPerProvider(t *testing.T) {
	// The same conversation id under two providers must track separately.
	first := userMessage("count from 1 to 5")
	first.Provider = "ProviderA"
	first.ConversationID = "itest-isolation"
	chatTurn(t, first)

	second := userMessage("count from 1 to 5")
	second.Provider = "ProviderB"
	second.ConversationID = "itest-isolation"
	chatTurn(t, second)

	stateB, ok := testEnv.Registry.Get(conversation.Key{
		Provider:       "ProviderB",
		ConversationID: "itest-isolation",
	})
	if !ok {
		t.Fatal("no state stored for second provider")
	}
	raw, ok := stateB.(json.RawMessage)
	if !ok {
		t.Fatalf("stored state type = %T, want json.RawMessage", stateB)
	}
	var got mockState
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshaling stored state: %v", err)
	}
	if got.Turns != 1 {
		t.Errorf("turns = %d, want 1 (state leaked across providers)", got.Turns)
	}
}
