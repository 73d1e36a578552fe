package apikey

import (
	"context"
	"net/http"
	"testing"

	"github.com/rhuss/strom/pkg/auth"
)

func request(t *testing.T, authorization string) *http.Request {
	t.Helper()
	r, err := http.NewRequest("POST", "/v1/conversation", nil)
	if err != nil {
		t.Fatal(err)
	}
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	return r
}

func TestAuthenticate(t *testing.T) {
	a := New([]Entry{
		{Key: "sk-valid-1", Subject: "alice"},
		{Key: "sk-valid-2"},
	})

	tests := []struct {
		name          string
		authorization string
		decision      auth.AuthDecision
		subject       string
	}{
		{name: "valid key", authorization: "Bearer sk-valid-1", decision: auth.Yes, subject: "alice"},
		{name: "valid key default subject", authorization: "Bearer sk-valid-2", decision: auth.Yes, subject: "apikey-client"},
		{name: "unknown key", authorization: "Bearer sk-wrong", decision: auth.No},
		{name: "empty token", authorization: "Bearer ", decision: auth.No},
		{name: "no header", authorization: "", decision: auth.Abstain},
		{name: "basic scheme", authorization: "Basic dXNlcjpwYXNz", decision: auth.Abstain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Authenticate(context.Background(), request(t, tt.authorization))

			if result.Decision != tt.decision {
				t.Fatalf("Decision = %d, want %d", result.Decision, tt.decision)
			}
			if tt.decision == auth.Yes {
				if result.Identity == nil || result.Identity.Subject != tt.subject {
					t.Errorf("Identity = %+v, want subject %q", result.Identity, tt.subject)
				}
				if result.Identity.Method != "apikey" {
					t.Errorf("Method = %q, want apikey", result.Identity.Method)
				}
			}
		})
	}
}

func TestPlaintextKeysNotRetained(t *testing.T) {
	a := New([]Entry{{Key: "sk-secret", Subject: "alice"}})

	for _, entry := range a.keys {
		if entry.subject == "sk-secret" {
			t.Error("plaintext key stored as subject")
		}
	}
	// The hash must not equal the raw key bytes.
	if string(a.keys[0].keyHash[:len("sk-secret")]) == "sk-secret" {
		t.Error("key stored unhashed")
	}
}
