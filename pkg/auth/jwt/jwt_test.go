package jwt

import (
	"context"
	"net/http"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rhuss/strom/pkg/auth"
)

const testSecret = "test-hmac-secret"

func signToken(t *testing.T, secret string, claims jwtlib.MapClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

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

func validClaims() jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	a := New(Config{Secret: testSecret})
	token := signToken(t, testSecret, validClaims())

	result := a.Authenticate(context.Background(), request(t, "Bearer "+token))

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err: %v)", result.Decision, result.Err)
	}
	if result.Identity.Subject != "alice" || result.Identity.Method != "jwt" {
		t.Errorf("Identity = %+v, want alice/jwt", result.Identity)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	a := New(Config{Secret: testSecret, Issuer: "strom-test"})

	expired := validClaims()
	expired["iss"] = "strom-test"
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "someone-else"

	noSub := jwtlib.MapClaims{
		"iss": "strom-test",
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	noExp := jwtlib.MapClaims{"sub": "alice", "iss": "strom-test"}

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: signToken(t, testSecret, expired)},
		{name: "wrong issuer", token: signToken(t, testSecret, wrongIssuer)},
		{name: "wrong secret", token: signToken(t, "other-secret", validClaims())},
		{name: "missing sub", token: signToken(t, testSecret, noSub)},
		{name: "missing exp", token: signToken(t, testSecret, noExp)},
		{name: "garbage", token: "a.b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Authenticate(context.Background(), request(t, "Bearer "+tt.token))
			if result.Decision != auth.No {
				t.Errorf("Decision = %d, want No", result.Decision)
			}
			if result.Err == nil {
				t.Error("rejection carries no error")
			}
		})
	}
}

func TestAuthenticateAbstains(t *testing.T) {
	a := New(Config{Secret: testSecret})

	tests := []struct {
		name          string
		authorization string
	}{
		{name: "no header", authorization: ""},
		{name: "basic scheme", authorization: "Basic dXNlcjpwYXNz"},
		{name: "bearer api key", authorization: "Bearer sk-plain-api-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Authenticate(context.Background(), request(t, tt.authorization))
			if result.Decision != auth.Abstain {
				t.Errorf("Decision = %d, want Abstain", result.Decision)
			}
		})
	}
}

func TestAuthenticateAudience(t *testing.T) {
	a := New(Config{Secret: testSecret, Audience: "strom-api"})

	good := validClaims()
	good["aud"] = "strom-api"
	result := a.Authenticate(context.Background(), request(t, "Bearer "+signToken(t, testSecret, good)))
	if result.Decision != auth.Yes {
		t.Errorf("matching audience: Decision = %d, want Yes (err: %v)", result.Decision, result.Err)
	}

	bad := validClaims()
	bad["aud"] = "other-api"
	result = a.Authenticate(context.Background(), request(t, "Bearer "+signToken(t, testSecret, bad)))
	if result.Decision != auth.No {
		t.Errorf("wrong audience: Decision = %d, want No", result.Decision)
	}
}
