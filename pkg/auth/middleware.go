package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware creates HTTP middleware from an AuthChain. It checks the bypass
// list, runs authentication, and injects the identity into the context.
//
// Bypass entries ending in "/" match as path prefixes, everything else
// matches exactly.
func Middleware(chain *AuthChain, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	var bypassPrefixes []string
	for _, ep := range bypassEndpoints {
		if strings.HasSuffix(ep, "/") {
			bypassPrefixes = append(bypassPrefixes, ep)
			continue
		}
		bypass[ep] = true
	}

	bypassed := func(path string) bool {
		if bypass[path] {
			return true
		}
		for _, prefix := range bypassPrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypassed(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			if result.Decision == No {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				writeUnauthorized(w)
				return
			}

			if result.Decision != Yes || result.Identity == nil {
				writeUnauthorized(w)
				return
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				http.Error(w, `{"error":{"message":"internal authentication error"}}`, http.StatusInternalServerError)
				return
			}

			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"method", result.Identity.Method,
				"path", r.URL.Path,
			)

			ctx := SetIdentity(r.Context(), result.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"message":"authentication required"}}`))
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
// Browsers fetch image links without Authorization headers, so /images/
// matches as a prefix.
var DefaultBypassEndpoints = []string{"/healthz", "/metrics", "/images/"}
