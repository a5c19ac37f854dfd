package middleware

import (
	"net/http"
	"strings"
)

// PasswordChecker is satisfied by auth.Gate.
type PasswordChecker interface {
	Enabled() bool
	Check(password string) bool
}

// ReadPassword takes the access password from X-Access-Password or a
// bearer Authorization header.
func ReadPassword(r *http.Request) string {
	if p := r.Header.Get("X-Access-Password"); p != "" {
		return strings.TrimSpace(p)
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequirePassword rejects requests without the access password.
// If no password is configured, it allows all requests (handy for local dev).
func RequirePassword(gate PasswordChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if gate == nil || !gate.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate.Check(ReadPassword(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		})
	}
}
