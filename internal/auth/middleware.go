package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey is unexported so other packages cannot collide with or
// forge the authenticated-user value.
type contextKey struct{}

var userIDKey = contextKey{}

// CookieName is the session cookie used by browser clients that prefer
// cookies over the Authorization header.
const CookieName = "verbo_session"

// RequireAuth returns middleware that rejects requests lacking a valid
// session token. The token is read from "Authorization: Bearer <jwt>"
// first, then from the session cookie, so both SPA fetch calls and
// plain browser navigation work. On success the user ID is stored on
// the request context for handlers to read via UserIDFromContext.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				if c, err := r.Cookie(CookieName); err == nil {
					raw = c.Value
				}
			}
			if raw == "" {
				writeUnauthorized(w, "authentication required")
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				writeUnauthorized(w, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized emits the same JSON error shape the handler package
// uses, so 401s from the middleware parse like every other error.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "not_authenticated",
		"message": message,
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserIDFromContext returns the authenticated user's ID, or "" when the
// request did not pass through RequireAuth.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
