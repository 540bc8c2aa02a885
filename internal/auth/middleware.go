package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// errNoToken is returned when a request carries no usable Authorization header.
var errNoToken = errors.New("auth: missing bearer token")

// contextKey is an unexported type used for context keys in this package.
//
// context.WithValue takes any key. With a plain string key like "userID",
// any package knowing the string could read or shadow the value. A
// package-private type means only this package can mint keys, so only this
// package can put userIDs into a context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces bearer-token authentication on protected routes.
//
// Clients send the token issued at login in the standard header:
//
//	Authorization: Bearer <jwt>
//
// The middleware validates it and stores the userID in the request context
// for handlers to read via UserIDFromContext. A missing, malformed, expired,
// or tampered token stops the chain with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"result":"Failed","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) when the request carried no valid token.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads and validates the bearer token from the Authorization
// header. strings.CutPrefix keeps the scheme check case-exact: "Bearer " is
// the registered scheme spelling and what our clients send.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", errNoToken
	}

	return tokens.Validate(raw)
}
