/*
auth.go - JWT bearer authentication middleware

PURPOSE:
  Gates /api/* behind an HS256 bearer token when a signing secret is
  configured. With no secret (local development) the router skips this
  middleware entirely and the API is open.

TOKEN SHAPE:
  Standard JWT with HS256 signature. The subject claim, when present,
  is attached to the request context as the acting user.

SEE ALSO:
  - server.go: conditionally installs this middleware
  - config/config.go: JWT_SECRET
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// userContextKey is a custom type for the context key to avoid collisions.
type userContextKey string

const actingUserKey userContextKey = "actingUser"

// ActingUser returns the authenticated subject from the request context,
// or "" when the API runs unauthenticated.
func ActingUser(ctx context.Context) string {
	user, _ := ctx.Value(actingUserKey).(string)
	return user
}

// RequireAuth creates a middleware that validates HS256 bearer tokens.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required", nil)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format", nil)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "Invalid token", err)
				return
			}

			ctx := r.Context()
			if subject, err := token.Claims.GetSubject(); err == nil && subject != "" {
				ctx = context.WithValue(ctx, actingUserKey, subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
