package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/medtrack/pharmacy-portal/pkg/auth"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
	RoleKey     contextKey = "role"
	BranchIDKey contextKey = "branch_id"
)

// AuthMiddleware validates the session token and places the trusted
// identity (user id, role, branch scope) on the request context.
func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		ctx = context.WithValue(ctx, BranchIDKey, claims.BranchID)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// UserIDFromContext extracts the authenticated user id, 0 when absent.
func UserIDFromContext(ctx context.Context) uint {
	id, _ := ctx.Value(UserIDKey).(uint)
	return id
}

// BranchIDFromContext extracts the session branch scope, 0 when absent.
func BranchIDFromContext(ctx context.Context) uint {
	id, _ := ctx.Value(BranchIDKey).(uint)
	return id
}

// Helper function for error responses
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
