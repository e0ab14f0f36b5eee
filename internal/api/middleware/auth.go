package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/token"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware handles bearer token verification for authenticated
// endpoints.
type AuthMiddleware struct {
	store    store.DataStore
	verifier *token.Verifier
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(st store.DataStore, verifier *token.Verifier) *AuthMiddleware {
	return &AuthMiddleware{store: st, verifier: verifier}
}

// RequireAuth verifies the Authorization bearer token and loads the
// user it names into the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			jsonError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			jsonError(w, http.StatusUnauthorized, "authorization header must be a bearer token")
			return
		}

		userID, err := m.verifier.Verify(raw)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := m.store.FindUserByID(r.Context(), userID)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetUserFromContext retrieves the authenticated user from the request context.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
