package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"notes-api/auth"
	"notes-api/db"
	"notes-api/models"
)

type contextKey int

const userKey contextKey = 0

type Auth struct {
	Tokens *auth.TokenManager
	Store  *db.Store
}

// RequireAuth verifies the bearer token on the request and resolves the
// embedded user id against the credential store. On any failure the request
// is short-circuited with 401; on success the resolved user is attached to
// the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "Authorization header missing")
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == header {
			unauthorized(w, "Invalid token format")
			return
		}

		userID, err := a.Tokens.Verify(tokenStr)
		if err != nil {
			log.Printf("Auth middleware: token verification failed: %v", err)
			unauthorized(w, "Not authorized, token failed")
			return
		}

		user, err := a.Store.GetUserByID(r.Context(), userID)
		if err != nil {
			unauthorized(w, "Not authorized, user not found")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFrom returns the user attached by RequireAuth, if any.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
