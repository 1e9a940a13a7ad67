package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"notes-api/auth"
	"notes-api/db"
)

func newTestAuth(t *testing.T) (*Auth, *db.Store) {
	t.Helper()
	store, err := db.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tokens := auth.NewTokenManager([]byte("test-secret"), time.Hour)
	return &Auth{Tokens: tokens, Store: store}, store
}

func echoUserHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok {
			http.Error(w, "user missing from context", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(strconv.FormatInt(user.ID, 10)))
	})
}

func TestRequireAuth(t *testing.T) {
	a, store := newTestAuth(t)
	handler := a.RequireAuth(echoUserHandler())

	user, err := store.CreateUser(context.Background(), "alice", "hash")
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		token, _ := a.Tokens.Issue(user.ID)
		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
		}
		if got := rr.Body.String(); got != strconv.FormatInt(user.ID, 10) {
			t.Errorf("handler saw user %q, want %d", got, user.ID)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/notes", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("missing bearer prefix", func(t *testing.T) {
		token, _ := a.Tokens.Issue(user.ID)
		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("Authorization", token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewTokenManager([]byte("test-secret"), -time.Hour)
		token, _ := expired.Issue(user.ID)
		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		forged := auth.NewTokenManager([]byte("other-secret"), time.Hour)
		token, _ := forged.Issue(user.ID)
		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("valid token for missing user", func(t *testing.T) {
		token, _ := a.Tokens.Issue(99999)
		req := httptest.NewRequest("GET", "/api/notes", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
		}
	})
}
