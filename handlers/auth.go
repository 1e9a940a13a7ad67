package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"notes-api/auth"
	"notes-api/db"
	"notes-api/middleware"
)

const minPasswordLength = 6

type Handler struct {
	Store  *db.Store
	Hasher auth.PasswordHasher
	Tokens *auth.TokenManager
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	Token     string    `json:"token"`
}

type profileResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide username and password")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	// Pre-check for a friendlier error; the unique constraint on username
	// is what actually closes the race between concurrent signups.
	if _, err := h.Store.GetUserByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Server error during signup")
		return
	}

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error during signup")
		return
	}

	user, err := h.Store.CreateUser(r.Context(), req.Username, hash)
	if errors.Is(err, db.ErrDuplicateUsername) {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error during signup")
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error during signup")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		Token:     token,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide username and password")
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), req.Username)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error during login")
		return
	}
	if !h.Hasher.Verify(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		Token:     token,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	})
}
