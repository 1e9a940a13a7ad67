package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notes-api/db"
	"notes-api/middleware"
	"notes-api/models"
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// notePatch distinguishes absent fields from empty ones; only fields
// present and non-empty are applied.
type notePatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *Handler) GetNotes(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	notes, err := h.Store.ListNotesByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error fetching notes")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "Please provide title and content for the note")
		return
	}

	note, err := h.Store.CreateNote(r.Context(), user.ID, req.Title, req.Content)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error creating note")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.loadOwnedNote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.loadOwnedNote(w, r)
	if !ok {
		return
	}

	var patch notePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patch.Title != nil && *patch.Title != "" {
		note.Title = *patch.Title
	}
	if patch.Content != nil && *patch.Content != "" {
		note.Content = *patch.Content
	}

	err := h.Store.UpdateNote(r.Context(), note)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error updating note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.loadOwnedNote(w, r)
	if !ok {
		return
	}

	err := h.Store.DeleteNote(r.Context(), note.ID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error deleting note")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note removed successfully"})
}

// loadOwnedNote fetches the note addressed by the URL and enforces
// ownership. A malformed or unknown id reports 404; a note owned by
// someone else reports 403 without leaking its contents.
func (h *Handler) loadOwnedNote(w http.ResponseWriter, r *http.Request) (*models.Note, bool) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return nil, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Note not found")
		return nil, false
	}

	note, err := h.Store.GetNoteByID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Note not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error fetching note")
		return nil, false
	}

	if note.UserID != user.ID {
		writeError(w, http.StatusForbidden, "Not authorized to access this note")
		return nil, false
	}
	return note, true
}
