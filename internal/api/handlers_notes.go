package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/homepulse/homepulse/internal/api/respond"
	"github.com/homepulse/homepulse/internal/model"
)

type noteRequest struct {
	Title string `json:"title"`
	Note  string `json:"note"`
}

func (s *Server) handleNoteCreate(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.Title == "" || req.Note == "" {
		respond.WriteBadRequest(w, "title and note are required")
		return
	}

	note, err := s.store.Notes().Add(r.Context(), req.Title, req.Note)
	if err != nil {
		respond.WriteInternalError(w, "failed to save note")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, note)
}

func (s *Server) handleNotesList(w http.ResponseWriter, r *http.Request) {
	notes, err := s.store.Notes().List(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "failed to list notes")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notes": notes,
		"count": len(notes),
	})
}

func noteID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (s *Server) handleNoteUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		respond.WriteBadRequest(w, "invalid note id")
		return
	}
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Note == "" {
		respond.WriteBadRequest(w, "note is required")
		return
	}

	if err := s.store.Notes().Update(r.Context(), id, req.Note); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "note not found")
			return
		}
		respond.WriteInternalError(w, "failed to update note")
		return
	}
	note, err := s.store.Notes().Get(r.Context(), id)
	if err != nil {
		respond.WriteInternalError(w, "failed to load note")
		return
	}
	respond.WriteJSON(w, http.StatusOK, note)
}

func (s *Server) handleNoteDelete(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		respond.WriteBadRequest(w, "invalid note id")
		return
	}
	if err := s.store.Notes().Delete(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "note not found")
			return
		}
		respond.WriteInternalError(w, "failed to delete note")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
