package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/homepulse/homepulse/internal/api/respond"
	"github.com/homepulse/homepulse/internal/model"
)

type dismissRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleWarningDismiss(w http.ResponseWriter, r *http.Request) {
	var req dismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		respond.WriteBadRequest(w, "title is required")
		return
	}

	key := model.WarningKey(req.Title)
	if key == "" {
		respond.WriteBadRequest(w, "title produces an empty warning key")
		return
	}
	if err := s.store.Dismissals().Dismiss(r.Context(), key, req.Title); err != nil {
		respond.WriteInternalError(w, "failed to dismiss warning")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"warningKey": key})
}

type restoreRequest struct {
	WarningKey string `json:"warningKey"`
	Title      string `json:"title"`
}

func (s *Server) handleWarningRestore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	key := req.WarningKey
	if key == "" && req.Title != "" {
		key = model.WarningKey(req.Title)
	}
	if key == "" {
		respond.WriteBadRequest(w, "warningKey or title is required")
		return
	}

	if err := s.store.Dismissals().Restore(r.Context(), key); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "warning is not dismissed")
			return
		}
		respond.WriteInternalError(w, "failed to restore warning")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"warningKey": key})
}

func (s *Server) handleWarningsList(w http.ResponseWriter, r *http.Request) {
	warnings, err := s.store.Dismissals().List(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "failed to list dismissed warnings")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dismissed": warnings,
		"count":     len(warnings),
	})
}
