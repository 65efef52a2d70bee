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

const defaultDigestListLimit = 30

type generateRequest struct {
	Type model.DigestType `json:"type"`
}

func digestTypeFromRequest(r *http.Request) (model.DigestType, error) {
	var req generateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", errors.New("invalid JSON body")
		}
	}
	switch req.Type {
	case "":
		return model.DigestOnDemand, nil
	case model.DigestDaily, model.DigestWeekly, model.DigestOnDemand:
		return req.Type, nil
	default:
		return "", errors.New("type must be daily, weekly, or on_demand")
	}
}

func (s *Server) generateDigest(w http.ResponseWriter, r *http.Request) *model.DigestRecord {
	t, err := digestTypeFromRequest(r)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return nil
	}

	record, err := s.digests.Generate(r.Context(), t)
	if err != nil {
		if errors.Is(err, model.ErrDigestInProgress) {
			respond.WriteConflict(w, "digest generation already in progress")
			return nil
		}
		s.log.Error().Err(err).Str("type", string(t)).Msg("digest generation failed")
		respond.WriteInternalError(w, err.Error())
		return nil
	}
	return record
}

func (s *Server) handleDigestGenerate(w http.ResponseWriter, r *http.Request) {
	record := s.generateDigest(w, r)
	if record == nil {
		return
	}
	respond.WriteJSON(w, http.StatusCreated, record)
}

func (s *Server) handleDigestGenerateAndNotify(w http.ResponseWriter, r *http.Request) {
	record := s.generateDigest(w, r)
	if record == nil {
		return
	}

	notified := true
	if err := s.notifier.SendDigest(r.Context(), record); err != nil {
		s.log.Warn().Err(err).Str("digest_id", record.ID).Msg("digest notification failed")
		notified = false
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"digest":   record,
		"notified": notified,
	})
}

func (s *Server) handleDigestList(w http.ResponseWriter, r *http.Request) {
	limit := defaultDigestListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respond.WriteBadRequest(w, "limit must be within [1,100]")
			return
		}
		limit = n
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "offset must be >= 0")
			return
		}
		offset = n
	}

	digests, err := s.store.Digests().List(r.Context(), limit, offset)
	if err != nil {
		respond.WriteInternalError(w, "failed to list digests")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"digests": digests,
		"count":   len(digests),
	})
}

func (s *Server) handleDigestLatest(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.Digests().Latest(r.Context())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "no digests generated yet")
			return
		}
		respond.WriteInternalError(w, "failed to load digest")
		return
	}
	respond.WriteJSON(w, http.StatusOK, record)
}

func (s *Server) handleDigestGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	record, err := s.store.Digests().Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "digest not found")
			return
		}
		respond.WriteInternalError(w, "failed to load digest")
		return
	}
	respond.WriteJSON(w, http.StatusOK, record)
}

func (s *Server) handleDigestStatus(w http.ResponseWriter, r *http.Request) {
	hour, minute, err := s.cfg.DigestClock()
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	status, err := s.digests.Status(r.Context(), hour, minute, s.cfg.DigestTime, s.cfg.GeminiAPIKey != "")
	if err != nil {
		respond.WriteInternalError(w, "failed to load digest status")
		return
	}
	respond.WriteJSON(w, http.StatusOK, status)
}

func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.notifier.SendTest(r.Context()); err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
