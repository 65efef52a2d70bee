package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/homepulse/homepulse/internal/api/respond"
)

func (s *Server) handleCollectorStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.collector.Status(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "failed to load collector status")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"collector": status,
		"scheduler": s.scheduler.Status(),
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	result, err := s.collector.Collect(r.Context())
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	if result.Skipped {
		respond.WriteConflict(w, "collection already in progress")
		return
	}
	respond.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.collector.Cleanup(r.Context())
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	// The schedule must outlive this request.
	if err := s.scheduler.Start(context.Background()); err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	s.scheduler.Stop()
	respond.WriteJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	entityID := mux.Vars(r)["entityId"]

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 24*30 {
			respond.WriteBadRequest(w, "hours must be within [1,720]")
			return
		}
		hours = n
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)
	snapshots, err := s.store.Snapshots().Range(r.Context(), entityID, start, end)
	if err != nil {
		respond.WriteInternalError(w, "failed to load snapshots")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entityId":  entityID,
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}
