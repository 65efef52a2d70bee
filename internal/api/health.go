package api

import (
	"net/http"

	"github.com/homepulse/homepulse/internal/api/respond"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleStatus aggregates the overall service state for the dashboard.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	connection := s.ha.CheckConnection(ctx)

	collectorStatus, err := s.collector.Status(ctx)
	if err != nil {
		respond.WriteInternalError(w, "failed to load collector status")
		return
	}

	profile, err := s.store.Profile().Get(ctx)
	if err != nil {
		respond.WriteInternalError(w, "failed to load profile")
		return
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"service":         "homepulse",
		"connection":      connection,
		"collector":       collectorStatus,
		"scheduler":       s.scheduler.Status(),
		"profileComplete": profile.Complete(),
		"apiConfigured":   s.cfg.GeminiAPIKey != "",
	})
}
