package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/homepulse/homepulse/internal/api/respond"
	"github.com/homepulse/homepulse/internal/hass"
	"github.com/homepulse/homepulse/internal/model"
)

var validPriorities = map[string]bool{
	"critical": true,
	"normal":   true,
	"low":      true,
	"ignore":   true,
}

func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	status := s.ha.CheckConnection(r.Context())
	code := http.StatusOK
	if !status.Connected {
		code = http.StatusServiceUnavailable
	}
	respond.WriteJSON(w, code, status)
}

// DiscoveredEntity is a Home Assistant entity with its suggested
// monitoring configuration.
type DiscoveredEntity struct {
	EntityID          string `json:"entityId"`
	FriendlyName      string `json:"friendlyName"`
	Domain            string `json:"domain"`
	Category          string `json:"category"`
	SuggestedPriority string `json:"suggestedPriority"`
	State             string `json:"state"`
}

func (s *Server) discover(r *http.Request) ([]DiscoveredEntity, error) {
	states, err := s.ha.GetAllStates(r.Context())
	if err != nil {
		return nil, err
	}

	discovered := make([]DiscoveredEntity, 0, len(states))
	for i := range states {
		st := &states[i]
		category := hass.Categorize(st)
		discovered = append(discovered, DiscoveredEntity{
			EntityID:          st.EntityID,
			FriendlyName:      st.FriendlyName(),
			Domain:            st.Domain(),
			Category:          category,
			SuggestedPriority: hass.DeterminePriority(st, category),
			State:             st.State,
		})
	}
	return discovered, nil
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	discovered, err := s.discover(r)
	if err != nil {
		respond.WriteInternalError(w, "failed to fetch states from Home Assistant")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entities": discovered,
		"count":    len(discovered),
	})
}

// handleAutoConfigure discovers entities and registers everything whose
// suggested priority is not ignore.
func (s *Server) handleAutoConfigure(w http.ResponseWriter, r *http.Request) {
	discovered, err := s.discover(r)
	if err != nil {
		respond.WriteInternalError(w, "failed to fetch states from Home Assistant")
		return
	}

	configured := 0
	for _, d := range discovered {
		if d.SuggestedPriority == "ignore" {
			continue
		}
		entity := &model.MonitoredEntity{
			EntityID:     d.EntityID,
			FriendlyName: d.FriendlyName,
			Domain:       d.Domain,
			Category:     d.Category,
			Priority:     d.SuggestedPriority,
		}
		if err := s.store.Entities().Upsert(r.Context(), entity); err != nil {
			respond.WriteInternalError(w, "failed to save entities")
			return
		}
		configured++
	}

	s.log.Info().Int("configured", configured).Int("discovered", len(discovered)).Msg("entities auto-configured")
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"configured": configured,
		"discovered": len(discovered),
	})
}

func (s *Server) handleEntitiesSave(w http.ResponseWriter, r *http.Request) {
	var entities []model.MonitoredEntity
	if err := json.NewDecoder(r.Body).Decode(&entities); err != nil {
		respond.WriteBadRequest(w, "expected a JSON array of entities")
		return
	}
	for i := range entities {
		e := &entities[i]
		if e.EntityID == "" {
			respond.WriteBadRequest(w, "entityId is required")
			return
		}
		if !validPriorities[e.Priority] {
			respond.WriteBadRequest(w, "priority must be critical, normal, low, or ignore")
			return
		}
		if err := s.store.Entities().Upsert(r.Context(), e); err != nil {
			respond.WriteInternalError(w, "failed to save entities")
			return
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]int{"saved": len(entities)})
}

func (s *Server) handleEntitiesList(w http.ResponseWriter, r *http.Request) {
	excludeIgnored := r.URL.Query().Get("all") != "true"
	entities, err := s.store.Entities().List(r.Context(), excludeIgnored)
	if err != nil {
		respond.WriteInternalError(w, "failed to list entities")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entities": entities,
		"count":    len(entities),
	})
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

func (s *Server) handleSetPriority(w http.ResponseWriter, r *http.Request) {
	entityID := mux.Vars(r)["entityId"]
	var req priorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if !validPriorities[req.Priority] {
		respond.WriteBadRequest(w, "priority must be critical, normal, low, or ignore")
		return
	}

	if err := s.store.Entities().SetPriority(r.Context(), entityID, req.Priority); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "entity not found")
			return
		}
		respond.WriteInternalError(w, "failed to update priority")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{
		"entityId": entityID,
		"priority": req.Priority,
	})
}

func (s *Server) handleEntityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Entities().CategoryStats(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "failed to load entity stats")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": stats})
}
