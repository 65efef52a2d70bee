package api

import (
	"encoding/json"
	"net/http"

	"github.com/homepulse/homepulse/internal/api/respond"
	"github.com/homepulse/homepulse/internal/model"
)

// ProfileQuestion is one setup questionnaire item. Answers are stored
// verbatim under the question ID.
type ProfileQuestion struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Hint     string `json:"hint,omitempty"`
	Required bool   `json:"required"`
}

var profileQuestions = []ProfileQuestion{
	{ID: "occupants", Question: "Who lives in the home?", Hint: "e.g. 2 adults, 1 child, a dog", Required: true},
	{ID: "schedule", Question: "What does a typical day look like?", Hint: "work hours, wake/sleep times, who is home during the day", Required: true},
	{ID: "priorities", Question: "What do you care most about?", Hint: "e.g. energy costs, security, comfort, automation reliability", Required: true},
	{ID: "home_type", Question: "What kind of home is it?", Hint: "apartment, house, size, heating type"},
	{ID: "concerns", Question: "Anything you are currently worried about?", Hint: "e.g. a flaky sensor, high heating bill"},
}

func (s *Server) handleProfileQuestions(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"questions": profileQuestions})
}

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.Profile().Get(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "failed to load profile")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profile":  profile,
		"complete": profile.Complete(),
	})
}

func (s *Server) handleProfileSet(w http.ResponseWriter, r *http.Request) {
	var values model.Profile
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if len(values) == 0 {
		respond.WriteBadRequest(w, "profile must contain at least one field")
		return
	}

	if err := s.store.Profile().Set(r.Context(), values); err != nil {
		respond.WriteInternalError(w, "failed to save profile")
		return
	}

	profile, err := s.store.Profile().Get(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "failed to load profile")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profile":  profile,
		"complete": profile.Complete(),
	})
}

func (s *Server) handleProfileClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Profile().Clear(r.Context()); err != nil {
		respond.WriteInternalError(w, "failed to clear profile")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleProfileStatus(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.Profile().Get(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "failed to load profile")
		return
	}
	missing := []string{}
	for _, q := range profileQuestions {
		if q.Required && profile.Field(q.ID) == "" {
			missing = append(missing, q.ID)
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"complete": profile.Complete(),
		"answered": len(profile),
		"missing":  missing,
	})
}
