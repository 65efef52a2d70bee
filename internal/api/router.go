package api

import (
	"github.com/gorilla/mux"

	"github.com/homepulse/homepulse/internal/api/recovery"
)

// Router builds the HTTP route table. Literal digest paths are registered
// before the /{id} catch-all so they match first.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/api/status", s.handleStatus).Methods("GET")

	// Digests
	router.HandleFunc("/api/digest/status", s.handleDigestStatus).Methods("GET")
	router.HandleFunc("/api/digest/generate", s.handleDigestGenerate).Methods("POST")
	router.HandleFunc("/api/digest/generate-and-notify", s.handleDigestGenerateAndNotify).Methods("POST")
	router.HandleFunc("/api/digest/list", s.handleDigestList).Methods("GET")
	router.HandleFunc("/api/digest/latest", s.handleDigestLatest).Methods("GET")
	router.HandleFunc("/api/digest/test-notification", s.handleTestNotification).Methods("POST")

	// Dismissed warnings
	router.HandleFunc("/api/digest/warnings/dismissed", s.handleWarningsList).Methods("GET")
	router.HandleFunc("/api/digest/warnings/dismiss", s.handleWarningDismiss).Methods("POST")
	router.HandleFunc("/api/digest/warnings/restore", s.handleWarningRestore).Methods("POST")

	// User notes
	router.HandleFunc("/api/digest/notes", s.handleNotesList).Methods("GET")
	router.HandleFunc("/api/digest/note", s.handleNoteCreate).Methods("POST")
	router.HandleFunc("/api/digest/note/{id}", s.handleNoteUpdate).Methods("PUT")
	router.HandleFunc("/api/digest/note/{id}", s.handleNoteDelete).Methods("DELETE")

	router.HandleFunc("/api/digest/{id}", s.handleDigestGet).Methods("GET")

	// Collector
	router.HandleFunc("/api/collector/status", s.handleCollectorStatus).Methods("GET")
	router.HandleFunc("/api/collector/collect", s.handleCollect).Methods("POST")
	router.HandleFunc("/api/collector/cleanup", s.handleCleanup).Methods("POST")
	router.HandleFunc("/api/collector/scheduler/start", s.handleSchedulerStart).Methods("POST")
	router.HandleFunc("/api/collector/scheduler/stop", s.handleSchedulerStop).Methods("POST")
	router.HandleFunc("/api/collector/snapshots/{entityId}", s.handleSnapshots).Methods("GET")

	// Household profile
	router.HandleFunc("/api/profile/questions", s.handleProfileQuestions).Methods("GET")
	router.HandleFunc("/api/profile/status", s.handleProfileStatus).Methods("GET")
	router.HandleFunc("/api/profile", s.handleProfileGet).Methods("GET")
	router.HandleFunc("/api/profile", s.handleProfileSet).Methods("POST")
	router.HandleFunc("/api/profile", s.handleProfileClear).Methods("DELETE")

	// Entities
	router.HandleFunc("/api/entities/connection", s.handleConnection).Methods("GET")
	router.HandleFunc("/api/entities/discover", s.handleDiscover).Methods("GET")
	router.HandleFunc("/api/entities/auto-configure", s.handleAutoConfigure).Methods("POST")
	router.HandleFunc("/api/entities/save", s.handleEntitiesSave).Methods("POST")
	router.HandleFunc("/api/entities/stats", s.handleEntityStats).Methods("GET")
	router.HandleFunc("/api/entities/{entityId}/priority", s.handleSetPriority).Methods("POST")
	router.HandleFunc("/api/entities", s.handleEntitiesList).Methods("GET")

	return router
}
