// Package api exposes the HTTP surface: digest generation and browsing,
// warning dismissals, user notes, household profile, entity discovery,
// and collector control.
package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/homepulse/homepulse/internal/collector"
	"github.com/homepulse/homepulse/internal/config"
	"github.com/homepulse/homepulse/internal/digest"
	"github.com/homepulse/homepulse/internal/hass"
	"github.com/homepulse/homepulse/internal/model"
	"github.com/homepulse/homepulse/internal/scheduler"
	"github.com/homepulse/homepulse/internal/store"
)

// DigestService is the digest surface the API needs.
type DigestService interface {
	Generate(ctx context.Context, t model.DigestType) (*model.DigestRecord, error)
	Status(ctx context.Context, hour, minute int, digestTime string, apiConfigured bool) (*digest.Status, error)
}

// CollectorService controls on-demand snapshot collection.
type CollectorService interface {
	Collect(ctx context.Context) (*collector.Result, error)
	Cleanup(ctx context.Context) (int, error)
	Status(ctx context.Context) (*collector.Status, error)
}

// SchedulerControl starts and stops the cron schedule.
type SchedulerControl interface {
	Start(ctx context.Context) error
	Stop()
	Status() scheduler.Status
}

// StateSource is the Home Assistant surface used for discovery and
// connection checks.
type StateSource interface {
	GetAllStates(ctx context.Context) ([]hass.EntityState, error)
	CheckConnection(ctx context.Context) *hass.ConnectionStatus
}

// DigestNotifier delivers digest and test notifications.
type DigestNotifier interface {
	SendDigest(ctx context.Context, d *model.DigestRecord) error
	SendTest(ctx context.Context) error
}

// Server holds the handler dependencies.
type Server struct {
	cfg       *config.Config
	store     store.Store
	ha        StateSource
	digests   DigestService
	collector CollectorService
	scheduler SchedulerControl
	notifier  DigestNotifier
	log       zerolog.Logger
}

// NewServer wires the HTTP handlers.
func NewServer(cfg *config.Config, st store.Store, ha StateSource, digests DigestService, col CollectorService, sched SchedulerControl, notifier DigestNotifier, log zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		ha:        ha,
		digests:   digests,
		collector: col,
		scheduler: sched,
		notifier:  notifier,
		log:       log,
	}
}
