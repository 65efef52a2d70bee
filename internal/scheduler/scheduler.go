// Package scheduler drives periodic snapshot collection, nightly cleanup,
// and daily/weekly digest generation via cron.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/homepulse/homepulse/internal/collector"
	"github.com/homepulse/homepulse/internal/model"
)

// SnapshotRunner is the collector surface the scheduler drives.
type SnapshotRunner interface {
	Collect(ctx context.Context) (*collector.Result, error)
	Cleanup(ctx context.Context) (int, error)
}

// DigestRunner generates one digest.
type DigestRunner interface {
	Generate(ctx context.Context, t model.DigestType) (*model.DigestRecord, error)
}

// DigestNotifier delivers a digest notification.
type DigestNotifier interface {
	SendDigest(ctx context.Context, digest *model.DigestRecord) error
}

// Config holds the schedule parameters.
type Config struct {
	SnapshotIntervalMinutes int
	DigestHour              int
	DigestMinute            int
	WeeklyDigestEnabled     bool
}

// Scheduler owns the cron instance. Jobs are fire-and-forget relative to
// their triggers; the collector's own guard prevents overlapping runs.
type Scheduler struct {
	cfg       Config
	collector SnapshotRunner
	digests   DigestRunner
	notifier  DigestNotifier
	log       zerolog.Logger

	mu      sync.Mutex
	cron    *rcron.Cron
	running bool
}

// New builds a stopped scheduler.
func New(cfg Config, col SnapshotRunner, digests DigestRunner, notifier DigestNotifier, log zerolog.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, collector: col, digests: digests, notifier: notifier, log: log}
}

// Start registers the cron jobs and runs an initial collection after a
// short delay. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Debug().Msg("scheduler already running")
		return nil
	}

	c := rcron.New()

	snapshotExpr := fmt.Sprintf("*/%d * * * *", s.cfg.SnapshotIntervalMinutes)
	if _, err := c.AddFunc(snapshotExpr, func() { s.runCollection(ctx) }); err != nil {
		return fmt.Errorf("schedule snapshots: %w", err)
	}

	if _, err := c.AddFunc("0 3 * * *", func() { s.runCleanup(ctx) }); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}

	dailyExpr := fmt.Sprintf("%d %d * * *", s.cfg.DigestMinute, s.cfg.DigestHour)
	if _, err := c.AddFunc(dailyExpr, func() { s.runDigest(ctx, model.DigestDaily) }); err != nil {
		return fmt.Errorf("schedule daily digest: %w", err)
	}

	if s.cfg.WeeklyDigestEnabled {
		weeklyExpr := fmt.Sprintf("%d %d * * 1", s.cfg.DigestMinute, s.cfg.DigestHour)
		if _, err := c.AddFunc(weeklyExpr, func() { s.runDigest(ctx, model.DigestWeekly) }); err != nil {
			return fmt.Errorf("schedule weekly digest: %w", err)
		}
	}

	c.Start()
	s.cron = c
	s.running = true
	s.log.Info().
		Int("snapshot_interval_minutes", s.cfg.SnapshotIntervalMinutes).
		Str("daily_digest", dailyExpr).
		Bool("weekly_enabled", s.cfg.WeeklyDigestEnabled).
		Msg("scheduler started")

	// Prime the snapshot store shortly after startup.
	go func() {
		select {
		case <-time.After(5 * time.Second):
			s.runCollection(ctx)
		case <-ctx.Done():
		}
	}()
	return nil
}

// Stop halts the cron instance, waiting for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.running = false
	s.log.Info().Msg("scheduler stopped")
}

// Status reports the schedule configuration.
type Status struct {
	Running                 bool   `json:"running"`
	SnapshotIntervalMinutes int    `json:"snapshotIntervalMinutes"`
	DigestTime              string `json:"digestTime"`
	WeeklyDigestEnabled     bool   `json:"weeklyDigestEnabled"`
}

// Status returns the current schedule state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:                 s.running,
		SnapshotIntervalMinutes: s.cfg.SnapshotIntervalMinutes,
		DigestTime:              fmt.Sprintf("%02d:%02d", s.cfg.DigestHour, s.cfg.DigestMinute),
		WeeklyDigestEnabled:     s.cfg.WeeklyDigestEnabled,
	}
}

func (s *Scheduler) runCollection(ctx context.Context) {
	result, err := s.collector.Collect(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled snapshot collection failed")
		return
	}
	if !result.Skipped {
		s.log.Info().Int("collected", result.Collected).Msg("scheduled snapshot collection complete")
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	deleted, err := s.collector.Cleanup(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled cleanup failed")
		return
	}
	s.log.Info().Int("deleted", deleted).Msg("scheduled cleanup complete")
}

func (s *Scheduler) runDigest(ctx context.Context, t model.DigestType) {
	digest, err := s.digests.Generate(ctx, t)
	if err != nil {
		s.log.Error().Err(err).Str("type", string(t)).Msg("scheduled digest generation failed")
		return
	}
	if err := s.notifier.SendDigest(ctx, digest); err != nil {
		s.log.Warn().Err(err).Str("digest_id", digest.ID).Msg("digest notification failed")
	}
}
