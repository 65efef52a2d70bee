// Package digest generates daily/weekly health digests: it gathers
// telemetry and health reports, composes a prompt, calls the generation
// endpoint, normalizes the response, and persists the result.
package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/homepulse/homepulse/internal/genai"
	"github.com/homepulse/homepulse/internal/model"
	"github.com/homepulse/homepulse/internal/store"
)

// Collectors is the health-report surface of the Home Assistant client.
type Collectors interface {
	AddonReport(ctx context.Context) (*model.AddonReport, error)
	AutomationReport(ctx context.Context) (*model.AutomationReport, error)
	IntegrationReport(ctx context.Context) (*model.IntegrationReport, error)
	LogReport(ctx context.Context) (*model.LogReport, error)
	UpdateReport(ctx context.Context) (*model.UpdateReport, error)
	FailedAutomations(ctx context.Context, now time.Time) (*model.FailedAutomationsReport, error)
}

// Service orchestrates digest generation. A per-type in-flight guard
// rejects overlapping generations of the same digest type.
type Service struct {
	store      store.Store
	collectors Collectors
	generator  genai.Generator
	log        zerolog.Logger

	now func() time.Time

	mu       sync.Mutex
	inFlight map[model.DigestType]bool
}

// NewService wires the digest pipeline.
func NewService(st store.Store, collectors Collectors, generator genai.Generator, log zerolog.Logger) *Service {
	return &Service{
		store:      st,
		collectors: collectors,
		generator:  generator,
		log:        log,
		now:        time.Now,
		inFlight:   make(map[model.DigestType]bool),
	}
}

func (s *Service) acquire(t model.DigestType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[t] {
		return model.ErrDigestInProgress
	}
	s.inFlight[t] = true
	return nil
}

func (s *Service) release(t model.DigestType) {
	s.mu.Lock()
	s.inFlight[t] = false
	s.mu.Unlock()
}

// Generate produces and persists one digest of the given type. A failure
// at any stage persists nothing.
func (s *Service) Generate(ctx context.Context, t model.DigestType) (*model.DigestRecord, error) {
	if err := s.acquire(t); err != nil {
		return nil, err
	}
	defer s.release(t)

	now := s.now()
	start, end := t.Window(now)

	profile, err := s.store.Profile().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	entities, err := s.store.Entities().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	categoryStats, err := s.store.Entities().CategoryStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category stats: %w", err)
	}
	rows, err := s.store.Snapshots().ForAnalysis(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	reports := s.gatherReports(ctx, now)

	dismissed, err := s.store.Dismissals().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dismissed warnings: %w", err)
	}
	notes, err := s.store.Notes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}

	prompt := ComposePrompt(PromptInput{
		Type:               t,
		Profile:            profile,
		Entities:           entities,
		CategoryStats:      categoryStats,
		Rows:               rows,
		AddonReport:        reports.addons,
		AutomationReport:   reports.automations,
		IntegrationReport:  reports.integrations,
		BatteryPredictions: reports.batteries,
		LogReport:          reports.logs,
		UpdateReport:       reports.updates,
		FailedAutomations:  reports.failedAutomations,
		Dismissed:          dismissed,
		UserNotes:          notesForPrompt(notes),
		Previous:           s.previousContent(ctx, t),
	})

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	content, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode digest content: %w", err)
	}

	record, err := s.store.Digests().Create(ctx, &model.DigestRecord{
		Timestamp:      now,
		Type:           t,
		Content:        string(payload),
		Summary:        content.Summary,
		AttentionCount: len(content.AttentionItems),
	})
	if err != nil {
		return nil, fmt.Errorf("persist digest: %w", err)
	}

	s.log.Info().
		Str("digest_id", record.ID).
		Str("type", string(t)).
		Int("attention_count", record.AttentionCount).
		Msg("digest generated")
	return record, nil
}

type healthReports struct {
	addons            *model.AddonReport
	automations       *model.AutomationReport
	integrations      *model.IntegrationReport
	batteries         []model.BatteryPrediction
	logs              *model.LogReport
	updates           *model.UpdateReport
	failedAutomations *model.FailedAutomationsReport
}

// gatherReports runs every collector concurrently. A collector failure is
// logged and its section omitted; it never aborts digest generation.
func (s *Service) gatherReports(ctx context.Context, now time.Time) healthReports {
	var reports healthReports
	var wg sync.WaitGroup

	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				s.log.Warn().Err(err).Str("collector", name).Msg("health collector failed, section omitted")
			}
		}()
	}

	run("addons", func() (err error) {
		reports.addons, err = s.collectors.AddonReport(ctx)
		return
	})
	run("automations", func() (err error) {
		reports.automations, err = s.collectors.AutomationReport(ctx)
		return
	})
	run("integrations", func() (err error) {
		reports.integrations, err = s.collectors.IntegrationReport(ctx)
		return
	})
	run("batteries", func() (err error) {
		reports.batteries, err = s.BatteryPredictions(ctx)
		return
	})
	run("logs", func() (err error) {
		reports.logs, err = s.collectors.LogReport(ctx)
		return
	})
	run("updates", func() (err error) {
		reports.updates, err = s.collectors.UpdateReport(ctx)
		return
	})
	run("failed_automations", func() (err error) {
		reports.failedAutomations, err = s.collectors.FailedAutomations(ctx, now)
		return
	})

	wg.Wait()
	return reports
}

// previousContent loads the latest digest of the same type for the
// noise-reduction block. Any failure just skips the block.
func (s *Service) previousContent(ctx context.Context, t model.DigestType) *model.DigestContent {
	prev, err := s.store.Digests().LatestByType(ctx, t)
	if err != nil {
		return nil
	}
	var content model.DigestContent
	if err := json.Unmarshal([]byte(prev.Content), &content); err != nil {
		s.log.Warn().Err(err).Msg("failed to parse previous digest content")
		return nil
	}
	return &content
}

func notesForPrompt(notes []*model.UserNote) string {
	if len(notes) == 0 {
		return ""
	}
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = fmt.Sprintf("- %q: %s", n.Title, n.Note)
	}
	return strings.Join(lines, "\n")
}

// Status describes the digest schedule and the most recent record.
type Status struct {
	LastDigest     *model.DigestRecord `json:"lastDigest,omitempty"`
	NextDigestTime time.Time           `json:"nextDigestTime"`
	DigestTime     string              `json:"digestTimeConfig"`
	APIConfigured  bool                `json:"apiConfigured"`
}

// Status reports the last digest and the next scheduled run for the
// configured HH:MM digest time.
func (s *Service) Status(ctx context.Context, hour, minute int, digestTime string, apiConfigured bool) (*Status, error) {
	latest, err := s.store.Digests().Latest(ctx)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return &Status{
		LastDigest:     latest,
		NextDigestTime: next,
		DigestTime:     digestTime,
		APIConfigured:  apiConfigured,
	}, nil
}
