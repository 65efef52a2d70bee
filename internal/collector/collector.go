// Package collector samples entity states from Home Assistant into the
// snapshot store on a fixed cadence.
package collector

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/homepulse/homepulse/internal/hass"
	"github.com/homepulse/homepulse/internal/model"
	"github.com/homepulse/homepulse/internal/store"
)

const (
	stateIdle int32 = iota
	stateCollecting
)

// CollectionError records one entity that could not be sampled.
type CollectionError struct {
	EntityID string `json:"entityId,omitempty"`
	Error    string `json:"error"`
}

// Result describes one collection run.
type Result struct {
	Collected int           `json:"collected"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
	Skipped   bool          `json:"skipped"`
}

// Status reports the collector state and store statistics.
type Status struct {
	IsCollecting       bool                 `json:"isCollecting"`
	LastCollectionTime *time.Time           `json:"lastCollectionTime,omitempty"`
	RecentErrors       []CollectionError    `json:"recentErrors"`
	Stats              *model.SnapshotStats `json:"stats,omitempty"`
}

// StateFetcher is the slice of the HA client the collector needs.
type StateFetcher interface {
	GetAllStates(ctx context.Context) ([]hass.EntityState, error)
}

// Collector samples monitored entities. An atomic guard makes overlapping
// runs no-op instead of queueing.
type Collector struct {
	store       store.Store
	ha          StateFetcher
	historyDays int
	log         zerolog.Logger

	state int32

	mu       sync.Mutex
	lastRun  *time.Time
	lastErrs []CollectionError
}

// New builds a collector retaining historyDays of snapshots.
func New(st store.Store, ha StateFetcher, historyDays int, log zerolog.Logger) *Collector {
	return &Collector{store: st, ha: ha, historyDays: historyDays, log: log}
}

// Collect samples every monitored entity once, sharing a single timestamp
// across the batch. A run already in progress returns Skipped without
// collecting.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	if !atomic.CompareAndSwapInt32(&c.state, stateIdle, stateCollecting) {
		c.log.Debug().Msg("collection already in progress, skipping")
		return &Result{Skipped: true}, nil
	}
	defer atomic.StoreInt32(&c.state, stateIdle)

	started := time.Now()
	var errs []CollectionError

	entities, err := c.store.Entities().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	if len(entities) == 0 {
		c.log.Info().Msg("no entities to monitor")
		c.finish(started, errs)
		return &Result{}, nil
	}

	states, err := c.ha.GetAllStates(ctx)
	if err != nil {
		errs = append(errs, CollectionError{Error: err.Error()})
		c.finish(started, errs)
		return nil, fmt.Errorf("fetch states: %w", err)
	}
	stateMap := make(map[string]*hass.EntityState, len(states))
	for i := range states {
		stateMap[states[i].EntityID] = &states[i]
	}

	timestamp := time.Now().UTC()
	snapshots := make([]model.Snapshot, 0, len(entities))
	for _, entity := range entities {
		st, ok := stateMap[entity.EntityID]
		if !ok {
			errs = append(errs, CollectionError{EntityID: entity.EntityID, Error: "entity not found in HA states"})
			continue
		}
		if st.State == "unavailable" || st.State == "unknown" {
			continue
		}
		snapshots = append(snapshots, buildSnapshot(entity, st, timestamp))
	}

	if len(snapshots) > 0 {
		if err := c.store.Snapshots().AddBatch(ctx, snapshots); err != nil {
			errs = append(errs, CollectionError{Error: err.Error()})
			c.finish(started, errs)
			return nil, fmt.Errorf("store snapshots: %w", err)
		}
	}

	duration := time.Since(started)
	c.finish(started, errs)
	c.log.Info().
		Int("collected", len(snapshots)).
		Int("errors", len(errs)).
		Dur("duration", duration).
		Msg("snapshot collection complete")

	return &Result{Collected: len(snapshots), Errors: len(errs), Duration: duration}, nil
}

func buildSnapshot(entity *model.MonitoredEntity, st *hass.EntityState, ts time.Time) model.Snapshot {
	snap := model.Snapshot{
		EntityID:   entity.EntityID,
		Timestamp:  ts,
		Attributes: relevantAttributes(entity.Domain, st.Attributes),
	}
	if v, err := strconv.ParseFloat(st.State, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		snap.ValueType = "number"
		snap.ValueNum = &v
	} else {
		snap.ValueType = "state"
		s := st.State
		snap.ValueStr = &s
	}
	return snap
}

// Per-domain attribute allowlist keeps snapshot rows small.
var relevantAttrs = map[string][]string{
	"climate":       {"current_temperature", "target_temperature", "hvac_action", "preset_mode"},
	"sensor":        {"device_class", "unit_of_measurement"},
	"binary_sensor": {"device_class"},
	"light":         {"brightness", "color_temp", "rgb_color"},
	"cover":         {"current_position"},
	"media_player":  {"media_title", "media_artist", "volume_level"},
	"weather":       {"temperature", "humidity", "pressure", "wind_speed"},
}

func relevantAttributes(domain string, attrs map[string]interface{}) map[string]interface{} {
	keys := relevantAttrs[domain]
	if len(keys) == 0 {
		return nil
	}
	var out map[string]interface{}
	for _, key := range keys {
		if v, ok := attrs[key]; ok {
			if out == nil {
				out = make(map[string]interface{})
			}
			out[key] = v
		}
	}
	return out
}

func (c *Collector) finish(started time.Time, errs []CollectionError) {
	c.mu.Lock()
	c.lastRun = &started
	c.lastErrs = errs
	c.mu.Unlock()
}

// Cleanup deletes snapshots older than the retention window.
func (c *Collector) Cleanup(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -c.historyDays)
	deleted, err := c.store.Snapshots().DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	if deleted > 0 {
		c.log.Info().Int("deleted", deleted).Time("cutoff", cutoff).Msg("cleaned up old snapshots")
	}
	return deleted, nil
}

// Status reports collector state plus snapshot store statistics.
func (c *Collector) Status(ctx context.Context) (*Status, error) {
	stats, err := c.store.Snapshots().Stats(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	errs := c.lastErrs
	if len(errs) > 10 {
		errs = errs[len(errs)-10:]
	}
	if errs == nil {
		errs = []CollectionError{}
	}
	return &Status{
		IsCollecting:       atomic.LoadInt32(&c.state) == stateCollecting,
		LastCollectionTime: c.lastRun,
		RecentErrors:       errs,
		Stats:              stats,
	}, nil
}
