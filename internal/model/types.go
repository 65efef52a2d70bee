package model

import (
	"encoding/json"
	"time"
)

// DigestType identifies the analysis window of a digest.
type DigestType string

const (
	DigestDaily    DigestType = "daily"
	DigestWeekly   DigestType = "weekly"
	DigestOnDemand DigestType = "on_demand"
)

// Window returns the trailing analysis window for the digest type,
// computed from wall-clock call time (never snapped to calendar
// boundaries).
func (t DigestType) Window(now time.Time) (start, end time.Time) {
	hours := 24
	if t == DigestWeekly {
		hours = 168
	}
	return now.Add(-time.Duration(hours) * time.Hour), now
}

// PeriodLabel returns the human label used inside prompts.
func (t DigestType) PeriodLabel() string {
	if t == DigestWeekly {
		return "past week"
	}
	return "past 24 hours"
}

// MonitoredEntity is one sensor/device/automation data source tracked by
// the collector.
type MonitoredEntity struct {
	EntityID     string `json:"entityId"`
	FriendlyName string `json:"friendlyName"`
	Domain       string `json:"domain"`
	Category     string `json:"category"`
	Priority     string `json:"priority"`
}

// Snapshot is one timestamped value reading for an entity. Immutable once
// written; one row per entity per collection tick.
type Snapshot struct {
	ID         int64                  `json:"id,omitempty"`
	EntityID   string                 `json:"entityId"`
	Timestamp  time.Time              `json:"timestamp"`
	ValueType  string                 `json:"valueType"` // "number" or "state"
	ValueNum   *float64               `json:"valueNum,omitempty"`
	ValueStr   *string                `json:"valueStr,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// AnalysisRow is a snapshot joined with entity metadata, as consumed by
// the digest composer.
type AnalysisRow struct {
	EntityID     string
	Timestamp    time.Time
	ValueNum     *float64
	ValueStr     *string
	FriendlyName string
	Category     string
	Priority     string
}

// SnapshotStats summarizes the telemetry store contents.
type SnapshotStats struct {
	TotalSnapshots   int        `json:"totalSnapshots"`
	EntitiesWithData int        `json:"entitiesWithData"`
	OldestSnapshot   *time.Time `json:"oldestSnapshot,omitempty"`
	NewestSnapshot   *time.Time `json:"newestSnapshot,omitempty"`
}

// CategoryStat is the per-category entity count.
type CategoryStat struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DigestRecord is a persisted generated digest. Immutable after creation
// except the NotificationSent flip.
type DigestRecord struct {
	ID               string     `json:"id"`
	Timestamp        time.Time  `json:"timestamp"`
	Type             DigestType `json:"type"`
	Content          string     `json:"content"` // JSON per DigestContent
	Summary          string     `json:"summary"`
	AttentionCount   int        `json:"attentionCount"`
	NotificationSent bool       `json:"notificationSent"`
}

// DismissedWarning suppresses a digest topic, matched by warning key.
type DismissedWarning struct {
	WarningKey  string    `json:"warningKey"`
	Title       string    `json:"title"`
	DismissedAt time.Time `json:"dismissedAt"`
}

// UserNote is free-text user context attached to a warning key, injected
// into prompts to steer future digests.
type UserNote struct {
	ID         int64     `json:"id"`
	WarningKey string    `json:"warningKey"`
	Title      string    `json:"title"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Profile holds the structured household facts gathered at setup.
// Values are stored as raw JSON so the questionnaire shape can evolve
// without schema changes.
type Profile map[string]json.RawMessage

// Field renders a profile value for prompt embedding, or "" when absent.
func (p Profile) Field(key string) string {
	raw, ok := p[key]
	if !ok || len(raw) == 0 {
		return ""
	}
	// Plain strings embed without quotes.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Complete reports whether the required questionnaire fields are present.
func (p Profile) Complete() bool {
	for _, key := range []string{"occupants", "schedule", "priorities"} {
		if _, ok := p[key]; !ok {
			return false
		}
	}
	return true
}
