package store

import (
	"context"
	"time"

	"github.com/homepulse/homepulse/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
type Store interface {
	Snapshots() Snapshots
	Entities() Entities
	Digests() Digests
	Profile() Profile
	Dismissals() Dismissals
	Notes() Notes
	Ping(ctx context.Context) error
	Close() error
}

// Snapshots is the append-only entity telemetry time-series.
type Snapshots interface {
	// AddBatch inserts one collection tick's snapshots.
	AddBatch(ctx context.Context, snaps []model.Snapshot) error
	// Range returns one entity's numeric snapshots within [start, end],
	// ascending by timestamp.
	Range(ctx context.Context, entityID string, start, end time.Time) ([]model.Snapshot, error)
	// ForAnalysis returns all snapshots in [start, end] joined with entity
	// metadata, excluding priority=ignore, ordered by entity then time.
	ForAnalysis(ctx context.Context, start, end time.Time) ([]model.AnalysisRow, error)
	// DeleteBefore removes snapshots older than the cutoff and reports how
	// many rows were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
	Stats(ctx context.Context) (*model.SnapshotStats, error)
}

// Entities holds the discovered entity catalog.
type Entities interface {
	Upsert(ctx context.Context, e *model.MonitoredEntity) error
	// List returns monitored entities; when excludeIgnored is set entities
	// with priority=ignore are filtered out.
	List(ctx context.Context, excludeIgnored bool) ([]*model.MonitoredEntity, error)
	// BatteryEntities returns entities that look like battery sensors
	// (category energy/power or entity id containing "battery"), excluding
	// ignored ones.
	BatteryEntities(ctx context.Context) ([]*model.MonitoredEntity, error)
	SetPriority(ctx context.Context, entityID, priority string) error
	CategoryStats(ctx context.Context) ([]model.CategoryStat, error)
}

// Digests stores generated digest records.
type Digests interface {
	Create(ctx context.Context, d *model.DigestRecord) (*model.DigestRecord, error)
	Get(ctx context.Context, id string) (*model.DigestRecord, error)
	Latest(ctx context.Context) (*model.DigestRecord, error)
	LatestByType(ctx context.Context, t model.DigestType) (*model.DigestRecord, error)
	List(ctx context.Context, limit, offset int) ([]*model.DigestRecord, error)
	MarkNotificationSent(ctx context.Context, id string) error
	DeleteBefore(ctx context.Context, cutoff time.Time) error
}

// Profile stores the household questionnaire as key/value JSON facts.
type Profile interface {
	Get(ctx context.Context) (model.Profile, error)
	Set(ctx context.Context, values model.Profile) error
	Clear(ctx context.Context) error
}

// Dismissals stores suppressed warning topics keyed by warning key.
type Dismissals interface {
	Dismiss(ctx context.Context, warningKey, title string) error
	IsDismissed(ctx context.Context, warningKey string) (bool, error)
	List(ctx context.Context) ([]*model.DismissedWarning, error)
	Restore(ctx context.Context, warningKey string) error
}

// Notes stores user-authored context attached to warning keys.
type Notes interface {
	Add(ctx context.Context, title, note string) (*model.UserNote, error)
	List(ctx context.Context) ([]*model.UserNote, error)
	Get(ctx context.Context, id int64) (*model.UserNote, error)
	Update(ctx context.Context, id int64, note string) error
	Delete(ctx context.Context, id int64) error
}
