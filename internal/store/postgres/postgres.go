// Package postgres implements store.Store on PostgreSQL via the pgx
// stdlib driver. Selected with DB_DRIVER=postgres for installs that keep
// telemetry outside the add-on container.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/homepulse/homepulse/internal/model"
	"github.com/homepulse/homepulse/internal/store"
)

// Open opens a PostgreSQL connection and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens the connection and ensures the schema.
func New(dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs the store over an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Snapshots() store.Snapshots   { return &snapshots{db: s.db} }
func (s *pgStore) Entities() store.Entities     { return &entities{db: s.db} }
func (s *pgStore) Digests() store.Digests       { return &digests{db: s.db} }
func (s *pgStore) Profile() store.Profile       { return &profile{db: s.db} }
func (s *pgStore) Dismissals() store.Dismissals { return &dismissals{db: s.db} }
func (s *pgStore) Notes() store.Notes           { return &notes{db: s.db} }

func (s *pgStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *pgStore) Close() error                   { return s.db.Close() }

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS monitored_entities (
            entity_id TEXT PRIMARY KEY,
            friendly_name TEXT NOT NULL,
            domain TEXT NOT NULL,
            category TEXT NOT NULL,
            priority TEXT NOT NULL DEFAULT 'normal'
        )`,
		`CREATE TABLE IF NOT EXISTS snapshots (
            id BIGSERIAL PRIMARY KEY,
            entity_id TEXT NOT NULL,
            timestamp TIMESTAMPTZ NOT NULL,
            value_type TEXT NOT NULL,
            value_num DOUBLE PRECISION,
            value_str TEXT,
            attributes JSONB
        )`,
		`CREATE INDEX IF NOT EXISTS snapshots_entity_ts_idx ON snapshots(entity_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS snapshots_ts_idx ON snapshots(timestamp)`,
		`CREATE TABLE IF NOT EXISTS digests (
            id TEXT PRIMARY KEY,
            timestamp TIMESTAMPTZ NOT NULL,
            type TEXT NOT NULL,
            content TEXT NOT NULL,
            summary TEXT NOT NULL,
            attention_count INT NOT NULL DEFAULT 0,
            notification_sent BOOLEAN NOT NULL DEFAULT FALSE
        )`,
		`CREATE INDEX IF NOT EXISTS digests_type_ts_idx ON digests(type, timestamp)`,
		`CREATE TABLE IF NOT EXISTS profile (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS dismissed_warnings (
            warning_key TEXT PRIMARY KEY,
            title TEXT,
            dismissed_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS user_notes (
            id BIGSERIAL PRIMARY KEY,
            warning_key TEXT NOT NULL,
            title TEXT NOT NULL,
            note TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        )`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- Snapshots ---

type snapshots struct{ db *sql.DB }

func (s *snapshots) AddBatch(ctx context.Context, snaps []model.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		var attrs interface{}
		if len(snap.Attributes) > 0 {
			b, err := json.Marshal(snap.Attributes)
			if err != nil {
				_ = tx.Rollback()
				return err
			}
			attrs = string(b)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (entity_id, timestamp, value_type, value_num, value_str, attributes)
             VALUES ($1,$2,$3,$4,$5,$6)`,
			snap.EntityID, snap.Timestamp.UTC(), snap.ValueType, snap.ValueNum, snap.ValueStr, attrs)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *snapshots) Range(ctx context.Context, entityID string, start, end time.Time) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_id, timestamp, value_type, value_num, value_str
         FROM snapshots
         WHERE entity_id = $1 AND timestamp >= $2 AND timestamp <= $3
         ORDER BY timestamp ASC`,
		entityID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		if err := rows.Scan(&snap.ID, &snap.EntityID, &snap.Timestamp, &snap.ValueType, &snap.ValueNum, &snap.ValueStr); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *snapshots) ForAnalysis(ctx context.Context, start, end time.Time) ([]model.AnalysisRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.entity_id, s.timestamp, s.value_num, s.value_str,
                me.friendly_name, me.category, me.priority
         FROM snapshots s
         JOIN monitored_entities me ON s.entity_id = me.entity_id
         WHERE s.timestamp >= $1 AND s.timestamp <= $2 AND me.priority != 'ignore'
         ORDER BY s.entity_id, s.timestamp`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisRow
	for rows.Next() {
		var r model.AnalysisRow
		if err := rows.Scan(&r.EntityID, &r.Timestamp, &r.ValueNum, &r.ValueStr, &r.FriendlyName, &r.Category, &r.Priority); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *snapshots) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE timestamp < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *snapshots) Stats(ctx context.Context) (*model.SnapshotStats, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT entity_id), MIN(timestamp), MAX(timestamp) FROM snapshots`)
	var stats model.SnapshotStats
	var oldest, newest sql.NullTime
	if err := row.Scan(&stats.TotalSnapshots, &stats.EntitiesWithData, &oldest, &newest); err != nil {
		return nil, err
	}
	if oldest.Valid {
		t := oldest.Time
		stats.OldestSnapshot = &t
	}
	if newest.Valid {
		t := newest.Time
		stats.NewestSnapshot = &t
	}
	return &stats, nil
}

// --- Entities ---

type entities struct{ db *sql.DB }

func (e *entities) Upsert(ctx context.Context, m *model.MonitoredEntity) error {
	_, err := e.db.ExecContext(ctx,
		`INSERT INTO monitored_entities (entity_id, friendly_name, domain, category, priority)
         VALUES ($1,$2,$3,$4,$5)
         ON CONFLICT (entity_id) DO UPDATE SET
             friendly_name = EXCLUDED.friendly_name,
             domain = EXCLUDED.domain,
             category = EXCLUDED.category`,
		m.EntityID, m.FriendlyName, m.Domain, m.Category, m.Priority)
	return err
}

func (e *entities) List(ctx context.Context, excludeIgnored bool) ([]*model.MonitoredEntity, error) {
	q := `SELECT entity_id, friendly_name, domain, category, priority FROM monitored_entities`
	if excludeIgnored {
		q += ` WHERE priority != 'ignore'`
	}
	q += ` ORDER BY entity_id`
	return e.query(ctx, q)
}

func (e *entities) BatteryEntities(ctx context.Context) ([]*model.MonitoredEntity, error) {
	return e.query(ctx,
		`SELECT entity_id, friendly_name, domain, category, priority
         FROM monitored_entities
         WHERE (category IN ('power', 'energy') OR entity_id LIKE '%battery%')
           AND priority != 'ignore'
         ORDER BY entity_id`)
}

func (e *entities) query(ctx context.Context, q string, args ...interface{}) ([]*model.MonitoredEntity, error) {
	rows, err := e.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MonitoredEntity
	for rows.Next() {
		var m model.MonitoredEntity
		if err := rows.Scan(&m.EntityID, &m.FriendlyName, &m.Domain, &m.Category, &m.Priority); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (e *entities) SetPriority(ctx context.Context, entityID, priority string) error {
	res, err := e.db.ExecContext(ctx,
		`UPDATE monitored_entities SET priority = $1 WHERE entity_id = $2`, priority, entityID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (e *entities) CategoryStats(ctx context.Context) ([]model.CategoryStat, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM monitored_entities
         WHERE priority != 'ignore'
         GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CategoryStat
	for rows.Next() {
		var cs model.CategoryStat
		if err := rows.Scan(&cs.Category, &cs.Count); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// --- Digests ---

type digests struct{ db *sql.DB }

const digestColumns = `id, timestamp, type, content, summary, attention_count, notification_sent`

func (d *digests) Create(ctx context.Context, rec *model.DigestRecord) (*model.DigestRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO digests (id, timestamp, type, content, summary, attention_count, notification_sent)
         VALUES ($1,$2,$3,$4,$5,$6,FALSE)`,
		rec.ID, rec.Timestamp.UTC(), string(rec.Type), rec.Content, rec.Summary, rec.AttentionCount)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *digests) Get(ctx context.Context, id string) (*model.DigestRecord, error) {
	return scanDigest(d.db.QueryRowContext(ctx,
		`SELECT `+digestColumns+` FROM digests WHERE id = $1`, id))
}

func (d *digests) Latest(ctx context.Context) (*model.DigestRecord, error) {
	return scanDigest(d.db.QueryRowContext(ctx,
		`SELECT `+digestColumns+` FROM digests ORDER BY timestamp DESC LIMIT 1`))
}

func (d *digests) LatestByType(ctx context.Context, t model.DigestType) (*model.DigestRecord, error) {
	return scanDigest(d.db.QueryRowContext(ctx,
		`SELECT `+digestColumns+` FROM digests WHERE type = $1 ORDER BY timestamp DESC LIMIT 1`, string(t)))
}

func (d *digests) List(ctx context.Context, limit, offset int) ([]*model.DigestRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+digestColumns+` FROM digests ORDER BY timestamp DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.DigestRecord
	for rows.Next() {
		var rec model.DigestRecord
		var typ string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &typ, &rec.Content, &rec.Summary, &rec.AttentionCount, &rec.NotificationSent); err != nil {
			return nil, err
		}
		rec.Type = model.DigestType(typ)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (d *digests) MarkNotificationSent(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `UPDATE digests SET notification_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (d *digests) DeleteBefore(ctx context.Context, cutoff time.Time) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM digests WHERE timestamp < $1`, cutoff.UTC())
	return err
}

func scanDigest(row *sql.Row) (*model.DigestRecord, error) {
	var rec model.DigestRecord
	var typ string
	err := row.Scan(&rec.ID, &rec.Timestamp, &typ, &rec.Content, &rec.Summary, &rec.AttentionCount, &rec.NotificationSent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Type = model.DigestType(typ)
	return &rec, nil
}

// --- Profile ---

type profile struct{ db *sql.DB }

func (p *profile) Get(ctx context.Context) (model.Profile, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT key, value FROM profile`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := model.Profile{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = json.RawMessage(value)
	}
	return out, rows.Err()
}

func (p *profile) Set(ctx context.Context, values model.Profile) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for key, value := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO profile (key, value, updated_at) VALUES ($1,$2,$3)
             ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			key, string(value), now)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (p *profile) Clear(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM profile`)
	return err
}

// --- Dismissals ---

type dismissals struct{ db *sql.DB }

func (d *dismissals) Dismiss(ctx context.Context, warningKey, title string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO dismissed_warnings (warning_key, title, dismissed_at) VALUES ($1,$2,$3)
         ON CONFLICT (warning_key) DO UPDATE SET title = EXCLUDED.title, dismissed_at = EXCLUDED.dismissed_at`,
		warningKey, title, time.Now().UTC())
	return err
}

func (d *dismissals) IsDismissed(ctx context.Context, warningKey string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx,
		`SELECT 1 FROM dismissed_warnings WHERE warning_key = $1`, warningKey).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *dismissals) List(ctx context.Context) ([]*model.DismissedWarning, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT warning_key, title, dismissed_at FROM dismissed_warnings ORDER BY dismissed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.DismissedWarning
	for rows.Next() {
		var w model.DismissedWarning
		var title sql.NullString
		if err := rows.Scan(&w.WarningKey, &title, &w.DismissedAt); err != nil {
			return nil, err
		}
		w.Title = title.String
		out = append(out, &w)
	}
	return out, rows.Err()
}

func (d *dismissals) Restore(ctx context.Context, warningKey string) error {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM dismissed_warnings WHERE warning_key = $1`, warningKey)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// --- Notes ---

type notes struct{ db *sql.DB }

func (n *notes) Add(ctx context.Context, title, note string) (*model.UserNote, error) {
	key := model.WarningKey(title)
	now := time.Now().UTC()
	var id int64
	err := n.db.QueryRowContext(ctx,
		`INSERT INTO user_notes (warning_key, title, note, created_at)
         VALUES ($1,$2,$3,$4) RETURNING id`,
		key, title, note, now).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &model.UserNote{ID: id, WarningKey: key, Title: title, Note: note, CreatedAt: now}, nil
}

func (n *notes) List(ctx context.Context) ([]*model.UserNote, error) {
	rows, err := n.db.QueryContext(ctx,
		`SELECT id, warning_key, title, note, created_at FROM user_notes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.UserNote
	for rows.Next() {
		var un model.UserNote
		if err := rows.Scan(&un.ID, &un.WarningKey, &un.Title, &un.Note, &un.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &un)
	}
	return out, rows.Err()
}

func (n *notes) Get(ctx context.Context, id int64) (*model.UserNote, error) {
	var un model.UserNote
	err := n.db.QueryRowContext(ctx,
		`SELECT id, warning_key, title, note, created_at FROM user_notes WHERE id = $1`, id).
		Scan(&un.ID, &un.WarningKey, &un.Title, &un.Note, &un.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &un, nil
}

func (n *notes) Update(ctx context.Context, id int64, note string) error {
	res, err := n.db.ExecContext(ctx, `UPDATE user_notes SET note = $1 WHERE id = $2`, note, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (n *notes) Delete(ctx context.Context, id int64) error {
	res, err := n.db.ExecContext(ctx, `DELETE FROM user_notes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
