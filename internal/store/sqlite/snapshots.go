package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/homepulse/homepulse/internal/model"
)

type snapshotStore struct {
	db *sql.DB
}

func (s *snapshotStore) AddBatch(ctx context.Context, snaps []model.Snapshot) error {
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
			`INSERT INTO snapshots (entity_id, timestamp, value_type, value_num, value_str, attributes) VALUES (?,?,?,?,?,?)`,
			snap.EntityID, snap.Timestamp.UTC(), snap.ValueType, snap.ValueNum, snap.ValueStr, attrs)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *snapshotStore) Range(ctx context.Context, entityID string, start, end time.Time) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_id, timestamp, value_type, value_num, value_str
         FROM snapshots
         WHERE entity_id = ? AND timestamp >= ? AND timestamp <= ?
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

func (s *snapshotStore) ForAnalysis(ctx context.Context, start, end time.Time) ([]model.AnalysisRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.entity_id, s.timestamp, s.value_num, s.value_str,
                me.friendly_name, me.category, me.priority
         FROM snapshots s
         JOIN monitored_entities me ON s.entity_id = me.entity_id
         WHERE s.timestamp >= ? AND s.timestamp <= ? AND me.priority != 'ignore'
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

func (s *snapshotStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *snapshotStore) Stats(ctx context.Context) (*model.SnapshotStats, error) {
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
