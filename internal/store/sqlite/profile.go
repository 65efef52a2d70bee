package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/homepulse/homepulse/internal/model"
)

type profileStore struct {
	db *sql.DB
}

func (s *profileStore) Get(ctx context.Context) (model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM profile`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profile := model.Profile{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		profile[key] = json.RawMessage(value)
	}
	return profile, rows.Err()
}

func (s *profileStore) Set(ctx context.Context, values model.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for key, value := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO profile (key, value, updated_at) VALUES (?,?,?)
             ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(value), now)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *profileStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profile`)
	return err
}
