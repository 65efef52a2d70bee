package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/homepulse/homepulse/internal/model"
)

type dismissalStore struct {
	db *sql.DB
}

func (s *dismissalStore) Dismiss(ctx context.Context, warningKey, title string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dismissed_warnings (warning_key, title, dismissed_at) VALUES (?,?,?)
         ON CONFLICT(warning_key) DO UPDATE SET title = excluded.title, dismissed_at = excluded.dismissed_at`,
		warningKey, title, time.Now().UTC())
	return err
}

func (s *dismissalStore) IsDismissed(ctx context.Context, warningKey string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM dismissed_warnings WHERE warning_key = ?`, warningKey).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *dismissalStore) List(ctx context.Context) ([]*model.DismissedWarning, error) {
	rows, err := s.db.QueryContext(ctx,
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

func (s *dismissalStore) Restore(ctx context.Context, warningKey string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM dismissed_warnings WHERE warning_key = ?`, warningKey)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
