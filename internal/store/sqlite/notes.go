package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/homepulse/homepulse/internal/model"
)

type noteStore struct {
	db *sql.DB
}

func (s *noteStore) Add(ctx context.Context, title, note string) (*model.UserNote, error) {
	key := model.WarningKey(title)
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user_notes (warning_key, title, note, created_at) VALUES (?,?,?,?)`,
		key, title, note, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.UserNote{ID: id, WarningKey: key, Title: title, Note: note, CreatedAt: now}, nil
}

func (s *noteStore) List(ctx context.Context) ([]*model.UserNote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, warning_key, title, note, created_at FROM user_notes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.UserNote
	for rows.Next() {
		var n model.UserNote
		if err := rows.Scan(&n.ID, &n.WarningKey, &n.Title, &n.Note, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *noteStore) Get(ctx context.Context, id int64) (*model.UserNote, error) {
	var n model.UserNote
	err := s.db.QueryRowContext(ctx,
		`SELECT id, warning_key, title, note, created_at FROM user_notes WHERE id = ?`, id).
		Scan(&n.ID, &n.WarningKey, &n.Title, &n.Note, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *noteStore) Update(ctx context.Context, id int64, note string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE user_notes SET note = ? WHERE id = ?`, note, id)
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

func (s *noteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_notes WHERE id = ?`, id)
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
