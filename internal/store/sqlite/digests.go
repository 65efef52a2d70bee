package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/homepulse/homepulse/internal/model"
)

type digestStore struct {
	db *sql.DB
}

func (s *digestStore) Create(ctx context.Context, d *model.DigestRecord) (*model.DigestRecord, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO digests (id, timestamp, type, content, summary, attention_count, notification_sent)
         VALUES (?,?,?,?,?,?,0)`,
		d.ID, d.Timestamp.UTC(), string(d.Type), d.Content, d.Summary, d.AttentionCount)
	if err != nil {
		return nil, err
	}
	return d, nil
}

const digestColumns = `id, timestamp, type, content, summary, attention_count, notification_sent`

func (s *digestStore) Get(ctx context.Context, id string) (*model.DigestRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+digestColumns+` FROM digests WHERE id = ?`, id)
	return scanDigest(row)
}

func (s *digestStore) Latest(ctx context.Context) (*model.DigestRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+digestColumns+` FROM digests ORDER BY timestamp DESC LIMIT 1`)
	return scanDigest(row)
}

func (s *digestStore) LatestByType(ctx context.Context, t model.DigestType) (*model.DigestRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+digestColumns+` FROM digests WHERE type = ? ORDER BY timestamp DESC LIMIT 1`, string(t))
	return scanDigest(row)
}

func (s *digestStore) List(ctx context.Context, limit, offset int) ([]*model.DigestRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+digestColumns+` FROM digests ORDER BY timestamp DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.DigestRecord
	for rows.Next() {
		d, err := scanDigestRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *digestStore) MarkNotificationSent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE digests SET notification_sent = 1 WHERE id = ?`, id)
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

func (s *digestStore) DeleteBefore(ctx context.Context, cutoff time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM digests WHERE timestamp < ?`, cutoff.UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDigest(row *sql.Row) (*model.DigestRecord, error) {
	d, err := scanDigestRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return d, err
}

func scanDigestRow(row rowScanner) (*model.DigestRecord, error) {
	var d model.DigestRecord
	var typ string
	var sent int
	if err := row.Scan(&d.ID, &d.Timestamp, &typ, &d.Content, &d.Summary, &d.AttentionCount, &sent); err != nil {
		return nil, err
	}
	d.Type = model.DigestType(typ)
	d.NotificationSent = sent != 0
	return &d, nil
}
