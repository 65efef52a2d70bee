package sqlite

import (
	"context"
	"database/sql"

	"github.com/homepulse/homepulse/internal/model"
)

type entityStore struct {
	db *sql.DB
}

func (s *entityStore) Upsert(ctx context.Context, e *model.MonitoredEntity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO monitored_entities (entity_id, friendly_name, domain, category, priority)
         VALUES (?,?,?,?,?)
         ON CONFLICT(entity_id) DO UPDATE SET
             friendly_name = excluded.friendly_name,
             domain = excluded.domain,
             category = excluded.category`,
		e.EntityID, e.FriendlyName, e.Domain, e.Category, e.Priority)
	return err
}

func (s *entityStore) List(ctx context.Context, excludeIgnored bool) ([]*model.MonitoredEntity, error) {
	q := `SELECT entity_id, friendly_name, domain, category, priority FROM monitored_entities`
	if excludeIgnored {
		q += ` WHERE priority != 'ignore'`
	}
	q += ` ORDER BY entity_id`
	return s.queryEntities(ctx, q)
}

func (s *entityStore) BatteryEntities(ctx context.Context) ([]*model.MonitoredEntity, error) {
	return s.queryEntities(ctx,
		`SELECT entity_id, friendly_name, domain, category, priority
         FROM monitored_entities
         WHERE (category IN ('power', 'energy') OR entity_id LIKE '%battery%')
           AND priority != 'ignore'
         ORDER BY entity_id`)
}

func (s *entityStore) queryEntities(ctx context.Context, q string, args ...interface{}) ([]*model.MonitoredEntity, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MonitoredEntity
	for rows.Next() {
		var e model.MonitoredEntity
		if err := rows.Scan(&e.EntityID, &e.FriendlyName, &e.Domain, &e.Category, &e.Priority); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *entityStore) SetPriority(ctx context.Context, entityID, priority string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE monitored_entities SET priority = ? WHERE entity_id = ?`, priority, entityID)
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

func (s *entityStore) CategoryStats(ctx context.Context) ([]model.CategoryStat, error) {
	rows, err := s.db.QueryContext(ctx,
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
