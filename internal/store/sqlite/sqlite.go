// Package sqlite implements store.Store on modernc.org/sqlite.
// It is the default driver: the service ships as a Home Assistant add-on
// and keeps its state in a single file under /data.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/homepulse/homepulse/internal/store"
)

type sqliteStore struct {
	db *sql.DB

	snapshots  *snapshotStore
	entities   *entityStore
	digests    *digestStore
	profile    *profileStore
	dismissals *dismissalStore
	notes      *noteStore
}

// New opens (or creates) the database file and ensures the schema.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires the store over an existing connection (used by the
// factory and by tests with in-memory databases).
func NewWithDB(db *sql.DB) (store.Store, error) {
	return &sqliteStore{
		db:         db,
		snapshots:  &snapshotStore{db: db},
		entities:   &entityStore{db: db},
		digests:    &digestStore{db: db},
		profile:    &profileStore{db: db},
		dismissals: &dismissalStore{db: db},
		notes:      &noteStore{db: db},
	}, nil
}

func (s *sqliteStore) Snapshots() store.Snapshots   { return s.snapshots }
func (s *sqliteStore) Entities() store.Entities     { return s.entities }
func (s *sqliteStore) Digests() store.Digests       { return s.digests }
func (s *sqliteStore) Profile() store.Profile       { return s.profile }
func (s *sqliteStore) Dismissals() store.Dismissals { return s.dismissals }
func (s *sqliteStore) Notes() store.Notes           { return s.notes }

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *sqliteStore) Close() error                   { return s.db.Close() }
