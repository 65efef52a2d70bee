// Package factory constructs backend implementations from configuration.
package factory

import (
	"fmt"

	"github.com/homepulse/homepulse/internal/config"
	"github.com/homepulse/homepulse/internal/store"
	"github.com/homepulse/homepulse/internal/store/postgres"
	"github.com/homepulse/homepulse/internal/store/sqlite"
)

// NewStore builds the persistence layer selected by cfg.DBDriver.
func NewStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported db driver: %q", cfg.DBDriver)
	}
}
