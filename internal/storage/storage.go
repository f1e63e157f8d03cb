// Package storage opens the repositories for the configured store driver.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	accessStore "github.com/MrJamesThe3rd/icpledger/internal/access/store"
	"github.com/MrJamesThe3rd/icpledger/internal/config"
	"github.com/MrJamesThe3rd/icpledger/internal/database"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/icpledger/internal/ledger/store"
	"github.com/MrJamesThe3rd/icpledger/internal/memstore"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
	personStore "github.com/MrJamesThe3rd/icpledger/internal/person/store"
)

type Repositories struct {
	Access  access.Repository
	Persons person.Repository
	Entries ledger.Repository

	close func() error
}

func (r *Repositories) Close() error {
	return r.close()
}

// Open returns repositories backed by Postgres, or by process memory when the
// memory driver is configured. Postgres migrations run first when enabled.
func Open(cfg *config.Config) (*Repositories, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		slog.Warn("using in-memory store, data is lost on restart")

		store := memstore.New()

		return &Repositories{
			Access:  store,
			Persons: store,
			Entries: store,
			close:   func() error { return nil },
		}, nil
	}

	connStr := cfg.ConnectionString()

	if cfg.DB.Migrate {
		if err := database.Migrate(connStr); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
	}

	db, err := database.New(connStr, database.Pool{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repositories{
		Access:  accessStore.New(db),
		Persons: personStore.New(db),
		Entries: ledgerStore.New(db),
		close:   db.Close,
	}, nil
}
