package store

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects and configures the durable store.
type Options struct {
	Backend string
	// SQLite is the already migrated application database, used by the
	// sqlite backend.
	SQLite      *sql.DB
	PostgresDSN string
	// Secret, when set, encrypts every value at rest.
	Secret string
}

// Open builds the configured store. The returned close function releases
// resources the store opened itself; it never closes opts.SQLite.
func Open(ctx context.Context, opts Options) (Store, func(), error) {
	var (
		base    Store
		closeFn = func() {}
	)

	switch opts.Backend {
	case "", BackendSQLite:
		if opts.SQLite == nil {
			return nil, nil, fmt.Errorf("store: sqlite backend needs a database")
		}
		base = NewSQLite(opts.SQLite)
	case BackendPostgres:
		if opts.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("store: postgres backend needs POSTGRES_DSN")
		}
		pool, pg, err := OpenPostgres(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		base = pg
		closeFn = pool.Close
	default:
		return nil, nil, fmt.Errorf("store: unknown backend %q", opts.Backend)
	}

	if opts.Secret == "" {
		return base, closeFn, nil
	}
	encrypted, err := NewEncrypted(base, opts.Secret)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return encrypted, closeFn, nil
}
