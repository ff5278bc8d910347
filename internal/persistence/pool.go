package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/movierun/movie/internal/actor"
	"github.com/movierun/movie/internal/actorutil"
	"github.com/movierun/movie/internal/db"
)

// ConnectionPoolConfig configures a ConnectionPool.
type ConnectionPoolConfig struct {
	// DBPath is the SQLite database file path shared by every connection
	// in the pool.
	DBPath string

	// Size is the number of ConnectionActors in the pool. Defaults to 4.
	Size int

	// SkipMigrations and SkipMigrationDBBackup are forwarded to the
	// one-time migration pass run before the pool's connections are
	// opened.
	SkipMigrations        bool
	SkipMigrationDBBackup bool

	// Logger is used by each connection's TransactionExecutor for
	// retry-backoff tracing. Defaults to slog.Default() if nil.
	Logger *slog.Logger
}

// ConnectionPool is a fixed list of ConnectionActors, routed round-robin,
// generalized from internal/actorutil/pool.go's pooling pattern onto SQLite
// connection actors. Routing a given query to whichever member is next in
// rotation preserves per-query ordering (each query runs start-to-finish on
// one connection) without serializing unrelated queries behind each other.
type ConnectionPool struct {
	pool *actorutil.Pool[connQuery, any]
}

// NewConnectionPool runs migrations once against cfg.DBPath, then spawns
// cfg.Size ConnectionActors that lazily open their own handle to the same
// file. SQLite's WAL mode (configured by internal/db.OpenSQLite) allows
// concurrent readers alongside the single writer that busy_timeout and the
// TransactionExecutor's retry loop serialize.
func NewConnectionPool(cfg ConnectionPoolConfig) (*ConnectionPool, error) {
	if cfg.Size <= 0 {
		cfg.Size = 4
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := db.NewSqliteStore(&db.SqliteConfig{
		DatabaseFileName:      cfg.DBPath,
		SkipMigrations:        cfg.SkipMigrations,
		SkipMigrationDBBackup: cfg.SkipMigrationDBBackup,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening persistence database: %w", err)
	}
	if err := store.Close(); err != nil {
		return nil, fmt.Errorf("closing migration handle: %w", err)
	}

	p := actorutil.NewPool(actorutil.PoolConfig[connQuery, any]{
		ID:   "persistence-connection-pool",
		Size: cfg.Size,
		Factory: func(idx int) actor.ActorBehavior[connQuery, any] {
			return newConnectionBehavior(cfg.DBPath, logger)
		},
	})

	return &ConnectionPool{pool: p}, nil
}

// ExecTx runs body in a transaction on whichever connection is next in the
// pool's rotation, blocking until it completes.
func (p *ConnectionPool) ExecTx(ctx context.Context, opts db.TxOptions,
	body func(*sql.Tx) error,
) error {
	_, err := actorutil.AskAwait[connQuery, any](ctx, p.pool, connQuery{
		opts: opts,
		body: body,
	})
	return err
}

// Stop gracefully stops every connection in the pool, closing their
// underlying *sql.DB handles via OnStop.
func (p *ConnectionPool) Stop() {
	p.pool.Stop()
}
