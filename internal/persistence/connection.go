package persistence

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
	"github.com/movierun/movie/internal/db"
)

// connQuery is the single message ConnectionActor understands: run body
// inside a transaction against this connection's *sql.DB, honoring opts'
// read/write hint.
type connQuery struct {
	actor.BaseMessage

	opts db.TxOptions
	body func(*sql.Tx) error
}

// MessageType implements actor.Message.
func (connQuery) MessageType() string { return "ConnQuery" }

// connectionBehavior is ConnectionActor's state machine: it lazily opens its
// own *sql.DB handle against dbPath on the first query it receives, rather
// than at construction time, so a pool can be sized up front without paying
// for connections that end up idle.
type connectionBehavior struct {
	dbPath string
	logger *slog.Logger

	sqlDB *sql.DB
	exec  *db.TransactionExecutor
}

func newConnectionBehavior(dbPath string, logger *slog.Logger) *connectionBehavior {
	return &connectionBehavior{dbPath: dbPath, logger: logger}
}

func (b *connectionBehavior) ensureExecutor() (*db.TransactionExecutor, error) {
	if b.exec != nil {
		return b.exec, nil
	}

	sqlDB, err := db.OpenSQLite(b.dbPath)
	if err != nil {
		return nil, err
	}

	b.sqlDB = sqlDB
	b.exec = db.NewTransactionExecutor(sqlDB, b.logger)

	return b.exec, nil
}

// Receive implements actor.ActorBehavior.
func (b *connectionBehavior) Receive(ctx context.Context, msg connQuery) fn.Result[any] {
	exec, err := b.ensureExecutor()
	if err != nil {
		return fn.Err[any](err)
	}

	if err := exec.ExecTx(ctx, msg.opts, msg.body); err != nil {
		return fn.Err[any](err)
	}

	return fn.Ok[any](nil)
}

// OnStop implements actor.Stoppable, closing this connection's *sql.DB if it
// was ever opened.
func (b *connectionBehavior) OnStop(ctx context.Context) error {
	if b.sqlDB == nil {
		return nil
	}
	return b.sqlDB.Close()
}

// NewConnectionActor returns a fresh ConnectionActor behavior factory bound
// to dbPath, for use as one member of a ConnectionPool.
func NewConnectionActor(dbPath string, logger *slog.Logger) func() actor.ActorBehavior[connQuery, any] {
	return func() actor.ActorBehavior[connQuery, any] {
		return newConnectionBehavior(dbPath, logger)
	}
}
