package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
	"github.com/movierun/movie/internal/actorutil"
	"github.com/movierun/movie/internal/db"
)

// stateStoreMessage is the sealed message type StateStoreActor accepts.
type stateStoreMessage interface {
	actor.Message
	isStateStoreMessage()
}

type baseStateStoreMessage struct {
	actor.BaseMessage
}

func (baseStateStoreMessage) isStateStoreMessage() {}

// SaveState upserts the latest snapshot for EntityID.
type SaveState struct {
	baseStateStoreMessage

	EntityID string
	Payload  []byte
}

// MessageType implements actor.Message.
func (SaveState) MessageType() string { return "SaveState" }

// LoadState loads the latest saved snapshot for EntityID, if any.
type LoadState struct {
	baseStateStoreMessage

	EntityID string
}

// MessageType implements actor.Message.
func (LoadState) MessageType() string { return "LoadState" }

// LoadedState is LoadState's response: Found is false when no snapshot has
// ever been saved for the requested entity.
type LoadedState struct {
	Payload []byte
	Found   bool
}

// stateStoreBehavior implements SaveState/LoadState over the "state" table
// using pool for connection access.
type stateStoreBehavior struct {
	pool *ConnectionPool
}

// Receive implements actor.ActorBehavior.
func (b *stateStoreBehavior) Receive(ctx context.Context, msg stateStoreMessage) fn.Result[any] {
	switch m := msg.(type) {
	case SaveState:
		if err := b.saveState(ctx, m); err != nil {
			return fn.Err[any](err)
		}
		return fn.Ok[any](nil)

	case LoadState:
		state, err := b.loadState(ctx, m)
		if err != nil {
			return fn.Err[any](err)
		}
		return fn.Ok[any](state)

	default:
		return fn.Err[any](fmt.Errorf("state store: unexpected message %T", msg))
	}
}

func (b *stateStoreBehavior) saveState(ctx context.Context, m SaveState) error {
	return b.pool.ExecTx(ctx, db.WriteTxOption(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO state (entity_id, payload_json, updated_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT(entity_id) DO UPDATE SET
			   payload_json = excluded.payload_json,
			   updated_at = excluded.updated_at`,
			m.EntityID, m.Payload, time.Now().Unix())
		return err
	})
}

func (b *stateStoreBehavior) loadState(ctx context.Context, m LoadState) (LoadedState, error) {
	var state LoadedState

	err := b.pool.ExecTx(ctx, db.ReadTxOption(), func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT payload_json FROM state WHERE entity_id = ?`, m.EntityID)

		err := row.Scan(&state.Payload)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		state.Found = true
		return nil
	})
	if err != nil {
		return LoadedState{}, err
	}

	return state, nil
}

// StateStoreActor is the handle callers use to save and load durable-state
// snapshots.
type StateStoreActor struct {
	ref actor.ActorRef[stateStoreMessage, any]
}

// NewStateStoreActor spawns a StateStoreActor under system's /system
// guardian, backed by pool.
func NewStateStoreActor(sys *actor.ActorSystem, name string, pool *ConnectionPool) *StateStoreActor {
	ref := actor.SpawnSystem[stateStoreMessage, any](sys, name,
		func() actor.ActorBehavior[stateStoreMessage, any] {
			return &stateStoreBehavior{pool: pool}
		})

	return &StateStoreActor{ref: ref}
}

// SaveState persists payload as entityID's latest snapshot.
func (s *StateStoreActor) SaveState(ctx context.Context, entityID string, payload []byte) error {
	_, err := actorutil.AskAwait[stateStoreMessage, any](
		ctx, s.ref, SaveState{EntityID: entityID, Payload: payload})
	return err
}

// LoadState loads entityID's latest snapshot, if any.
func (s *StateStoreActor) LoadState(ctx context.Context, entityID string) (LoadedState, error) {
	return actorutil.AskAwaitTyped[stateStoreMessage, any, LoadedState](
		ctx, s.ref, LoadState{EntityID: entityID})
}
