package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
	"github.com/movierun/movie/internal/actorutil"
	"github.com/movierun/movie/internal/db"
)

// eventStoreMessage is the sealed message type EventStoreActor accepts.
type eventStoreMessage interface {
	actor.Message
	isEventStoreMessage()
}

type baseEventStoreMessage struct {
	actor.BaseMessage
}

func (baseEventStoreMessage) isEventStoreMessage() {}

// AppendEvent appends one event to Stream, returning its assigned sequence
// number (1-based, monotonic per stream).
type AppendEvent struct {
	baseEventStoreMessage

	Stream  string
	Payload []byte
}

// MessageType implements actor.Message.
func (AppendEvent) MessageType() string { return "AppendEvent" }

// LoadEvents loads every event recorded for Stream, in sequence order.
type LoadEvents struct {
	baseEventStoreMessage

	Stream string
}

// MessageType implements actor.Message.
func (LoadEvents) MessageType() string { return "LoadEvents" }

// StoredEvent is one row loaded back from the event store.
type StoredEvent struct {
	Seq     int64
	Payload []byte
}

// eventStoreBehavior implements AppendEvent/LoadEvents over the "events"
// table using pool for connection access.
type eventStoreBehavior struct {
	pool *ConnectionPool
}

// Receive implements actor.ActorBehavior.
func (b *eventStoreBehavior) Receive(ctx context.Context, msg eventStoreMessage) fn.Result[any] {
	switch m := msg.(type) {
	case AppendEvent:
		seq, err := b.appendEvent(ctx, m)
		if err != nil {
			return fn.Err[any](err)
		}
		return fn.Ok[any](seq)

	case LoadEvents:
		events, err := b.loadEvents(ctx, m)
		if err != nil {
			return fn.Err[any](err)
		}
		return fn.Ok[any](events)

	default:
		return fn.Err[any](fmt.Errorf("event store: unexpected message %T", msg))
	}
}

func (b *eventStoreBehavior) appendEvent(ctx context.Context, m AppendEvent) (int64, error) {
	var seq int64

	err := b.pool.ExecTx(ctx, db.WriteTxOption(), func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE stream_id = ?`,
			m.Stream)
		if err := row.Scan(&seq); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (stream_id, seq, payload_json, created_at)
			 VALUES (?, ?, ?, ?)`,
			m.Stream, seq, m.Payload, time.Now().Unix())
		return err
	})
	if err != nil {
		return 0, err
	}

	return seq, nil
}

func (b *eventStoreBehavior) loadEvents(ctx context.Context, m LoadEvents) ([]StoredEvent, error) {
	var events []StoredEvent

	err := b.pool.ExecTx(ctx, db.ReadTxOption(), func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT seq, payload_json FROM events
			 WHERE stream_id = ? ORDER BY seq ASC`,
			m.Stream)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var ev StoredEvent
			if err := rows.Scan(&ev.Seq, &ev.Payload); err != nil {
				return err
			}
			events = append(events, ev)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// EventStoreActor is the handle callers use to append to and replay event
// streams; it Asks the underlying Cell rather than exposing the actor
// machinery directly.
type EventStoreActor struct {
	ref actor.ActorRef[eventStoreMessage, any]
}

// NewEventStoreActor spawns an EventStoreActor under system's /system
// guardian, backed by pool.
func NewEventStoreActor(sys *actor.ActorSystem, name string, pool *ConnectionPool) *EventStoreActor {
	ref := actor.SpawnSystem[eventStoreMessage, any](sys, name,
		func() actor.ActorBehavior[eventStoreMessage, any] {
			return &eventStoreBehavior{pool: pool}
		})

	return &EventStoreActor{ref: ref}
}

// AppendEvent appends payload to stream and returns its assigned sequence
// number.
func (e *EventStoreActor) AppendEvent(ctx context.Context, stream string, payload []byte) (int64, error) {
	return actorutil.AskAwaitTyped[eventStoreMessage, any, int64](
		ctx, e.ref, AppendEvent{Stream: stream, Payload: payload})
}

// LoadEvents replays every event recorded for stream, in sequence order.
func (e *EventStoreActor) LoadEvents(ctx context.Context, stream string) ([]StoredEvent, error) {
	return actorutil.AskAwaitTyped[eventStoreMessage, any, []StoredEvent](
		ctx, e.ref, LoadEvents{Stream: stream})
}
