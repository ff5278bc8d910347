package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestConnectionPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "persistence.db")
	pool, err := NewConnectionPool(ConnectionPoolConfig{
		DBPath: dbPath,
		Size:   2,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Stop)

	return pool
}

func TestEventStoreAppendAssignsMonotonicSequence(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewEventStoreActor(sys, "event-store", pool)

	ctx := context.Background()

	seq1, err := store.AppendEvent(ctx, "stream-a", []byte(`{"n":1}`))
	require.NoError(t, err)
	require.Equal(t, int64(1), seq1)

	seq2, err := store.AppendEvent(ctx, "stream-a", []byte(`{"n":2}`))
	require.NoError(t, err)
	require.Equal(t, int64(2), seq2)

	seqOther, err := store.AppendEvent(ctx, "stream-b", []byte(`{"n":1}`))
	require.NoError(t, err)
	require.Equal(t, int64(1), seqOther)
}

func TestEventStoreLoadEventsReturnsInSequenceOrder(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewEventStoreActor(sys, "event-store", pool)

	ctx := context.Background()

	for n := 1; n <= 3; n++ {
		_, err := store.AppendEvent(ctx, "stream-a", []byte{byte(n)})
		require.NoError(t, err)
	}

	events, err := store.LoadEvents(ctx, "stream-a")
	require.NoError(t, err)
	require.Len(t, events, 3)

	for i, ev := range events {
		require.Equal(t, int64(i+1), ev.Seq)
		require.Equal(t, []byte{byte(i + 1)}, ev.Payload)
	}
}

func TestEventStoreLoadEventsEmptyStreamReturnsNoRows(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewEventStoreActor(sys, "event-store", pool)

	events, err := store.LoadEvents(context.Background(), "never-written")
	require.NoError(t, err)
	require.Empty(t, events)
}
