package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateStoreLoadStateMissingEntityNotFound(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewStateStoreActor(sys, "state-store", pool)

	loaded, err := store.LoadState(context.Background(), "no-such-entity")
	require.NoError(t, err)
	require.False(t, loaded.Found)
}

func TestStateStoreSaveThenLoadRoundTrips(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewStateStoreActor(sys, "state-store", pool)

	ctx := context.Background()
	require.NoError(t, store.SaveState(ctx, "acct-1", []byte(`{"balance":100}`)))

	loaded, err := store.LoadState(ctx, "acct-1")
	require.NoError(t, err)
	require.True(t, loaded.Found)
	require.Equal(t, []byte(`{"balance":100}`), loaded.Payload)
}

func TestStateStoreSaveOverwritesPreviousSnapshot(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewStateStoreActor(sys, "state-store", pool)

	ctx := context.Background()
	require.NoError(t, store.SaveState(ctx, "acct-1", []byte(`{"balance":100}`)))
	require.NoError(t, store.SaveState(ctx, "acct-1", []byte(`{"balance":250}`)))

	loaded, err := store.LoadState(ctx, "acct-1")
	require.NoError(t, err)
	require.True(t, loaded.Found)
	require.Equal(t, []byte(`{"balance":250}`), loaded.Payload)
}
