package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/movierun/movie/internal/actor"
	"github.com/movierun/movie/internal/actorutil"
)

type accountCmd struct {
	actor.BaseMessage

	deposit int
	fail    bool
}

func (accountCmd) MessageType() string { return "AccountCmd" }

type accountState struct {
	Balance int
}

type accountBehavior struct{}

func (accountBehavior) EmptyState() accountState { return accountState{} }

func (accountBehavior) HandleCommand(ctx context.Context, state accountState, cmd accountCmd) (
	*accountState, int, error,
) {
	if cmd.fail {
		return nil, 0, fmt.Errorf("rejected")
	}
	next := accountState{Balance: state.Balance + cmd.deposit}
	return &next, next.Balance, nil
}

func TestDurableStateActorPersistsLatestSnapshot(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewStateStoreActor(sys, "state-store", pool)

	id := ID{EntityType: "Account", EntityID: "a1"}
	factory := NewDurableStateActorFactory[accountCmd, accountState, int](
		id, store, accountBehavior{})

	ref := actor.SpawnSystem[accountCmd, int](sys, "account-a1", factory)

	ctx := context.Background()

	balance, err := actorutil.AskAwait[accountCmd, int](ctx, ref, accountCmd{deposit: 100})
	require.NoError(t, err)
	require.Equal(t, 100, balance)

	loaded, err := store.LoadState(ctx, id.String())
	require.NoError(t, err)
	require.True(t, loaded.Found)
	require.JSONEq(t, `{"Balance":100}`, string(loaded.Payload))
}

func TestDurableStateActorSurfacesHandlerErrorsWithoutPersisting(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewStateStoreActor(sys, "state-store", pool)

	id := ID{EntityType: "Account", EntityID: "a2"}
	factory := NewDurableStateActorFactory[accountCmd, accountState, int](
		id, store, accountBehavior{})

	ref := actor.SpawnSystem[accountCmd, int](sys, "account-a2", factory)

	ctx := context.Background()

	_, err := actorutil.AskAwait[accountCmd, int](ctx, ref, accountCmd{fail: true})
	require.Error(t, err)

	loaded, err := store.LoadState(ctx, id.String())
	require.NoError(t, err)
	require.False(t, loaded.Found)
}

func TestDurableStateActorLoadsPriorSnapshotOnRestart(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewStateStoreActor(sys, "state-store", pool)

	id := ID{EntityType: "Account", EntityID: "a3"}
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, id.String(), []byte(`{"Balance":500}`)))

	factory := NewDurableStateActorFactory[accountCmd, accountState, int](
		id, store, accountBehavior{})
	ref := actor.SpawnSystem[accountCmd, int](sys, "account-a3", factory)

	balance, err := actorutil.AskAwait[accountCmd, int](ctx, ref, accountCmd{deposit: 50})
	require.NoError(t, err)
	require.Equal(t, 550, balance)
}
