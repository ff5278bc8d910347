package actor

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

func TestSpawnUnderUserGuardian(t *testing.T) {
	t.Parallel()

	as := NewActorSystem()
	t.Cleanup(func() {
		_ = as.Shutdown(context.Background())
	})

	ref := Spawn[pingMsg, int](as, "greeter", echoBehavior)

	res, err := ref.Ask(context.Background(), pingMsg{n: 11}).
		Await(context.Background()).Unpack()
	require.NoError(t, err)
	require.Equal(t, 11, res)

	id, ok := as.PathRegistry().Resolve(as.UserGuardian().Path().Child("greeter"))
	require.True(t, ok)
	require.NotEmpty(t, id)
}

func TestSpawnSystemUnderSystemGuardian(t *testing.T) {
	t.Parallel()

	as := NewActorSystem()
	t.Cleanup(func() {
		_ = as.Shutdown(context.Background())
	})

	ref := SpawnSystem[pingMsg, int](as, "remoting-supervisor", echoBehavior)

	res, err := ref.Ask(context.Background(), pingMsg{n: 3}).
		Await(context.Background()).Unpack()
	require.NoError(t, err)
	require.Equal(t, 3, res)

	_, ok := as.PathRegistry().Resolve(as.UserGuardian().Path().Child("remoting-supervisor"))
	require.False(t, ok, "system-guardian children shouldn't register under /user")
}

func TestShutdownStopsGuardianSubtree(t *testing.T) {
	t.Parallel()

	as := NewActorSystem()

	done := make(chan struct{})
	behavior := NewFunctionBehavior(func(_ context.Context, _ pingMsg) fn.Result[int] {
		return fn.Ok(0)
	})
	_ = Spawn[pingMsg, int](as, "child", func() ActorBehavior[pingMsg, int] { return behavior })

	go func() {
		_ = as.Shutdown(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown never completed")
	}
}
