package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/movierun/movie/internal/actor"
	"github.com/movierun/movie/internal/actorutil"
)

type counterCmd struct {
	actor.BaseMessage

	delta int
	fail  bool
}

func (counterCmd) MessageType() string { return "CounterCmd" }

type counterIncremented struct {
	Delta int
}

type counterBehavior struct{}

func (counterBehavior) EmptyState() int { return 0 }

func (counterBehavior) ApplyEvent(state int, evt counterIncremented) int {
	return state + evt.Delta
}

func (counterBehavior) HandleCommand(ctx context.Context, state int, cmd counterCmd) (
	[]counterIncremented, int, error,
) {
	if cmd.fail {
		return nil, 0, fmt.Errorf("rejected")
	}
	return []counterIncremented{{Delta: cmd.delta}}, state + cmd.delta, nil
}

func TestEventSourcedActorAppliesCommandsAndPersistsEvents(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewEventStoreActor(sys, "event-store", pool)

	id := ID{EntityType: "Counter", EntityID: "c1"}
	factory := NewEventSourcedActorFactory[counterCmd, counterIncremented, int, int](
		id, store, counterBehavior{})

	ref := actor.SpawnSystem[counterCmd, int](sys, "counter-c1", factory)

	ctx := context.Background()

	total, err := actorutil.AskAwait[counterCmd, int](ctx, ref, counterCmd{delta: 5})
	require.NoError(t, err)
	require.Equal(t, 5, total)

	total, err = actorutil.AskAwait[counterCmd, int](ctx, ref, counterCmd{delta: 3})
	require.NoError(t, err)
	require.Equal(t, 8, total)

	events, err := store.LoadEvents(ctx, id.String())
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestEventSourcedActorSurfacesHandlerErrorsWithoutPersisting(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewEventStoreActor(sys, "event-store", pool)

	id := ID{EntityType: "Counter", EntityID: "c2"}
	factory := NewEventSourcedActorFactory[counterCmd, counterIncremented, int, int](
		id, store, counterBehavior{})

	ref := actor.SpawnSystem[counterCmd, int](sys, "counter-c2", factory)

	ctx := context.Background()

	_, err := actorutil.AskAwait[counterCmd, int](ctx, ref, counterCmd{fail: true})
	require.Error(t, err)

	events, err := store.LoadEvents(ctx, id.String())
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestEventSourcedActorReplaysPriorEventsOnRestart(t *testing.T) {
	t.Parallel()

	sys := newTestActorSystem(t)
	pool := newTestConnectionPool(t)
	store := NewEventStoreActor(sys, "event-store", pool)

	id := ID{EntityType: "Counter", EntityID: "c3"}
	ctx := context.Background()

	_, err := store.AppendEvent(ctx, id.String(), []byte(`{"Delta":10}`))
	require.NoError(t, err)

	factory := NewEventSourcedActorFactory[counterCmd, counterIncremented, int, int](
		id, store, counterBehavior{})
	ref := actor.SpawnSystem[counterCmd, int](sys, "counter-c3", factory)

	total, err := actorutil.AskAwait[counterCmd, int](ctx, ref, counterCmd{delta: 1})
	require.NoError(t, err)
	require.Equal(t, 11, total)
}
