package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
)

// DurableStateBehavior is the contract a durable-state entity implements.
// Unlike EventSourcedBehavior, HandleCommand returns the entity's new state
// directly rather than a list of events: persist is the whole new snapshot,
// or nil to leave state unchanged and still reply.
type DurableStateBehavior[Cmd actor.Message, St any, R any] interface {
	EmptyState() St
	HandleCommand(ctx context.Context, state St, cmd Cmd) (newState *St, reply R, err error)
}

// durableStateAdapter wraps a DurableStateBehavior into an
// actor.ActorBehavior[Cmd, R]. Like eventSourcedAdapter, it loads its saved
// snapshot lazily on the first Receive call rather than at spawn time, so a
// failed load panics from Receive and escalates via the kernel's existing
// panic-recovery path instead of needing its own.
type durableStateAdapter[Cmd actor.Message, St any, R any] struct {
	behavior DurableStateBehavior[Cmd, St, R]
	store    *StateStoreActor
	entityID string

	state  St
	loaded bool
}

func (a *durableStateAdapter[Cmd, St, R]) ensureLoaded(ctx context.Context) {
	if a.loaded {
		return
	}

	loaded, err := a.store.LoadState(ctx, a.entityID)
	if err != nil {
		panic(fmt.Errorf("loading state for %q: %w", a.entityID, err))
	}

	if !loaded.Found {
		a.state = a.behavior.EmptyState()
		a.loaded = true
		return
	}

	var state St
	if err := json.Unmarshal(loaded.Payload, &state); err != nil {
		panic(fmt.Errorf("decoding state for %q: %w", a.entityID, err))
	}

	a.state = state
	a.loaded = true
}

// Receive implements actor.ActorBehavior.
func (a *durableStateAdapter[Cmd, St, R]) Receive(ctx context.Context, cmd Cmd) fn.Result[R] {
	a.ensureLoaded(ctx)

	newState, reply, err := a.behavior.HandleCommand(ctx, a.state, cmd)
	if err != nil {
		return fn.Err[R](err)
	}

	if newState != nil {
		payload, encErr := json.Marshal(*newState)
		if encErr != nil {
			return fn.Err[R](encErr)
		}

		if saveErr := a.store.SaveState(ctx, a.entityID, payload); saveErr != nil {
			return fn.Err[R](saveErr)
		}

		a.state = *newState
	}

	return fn.Ok(reply)
}

// NewDurableStateActorFactory returns a behavior factory for id's
// durable-state entity, suitable for passing straight to GetEntity.
func NewDurableStateActorFactory[Cmd actor.Message, St any, R any](
	id ID, store *StateStoreActor, behavior DurableStateBehavior[Cmd, St, R],
) func() actor.ActorBehavior[Cmd, R] {
	return func() actor.ActorBehavior[Cmd, R] {
		return &durableStateAdapter[Cmd, St, R]{
			behavior: behavior,
			store:    store,
			entityID: id.String(),
		}
	}
}
