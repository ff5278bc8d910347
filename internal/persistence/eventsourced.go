package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
)

// EventSourcedBehavior is the contract an event-sourced entity implements.
// EmptyState and ApplyEvent must be pure: ApplyEvent is replayed over every
// event ever recorded for the entity's stream each time it starts, so it
// cannot depend on anything but its two arguments. HandleCommand decides
// what happened (events to persist) and what the caller should be told
// (reply); it may return an error instead, which the entity's Ask surfaces
// to the caller without persisting anything or changing state.
type EventSourcedBehavior[Cmd actor.Message, Evt any, St any, R any] interface {
	EmptyState() St
	ApplyEvent(state St, evt Evt) St
	HandleCommand(ctx context.Context, state St, cmd Cmd) (events []Evt, reply R, err error)
}

// eventSourcedAdapter wraps an EventSourcedBehavior into an
// actor.ActorBehavior[Cmd, R], loading and folding its stream on the first
// message it ever receives rather than at spawn time, so a failed replay
// panics from inside Receive and takes the established panic-recovery ->
// SigFailure -> supervision path rather than needing a separate escalation
// mechanism for the startup phase.
type eventSourcedAdapter[Cmd actor.Message, Evt any, St any, R any] struct {
	behavior EventSourcedBehavior[Cmd, Evt, St, R]
	store    *EventStoreActor
	stream   string

	state  St
	loaded bool
}

func (a *eventSourcedAdapter[Cmd, Evt, St, R]) ensureLoaded(ctx context.Context) {
	if a.loaded {
		return
	}

	stored, err := a.store.LoadEvents(ctx, a.stream)
	if err != nil {
		panic(fmt.Errorf("replaying stream %q: %w", a.stream, err))
	}

	state := a.behavior.EmptyState()
	for _, row := range stored {
		var evt Evt
		if err := json.Unmarshal(row.Payload, &evt); err != nil {
			panic(fmt.Errorf("decoding event %d of stream %q: %w",
				row.Seq, a.stream, err))
		}
		state = a.behavior.ApplyEvent(state, evt)
	}

	a.state = state
	a.loaded = true
}

// Receive implements actor.ActorBehavior.
func (a *eventSourcedAdapter[Cmd, Evt, St, R]) Receive(ctx context.Context, cmd Cmd) fn.Result[R] {
	a.ensureLoaded(ctx)

	events, reply, err := a.behavior.HandleCommand(ctx, a.state, cmd)
	if err != nil {
		return fn.Err[R](err)
	}

	for _, evt := range events {
		payload, encErr := json.Marshal(evt)
		if encErr != nil {
			return fn.Err[R](encErr)
		}

		if _, appendErr := a.store.AppendEvent(ctx, a.stream, payload); appendErr != nil {
			return fn.Err[R](appendErr)
		}

		a.state = a.behavior.ApplyEvent(a.state, evt)
	}

	return fn.Ok(reply)
}

// NewEventSourcedActorFactory returns a behavior factory for id's
// event-sourced entity, suitable for passing straight to GetEntity.
func NewEventSourcedActorFactory[Cmd actor.Message, Evt any, St any, R any](
	id ID, store *EventStoreActor, behavior EventSourcedBehavior[Cmd, Evt, St, R],
) func() actor.ActorBehavior[Cmd, R] {
	return func() actor.ActorBehavior[Cmd, R] {
		return &eventSourcedAdapter[Cmd, Evt, St, R]{
			behavior: behavior,
			store:    store,
			stream:   id.String(),
		}
	}
}
