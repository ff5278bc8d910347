package persistence

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
)

// registryMessage is the single message EntityRegistry's Cell understands:
// run a closure with exclusive access to the registry's cache and its own
// Cell (recovered from ctx for spawning). Funneling every lookup/spawn
// decision through one actor mailbox is what makes "does this entity exist
// yet" race-free without a separate lock, at the cost of needing type
// erasure here since GetEntity's M2/R2 vary per call and a Cell's Receive
// can only be generic over one fixed (M, R) pair.
type registryMessage struct {
	actor.BaseMessage

	run func(ctx context.Context, cache map[string]actor.BaseActorRef) any
}

// MessageType implements actor.Message.
func (registryMessage) MessageType() string { return "EntityRegistryOp" }

// registryBehavior owns the cache of spawned entity refs, keyed by child
// name.
type registryBehavior struct {
	cache map[string]actor.BaseActorRef
}

func newRegistryBehavior() *registryBehavior {
	return &registryBehavior{cache: make(map[string]actor.BaseActorRef)}
}

// Receive implements actor.ActorBehavior.
func (b *registryBehavior) Receive(ctx context.Context, msg registryMessage) fn.Result[any] {
	return fn.Ok[any](msg.run(ctx, b.cache))
}

// EntityRegistry is the root under which every event-sourced/durable-state
// entity actor is spawned and cached by its persistence.ID.
type EntityRegistry struct {
	ref actor.ActorRef[registryMessage, any]
}

// NewEntityRegistry spawns an EntityRegistry under system's /system
// guardian.
func NewEntityRegistry(sys *actor.ActorSystem, name string) *EntityRegistry {
	ref := actor.SpawnSystem[registryMessage, any](sys, name,
		func() actor.ActorBehavior[registryMessage, any] {
			return newRegistryBehavior()
		})

	return &EntityRegistry{ref: ref}
}

// GetEntity returns the existing child actor for id, or spawns one via
// spawnFn (named deterministically as "entity-<lowercase-type>-<id>") and
// caches it for subsequent calls. A second GetEntity for the same id but a
// different (M2, R2) pair is an error: ids are meant to name one entity
// type consistently.
func GetEntity[M2 actor.Message, R2 any](
	ctx context.Context, reg *EntityRegistry, id ID,
	spawnFn func() actor.ActorBehavior[M2, R2],
) (actor.ActorRef[M2, R2], error) {

	name := id.childName()

	future := reg.ref.Ask(ctx, registryMessage{
		run: func(runCtx context.Context, cache map[string]actor.BaseActorRef) any {
			if existing, ok := cache[name]; ok {
				ref, ok := existing.(actor.ActorRef[M2, R2])
				if !ok {
					return fmt.Errorf(
						"entity %s already spawned with a different message/response type", id)
				}
				return ref
			}

			cell, ok := actor.CellFromContext[registryMessage, any](runCtx)
			if !ok {
				return fmt.Errorf("entity registry: no cell in context")
			}

			ref := actor.SpawnChild[registryMessage, any, M2, R2](cell, name, spawnFn)
			cache[name] = ref

			return ref
		},
	})

	result, err := future.Await(ctx).Unpack()
	if err != nil {
		return nil, err
	}

	switch v := result.(type) {
	case actor.ActorRef[M2, R2]:
		return v, nil
	case error:
		return nil, v
	default:
		return nil, fmt.Errorf("entity registry: unexpected result type %T", result)
	}
}
