package streams

import (
	"context"
	"strconv"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
)

// Flow is one link in a pipeline: a factory for the stage's behavior, plus
// the same factory re-exposed as a plain actor.ActorBehavior constructor
// for SpawnSystem.
type Flow = func() actor.ActorBehavior[ControlMessage, any]

// Materialized is what Build returns: handles onto the running pipeline.
// Completion resolves once the sink observes OnComplete or OnError; its
// result is nil on normal completion or the propagated error.
type Materialized struct {
	Source     Stage
	Completion actor.Future[struct{}]
}

// watchingBehavior wraps a terminal stage's behavior to additionally complete
// a promise when the pipeline ends, regardless of which concrete sink
// implementation is in play.
type watchingBehavior struct {
	inner   actor.ActorBehavior[ControlMessage, any]
	promise actor.Promise[struct{}]
}

func (w *watchingBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	res := w.inner.Receive(ctx, msg)
	switch m := msg.(type) {
	case OnComplete:
		w.promise.Complete(fn.Ok(struct{}{}))
	case OnError:
		w.promise.Complete(fn.Err[struct{}](m.Err))
	}
	return res
}

func (w *watchingBehavior) OnSignal(ctx context.Context, sig actor.Signal) {
	if h, ok := w.inner.(actor.SignalHandler); ok {
		h.OnSignal(ctx, sig)
	}
}

// Build wires source through each flow in order into sink, spawning one
// Cell per stage under system's /system guardian, and returns handles onto
// the running pipeline. Each adjacent pair is connected with a Subscribe
// sent to the upstream stage and a bindUpstream sent to the downstream
// stage, so both directions of the protocol (Produce downstream,
// RequestN/Cancel upstream) are wired before any demand flows.
func Build(ctx context.Context, system *actor.ActorSystem, namePrefix string,
	source Flow, sink Flow, flows ...Flow,
) Materialized {
	promise := actor.NewPromise[struct{}]()
	stages := make([]Flow, 0, len(flows)+2)
	stages = append(stages, source)
	stages = append(stages, flows...)
	stages = append(stages, func() actor.ActorBehavior[ControlMessage, any] {
		return &watchingBehavior{inner: sink(), promise: promise}
	})

	refs := make([]Stage, len(stages))
	for i, factory := range stages {
		name := stageName(namePrefix, i)
		refs[i] = actor.SpawnSystem[ControlMessage, any](system, name, factory)
	}

	for i := 0; i < len(refs)-1; i++ {
		refs[i].Tell(ctx, Subscribe{Downstream: refs[i+1]})
		refs[i+1].Tell(ctx, bindUpstream{Upstream: refs[i]})
	}

	return Materialized{Source: refs[0], Completion: promise.Future()}
}

func stageName(prefix string, index int) string {
	if prefix == "" {
		prefix = "stream"
	}
	return prefix + "-" + strconv.Itoa(index)
}

// BuildFold wires a source through flows into an internal fold sink that
// applies f to an accumulator starting at seed, one element at a time, and
// resolves the returned future with the final accumulated value once the
// pipeline completes.
func BuildFold[E, A any](ctx context.Context, system *actor.ActorSystem, namePrefix string,
	source Flow, seed A, f func(A, E) A, flows ...Flow,
) (Stage, actor.Future[A]) {
	promise := actor.NewPromise[A]()
	acc := seed

	sinkFactory := func() actor.ActorBehavior[ControlMessage, any] {
		return &foldSinkBehavior[E, A]{
			acc:     &acc,
			f:       f,
			promise: promise,
		}
	}

	stages := make([]Flow, 0, len(flows)+2)
	stages = append(stages, source)
	stages = append(stages, flows...)
	stages = append(stages, sinkFactory)

	refs := make([]Stage, len(stages))
	for i, factory := range stages {
		refs[i] = actor.SpawnSystem[ControlMessage, any](system, stageName(namePrefix, i), factory)
	}
	for i := 0; i < len(refs)-1; i++ {
		refs[i].Tell(ctx, Subscribe{Downstream: refs[i+1]})
		refs[i+1].Tell(ctx, bindUpstream{Upstream: refs[i]})
	}

	return refs[0], promise.Future()
}

type foldSinkBehavior[E, A any] struct {
	upstream Stage
	acc      *A
	f        func(A, E) A
	promise  actor.Promise[A]
	done     bool
}

func (b *foldSinkBehavior[E, A]) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	if b.done {
		return fn.Ok[any](nil)
	}
	switch m := msg.(type) {
	case bindUpstream:
		b.upstream = m.Upstream
		b.upstream.Tell(ctx, RequestN{N: 1})
	case Produce:
		*b.acc = b.f(*b.acc, m.Value.(E))
		if b.upstream != nil {
			b.upstream.Tell(ctx, RequestN{N: 1})
		}
	case OnComplete:
		b.done = true
		b.promise.Complete(fn.Ok(*b.acc))
	case OnError:
		b.done = true
		b.promise.Complete(fn.Err[A](m.Err))
	}
	return fn.Ok[any](nil)
}
