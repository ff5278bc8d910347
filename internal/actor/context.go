package actor

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// cellCtxKeyType is the unexported context.Value key under which a Cell
// stores itself while invoking its behavior, giving handlers access to
// spawn/watch/stop/ask/pipe without widening the ActorBehavior.Receive
// signature.
type cellCtxKeyType struct{}

var cellCtxKey = cellCtxKeyType{}

// withCell returns a context carrying c, consulted by CellFromContext.
func withCell[M Message, R any](ctx context.Context, c *Cell[M, R]) context.Context {
	return context.WithValue(ctx, cellCtxKey, c)
}

// CellFromContext recovers the Cell whose behavior is currently executing,
// for use inside an ActorBehavior.Receive implementation. Ok is false if ctx
// didn't originate from a Cell's process loop (e.g. it's a plain Actor, or a
// test calling Receive directly).
func CellFromContext[M Message, R any](ctx context.Context) (*Cell[M, R], bool) {
	c, ok := ctx.Value(cellCtxKey).(*Cell[M, R])
	return c, ok
}

// Watch subscribes the current cell to a SigTerminated notification the next
// time target stops. target must support signal delivery (any Cell-backed
// ActorRef does); targets that don't implement signalSink are a no-op.
func (c *Cell[M, R]) Watch(target BaseActorRef) {
	sink, ok := target.(signalSink)
	if !ok {
		return
	}

	sink.deliverSignal(Signal{Kind: SigWatch, Watcher: c})
}

// Unwatch cancels a previous Watch.
func (c *Cell[M, R]) Unwatch(target BaseActorRef) {
	sink, ok := target.(signalSink)
	if !ok {
		return
	}

	sink.deliverSignal(Signal{Kind: SigUnwatch, Watcher: c})
}

// Pipe subscribes to future's completion and, when it fires, tells target
// the mapped message: onSuccess(v) on success, onFailure(err) on failure.
// If ctx is cancelled before the future completes, onFailure receives
// ctx's error.
func Pipe[T any, M Message](ctx context.Context, future Future[T],
	target TellOnlyRef[M], onSuccess func(T) M, onFailure func(error) M,
) {
	future.OnComplete(ctx, func(res fn.Result[T]) {
		val, err := res.Unpack()
		if err != nil {
			target.Tell(context.Background(), onFailure(err))
			return
		}

		target.Tell(context.Background(), onSuccess(val))
	})
}
