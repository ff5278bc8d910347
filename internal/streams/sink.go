package streams

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
)

// terminalSignal reports how a CollectSink's pipeline ended.
type terminalSignal struct {
	Err error
}

// collectSinkBehavior requests one element at a time as its output channel
// accepts them, so a slow consumer backpressures all the way to the
// source without any buffering inside the stage itself.
type collectSinkBehavior struct {
	upstream Stage
	out      chan<- any
	done     chan<- terminalSignal
	closed   bool
}

func newCollectSinkBehavior(out chan<- any, done chan<- terminalSignal) *collectSinkBehavior {
	return &collectSinkBehavior{out: out, done: done}
}

func (b *collectSinkBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	switch m := msg.(type) {
	case bindUpstream:
		b.upstream = m.Upstream
		// Seed the demand loop as soon as upstream is known; every
		// subsequent Produce re-requests one more.
		b.upstream.Tell(ctx, RequestN{N: 1})
	case Produce:
		if b.closed {
			return fn.Ok[any](nil)
		}
		select {
		case b.out <- m.Value:
		case <-ctx.Done():
			return fn.Ok[any](nil)
		}
		if b.upstream != nil {
			b.upstream.Tell(ctx, RequestN{N: 1})
		}
	case OnComplete:
		b.finish(nil)
	case OnError:
		b.finish(m.Err)
	}
	return fn.Ok[any](nil)
}

func (b *collectSinkBehavior) finish(err error) {
	if b.closed {
		return
	}
	b.closed = true
	close(b.out)
	if b.done != nil {
		b.done <- terminalSignal{Err: err}
		close(b.done)
	}
}

// CollectSinkHandle exposes the output of a running CollectSink stage: Out
// yields each produced element, and Wait returns once the stream has
// completed or failed, with the terminal error (nil on normal completion).
type CollectSinkHandle[E any] struct {
	out  <-chan E
	done <-chan terminalSignal
}

// Out returns the channel of produced elements. Safe to range over exactly
// once; it closes when the upstream completes or errors.
func (h *CollectSinkHandle[E]) Out() <-chan E {
	return h.out
}

// Wait blocks until the sink's upstream completes or errors.
func (h *CollectSinkHandle[E]) Wait(ctx context.Context) error {
	select {
	case sig, ok := <-h.done:
		if !ok {
			return nil
		}
		return sig.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewCollectSink returns a factory for a sink stage plus the handle used to
// consume its output. bufferSize bounds the output channel's capacity.
func NewCollectSink[E any](bufferSize int) (func() actor.ActorBehavior[ControlMessage, any], *CollectSinkHandle[E]) {
	raw := make(chan any, bufferSize)
	typed := make(chan E, bufferSize)
	done := make(chan terminalSignal, 1)

	go func() {
		defer close(typed)
		for v := range raw {
			typed <- v.(E)
		}
	}()

	handle := &CollectSinkHandle[E]{out: typed, done: done}
	factory := func() actor.ActorBehavior[ControlMessage, any] {
		return newCollectSinkBehavior(raw, done)
	}
	return factory, handle
}
