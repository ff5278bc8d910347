package streams

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
)

// relay is the common shape shared by every one-upstream/one-downstream
// flow operator: it records the stage's downstream subscriber and upstream
// neighbour, leaving the handling of every message to the embedding
// operator.
type relay struct {
	upstream   Stage
	downstream Stage
}

func (r *relay) handleSubscribe(m Subscribe) {
	r.downstream = m.Downstream
}

func (r *relay) handleBindUpstream(m bindUpstream) {
	r.upstream = m.Upstream
}

// --- MapFlow ---------------------------------------------------------------

type mapBehavior struct {
	relay
	f func(any) any
}

// NewMapFlow returns a factory for a flow stage that applies f to every
// element, forwarding demand 1:1 with no buffering.
func NewMapFlow[E1, E2 any](f func(E1) E2) func() actor.ActorBehavior[ControlMessage, any] {
	return func() actor.ActorBehavior[ControlMessage, any] {
		return &mapBehavior{f: func(v any) any { return f(v.(E1)) }}
	}
}

func (b *mapBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	switch m := msg.(type) {
	case Subscribe:
		b.handleSubscribe(m)
	case bindUpstream:
		b.handleBindUpstream(m)
	case RequestN:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case Produce:
		if b.downstream != nil {
			b.downstream.Tell(ctx, Produce{Value: b.f(m.Value)})
		}
	case Cancel:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case OnComplete, OnError:
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
	}
	return fn.Ok[any](nil)
}

// --- FilterFlow --------------------------------------------------------------

type filterBehavior struct {
	relay
	p func(any) bool
}

// NewFilterFlow returns a factory for a flow stage that forwards only
// elements satisfying p. Dropping an element immediately re-requests one
// more from upstream so downstream demand stays balanced even though this
// stage consumed one unit of demand without producing output.
func NewFilterFlow[E any](p func(E) bool) func() actor.ActorBehavior[ControlMessage, any] {
	return func() actor.ActorBehavior[ControlMessage, any] {
		return &filterBehavior{p: func(v any) bool { return p(v.(E)) }}
	}
}

func (b *filterBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	switch m := msg.(type) {
	case Subscribe:
		b.handleSubscribe(m)
	case bindUpstream:
		b.handleBindUpstream(m)
	case RequestN:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case Produce:
		if b.p(m.Value) {
			if b.downstream != nil {
				b.downstream.Tell(ctx, m)
			}
		} else if b.upstream != nil {
			b.upstream.Tell(ctx, RequestN{N: 1})
		}
	case Cancel:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case OnComplete, OnError:
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
	}
	return fn.Ok[any](nil)
}

// --- TakeFlow ----------------------------------------------------------------

type takeBehavior struct {
	relay
	remaining int
	done      bool
}

// NewTakeFlow returns a factory for a flow stage that forwards at most the
// first n elements, then sends Cancel upstream and OnComplete downstream.
// Each RequestN from downstream is capped to the remaining allowance
// before being forwarded. Requests are capped one at a time, not summed,
// so several RequestN forwarded before their elements arrive can ask
// upstream for more than this stage will emit; elements past the limit
// are ignored.
func NewTakeFlow[E any](n int) func() actor.ActorBehavior[ControlMessage, any] {
	return func() actor.ActorBehavior[ControlMessage, any] {
		return &takeBehavior{remaining: n}
	}
}

func (b *takeBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	if b.done {
		return fn.Ok[any](nil)
	}
	switch m := msg.(type) {
	case Subscribe:
		b.handleSubscribe(m)
	case bindUpstream:
		b.handleBindUpstream(m)
	case RequestN:
		if b.upstream == nil {
			return fn.Ok[any](nil)
		}
		n := m.N
		if n > b.remaining {
			n = b.remaining
		}
		if n > 0 {
			b.upstream.Tell(ctx, RequestN{N: n})
		}
	case Produce:
		if b.remaining <= 0 {
			return fn.Ok[any](nil)
		}
		b.remaining--
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
		if b.remaining == 0 {
			b.finish(ctx)
		}
	case Cancel:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case OnComplete, OnError:
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
	}
	return fn.Ok[any](nil)
}

func (b *takeBehavior) finish(ctx context.Context) {
	b.done = true
	if b.upstream != nil {
		b.upstream.Tell(ctx, Cancel{})
	}
	if b.downstream != nil {
		b.downstream.Tell(ctx, OnComplete{})
	}
}

// --- DropFlow ----------------------------------------------------------------

type dropBehavior struct {
	relay
	remaining int
}

// NewDropFlow returns a factory for a flow stage that silently discards
// the first n elements, requesting them from upstream independently of
// any downstream demand so the drop completes without waiting on a
// subscriber.
func NewDropFlow[E any](n int) func() actor.ActorBehavior[ControlMessage, any] {
	return func() actor.ActorBehavior[ControlMessage, any] {
		return &dropBehavior{remaining: n}
	}
}

func (b *dropBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	switch m := msg.(type) {
	case Subscribe:
		b.handleSubscribe(m)
	case bindUpstream:
		b.handleBindUpstream(m)
		// Eagerly pull the elements to be discarded as soon as upstream
		// is known, rather than waiting for downstream demand.
		if b.remaining > 0 && b.upstream != nil {
			b.upstream.Tell(ctx, RequestN{N: b.remaining})
		}
	case RequestN:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case Produce:
		if b.remaining > 0 {
			b.remaining--
			return fn.Ok[any](nil)
		}
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
	case Cancel:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case OnComplete, OnError:
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
	}
	return fn.Ok[any](nil)
}

// --- TapFlow -----------------------------------------------------------------

type tapBehavior struct {
	relay
	f func(any)
}

// NewTapFlow returns a factory for a pass-through flow stage that invokes
// f for its side effect on every element before forwarding it unchanged.
func NewTapFlow[E any](f func(E)) func() actor.ActorBehavior[ControlMessage, any] {
	return func() actor.ActorBehavior[ControlMessage, any] {
		return &tapBehavior{f: func(v any) { f(v.(E)) }}
	}
}

func (b *tapBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	switch m := msg.(type) {
	case Subscribe:
		b.handleSubscribe(m)
	case bindUpstream:
		b.handleBindUpstream(m)
	case RequestN:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case Produce:
		b.f(m.Value)
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
	case Cancel:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case OnComplete, OnError:
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
	}
	return fn.Ok[any](nil)
}

// --- PassThroughFlow -----------------------------------------------------------

type passThroughBehavior struct {
	relay
}

// NewPassThroughFlow returns a factory for an identity flow stage, useful
// as a stable attach point (e.g. a BroadcastHub tap) that doesn't alter
// the element stream.
func NewPassThroughFlow[E any]() func() actor.ActorBehavior[ControlMessage, any] {
	return func() actor.ActorBehavior[ControlMessage, any] {
		return &passThroughBehavior{}
	}
}

func (b *passThroughBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	switch m := msg.(type) {
	case Subscribe:
		b.handleSubscribe(m)
	case bindUpstream:
		b.handleBindUpstream(m)
	case RequestN:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case Produce:
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
	case Cancel:
		if b.upstream != nil {
			b.upstream.Tell(ctx, m)
		}
	case OnComplete, OnError:
		if b.downstream != nil {
			b.downstream.Tell(ctx, m)
		}
	}
	return fn.Ok[any](nil)
}

