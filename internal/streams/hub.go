package streams

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
)

// subscriberState is a BroadcastHub's bookkeeping for one subscriber: how
// much demand it has expressed that the hub hasn't yet delivered on.
type subscriberState struct {
	downstream Stage
	demand     int
}

// hubBehavior fans one upstream out to many independent subscribers. It
// only pulls from upstream what every active subscriber can currently
// accept (the minimum outstanding demand), so a fast subscriber never gets
// elements a slower one hasn't asked for yet; each Produce is delivered to
// every active subscriber at once and decrements each one's demand by one.
type hubBehavior struct {
	upstream    Stage
	subscribers map[*hubPort]*subscriberState
	pending     int
	completed   bool
	errored     error
}

func newHubBehavior() *hubBehavior {
	return &hubBehavior{subscribers: make(map[*hubPort]*subscriberState)}
}

// hubPort is the per-subscriber identity a BroadcastHub uses on both
// sides of one subscription: as the subscriber's upstream reference it
// tags outgoing RequestN/Cancel with its own identity before forwarding
// them to the shared hub; the hub in turn uses it as the Produce/
// OnComplete/OnError target that forwards to the real subscriber.
type hubPort struct {
	hub        Stage
	downstream Stage
}

// ID identifies the port by its subscriber's own id, suffixed so it's
// distinguishable in logs from the subscriber's direct reference.
func (p *hubPort) ID() string { return p.downstream.ID() + "#hub-port" }

func (p *hubPort) Tell(ctx context.Context, msg ControlMessage) {
	switch m := msg.(type) {
	case RequestN:
		p.hub.Tell(ctx, RequestN{N: m.N, From: p})
	case Cancel:
		p.hub.Tell(ctx, Cancel{From: p})
	default:
		p.hub.Tell(ctx, msg)
	}
}

func (b *hubBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	switch m := msg.(type) {
	case bindUpstream:
		b.upstream = m.Upstream

	case Subscribe:
		port, ok := m.Downstream.(*hubPort)
		if !ok {
			return fn.Ok[any](nil)
		}
		if b.completed {
			port.downstream.Tell(ctx, OnComplete{})
			return fn.Ok[any](nil)
		}
		if b.errored != nil {
			port.downstream.Tell(ctx, OnError{Err: b.errored})
			return fn.Ok[any](nil)
		}
		b.subscribers[port] = &subscriberState{downstream: port.downstream}
		return fn.Ok[any](nil)

	case RequestN:
		port, _ := m.From.(*hubPort)
		if st, ok := b.subscribers[port]; ok {
			st.demand += m.N
			b.rebalance(ctx)
		}

	case Cancel:
		port, _ := m.From.(*hubPort)
		delete(b.subscribers, port)
		if len(b.subscribers) == 0 && b.upstream != nil {
			b.upstream.Tell(ctx, Cancel{})
		}

	case Produce:
		b.pending--
		for _, st := range b.subscribers {
			st.demand--
			st.downstream.Tell(ctx, m)
		}
		b.rebalance(ctx)

	case OnComplete:
		b.completed = true
		for port, st := range b.subscribers {
			st.downstream.Tell(ctx, m)
			delete(b.subscribers, port)
		}

	case OnError:
		b.errored = m.Err
		for port, st := range b.subscribers {
			st.downstream.Tell(ctx, m)
			delete(b.subscribers, port)
		}
	}
	return fn.Ok[any](nil)
}

// rebalance requests additional elements from upstream if every active
// subscriber now has more outstanding demand than the hub has already
// requested on their collective behalf.
func (b *hubBehavior) rebalance(ctx context.Context) {
	if b.upstream == nil || len(b.subscribers) == 0 {
		return
	}
	lowest := -1
	for _, st := range b.subscribers {
		if lowest == -1 || st.demand < lowest {
			lowest = st.demand
		}
	}
	if lowest > b.pending {
		extra := lowest - b.pending
		b.pending = lowest
		b.upstream.Tell(ctx, RequestN{N: extra})
	}
}

// NewBroadcastHub returns a factory for a fan-out stage: every subscriber
// added via Subscribe receives every element independently, and one
// subscriber cancelling doesn't affect the others.
func NewBroadcastHub() func() actor.ActorBehavior[ControlMessage, any] {
	return func() actor.ActorBehavior[ControlMessage, any] {
		return newHubBehavior()
	}
}

// newHubSubscription wraps downstream in a fresh hubPort identifying one
// subscription to hub, returning both the port (the subscriber's new
// upstream reference) and the Subscribe message to send the hub.
func newHubSubscription(hub Stage, downstream Stage) (*hubPort, Subscribe) {
	port := &hubPort{hub: hub, downstream: downstream}
	return port, Subscribe{Downstream: port}
}

// SubscribeHub attaches downstream to hub as an independent subscriber,
// returning downstream's new upstream reference (a hubPort) for use as the
// bindUpstream target when wiring downstream's own stage.
func SubscribeHub(ctx context.Context, hub Stage, downstream Stage) Stage {
	port, sub := newHubSubscription(hub, downstream)
	hub.Tell(ctx, sub)
	return port
}
