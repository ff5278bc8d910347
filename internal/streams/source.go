package streams

import (
	"container/list"
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
)

// manualSourceBehavior is ManualSource's state machine. A pushed element
// that arrives with no outstanding downstream demand is buffered rather
// than dropped; buffered elements drain in FIFO order as Request arrives,
// so the source never forwards more than the cumulative requested count
// while still accepting driver pushes on its own schedule.
type manualSourceBehavior struct {
	downstream Stage
	demand     int
	buffer     *list.List
	completed  bool
	errored    bool
}

func newManualSourceBehavior() *manualSourceBehavior {
	return &manualSourceBehavior{buffer: list.New()}
}

func (b *manualSourceBehavior) Receive(ctx context.Context, msg ControlMessage) fn.Result[any] {
	switch m := msg.(type) {
	case Subscribe:
		b.downstream = m.Downstream
		b.drain()
		return fn.Ok[any](nil)

	case RequestN:
		b.demand += m.N
		b.drain()
		return fn.Ok[any](nil)

	case externalPush:
		if b.completed || b.errored {
			return fn.Ok[any](nil)
		}
		b.buffer.PushBack(m.Value)
		b.drain()
		return fn.Ok[any](nil)

	case externalComplete:
		b.completed = true
		if b.buffer.Len() == 0 && b.downstream != nil {
			b.downstream.Tell(ctx, OnComplete{})
		}
		return fn.Ok[any](nil)

	case externalError:
		b.errored = true
		if b.downstream != nil {
			b.downstream.Tell(ctx, OnError{Err: m.Err})
		}
		return fn.Ok[any](nil)

	case Cancel:
		b.errored = true
		return fn.Ok[any](nil)

	default:
		return fn.Ok[any](nil)
	}
}

func (b *manualSourceBehavior) drain() {
	if b.downstream == nil {
		return
	}

	for b.demand > 0 && b.buffer.Len() > 0 {
		front := b.buffer.Front()
		b.buffer.Remove(front)
		b.demand--
		b.downstream.Tell(context.Background(), Produce{Value: front.Value})
	}

	if b.completed && b.buffer.Len() == 0 {
		b.downstream.Tell(context.Background(), OnComplete{})
	}
}

// NewManualSource returns a fresh behavior factory for a ManualSource
// stage, for use with actor.SpawnSystem/SpawnChild.
func NewManualSource() func() actor.ActorBehavior[ControlMessage, any] {
	return func() actor.ActorBehavior[ControlMessage, any] {
		return newManualSourceBehavior()
	}
}

// ManualSourceHandle is the external driver's handle onto a running
// ManualSource stage: Produce/Complete/Error route through the stage's own
// mailbox as externalPush/externalComplete/externalError messages, so all
// state mutation still happens on the stage's single processing goroutine.
type ManualSourceHandle[E any] struct {
	ref Stage
}

// NewManualSourceHandle wraps ref (the spawned ManualSource's TellOnlyRef)
// for typed external driving.
func NewManualSourceHandle[E any](ref Stage) *ManualSourceHandle[E] {
	return &ManualSourceHandle[E]{ref: ref}
}

// Produce pushes one element into the source.
func (h *ManualSourceHandle[E]) Produce(ctx context.Context, e E) {
	h.ref.Tell(ctx, externalPush{Value: e})
}

// Complete signals no further elements will be produced.
func (h *ManualSourceHandle[E]) Complete(ctx context.Context) {
	h.ref.Tell(ctx, externalComplete{})
}

// Error signals the source has failed.
func (h *ManualSourceHandle[E]) Error(ctx context.Context, err error) {
	h.ref.Tell(ctx, externalError{Err: err})
}
