package actor

import (
	"context"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// futureState is the terminal state a promise/future pair settles into.
// Exactly one of these transitions ever succeeds per promise (invariant P4
// of the runtime's testable properties).
type futureState int

const (
	statePending futureState = iota
	stateComplete
)

// subscription is a registered callback awaiting future completion, plus a
// cancellation flag checked before firing.
type subscription[T any] struct {
	fn        func(fn.Result[T])
	cancelled bool
}

// promiseImpl is the shared state between a Promise[T] and its Future[T].
// Exactly one of success/failure/cancel ever mutates result; every other
// caller of Complete is a no-op, matching the "try_* is idempotent" contract
// from §4.4 of the runtime design.
type promiseImpl[T any] struct {
	mu     sync.Mutex
	state  futureState
	result fn.Result[T]

	// done is closed exactly once, when the promise transitions to
	// stateComplete. Awaiters select on it alongside their context.
	done chan struct{}

	subs []*subscription[T]
}

// NewPromise creates a new, pending Promise[T].
func NewPromise[T any]() Promise[T] {
	return &promiseImpl[T]{
		done: make(chan struct{}),
	}
}

// Complete attempts to settle the promise with the given result. Returns true
// only for the first caller; every subsequent call is a no-op returning
// false, regardless of the result passed.
func (p *promiseImpl[T]) Complete(result fn.Result[T]) bool {
	p.mu.Lock()

	if p.state == stateComplete {
		p.mu.Unlock()
		return false
	}

	p.result = result
	p.state = stateComplete
	close(p.done)

	// Snapshot subscriptions registered before completion; they fire in
	// registration order, each exactly once, outside the lock.
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()

	for _, s := range subs {
		if !s.cancelled {
			s.fn(result)
		}
	}

	return true
}

// Future returns the Future view of this promise.
func (p *promiseImpl[T]) Future() Future[T] {
	return p
}

// Await blocks until the promise completes or ctx is cancelled.
func (p *promiseImpl[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case <-p.done:
		p.mu.Lock()
		res := p.result
		p.mu.Unlock()
		return res

	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

// OnComplete registers fn to run when the promise settles. If the promise has
// already completed, fn runs synchronously and immediately. If ctx is
// cancelled first, fn runs once with the context's error instead.
func (p *promiseImpl[T]) OnComplete(ctx context.Context, cb func(fn.Result[T])) {
	p.mu.Lock()

	if p.state == stateComplete {
		res := p.result
		p.mu.Unlock()
		cb(res)
		return
	}

	sub := &subscription[T]{fn: cb}
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	if ctx == context.Background() || ctx.Done() == nil {
		return
	}

	go func() {
		select {
		case <-p.done:
		case <-ctx.Done():
			p.mu.Lock()
			alreadyFired := p.state == stateComplete
			if !alreadyFired {
				sub.cancelled = true
			}
			p.mu.Unlock()

			if !alreadyFired {
				cb(fn.Err[T](ctx.Err()))
			}
		}
	}()
}

// ThenApply returns a new Future that completes with f applied to this
// future's success value, or propagates this future's failure/cancellation
// unchanged.
func (p *promiseImpl[T]) ThenApply(ctx context.Context, f func(T) T) Future[T] {
	derived := NewPromise[T]()

	p.OnComplete(ctx, func(res fn.Result[T]) {
		val, err := res.Unpack()
		if err != nil {
			derived.Complete(res)
			return
		}

		derived.Complete(fn.Ok(f(val)))
	})

	return derived.Future()
}
