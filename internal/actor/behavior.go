package actor

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// FunctionBehavior adapts a plain function into an ActorBehavior, for the
// common case where an actor's logic doesn't need any state beyond what the
// closure captures.
type FunctionBehavior[M Message, R any] struct {
	fn func(ctx context.Context, msg M) fn.Result[R]
}

// NewFunctionBehavior wraps fn as an ActorBehavior[M, R].
func NewFunctionBehavior[M Message, R any](
	fn func(ctx context.Context, msg M) fn.Result[R],
) *FunctionBehavior[M, R] {
	return &FunctionBehavior[M, R]{fn: fn}
}

// Receive implements ActorBehavior.
func (f *FunctionBehavior[M, R]) Receive(ctx context.Context, msg M) fn.Result[R] {
	return f.fn(ctx, msg)
}

// Directive describes what an evolving behavior wants to happen next after
// handling a message, mirroring the Same/Stopped/Unhandled/Become variants
// from the runtime's behavior contract. ActorBehavior.Receive itself only
// returns a response value (it doubles as the ask reply), so a behavior that
// wants to change its future message-handling logic does so by mutating its
// own fields and returning Directive alongside the response via
// EvolvingBehavior; Receive on its own always implies Same.
type Directive int

const (
	// Same keeps the current behavior unchanged.
	Same Directive = iota

	// Become switches an EvolvingBehavior's internal handler to a new
	// one. Implementations signal this by swapping their own dispatch
	// field before returning; Directive is mostly informational for
	// logging/testing.
	Become

	// Stopped requests that the actor cell stop itself after this
	// message.
	Stopped

	// Unhandled marks that this behavior had no case for the message;
	// it is forwarded to the actor's dead-letter sink.
	Unhandled
)

// EvolvingBehavior is an ActorBehavior that can additionally report a
// Directive describing how its own internal state changed in response to the
// message just processed. Cell.process consults ReceiveDirective instead of
// Receive when a behavior implements this interface, enabling Stop-on-message
// and Unhandled-to-dead-letters semantics without changing the base
// ActorBehavior contract other callers rely on.
type EvolvingBehavior[M Message, R any] interface {
	ActorBehavior[M, R]

	// ReceiveDirective processes msg exactly like Receive, additionally
	// reporting the Directive that resulted. Implementations that Become
	// a new internal handler do so by mutation before returning.
	ReceiveDirective(ctx context.Context, msg M) (fn.Result[R], Directive)
}
