package actor

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// TestCallerDeadlineRespected verifies that actors can detect and respect
// caller deadlines passed through the merged context.
func TestCallerDeadlineRespected(t *testing.T) {
	t.Parallel()

	// Track whether the behavior detected context cancellation.
	ctxCancelDetected := make(chan struct{})

	// Create a behavior that checks for context cancellation.
	behavior := NewFunctionBehavior(
		func(ctx context.Context, msg pingMsg) fn.Result[int] {
			// Simulate work that might take a while.
			select {
			case <-time.After(500 * time.Millisecond):
				// Work completed.
				return fn.Ok(msg.n)
			case <-ctx.Done():
				// Context cancelled before work finished.
				close(ctxCancelDetected)
				return fn.Err[int](ctx.Err())
			}
		},
	)

	a := NewActor(ActorConfig[pingMsg, int]{
		ID:       "deadline-actor",
		Behavior: behavior,
	})
	a.Start()
	defer a.Stop()
	ref := a.Ref()

	// Send Ask with a short deadline (50ms).
	askCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	future := ref.Ask(askCtx, pingMsg{n: 1})
	result := future.Await(context.Background())

	// The Ask should fail due to deadline.
	require.True(t, result.IsErr(), "Ask should fail due to deadline")

	// The behavior should have detected the context cancellation.
	select {
	case <-ctxCancelDetected:
		// Good - actor detected the caller's deadline.
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Actor did not detect caller deadline")
	}
}

// TestCallerContextCancellation verifies that actors detect when the caller
// cancels their context.
func TestCallerContextCancellation(t *testing.T) {
	t.Parallel()

	// Signal when actor detects cancellation.
	cancelDetected := make(chan struct{})

	behavior := NewFunctionBehavior(
		func(ctx context.Context, msg pingMsg) fn.Result[int] {
			select {
			case <-time.After(1 * time.Second):
				return fn.Ok(msg.n)
			case <-ctx.Done():
				close(cancelDetected)
				return fn.Err[int](ctx.Err())
			}
		},
	)

	a := NewActor(ActorConfig[pingMsg, int]{
		ID:       "cancel-actor",
		Behavior: behavior,
	})
	a.Start()
	defer a.Stop()
	ref := a.Ref()

	// Create cancellable context.
	askCtx, cancel := context.WithCancel(context.Background())

	// Send Ask.
	future := ref.Ask(askCtx, pingMsg{n: 1})

	// Cancel immediately.
	cancel()

	// Actor should detect the cancellation.
	select {
	case <-cancelDetected:
		// Good.
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Actor didn't detect cancellation")
	}

	// Result should be an error.
	result := future.Await(context.Background())
	require.True(t, result.IsErr())
}

// TestActorShutdownOverridesCallerDeadline verifies that actor shutdown takes
// precedence even if the caller's deadline is longer.
func TestActorShutdownOverridesCallerDeadline(t *testing.T) {
	t.Parallel()

	shutdownDetected := make(chan struct{})

	behavior := NewFunctionBehavior(
		func(ctx context.Context, msg pingMsg) fn.Result[int] {
			select {
			case <-time.After(2 * time.Second):
				return fn.Ok(msg.n)
			case <-ctx.Done():
				close(shutdownDetected)
				return fn.Err[int](ctx.Err())
			}
		},
	)

	a := NewActor(ActorConfig[pingMsg, int]{
		ID:       "shutdown-actor",
		Behavior: behavior,
	})
	a.Start()
	ref := a.Ref()

	// Send Ask with a LONG deadline (5 seconds).
	askCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	future := ref.Ask(askCtx, pingMsg{n: 1})

	// Give time for message to be received.
	time.Sleep(10 * time.Millisecond)

	// Stop the actor directly (which cancels its context).
	a.Stop()

	// Actor should have detected shutdown despite long caller deadline.
	select {
	case <-shutdownDetected:
		// Good - actor context took precedence.
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Actor didn't detect shutdown")
	}

	// Result should reflect the error.
	result := future.Await(context.Background())
	require.True(t, result.IsErr())
}

// TestTellIgnoresCallerContextAfterEnqueue verifies that Tell preserves
// fire-and-forget semantics. Once a Tell message is enqueued, cancelling the
// caller's context should not prevent the message from being processed.
func TestTellIgnoresCallerContextAfterEnqueue(t *testing.T) {
	t.Parallel()

	processed := make(chan struct{})

	behavior := NewFunctionBehavior(
		func(ctx context.Context, msg pingMsg) fn.Result[int] {
			time.Sleep(50 * time.Millisecond)

			select {
			case <-ctx.Done():
				return fn.Err[int](ctx.Err())
			default:
				close(processed)
				return fn.Ok(msg.n)
			}
		},
	)

	a := NewActor(ActorConfig[pingMsg, int]{
		ID:       "tell-actor",
		Behavior: behavior,
	})
	a.Start()
	defer a.Stop()
	ref := a.Ref()

	tellCtx, cancel := context.WithTimeout(
		context.Background(), 100*time.Millisecond,
	)
	defer cancel()

	ref.Tell(tellCtx, pingMsg{n: 1})

	time.Sleep(10 * time.Millisecond)

	cancel()

	select {
	case <-processed:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Tell message was not processed despite being enqueued")
	}
}
