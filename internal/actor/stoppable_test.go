package actor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// stoppableBehavior implements both ActorBehavior and Stoppable for testing.
type stoppableBehavior struct {
	onStopCalled atomic.Bool
	cleanupDone  chan struct{}
}

func newStoppableBehavior() *stoppableBehavior {
	return &stoppableBehavior{
		cleanupDone: make(chan struct{}),
	}
}

func (b *stoppableBehavior) Receive(ctx context.Context, msg pingMsg) fn.Result[int] {
	return fn.Ok(msg.n)
}

func (b *stoppableBehavior) OnStop(ctx context.Context) error {
	b.onStopCalled.Store(true)
	close(b.cleanupDone)
	return nil
}

// TestStoppableInterfaceInvoked verifies that OnStop is called during actor
// shutdown.
func TestStoppableInterfaceInvoked(t *testing.T) {
	t.Parallel()

	behavior := newStoppableBehavior()

	a := NewActor(ActorConfig[pingMsg, int]{
		ID:       "stoppable-1",
		Behavior: behavior,
	})
	a.Start()
	a.Stop()

	select {
	case <-behavior.cleanupDone:
		// Good.
	case <-time.After(time.Second):
		t.Fatal("OnStop cleanup didn't complete")
	}

	require.True(t, behavior.onStopCalled.Load(),
		"OnStop should have been called")
}

// stoppableCleanupBehavior has slow cleanup.
type stoppableCleanupBehavior struct {
	cleanupStarted  chan struct{}
	cleanupFinished chan struct{}
}

func (b *stoppableCleanupBehavior) Receive(ctx context.Context, msg pingMsg) fn.Result[int] {
	return fn.Ok(msg.n)
}

func (b *stoppableCleanupBehavior) OnStop(ctx context.Context) error {
	close(b.cleanupStarted)
	// Simulate slow cleanup.
	time.Sleep(100 * time.Millisecond)
	close(b.cleanupFinished)
	return nil
}

// TestStoppableOnStopCompletes verifies that OnStop cleanup completes even
// with slow operations.
func TestStoppableOnStopCompletes(t *testing.T) {
	t.Parallel()

	cleanupBehavior := &stoppableCleanupBehavior{
		cleanupStarted:  make(chan struct{}),
		cleanupFinished: make(chan struct{}),
	}

	a := NewActor(ActorConfig[pingMsg, int]{
		ID:       "cleanup-actor",
		Behavior: cleanupBehavior,
	})
	a.Start()

	ref := a.Ref()
	result := ref.Ask(context.Background(), pingMsg{n: 1}).
		Await(context.Background())
	require.True(t, result.IsOk())

	a.Stop()

	select {
	case <-cleanupBehavior.cleanupFinished:
		// Good.
	case <-time.After(time.Second):
		t.Fatal("cleanup didn't finish")
	}
}

// TestNonStoppableBehaviorWorksNormally verifies that behaviors that don't
// implement Stoppable continue to work without OnStop hooks.
func TestNonStoppableBehaviorWorksNormally(t *testing.T) {
	t.Parallel()

	behavior := NewFunctionBehavior(
		func(ctx context.Context, msg pingMsg) fn.Result[int] {
			return fn.Ok(msg.n)
		},
	)

	a := NewActor(ActorConfig[pingMsg, int]{
		ID:       "normal-1",
		Behavior: behavior,
	})
	a.Start()

	ref := a.Ref()
	result := ref.Ask(context.Background(), pingMsg{n: 2}).
		Await(context.Background())
	require.True(t, result.IsOk())

	a.Stop()
}
