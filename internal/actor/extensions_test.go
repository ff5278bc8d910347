package actor

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExtension struct {
	id      int
	stopped *atomic.Int32
	order   *atomic.Int32
}

func (e *fakeExtension) StopExtension(context.Context) error {
	e.order.Add(1)
	e.stopped.Store(int32(e.id))
	return nil
}

func TestExtensionGetIsLazyAndSingleton(t *testing.T) {
	t.Parallel()

	as := NewActorSystem()
	t.Cleanup(func() {
		_ = as.Shutdown(context.Background())
	})

	var created atomic.Int32

	id := NewExtensionId("counter", func(*ActorSystem) *atomic.Int32 {
		created.Add(1)
		return &atomic.Int32{}
	})

	first := id.Get(as)
	second := id.Get(as)

	require.Same(t, first, second)
	require.EqualValues(t, 1, created.Load())
}

func TestExtensionsStopInReverseCreationOrder(t *testing.T) {
	t.Parallel()

	as := NewActorSystem()

	var stopped atomic.Int32
	var order atomic.Int32

	idA := NewExtensionId("a", func(*ActorSystem) *fakeExtension {
		return &fakeExtension{id: 1, stopped: &stopped, order: &order}
	})
	idB := NewExtensionId("b", func(*ActorSystem) *fakeExtension {
		return &fakeExtension{id: 2, stopped: &stopped, order: &order}
	})

	idA.Get(as)
	idB.Get(as)

	require.NoError(t, as.Shutdown(context.Background()))

	// B was created second, so it must stop first.
	require.EqualValues(t, 1, stopped.Load())
}
