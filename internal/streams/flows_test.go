package streams

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/movierun/movie/internal/actor"
)

func collectAll(t *testing.T, h *CollectSinkHandle[int]) []int {
	t.Helper()
	var got []int
	timeout := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-h.Out():
			if !ok {
				return got
			}
			got = append(got, v)
		case <-timeout:
			t.Fatal("collect sink never closed")
		}
	}
}

func TestTapFlowObservesWithoutAltering(t *testing.T) {
	t.Parallel()

	sys := actor.NewActorSystem()
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })
	ctx := context.Background()

	var seen []int
	tap := NewTapFlow(func(n int) { seen = append(seen, n) })
	sinkFactory, handle := NewCollectSink[int](8)

	mat := Build(ctx, sys, "tap-pipeline", NewManualSource(), sinkFactory, tap)
	src := NewManualSourceHandle[int](mat.Source)
	for n := 1; n <= 3; n++ {
		src.Produce(ctx, n)
	}
	src.Complete(ctx)

	require.Equal(t, []int{1, 2, 3}, collectAll(t, handle))
}

func TestPassThroughFlowIsIdentity(t *testing.T) {
	t.Parallel()

	sys := actor.NewActorSystem()
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })
	ctx := context.Background()

	sinkFactory, handle := NewCollectSink[int](8)
	mat := Build(ctx, sys, "passthrough-pipeline", NewManualSource(), sinkFactory, NewPassThroughFlow[int]())
	src := NewManualSourceHandle[int](mat.Source)
	src.Produce(ctx, 42)
	src.Complete(ctx)

	require.Equal(t, []int{42}, collectAll(t, handle))
}

func TestFilterFlowDropsAndRebalancesDemand(t *testing.T) {
	t.Parallel()

	sys := actor.NewActorSystem()
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })
	ctx := context.Background()

	odd := NewFilterFlow(func(n int) bool { return n%2 == 1 })
	sinkFactory, handle := NewCollectSink[int](8)
	mat := Build(ctx, sys, "filter-pipeline", NewManualSource(), sinkFactory, odd)

	src := NewManualSourceHandle[int](mat.Source)
	for n := 1; n <= 6; n++ {
		src.Produce(ctx, n)
	}
	src.Complete(ctx)

	require.Equal(t, []int{1, 3, 5}, collectAll(t, handle))
}

func TestTakeFlowCancelsUpstreamAfterLimit(t *testing.T) {
	t.Parallel()

	sys := actor.NewActorSystem()
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })
	ctx := context.Background()

	sinkFactory, handle := NewCollectSink[int](8)
	mat := Build(ctx, sys, "take-pipeline", NewManualSource(), sinkFactory, NewTakeFlow[int](3))

	src := NewManualSourceHandle[int](mat.Source)
	for n := 1; n <= 10; n++ {
		src.Produce(ctx, n)
	}

	require.Equal(t, []int{1, 2, 3}, collectAll(t, handle))

	ctxW, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, handle.Wait(ctxW))
}
