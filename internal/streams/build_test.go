package streams

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/movierun/movie/internal/actor"
)

func TestManualSourceMapFilterTakeCollect(t *testing.T) {
	t.Parallel()

	sys := actor.NewActorSystem()
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })

	sourceFactory := NewManualSource()
	doubled := NewMapFlow(func(n int) int { return n * 2 })
	evensOnly := NewFilterFlow(func(n int) bool { return n%4 == 0 })
	firstTwo := NewTakeFlow[int](2)
	sinkFactory, handle := NewCollectSink[int](8)

	ctx := context.Background()
	mat := Build(ctx, sys, "pipeline", sourceFactory, sinkFactory, doubled, evensOnly, firstTwo)

	src := NewManualSourceHandle[int](mat.Source)
	for n := 1; n <= 6; n++ {
		src.Produce(ctx, n)
	}
	src.Complete(ctx)

	var got []int
	timeout := time.After(2 * time.Second)
drain:
	for {
		select {
		case v, ok := <-handle.Out():
			if !ok {
				break drain
			}
			got = append(got, v)
		case <-timeout:
			t.Fatal("collect sink never closed")
		}
	}

	require.Equal(t, []int{4, 8}, got)
	require.NoError(t, handle.Wait(ctx))
}

func TestDropFlowDiscardsPrefixIndependentOfDemand(t *testing.T) {
	t.Parallel()

	sys := actor.NewActorSystem()
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })

	ctx := context.Background()
	sourceFactory := NewManualSource()
	dropTwo := NewDropFlow[int](2)
	sinkFactory, handle := NewCollectSink[int](8)

	mat := Build(ctx, sys, "drop-pipeline", sourceFactory, sinkFactory, dropTwo)
	src := NewManualSourceHandle[int](mat.Source)

	for n := 1; n <= 4; n++ {
		src.Produce(ctx, n)
	}
	src.Complete(ctx)

	var got []int
	timeout := time.After(2 * time.Second)
drain:
	for {
		select {
		case v, ok := <-handle.Out():
			if !ok {
				break drain
			}
			got = append(got, v)
		case <-timeout:
			t.Fatal("collect sink never closed")
		}
	}

	require.Equal(t, []int{3, 4}, got)
}

func TestBuildFoldAccumulates(t *testing.T) {
	t.Parallel()

	sys := actor.NewActorSystem()
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })

	ctx := context.Background()
	sourceFactory := NewManualSource()
	ref, future := BuildFold[int, int](ctx, sys, "fold-pipeline", sourceFactory, 0,
		func(acc, n int) int { return acc + n })

	src := NewManualSourceHandle[int](ref)
	for n := 1; n <= 5; n++ {
		src.Produce(ctx, n)
	}
	src.Complete(ctx)

	ctxW, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	sum, err := future.Await(ctxW).Unpack()
	require.NoError(t, err)
	require.Equal(t, 15, sum)
}

func TestBroadcastHubFansOutIndependently(t *testing.T) {
	t.Parallel()

	sys := actor.NewActorSystem()
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })

	ctx := context.Background()
	source := actor.SpawnSystem[ControlMessage, any](sys, "hub-source", NewManualSource())
	hub := actor.SpawnSystem[ControlMessage, any](sys, "hub", NewBroadcastHub())
	source.Tell(ctx, Subscribe{Downstream: hub})
	hub.Tell(ctx, bindUpstream{Upstream: source})

	sinkFactoryA, handleA := NewCollectSink[int](8)
	sinkA := actor.SpawnSystem[ControlMessage, any](sys, "sink-a", sinkFactoryA)
	portA := SubscribeHub(ctx, hub, sinkA)
	sinkA.Tell(ctx, bindUpstream{Upstream: portA})

	sinkFactoryB, handleB := NewCollectSink[int](8)
	sinkB := actor.SpawnSystem[ControlMessage, any](sys, "sink-b", sinkFactoryB)
	portB := SubscribeHub(ctx, hub, sinkB)
	sinkB.Tell(ctx, bindUpstream{Upstream: portB})

	src := NewManualSourceHandle[int](source)
	for n := 1; n <= 3; n++ {
		src.Produce(ctx, n)
	}
	src.Complete(ctx)

	collect := func(h *CollectSinkHandle[int]) []int {
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
				t.Fatal("sink never closed")
			}
		}
	}

	require.Equal(t, []int{1, 2, 3}, collect(handleA))
	require.Equal(t, []int{1, 2, 3}, collect(handleB))
}
