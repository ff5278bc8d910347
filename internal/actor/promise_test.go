package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

func TestPromiseCompleteSuccessAwait(t *testing.T) {
	t.Parallel()

	p := NewPromise[int]()

	ok := p.Complete(fn.Ok(42))
	require.True(t, ok)

	res := p.Future().Await(context.Background())
	val, err := res.Unpack()
	require.NoError(t, err)
	require.Equal(t, 42, val)
}

func TestPromiseCompleteIsIdempotent(t *testing.T) {
	t.Parallel()

	p := NewPromise[int]()

	require.True(t, p.Complete(fn.Ok(1)))
	require.False(t, p.Complete(fn.Ok(2)), "second Complete must be a no-op")

	val, err := p.Future().Await(context.Background()).Unpack()
	require.NoError(t, err)
	require.Equal(t, 1, val)
}

func TestFutureAwaitRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	p := NewPromise[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Future().Await(ctx).Unpack()
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFutureOnCompleteFiresAfterCompletion(t *testing.T) {
	t.Parallel()

	p := NewPromise[string]()

	done := make(chan string, 1)
	p.Future().OnComplete(context.Background(), func(res fn.Result[string]) {
		val, _ := res.Unpack()
		done <- val
	})

	p.Complete(fn.Ok("hello"))

	select {
	case v := <-done:
		require.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("OnComplete callback never fired")
	}
}

func TestFutureOnCompleteFiresImmediatelyIfAlreadyDone(t *testing.T) {
	t.Parallel()

	p := NewPromise[int]()
	p.Complete(fn.Ok(7))

	done := make(chan int, 1)
	p.Future().OnComplete(context.Background(), func(res fn.Result[int]) {
		val, _ := res.Unpack()
		done <- val
	})

	select {
	case v := <-done:
		require.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("OnComplete callback never fired for an already-completed future")
	}
}

func TestFutureThenApplyTransformsResult(t *testing.T) {
	t.Parallel()

	p := NewPromise[int]()
	derived := p.Future().ThenApply(context.Background(), func(v int) int {
		return v * 2
	})

	p.Complete(fn.Ok(21))

	val, err := derived.Await(context.Background()).Unpack()
	require.NoError(t, err)
	require.Equal(t, 42, val)
}

func TestPromiseCompleteWithFailure(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")

	p := NewPromise[int]()
	p.Complete(fn.Err[int](wantErr))

	_, err := p.Future().Await(context.Background()).Unpack()
	require.ErrorIs(t, err, wantErr)
}
