package actor

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	BaseMessage
	text    string
	replyTo TellOnlyRef[echoReply]
}

func (echoRequest) MessageType() string { return "echo.request" }

type echoReply struct {
	BaseMessage
	text string
}

func (echoReply) MessageType() string { return "echo.reply" }

func newEchoServer(t *testing.T) TellOnlyRef[echoRequest] {
	t.Helper()

	behavior := NewFunctionBehavior(func(ctx context.Context, req echoRequest) fn.Result[any] {
		req.replyTo.Tell(ctx, echoReply{text: req.text})
		return fn.Ok[any](nil)
	})

	a := NewActor(ActorConfig[echoRequest, any]{
		ID:          "echo-server",
		Behavior:    behavior,
		MailboxSize: 4,
	})
	a.Start()
	t.Cleanup(a.Stop)

	return a.TellRef()
}

func TestAskViaTempActorReceivesReply(t *testing.T) {
	t.Parallel()

	server := newEchoServer(t)

	future := AskViaTempActor[echoRequest, echoReply](
		context.Background(), server,
		func(replyTo TellOnlyRef[echoReply]) echoRequest {
			return echoRequest{text: "hi", replyTo: replyTo}
		},
		time.Second,
	)

	res, err := future.Await(context.Background()).Unpack()
	require.NoError(t, err)
	require.Equal(t, "hi", res.text)
}

func TestAskViaTempActorTimesOut(t *testing.T) {
	t.Parallel()

	// A server that never replies.
	silentBehavior := NewFunctionBehavior(func(_ context.Context, _ echoRequest) fn.Result[any] {
		return fn.Ok[any](nil)
	})

	a := NewActor(ActorConfig[echoRequest, any]{
		ID:          "silent-server",
		Behavior:    silentBehavior,
		MailboxSize: 4,
	})
	a.Start()
	t.Cleanup(a.Stop)

	future := AskViaTempActor[echoRequest, echoReply](
		context.Background(), a.TellRef(),
		func(replyTo TellOnlyRef[echoReply]) echoRequest {
			return echoRequest{text: "hello?", replyTo: replyTo}
		},
		20*time.Millisecond,
	)

	_, err := future.Await(context.Background()).Unpack()
	require.ErrorIs(t, err, ErrAskTimeout)
}
