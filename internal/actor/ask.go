package actor

import (
	"context"
	"errors"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// ErrAskTimeout is returned when an AskViaTempActor call's deadline elapses
// before a reply arrives.
var ErrAskTimeout = errors.New("ask timed out")

// replyEnvelope is the message type the hidden temp actor's mailbox accepts:
// any reply value of type R, wrapped so it satisfies Message.
type replyEnvelope[R any] struct {
	BaseMessage
	value R
}

// MessageType implements Message.
func (replyEnvelope[R]) MessageType() string { return "actor.reply" }

// AskViaTempActor implements the classic ask pattern: it spins
// up a hidden, single-use actor whose mailbox accepts R, builds the outbound
// message with buildMsg (which is handed a TellOnlyRef the target can reply
// to), tells it to target, arms timeout, and stops the temp actor on whatever
// outcome comes first. Use this when only a TellOnlyRef[M] is available for
// target (e.g. a RemoteActorRef) — when a full ActorRef[M, R] is on hand,
// prefer its own Ask method, which completes a promise directly without the
// temp-actor indirection.
func AskViaTempActor[M Message, R Message](
	ctx context.Context, target TellOnlyRef[M],
	buildMsg func(replyTo TellOnlyRef[R]) M, timeout time.Duration,
) Future[R] {
	promise := NewPromise[R]()

	tempBehavior := NewFunctionBehavior(
		func(_ context.Context, msg R) fn.Result[R] {
			promise.Complete(fn.Ok(msg))
			return fn.Ok(msg)
		},
	)

	temp := NewActor(ActorConfig[R, R]{
		ID:          "ask-temp",
		Behavior:    tempBehavior,
		MailboxSize: 1,
	})
	temp.Start()

	askCtx, cancel := context.WithTimeout(ctx, timeout)
	settled := make(chan struct{})

	promise.Future().OnComplete(context.Background(), func(fn.Result[R]) {
		close(settled)
	})

	go func() {
		defer cancel()
		defer temp.Stop()

		select {
		case <-settled:
		case <-askCtx.Done():
			promise.Complete(fn.Err[R](ErrAskTimeout))
		}
	}()

	target.Tell(ctx, buildMsg(temp.TellRef()))

	return promise.Future()
}
