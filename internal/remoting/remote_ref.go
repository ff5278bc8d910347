package remoting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/movierun/movie/internal/actor"
	"github.com/movierun/movie/internal/path"
)

// DefaultAskTimeout is used when a caller's context carries no deadline.
const DefaultAskTimeout = 30 * time.Second

// RemoteActorRef is an actor.ActorRef[M,R] whose target lives in another
// process, reached through a striped Pool.
type RemoteActorRef[M actor.Message, R any] struct {
	target     path.ActorPath
	pool       *Pool
	registry   *MessageRegistry
	senderPath string
	decodeResp func([]byte) (R, error)
}

// NewRemoteActorRef constructs a ref to target, using pool for delivery and
// registry to encode outgoing messages / decode ask replies. senderPath is
// included on outgoing frames when the local sender is registered (empty
// string omits it). decodeResp parses an AskResponse payload into R.
func NewRemoteActorRef[M actor.Message, R any](target path.ActorPath, pool *Pool,
	registry *MessageRegistry, senderPath string,
	decodeResp func([]byte) (R, error)) *RemoteActorRef[M, R] {

	return &RemoteActorRef[M, R]{
		target:     target,
		pool:       pool,
		registry:   registry,
		senderPath: senderPath,
		decodeResp: decodeResp,
	}
}

// ID satisfies actor.BaseActorRef.
func (r *RemoteActorRef[M, R]) ID() string {
	return r.target.String()
}

func (r *RemoteActorRef[M, R]) encode(msg M) (string, []byte, error) {
	tag, err := r.registry.TagFor(msg)
	if err != nil {
		return "", nil, err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", nil, fmt.Errorf("remoting: encoding message: %w", err)
	}
	return tag, payload, nil
}

// Tell serializes msg and sends it on the target's stripe as a
// UserMessage envelope.
func (r *RemoteActorRef[M, R]) Tell(ctx context.Context, msg M) {
	tag, payload, err := r.encode(msg)
	if err != nil {
		log.WarnS(ctx, "Tell encode failed", err, "target", r.target.String())
		return
	}

	if err := r.pool.Send(r.target, userMessageEnvelope(r.target, r.senderPath, tag, payload)); err != nil {
		log.WarnS(ctx, "Tell delivery failed", err, "target", r.target.String())
	}
}

// Ask constructs an AskRequest, registers the correlation id, sends it on
// the target's stripe, and completes the returned Future with the
// deserialized R. Send failures, timeouts, cancellation and connection
// loss complete it with an error wrapping ErrRemoteDelivery; an error
// reply from the remote side completes it with that reply's error text.
func (r *RemoteActorRef[M, R]) Ask(ctx context.Context, msg M) actor.Future[R] {
	promise := actor.NewPromise[R]()

	tag, payload, err := r.encode(msg)
	if err != nil {
		promise.Complete(fn.Err[R](err))
		return promise.Future()
	}

	timeout := DefaultAskTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	corrID := uuid.NewString()
	env := askRequestEnvelope(r.target, r.senderPath, tag, payload, corrID)

	go func() {
		resp, err := r.pool.Ask(ctx, r.target, env, timeout)
		if err != nil {
			promise.Complete(fn.Err[R](fmt.Errorf("%w: %v", ErrRemoteDelivery, err)))
			return
		}

		if resp.Error != "" {
			promise.Complete(fn.Err[R](fmt.Errorf("remote error: %s", resp.Error)))
			return
		}

		val, err := r.decodeResp(resp.Payload)
		if err != nil {
			promise.Complete(fn.Err[R](fmt.Errorf("remoting: decoding response: %w", err)))
			return
		}

		promise.Complete(fn.Ok(val))
	}()

	return promise.Future()
}
