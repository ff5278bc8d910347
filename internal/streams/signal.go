// Package streams implements a pull-based reactive dataflow runtime: every
// stage is an actor.Cell exchanging a small closed set of control messages
// (Subscribe, RequestN, Produce, Cancel, OnComplete, OnError), so demand and
// elements both flow as ordinary actor messages rather than through a
// separate channel-based primitive.
package streams

import "github.com/movierun/movie/internal/actor"

// ControlMessage is the sealed interface every stream-stage message
// implements.
type ControlMessage interface {
	actor.Message
	controlMarker()
}

type baseControl struct{ actor.BaseMessage }

func (baseControl) controlMarker() {}

// Stage is the narrow capability every operator needs of its neighbors:
// tell-only, since stream signaling is pure fire-and-forget message
// passing with no replies.
type Stage = actor.TellOnlyRef[ControlMessage]

// Subscribe registers downstream as the sender's sole subscriber. Sent to
// an upstream stage by the builder when wiring a pipeline.
type Subscribe struct {
	baseControl
	Downstream Stage
}

func (Subscribe) MessageType() string { return "Subscribe" }

// RequestN signals that the sender is ready to accept up to N more
// elements. Sent upstream. From is populated only when the sender is one
// of several subscribers sharing an upstream (a BroadcastHub), so the
// upstream can track per-subscriber demand; two-party stages leave it nil.
type RequestN struct {
	baseControl
	N    int
	From Stage
}

func (RequestN) MessageType() string { return "Request" }

// Produce carries one element downstream. Value's dynamic type is the
// stage's element type; operators type-assert it internally.
type Produce struct {
	baseControl
	Value any
}

func (Produce) MessageType() string { return "Produce" }

// Cancel propagates upstream, asking the source to stop producing. From is
// populated only for a BroadcastHub subscriber, identifying which
// subscriber is cancelling.
type Cancel struct {
	baseControl
	From Stage
}

func (Cancel) MessageType() string { return "Cancel" }

// OnComplete propagates downstream: no further elements will arrive.
type OnComplete struct{ baseControl }

func (OnComplete) MessageType() string { return "OnComplete" }

// OnError propagates downstream: the stream has failed.
type OnError struct {
	baseControl
	Err error
}

func (OnError) MessageType() string { return "OnError" }

// externalPush, externalComplete, and externalError are ManualSource's
// private inbound messages from its driver handle — not part of the
// stage-to-stage protocol above, but still routed through the stage's
// mailbox so all of a ManualSource's state mutates on its single
// processing goroutine.
type externalPush struct {
	baseControl
	Value any
}

func (externalPush) MessageType() string { return "ExternalPush" }

type externalComplete struct{ baseControl }

func (externalComplete) MessageType() string { return "ExternalComplete" }

type externalError struct {
	baseControl
	Err error
}

func (externalError) MessageType() string { return "ExternalError" }

// bindUpstream is sent by Build once a flow stage's upstream neighbor has
// been spawned, so the stage knows where to forward RequestN/Cancel.
type bindUpstream struct {
	baseControl
	Upstream Stage
}

func (bindUpstream) MessageType() string { return "BindUpstream" }
