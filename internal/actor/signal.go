package actor

import "context"

// SignalKind identifies one member of the closed set of system signals from
//PreStart, PostStart, PreStop, PostStop, Stop, Watch(ref),
// Unwatch(ref), Terminated(ref), Failure(child,err). System signals always
// take precedence over the next user message in a cell's dispatch order.
type SignalKind int

const (
	SigPreStart SignalKind = iota
	SigPostStart
	SigPreStop
	SigPostStop
	SigStop
	SigWatch
	SigUnwatch
	SigTerminated
	SigFailure

	// sigRestart is not exposed to SignalHandler implementations; it is
	// the internal mechanism a parent uses to tell a surviving cell to
	// discard its state and re-invoke its behavior factory. The old
	// behavior receives SigPreStop and the new one SigPostStart; there are
	// no separate PreRestart/PostRestart signals.
	sigRestart
)

// String renders a human-readable name, used in log output.
func (k SignalKind) String() string {
	switch k {
	case SigPreStart:
		return "PreStart"
	case SigPostStart:
		return "PostStart"
	case SigPreStop:
		return "PreStop"
	case SigPostStop:
		return "PostStop"
	case SigStop:
		return "Stop"
	case SigWatch:
		return "Watch"
	case SigUnwatch:
		return "Unwatch"
	case SigTerminated:
		return "Terminated"
	case SigFailure:
		return "Failure"
	case sigRestart:
		return "Restart"
	default:
		return "Unknown"
	}
}

// signalSink is the narrow, non-generic capability a cell exposes to its
// parent and to watchers: the ability to receive a system Signal and to be
// stopped and identified. Because Go generics don't allow a map of
// *Cell[M1,R1] and *Cell[M2,R2] under one type, every cross-cell
// relationship (parent/child, watcher/watched) is expressed through this
// interface instead of a concrete generic type.
type signalSink interface {
	BaseActorRef

	// deliverSignal enqueues sig on the sink's priority signal channel.
	// It must never block indefinitely; callers use it from arbitrary
	// goroutines (child failure reporting, watch notification fan-out).
	deliverSignal(sig Signal)

	// Stop initiates termination, as in the plain Actor type.
	Stop()
}

// Signal is an envelope for one system signal, carrying whichever payload
// its Kind requires. Unused fields are zero.
type Signal struct {
	Kind SignalKind

	// ChildID/Err are populated for SigFailure: which child failed and
	// what error propagated out of its behavior. ChildID is also set on
	// the SigTerminated a stopping child sends its parent.
	ChildID string
	Err     error

	// WatchedPath is populated for SigTerminated: the path of the actor
	// that stopped.
	WatchedPath string

	// Watcher is populated for SigWatch/SigUnwatch: the sink that asked
	// to be notified (or stop being notified) of this cell's
	// termination.
	Watcher signalSink
}

// SignalHandler is an optional interface an ActorBehavior can implement to
// react to lifecycle signals (PreStart, PostStart, PreStop, PostStop,
// Terminated). Behaviors that don't implement it simply skip the hook.
type SignalHandler interface {
	OnSignal(ctx context.Context, sig Signal)
}
