package actor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/movierun/movie/internal/path"
)

// childEntry is what a parent cell keeps about one direct child: enough to
// deliver signals to it, stop it, and evaluate supervision without knowing
// its concrete message/response types.
type childEntry struct {
	sink   signalSink
	path   path.ActorPath
	budget *restartBudget
}

// Cell is the hierarchical, supervised actor runtime: it owns a typed
// mailbox and behavior like the plain Actor type,
// but additionally tracks a path, a parent, a set of children, watchers, and
// a SupervisionConfig governing how it reacts to its children's failures.
//
// Cell and Actor intentionally share very little code: Actor is the
// original flat, ID-addressed actor shape (still used for simple
// system services like the dead-letter sink and the persistence connection
// pool); Cell adds the full supervised tree on top of the same
// Mailbox/Promise/ActorBehavior primitives.
type Cell[M Message, R any] struct {
	id   string
	path path.ActorPath

	behaviorFactory func() ActorBehavior[M, R]
	behavior        ActorBehavior[M, R]

	mailbox *ChannelMailbox[M, R]
	signals chan Signal

	ctx    context.Context
	cancel context.CancelFunc

	dlo ActorRef[Message, any]
	wg  *sync.WaitGroup

	cleanupTimeout time.Duration

	parent signalSink

	childrenMu  sync.Mutex
	children    map[string]*childEntry
	supervision SupervisionConfig

	watchersMu sync.Mutex
	watchers   []signalSink

	registry *path.Registry

	startOnce sync.Once
	stopOnce  sync.Once

	ref ActorRef[M, R]
}

// CellConfig holds everything needed to construct a root or child Cell.
type CellConfig[M Message, R any] struct {
	ID              string
	Path            path.ActorPath
	BehaviorFactory func() ActorBehavior[M, R]
	DLO             ActorRef[Message, any]
	MailboxSize     int
	Wg              *sync.WaitGroup
	CleanupTimeout  fn.Option[time.Duration]
	Parent          signalSink
	Supervision     SupervisionConfig
	Registry        *path.Registry
}

// NewCell constructs a Cell from cfg. It does not start the processing loop;
// call Start for that.
func NewCell[M Message, R any](cfg CellConfig[M, R]) *Cell[M, R] {
	ctx, cancel := context.WithCancel(context.Background())

	mailboxCap := cfg.MailboxSize
	if mailboxCap <= 0 {
		mailboxCap = 1
	}

	supervision := cfg.Supervision
	if supervision == (SupervisionConfig{}) {
		supervision = DefaultSupervision()
	}

	c := &Cell[M, R]{
		id:              cfg.ID,
		path:            cfg.Path,
		behaviorFactory: cfg.BehaviorFactory,
		behavior:        cfg.BehaviorFactory(),
		mailbox:         NewChannelMailbox[M, R](ctx, mailboxCap),
		signals:         make(chan Signal, 32),
		ctx:             ctx,
		cancel:          cancel,
		dlo:             cfg.DLO,
		wg:              cfg.Wg,
		cleanupTimeout:  cfg.CleanupTimeout.UnwrapOr(5 * time.Second),
		parent:          cfg.Parent,
		children:        make(map[string]*childEntry),
		supervision:     supervision,
		registry:        cfg.Registry,
	}

	c.ref = &cellRefImpl[M, R]{cell: c}

	if c.registry != nil {
		c.registry.Register(c.id, c.path)
	}

	return c
}

// ID implements BaseActorRef / signalSink.
func (c *Cell[M, R]) ID() string { return c.id }

// Path returns this cell's canonical actor path.
func (c *Cell[M, R]) Path() path.ActorPath { return c.path }

// Ref returns the typed ActorRef for this cell.
func (c *Cell[M, R]) Ref() ActorRef[M, R] { return c.ref }

// deliverSignal implements signalSink.
func (c *Cell[M, R]) deliverSignal(sig Signal) {
	select {
	case c.signals <- sig:
	case <-c.ctx.Done():
	}
}

// Start launches the cell's processing goroutine exactly once, sending
// PreStart then PostStart to the behavior's optional SignalHandler.
func (c *Cell[M, R]) Start() {
	c.startOnce.Do(func() {
		if c.wg != nil {
			c.wg.Add(1)
		}

		log.DebugS(c.ctx, "Starting cell", "path", c.path.String())

		go c.process()
	})
}

// Stop initiates termination: cancels the cell's context, which the process
// loop observes to begin mailbox drain and child cascade-stop.
func (c *Cell[M, R]) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
	})
}

// process is the cell's single-consumer event loop. System signals are
// always drained ahead of the next user message; a failure raised while handling a user message is recovered and
// reported to the parent for supervision rather than crashing the process.
func (c *Cell[M, R]) process() {
	if c.wg != nil {
		defer c.wg.Done()
	}

	c.dispatchSignal(Signal{Kind: SigPreStart})
	c.dispatchSignal(Signal{Kind: SigPostStart})

loop:
	for {
		// Drain every currently queued signal before considering the
		// next user message.
		for drained := false; !drained; {
			select {
			case sig := <-c.signals:
				if c.handleSignal(sig) {
					break loop
				}
			default:
				drained = true
			}
		}

		select {
		case <-c.ctx.Done():
			break loop

		case sig := <-c.signals:
			if c.handleSignal(sig) {
				break loop
			}

		case env, ok := <-c.mailbox.Chan():
			if !ok {
				break loop
			}

			c.handleEnvelope(env)
		}
	}

	c.shutdown()
}

// handleSignal processes one system signal, returning true if it demands the
// process loop stop immediately (SigStop).
func (c *Cell[M, R]) handleSignal(sig Signal) bool {
	log.TraceS(c.ctx, "Cell handling signal",
		"path", c.path.String(), "kind", sig.Kind.String())

	switch sig.Kind {
	case SigStop:
		c.cancel()
		return true

	case sigRestart:
		c.dispatchSignal(Signal{Kind: SigPreStop})
		c.behavior = c.behaviorFactory()
		c.dispatchSignal(Signal{Kind: SigPostStart})

	case SigWatch:
		c.watchersMu.Lock()
		c.watchers = append(c.watchers, sig.Watcher)
		c.watchersMu.Unlock()

	case SigUnwatch:
		c.watchersMu.Lock()
		for i, w := range c.watchers {
			if w == sig.Watcher {
				c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
				break
			}
		}
		c.watchersMu.Unlock()

	case SigTerminated:
		if sig.ChildID != "" {
			c.childrenMu.Lock()
			delete(c.children, sig.ChildID)
			c.childrenMu.Unlock()
		}
		c.dispatchSignal(sig)

	case SigFailure:
		c.handleChildFailure(sig.ChildID, sig.Err)

	default:
	}

	return false
}

// dispatchSignal invokes the current behavior's optional SignalHandler.
func (c *Cell[M, R]) dispatchSignal(sig Signal) {
	if handler, ok := c.behavior.(SignalHandler); ok {
		handler.OnSignal(c.ctx, sig)
	}
}

// handleEnvelope runs the behavior against one user message, recovering any
// panic and reporting it to the parent as a Failure signal rather than
// crashing the cell's goroutine.
func (c *Cell[M, R]) handleEnvelope(env envelope[M, R]) {
	var processCtx context.Context
	var cancel context.CancelFunc
	if env.promise != nil {
		processCtx, cancel = mergeContexts(c.ctx, env.callerCtx)
	} else {
		processCtx, cancel = c.ctx, func() {}
	}
	defer cancel()

	result, panicErr := c.safeReceive(withCell(processCtx, c), env.message)
	if panicErr != nil {
		if env.promise != nil {
			env.promise.Complete(fn.Err[R](panicErr))
		}

		if c.parent != nil {
			c.parent.deliverSignal(Signal{
				Kind:    SigFailure,
				ChildID: c.id,
				Err:     panicErr,
			})
		}

		return
	}

	if env.promise != nil {
		env.promise.Complete(result)
	}
}

// safeReceive calls the behavior's Receive, converting any panic into an
// error rather than letting it unwind the cell's goroutine. An ordinary fn.Err[R] returned by the behavior (e.g. "entity
// not found") is NOT a supervised failure — it's delivered straight back to
// the caller via the promise, same as a success value. Only a panic counts
// as the kind of failure that reaches the parent's supervision strategy.
func (c *Cell[M, R]) safeReceive(ctx context.Context, msg M) (res fn.Result[R], panicErr error) {
	defer func() {
		if r := recover(); r != nil {
			panicErr = fmt.Errorf("actor panic: %v", r)
		}
	}()

	evolving, ok := c.behavior.(EvolvingBehavior[M, R])
	if !ok {
		return c.behavior.Receive(ctx, msg), nil
	}

	result, directive := evolving.ReceiveDirective(ctx, msg)
	switch directive {
	case Stopped:
		c.Stop()
	case Unhandled:
		if c.dlo != nil {
			c.dlo.Tell(context.Background(), msg)
		}
	}

	return result, nil
}

// handleChildFailure implements supervision strategy evaluation from spec
// §4.3.
func (c *Cell[M, R]) handleChildFailure(childID string, failErr error) {
	c.childrenMu.Lock()
	entry, ok := c.children[childID]
	c.childrenMu.Unlock()

	if !ok {
		log.WarnS(c.ctx, "Failure from unknown child", failErr,
			"child_id", childID)

		return
	}

	log.WarnS(c.ctx, "Child actor failed", failErr, "child_id", childID,
		"strategy", c.supervision.Strategy)

	switch c.supervision.Strategy {
	case Resume:
		// Mailbox and state are kept; the failing message is already
		// dropped since its promise (if any) was completed with the
		// error in handleEnvelope.

	case Restart:
		c.applyToScope(entry, func(e *childEntry) {
			count, withinBudget := e.budget.recordAndCheck(time.Now())
			if !withinBudget {
				log.WarnS(c.ctx, "Restart budget exhausted, stopping child",
					nil, "child_id", e.sink.ID(), "restart_count", count)

				c.stopChild(e)
				return
			}

			delay := e.budget.delay(count - 1)
			time.AfterFunc(delay, func() {
				e.sink.deliverSignal(Signal{Kind: sigRestart})
			})
		})

	case Stop:
		c.applyToScope(entry, c.stopChild)

	case Escalate:
		if c.parent != nil {
			c.parent.deliverSignal(Signal{
				Kind:    SigFailure,
				ChildID: c.id,
				Err:     failErr,
			})
		} else {
			c.applyToScope(entry, c.stopChild)
		}
	}
}

// applyToScope invokes fn on entry alone (OneForOne) or on every sibling
// under this cell (AllForOne).
func (c *Cell[M, R]) applyToScope(entry *childEntry, fn func(*childEntry)) {
	if c.supervision.Scope == OneForOne {
		fn(entry)
		return
	}

	c.childrenMu.Lock()
	all := make([]*childEntry, 0, len(c.children))
	for _, e := range c.children {
		all = append(all, e)
	}
	c.childrenMu.Unlock()

	for _, e := range all {
		fn(e)
	}
}

// stopChild stops a child and removes it from the children map. The child's
// own shutdown path is responsible for notifying its watchers and, if it has
// grandchildren, cascading the stop further down.
func (c *Cell[M, R]) stopChild(e *childEntry) {
	e.sink.Stop()

	c.childrenMu.Lock()
	delete(c.children, e.sink.ID())
	c.childrenMu.Unlock()
}

// shutdown runs once the process loop exits: it closes the mailbox, drains
// remaining messages to the DLO, cascade-stops children, notifies watchers,
// unregisters from the path registry, and finally invokes the behavior's
// Stoppable hook if present.
func (c *Cell[M, R]) shutdown() {
	c.dispatchSignal(Signal{Kind: SigPreStop})

	c.mailbox.Close()

	drained := 0
	for env := range c.mailbox.Drain() {
		drained++

		if c.dlo != nil {
			c.dlo.Tell(context.Background(), env.message)
		}

		if env.promise != nil {
			env.promise.Complete(fn.Err[R](ErrActorTerminated))
		}
	}

	c.childrenMu.Lock()
	children := make([]*childEntry, 0, len(c.children))
	for _, e := range c.children {
		children = append(children, e)
	}
	c.children = nil
	c.childrenMu.Unlock()

	for _, e := range children {
		e.sink.Stop()
	}

	if c.registry != nil {
		c.registry.Unregister(c.id)
	}

	c.watchersMu.Lock()
	watchers := c.watchers
	c.watchers = nil
	c.watchersMu.Unlock()

	for _, w := range watchers {
		w.deliverSignal(Signal{
			Kind:        SigTerminated,
			WatchedPath: c.path.String(),
		})
	}

	if c.parent != nil {
		// A normal (non-failure) stop doesn't need to go through
		// supervision; just let the parent drop its bookkeeping.
		c.parent.deliverSignal(Signal{
			Kind:        SigTerminated,
			WatchedPath: c.path.String(),
			ChildID:     c.id,
		})
	}

	if stoppable, ok := c.behavior.(Stoppable); ok {
		cleanupCtx, cancel := context.WithTimeout(
			context.Background(), c.cleanupTimeout,
		)

		if err := stoppable.OnStop(cleanupCtx); err != nil {
			log.WarnS(c.ctx, "Cell cleanup error during shutdown",
				err, "path", c.path.String())
		}

		cancel()
	}

	c.dispatchSignal(Signal{Kind: SigPostStop})

	log.DebugS(c.ctx, "Cell terminated",
		"path", c.path.String(), "drained_messages", drained)
}

// SpawnChild creates a child Cell[M2, R2] under parent, registers it in
// parent's children map for supervision, and starts it. This is a
// package-level function (not a method on Cell) because Go methods cannot
// introduce new type parameters beyond the receiver's.
func SpawnChild[M1 Message, R1 any, M2 Message, R2 any](
	parent *Cell[M1, R1], name string,
	behaviorFactory func() ActorBehavior[M2, R2],
	opts ...CellOption[M2, R2],
) ActorRef[M2, R2] {
	childPath := parent.path.Child(name)

	cfg := CellConfig[M2, R2]{
		ID:              childPath.String(),
		Path:            childPath,
		BehaviorFactory: behaviorFactory,
		DLO:             parent.dlo,
		MailboxSize:     cap(parent.mailbox.Chan()),
		Wg:              parent.wg,
		Parent:          parent,
		Supervision:     DefaultSupervision(),
		Registry:        parent.registry,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	child := NewCell(cfg)

	parent.childrenMu.Lock()
	parent.children[child.id] = &childEntry{
		sink:   child,
		path:   childPath,
		budget: newRestartBudget(cfg.Supervision),
	}
	parent.childrenMu.Unlock()

	child.Start()

	return child.Ref()
}

// CellOption customizes CellConfig at spawn time.
type CellOption[M Message, R any] func(*CellConfig[M, R])

// WithSupervision sets the child's SupervisionConfig. The parent builds this
// child's restart budget from its MaxRestarts, Window and backoff fields;
// its Strategy and Scope govern how the child handles failures of its own
// children. The Strategy and Scope applied to this child come from the
// parent's own config.
func WithSupervision[M Message, R any](cfg SupervisionConfig) CellOption[M, R] {
	return func(c *CellConfig[M, R]) {
		c.Supervision = cfg
	}
}

// WithMailboxSize overrides the default mailbox capacity inherited from the
// parent.
func WithMailboxSize[M Message, R any](size int) CellOption[M, R] {
	return func(c *CellConfig[M, R]) {
		c.MailboxSize = size
	}
}

// cellRefImpl is the ActorRef/signalSink view of a Cell.
type cellRefImpl[M Message, R any] struct {
	cell *Cell[M, R]
}

func (r *cellRefImpl[M, R]) ID() string { return r.cell.id }

func (r *cellRefImpl[M, R]) Stop() { r.cell.Stop() }

func (r *cellRefImpl[M, R]) deliverSignal(sig Signal) { r.cell.deliverSignal(sig) }

// Tell implements TellOnlyRef.
func (r *cellRefImpl[M, R]) Tell(ctx context.Context, msg M) {
	env := envelope[M, R]{message: msg, callerCtx: ctx}
	ok := r.cell.mailbox.Send(ctx, env)
	if !ok && r.cell.dlo != nil && (ctx.Err() == nil || r.cell.ctx.Err() != nil) {
		r.cell.dlo.Tell(context.Background(), msg)
	}
}

// Ask implements ActorRef.
func (r *cellRefImpl[M, R]) Ask(ctx context.Context, msg M) Future[R] {
	promise := NewPromise[R]()

	if r.cell.ctx.Err() != nil {
		promise.Complete(fn.Err[R](ErrActorTerminated))
		return promise.Future()
	}

	env := envelope[M, R]{message: msg, promise: promise, callerCtx: ctx}
	if !r.cell.mailbox.Send(ctx, env) {
		if r.cell.ctx.Err() != nil {
			promise.Complete(fn.Err[R](ErrActorTerminated))
		} else {
			err := ctx.Err()
			if err == nil {
				err = ErrActorTerminated
			}
			promise.Complete(fn.Err[R](err))
		}
	}

	return promise.Future()
}
