package actor

import (
	"context"
	"errors"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/movierun/movie/internal/path"
)

// stoppable defines an interface for components that can be stopped.
// This is unexported as it's an internal detail of ActorSystem for managing
// actors that need to be shut down.
type stoppable interface {
	Stop()
}

// SystemConfig holds configuration parameters for the ActorSystem.
type SystemConfig struct {
	// MailboxCapacity is the default capacity for actor mailboxes.
	MailboxCapacity int

	// Name identifies this actor system in canonical paths, e.g.
	// "movie://<Name>/user/...". Defaults to "local".
	Name string
}

// DefaultConfig returns a default configuration for the ActorSystem.
func DefaultConfig() SystemConfig {
	return SystemConfig{
		MailboxCapacity: 100,
		Name:            "local",
	}
}

// ActorSystem manages the lifecycle of actors and provides coordination
// services such as the path registry for location-transparent actor
// discovery and a dead letter office for undeliverable messages. It also
// handles the graceful shutdown of all managed actors.
type ActorSystem struct {
	// actors stores all actors managed by the system, keyed by their ID.
	// This includes the deadLetterActor.
	actors map[string]stoppable

	// deadLetterActor handles undeliverable messages.
	deadLetterActor ActorRef[Message, any]

	// config holds the system-wide configuration.
	config SystemConfig

	// mu protects the 'actors' map.
	mu sync.RWMutex

	// ctx is the main context for the actor system.
	ctx context.Context

	// cancel cancels the main system context.
	cancel context.CancelFunc

	// actorWg tracks running actor goroutines for deterministic shutdown.
	actorWg sync.WaitGroup

	// address is this system's location-transparent address, used as the
	// root of every Cell's canonical path.
	address path.Address

	// pathRegistry resolves canonical paths to local actor ids for Cells
	// spawned under either guardian.
	pathRegistry *path.Registry

	// userGuardian and systemGuardian are the two pre-created root cells
	// every Cell-based actor is spawned under: user-created
	// actors live under /user, internal runtime actors (remoting,
	// persistence, streams) live under /system.
	userGuardian   *Guardian
	systemGuardian *Guardian

	// extMu guards extensions/extensionOrder.
	extMu          sync.Mutex
	extensions     map[string]any
	extensionOrder []string
}

// NewActorSystem creates a new actor system using the default configuration.
func NewActorSystem() *ActorSystem {
	return NewActorSystemWithConfig(DefaultConfig())
}

// NewActorSystemWithConfig creates a new actor system with custom configuration
func NewActorSystemWithConfig(config SystemConfig) *ActorSystem {
	ctx, cancel := context.WithCancel(context.Background())

	// Initialize the core ActorSystem components.
	system := &ActorSystem{
		config:     config,
		actors:     make(map[string]stoppable),
		ctx:        ctx,
		cancel:     cancel,
		extensions: make(map[string]any),
	}

	// Define the behavior for the dead letter actor. It simply returns an
	// error indicating the message was undeliverable.
	deadLetterBehavior := NewFunctionBehavior(
		func(ctx context.Context, msg Message) fn.Result[any] {
			return fn.Err[any](errors.New(
				"message undeliverable: " + msg.MessageType(),
			))
		},
	)

	// Create the raw dead letter actor (*Actor instance). The DLO's own DLO
	// reference is nil to prevent loops if messages to the DLO itself fail.
	deadLetterActorCfg := ActorConfig[Message, any]{
		ID:          "dead-letters",
		Behavior:    deadLetterBehavior,
		DLO:         nil,
		MailboxSize: config.MailboxCapacity,
		Wg:          &system.actorWg,
	}
	deadLetterRawActor := NewActor[Message, any](deadLetterActorCfg)
	deadLetterRawActor.Start()
	system.deadLetterActor = deadLetterRawActor.Ref()

	// Add the raw actor to the map of stoppable actors. No lock needed here
	// as 'system' is not yet accessible concurrently.
	system.actors[deadLetterRawActor.id] = deadLetterRawActor

	// Set up location-transparent addressing and the two root guardians
	// every Cell-based actor descends from.
	system.address = path.Address{
		Protocol: path.LocalProtocol,
		System:   config.Name,
	}
	system.pathRegistry = path.NewRegistry()

	system.userGuardian = newGuardian(
		"user", system.address, &system.actorWg,
		system.deadLetterActor, system.pathRegistry,
	)
	system.systemGuardian = newGuardian(
		"system", system.address, &system.actorWg,
		system.deadLetterActor, system.pathRegistry,
	)

	// The system is now fully initialized and ready.
	return system
}

// Address returns this system's location-transparent address.
func (as *ActorSystem) Address() path.Address {
	return as.address
}

// PathRegistry returns the registry resolving canonical actor paths to local
// actor ids for every Cell spawned under either guardian.
func (as *ActorSystem) PathRegistry() *path.Registry {
	return as.pathRegistry
}

// UserGuardian returns the root cell that every user-spawned Cell descends
// from.
func (as *ActorSystem) UserGuardian() *Guardian {
	return as.userGuardian
}

// SystemGuardian returns the root cell that internal runtime actors (the
// remoting layer, persistence pools, stream supervisors) descend from (spec
// §4.1, "/system").
func (as *ActorSystem) SystemGuardian() *Guardian {
	return as.systemGuardian
}

// Spawn creates a supervised Cell[M, R] as a child of the system's /user
// guardian and starts it. This is sugar for SpawnChild(sys.UserGuardian(),
// ...), the package-level form required because Go methods cannot introduce
// new type parameters beyond the receiver's is sugar for spawning under /user").
func Spawn[M Message, R any](as *ActorSystem, name string,
	behaviorFactory func() ActorBehavior[M, R],
	opts ...CellOption[M, R],
) ActorRef[M, R] {
	return SpawnChild(as.userGuardian, name, behaviorFactory, opts...)
}

// SpawnSystem creates a supervised Cell[M, R] as a child of the system's
// /system guardian and starts it, for internal runtime components that
// shouldn't be visible alongside user-spawned actors.
func SpawnSystem[M Message, R any](as *ActorSystem, name string,
	behaviorFactory func() ActorBehavior[M, R],
	opts ...CellOption[M, R],
) ActorRef[M, R] {
	return SpawnChild(as.systemGuardian, name, behaviorFactory, opts...)
}

// DeadLetters returns a reference to the system's dead letter actor. Messages
// that cannot be delivered to their intended recipient (e.g., if an Ask
// context is cancelled before enqueuing) may be routed here if not otherwise
// handled.
func (as *ActorSystem) DeadLetters() ActorRef[Message, any] {
	return as.deadLetterActor
}

// Shutdown gracefully stops the actor system and waits for all actors to
// finish processing. It iterates through all managed actors, calls their Stop
// method, and then blocks until all actor goroutines have exited or the
// provided context expires. This ensures deterministic shutdown with guaranteed
// resource cleanup. This method is safe for concurrent use.
func (as *ActorSystem) Shutdown(ctx context.Context) error {
	// Cancel the main system context first. This ordering is critical to
	// prevent a race where a new actor could be registered and increment
	// the WaitGroup after we snapshot but before we wait, causing
	// indefinite blocking.
	as.cancel()

	// Create a slice of actors to stop. This avoids holding the lock while
	// calling Stop() on each actor, and includes the dead letter actor.
	var actorsToStop []stoppable
	as.mu.RLock()
	for _, actor := range as.actors {
		actorsToStop = append(actorsToStop, actor)
	}
	as.mu.RUnlock()

	log.InfoS(ctx, "Actor system shutting down",
		"num_actors", len(actorsToStop))

	// Notify all managed actors to stop. Actor.Stop() is non-blocking.
	// Each actor's Stop method will cancel its internal context, leading
	// to the termination of its processing goroutine.
	for _, actor := range actorsToStop {
		actor.Stop()
	}

	// Stop the two guardians: their own shutdown cascades to every Cell
	// spawned transitively under /user and /system.
	as.userGuardian.Stop()
	as.systemGuardian.Stop()

	// Tear down extensions in reverse creation order, after the actor
	// tree but before we block on the WaitGroup below — most extensions
	// (e.g. a remoting listener) should stop accepting new work promptly
	// rather than racing the actors that might still reference them.
	as.stopExtensions(ctx)

	// Clear the actors map after initiating their shutdown.
	as.mu.Lock()
	as.actors = nil
	as.mu.Unlock()

	// Wait for all actor goroutines to exit. We launch a goroutine to wait
	// on the WaitGroup so we can also respect the context deadline. If the
	// context times out, this goroutine continues running until the
	// WaitGroup reaches zero (which could be indefinite if actors are truly
	// hung). This is acceptable since shutdown timeouts indicate abnormal
	// conditions and the single goroutine overhead is negligible compared
	// to potentially leaked actor goroutines.
	done := make(chan struct{})
	go func() {
		as.actorWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// All actors have finished processing.
		log.InfoS(ctx, "Actor system shutdown completed")

		return nil

	case <-ctx.Done():
		// Context expired before all actors finished—some goroutines
		// are still running and may leak. This indicates either
		// misbehaving actors or insufficient shutdown timeout.
		log.ErrorS(ctx, "Actor system shutdown incomplete, "+
			"some actors may have leaked", ctx.Err())

		return ctx.Err()
	}
}

// StopAndRemoveActor stops a specific actor by its ID and removes it from the
// ActorSystem's management. It returns true if the actor was found and stopped,
// false otherwise.
func (as *ActorSystem) StopAndRemoveActor(id string) bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	actorToStop, exists := as.actors[id]
	if !exists {
		return false
	}

	// Stop the actor. This is non-blocking.
	actorToStop.Stop()

	// Remove from the system's management.
	delete(as.actors, id)

	log.DebugS(as.ctx, "Actor stopped and removed from system",
		"actor_id", id)

	return true
}
