package actor

import "context"

// ExtensionStoppable is implemented by extensions that hold resources needing
// cleanup at system shutdown. Extensions with nothing to release
// simply don't implement it.
type ExtensionStoppable interface {
	StopExtension(ctx context.Context) error
}

// ExtensionId is a singleton key identifying one lazily created, process-wide
// extension value of type E — the remoting subsystem, a scheduled executor,
// a metrics sink, and so on.
type ExtensionId[E any] struct {
	name    string
	factory func(*ActorSystem) E
}

// NewExtensionId creates a singleton key whose value is constructed, at most
// once per ActorSystem, via factory the first time Get is called.
func NewExtensionId[E any](name string, factory func(*ActorSystem) E) ExtensionId[E] {
	return ExtensionId[E]{name: name, factory: factory}
}

// Get returns the existing extension value for as, or creates it via the
// id's factory the first time it's requested for this system. Safe for
// concurrent use: the factory runs at most once per (id, system) pair. This
// can be a method (rather than a package-level function) because E is
// already bound by the receiver's own type parameter.
func (id ExtensionId[E]) Get(as *ActorSystem) E {
	as.extMu.Lock()
	defer as.extMu.Unlock()

	if existing, ok := as.extensions[id.name]; ok {
		return existing.(E)
	}

	value := id.factory(as)
	as.extensions[id.name] = value
	as.extensionOrder = append(as.extensionOrder, id.name)

	return value
}

// stopExtensions tears down every created extension in reverse creation
// order, invoking StopExtension on those that implement ExtensionStoppable.
func (as *ActorSystem) stopExtensions(ctx context.Context) {
	as.extMu.Lock()
	order := as.extensionOrder
	as.extensionOrder = nil
	as.extMu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		as.extMu.Lock()
		value := as.extensions[order[i]]
		delete(as.extensions, order[i])
		as.extMu.Unlock()

		stoppable, ok := value.(ExtensionStoppable)
		if !ok {
			continue
		}

		if err := stoppable.StopExtension(ctx); err != nil {
			log.WarnS(ctx, "Extension failed to stop cleanly", err,
				"extension", order[i])
		}
	}
}
