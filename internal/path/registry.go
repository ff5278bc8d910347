package path

import "sync"

// Registry is a concurrent map from normalized path segments to a local actor
// id, plus the reverse lookup. It holds a non-owning back-reference only: the
// registry never stops or cleans up the actor it points to, the actor's owner
// (parent or ActorSystem) does.
type Registry struct {
	mu sync.RWMutex

	// byPath maps a normalized segment key to the actor id registered at
	// that path.
	byPath map[string]string

	// byID maps an actor id back to the path it was registered under, for
	// reverse lookup and for cleanup on unregister-by-ref.
	byID map[string]ActorPath
}

// NewRegistry constructs an empty path registry.
func NewRegistry() *Registry {
	return &Registry{
		byPath: make(map[string]string),
		byID:   make(map[string]ActorPath),
	}
}

// Register associates id with p. A second Register call for a path that's
// already occupied silently overwrites the previous entry,
func (r *Registry) Register(id string, p ActorPath) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.NormalizedKey()

	// If this id was previously registered under a different path,
	// remove the stale forward entry so Resolve doesn't return a ghost
	// mapping for the old path.
	if oldPath, ok := r.byID[id]; ok {
		oldKey := oldPath.NormalizedKey()
		if oldKey != key {
			delete(r.byPath, oldKey)
		}
	}

	r.byPath[key] = id
	r.byID[id] = p
}

// Unregister removes the entry for id, if present.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return
	}

	delete(r.byID, id)

	key := p.NormalizedKey()
	if current, ok := r.byPath[key]; ok && current == id {
		delete(r.byPath, key)
	}
}

// Resolve looks up the actor id currently registered at p, by normalized
// segments only (ignoring protocol/host/port), so a remote lookup for the
// same logical actor agrees with a local one.
func (r *Registry) Resolve(p ActorPath) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPath[p.NormalizedKey()]
	return id, ok
}

// PathFor returns the path an actor id was registered under, if any.
func (r *Registry) PathFor(id string) (ActorPath, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	return p, ok
}
