package persistence

import (
	"strings"
)

// ID identifies one persistent entity: an event-sourced or durable-state
// actor addressed by its type and a caller-chosen instance id. Its String
// form ("Type:id") is the canonical event-stream/state-row key; the
// entity's spawned child name is built from the same two fields by
// childName.
type ID struct {
	EntityType string
	EntityID   string
}

// String returns the canonical "Type:id" form.
func (id ID) String() string {
	return id.EntityType + ":" + id.EntityID
}

// ParseID splits a canonical "Type:id" string back into an ID. ok is false
// if s has no ':' separator.
func ParseID(s string) (ID, bool) {
	entityType, entityID, found := strings.Cut(s, ":")
	if !found {
		return ID{}, false
	}
	return ID{EntityType: entityType, EntityID: entityID}, true
}

// childName is the deterministic name EntityRegistry spawns/caches this
// entity's Cell under: "entity-<lowercase-type>-<id>".
func (id ID) childName() string {
	return "entity-" + strings.ToLower(id.EntityType) + "-" + id.EntityID
}
