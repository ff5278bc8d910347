package persistence

import (
	"context"
	"testing"

	"github.com/movierun/movie/internal/actor"
)

// newTestActorSystem returns a fresh ActorSystem that shuts down when the
// test completes, shared by every file in this package's test suite.
func newTestActorSystem(t *testing.T) *actor.ActorSystem {
	t.Helper()

	sys := actor.NewActorSystem()
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })

	return sys
}
