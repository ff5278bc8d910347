package actor

import (
	movielog "github.com/movierun/movie/internal/log"
)

// log is the package-wide subsystem logger for actor lifecycle and mailbox
// events. It defaults to a stderr-backed logger so the package is usable
// standalone (e.g. in tests); hosts should call UseLogger during startup to
// wire it into the combined console+file handler set.
var log = movielog.NewSubsystemLogger("ACTR")

// UseLogger replaces the package's logger. Intended to be called once during
// host process startup, before any ActorSystem is created.
func UseLogger(l movielog.Logger) {
	log = l
}
