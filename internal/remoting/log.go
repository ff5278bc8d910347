package remoting

import movielog "github.com/movierun/movie/internal/log"

// log is the package-wide subsystem logger for connection, pool, and server
// lifecycle events. Defaults to a stderr-backed logger so the package is
// usable standalone in tests; hosts should call UseLogger during startup.
var log = movielog.NewSubsystemLogger("RMTG")

// UseLogger replaces the package's logger. Intended to be called once
// during host process startup.
func UseLogger(l movielog.Logger) {
	log = l
}
