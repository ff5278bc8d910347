package persistence

import movielog "github.com/movierun/movie/internal/log"

var log = movielog.NewSubsystemLogger("PERS")

// UseLogger replaces the package's logger.
func UseLogger(l movielog.Logger) {
	log = l
}
