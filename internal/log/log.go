// Package log provides the structured, subsystem-scoped logger used across
// the movie runtime. It wraps btclog/v2 so every package gets the same
// ctx-first, key/value logging API regardless of whether its output ends up
// on the console, in a rotating file, or both.
package log

import (
	"context"
	"os"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// Logger is the interface every movie package depends on. It mirrors
// btclog/v2's structured logger, which itself is a thin, ctx-aware layer over
// slog.
type Logger = btclogv2.Logger

// Disabled is a logger that drops all log records. Subsystem loggers do not
// start out as Disabled: each is derived from the stderr backend below at
// import time, and a package's UseLogger can install Disabled instead.
var Disabled Logger = btclogv2.Disabled

// backend is the process-wide handler set that every subsystem logger is
// derived from via SubSystem/WithPrefix. It starts out writing to stderr so
// that a package imported for testing (with no host-level wiring) still
// produces visible output instead of silently discarding records.
var backend btclogv2.Handler = btclog.NewDefaultHandler(os.Stderr)

// SetBackend replaces the process-wide logging backend. Called once during
// host startup (see cmd/movied) after the rotating file handler and console
// handler have been combined into a build.HandlerSet.
func SetBackend(h btclogv2.Handler) {
	backend = h
}

// NewSubsystemLogger returns a Logger scoped to the given subsystem tag,
// derived from the current process-wide backend. Subsequent calls to
// SetBackend do not retroactively affect loggers already handed out; callers
// that need dynamic backend swapping should re-fetch after SetBackend.
func NewSubsystemLogger(tag string) Logger {
	return btclogv2.NewSLogger(backend.SubSystem(tag))
}

// WithContext returns l unchanged; it binds no attributes. btclog/v2
// loggers are stateless with
// respect to context (the ctx.Context argument on each call is for
// cancellation-aware sinks, not for attribute propagation).
func WithContext(_ context.Context, l Logger) Logger {
	return l
}
