// Command movied is the host process for the movie actor runtime: it loads
// configuration, opens the persistence layer, builds the ActorSystem,
// optionally starts the remoting listener, and blocks until asked to shut
// down.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/btcsuite/btclog"
	"github.com/spf13/cobra"

	"github.com/movierun/movie/internal/actor"
	"github.com/movierun/movie/internal/build"
	"github.com/movierun/movie/internal/config"
	"github.com/movierun/movie/internal/db"
	movielog "github.com/movierun/movie/internal/log"
	"github.com/movierun/movie/internal/persistence"
	"github.com/movierun/movie/internal/remoting"
	"github.com/movierun/movie/internal/streams"
)

const envPrefix = "MOVIE"

func main() {
	root := &cobra.Command{
		Use:   "movied",
		Short: "Host process for the movie actor runtime",
	}

	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file (flags and MOVIE_* env vars still override it)")

	root.AddCommand(
		newStartCommand(&configPath),
		newMigrateCommand(),
		newVersionCommand(),
	)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("movied version %s", build.Version())
			if build.Commit != "" {
				fmt.Printf(" commit=%s", build.Commit)
			} else if build.CommitHash != "" {
				fmt.Printf(" commit=%s", build.CommitHash)
			}
			if build.GoVersion != "" {
				fmt.Printf(" go=%s", build.GoVersion)
			}
			fmt.Println()
		},
	}
}

func newMigrateCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run pending schema migrations against a persistence database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.NewSqliteStore(&db.SqliteConfig{
				DatabaseFileName: expandHome(dbPath),
			}, slog.Default())
			if err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			return store.Close()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db-path", "~/.movie/movie.db",
		"Path to the SQLite database to migrate")

	return cmd
}

func newStartCommand(configPath *string) *cobra.Command {
	var (
		dbPath         string
		logDir         string
		maxLogFiles    int
		maxLogFileSize int
		remotingHost   string
		remotingPort   int
		remotingOn     bool
		stripeCount    int
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the movied host process",
		RunE: func(cmd *cobra.Command, args []string) error {
			flagTree := config.New(map[string]any{
				"db":       map[string]any{"path": dbPath},
				"log":      map[string]any{"dir": logDir, "max-rolls": maxLogFiles, "max-roll-size": maxLogFileSize},
				"remoting": map[string]any{"enabled": remotingOn, "host": remotingHost, "port": remotingPort, "stripe-count": stripeCount},
			})

			cfg, err := loadConfig(*configPath, flagTree)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&dbPath, "db-path", "~/.movie/movie.db", "Path to the SQLite persistence database")
	flags.StringVar(&logDir, "log-dir", "~/.movie/logs", "Directory for log files (empty disables file logging)")
	flags.IntVar(&maxLogFiles, "max-log-files", build.DefaultMaxLogFiles, "Maximum number of rotated log files to keep")
	flags.IntVar(&maxLogFileSize, "max-log-file-size", build.DefaultMaxLogFileSize, "Maximum log file size in MB before rotation")
	flags.BoolVar(&remotingOn, "remoting", false, "Enable the remoting listener")
	flags.StringVar(&remotingHost, "remoting-host", "127.0.0.1", "Remoting bind host")
	flags.IntVar(&remotingPort, "remoting-port", 2552, "Remoting bind port (0 = ephemeral)")
	flags.IntVar(&stripeCount, "remoting-stripes", remoting.DefaultStripeCount, "Parallel connections per remote peer")

	return cmd
}

// loadConfig layers defaults beneath an optional YAML file, which is in
// turn overridden by MOVIE_* environment variables and finally by flags
// (flagTree), matching internal/config's WithFallback/WithOverride chain.
func loadConfig(yamlPath string, flagTree *config.Tree) (*config.Tree, error) {
	cfg := config.Empty()

	if yamlPath != "" {
		fileTree, err := config.LoadYAMLFile(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", yamlPath, err)
		}
		cfg = cfg.WithFallback(fileTree)
	}

	cfg = cfg.WithEnvOverrides(envPrefix, os.Environ())
	cfg = cfg.WithOverride(flagTree)

	return cfg, nil
}

func run(ctx context.Context, cfg *config.Tree) error {
	dbPath, _ := cfg.GetString("db.path", "~/.movie/movie.db")
	logDir, _ := cfg.GetString("log.dir", "~/.movie/logs")
	maxLogFiles, _ := cfg.GetInt("log.max-rolls", build.DefaultMaxLogFiles)
	maxLogFileSize, _ := cfg.GetInt("log.max-roll-size", build.DefaultMaxLogFileSize)
	remotingEnabled, _ := cfg.GetBool("remoting.enabled", false)
	remotingHost, _ := cfg.GetString("remoting.host", "127.0.0.1")
	remotingPort, _ := cfg.GetInt("remoting.port", 2552)

	dbPathExpanded := expandHome(dbPath)
	logDirExpanded := expandHome(logDir)

	var logRotator *build.RotatingLogWriter
	if logDirExpanded != "" {
		logRotator = build.NewRotatingLogWriter()
		err := logRotator.InitLogRotator(&build.LogRotatorConfig{
			LogDir:         logDirExpanded,
			MaxLogFiles:    maxLogFiles,
			MaxLogFileSize: maxLogFileSize,
		})
		if err != nil {
			log.Printf("failed to init log rotator: %v (continuing without file logging)", err)
			logRotator = nil
		} else {
			defer logRotator.Close()

			multiWriter := io.MultiWriter(os.Stderr, logRotator)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags)
		}
	}

	log.Printf("movied version %s commit=%s go=%s", build.Version(), commitInfo(), build.GoVersion)

	var handlers []btclog.Handler
	handlers = append(handlers, btclog.NewDefaultHandler(os.Stderr))
	if logRotator != nil {
		handlers = append(handlers, btclog.NewDefaultHandler(logRotator))
	}
	combined := build.NewHandlerSet(handlers...)
	movielog.SetBackend(combined)

	// Re-derive every subsystem logger now that the combined
	// console+file backend is in place; each package defaulted to a
	// stderr-only logger at import time.
	actor.UseLogger(movielog.NewSubsystemLogger("ACTR"))
	persistence.UseLogger(movielog.NewSubsystemLogger("PERS"))
	remoting.UseLogger(movielog.NewSubsystemLogger("RMTG"))
	streams.UseLogger(movielog.NewSubsystemLogger("STRM"))

	pool, err := persistence.NewConnectionPool(persistence.ConnectionPoolConfig{
		DBPath: dbPathExpanded,
	})
	if err != nil {
		return fmt.Errorf("opening persistence database: %w", err)
	}
	defer pool.Stop()

	sys := actor.NewActorSystem()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := sys.Shutdown(shutdownCtx); err != nil {
			log.Printf("actor system shutdown incomplete: %v (some goroutines may have leaked)", err)
		}
	}()

	// Start the shared persistence actors. Application-level entities are
	// spawned on demand against entityRegistry via persistence.GetEntity;
	// none exist yet for a bare host process.
	_ = persistence.NewEventStoreActor(sys, "event-store", pool)
	_ = persistence.NewStateStoreActor(sys, "state-store", pool)
	_ = persistence.NewEntityRegistry(sys, "entity-registry")

	var remotingRuntime *remoting.Runtime
	if remotingEnabled {
		msgRegistry := remoting.NewMessageRegistry()

		remotingRuntime, err = remoting.Enable(ctx, msgRegistry, remotingHost, remotingPort)
		if err != nil {
			return fmt.Errorf("starting remoting listener: %w", err)
		}
		log.Printf("remoting listener bound to %s", remotingRuntime.Addr())
		defer remotingRuntime.Stop()
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("movied started, waiting for shutdown signal")
	<-sigCtx.Done()
	log.Println("shutdown signal received, stopping")

	return nil
}

func commitInfo() string {
	if build.Commit != "" {
		return build.Commit
	}
	if build.CommitHash != "" {
		return build.CommitHash
	}
	return "unknown"
}

func expandHome(path string) string {
	expanded := os.ExpandEnv(path)
	if expanded == path && len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("failed to get home directory: %v", err)
		}
		expanded = filepath.Join(home, path[1:])
	}
	return expanded
}

