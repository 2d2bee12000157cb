// Glowdeck - networked LED, audio and message-board controller.
//
// This is the main entry point for the Glowdeck service. It drives an LED
// over PWM, plays audio tracks, and keeps a small persistent message board,
// all controlled over a JSON HTTP API with an embedded web page.
//
// The service is designed to degrade rather than die: missing GPIO falls
// back to software PWM and then to a dry-run driver, and a missing audio
// device falls back to a silent player. Every control endpoint works in
// every mode.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/glowdeck/internal/announce"
	"github.com/nerrad567/glowdeck/internal/api"
	"github.com/nerrad567/glowdeck/internal/audio"
	"github.com/nerrad567/glowdeck/internal/hardware"
	"github.com/nerrad567/glowdeck/internal/infrastructure/config"
	"github.com/nerrad567/glowdeck/internal/infrastructure/database"
	"github.com/nerrad567/glowdeck/internal/infrastructure/logging"
	"github.com/nerrad567/glowdeck/internal/infrastructure/mqtt"
	"github.com/nerrad567/glowdeck/internal/state"
	"github.com/nerrad567/glowdeck/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Glowdeck",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Select an LED driver: hardware PWM, then software PWM, then dry-run.
	selection := hardware.Select(cfg.Hardware, log)
	defer func() {
		log.Info("shutting down LED driver", "driver", selection.Driver.Name())
		if shutErr := selection.Driver.Shutdown(); shutErr != nil {
			log.Error("error shutting down LED driver", "error", shutErr)
		}
	}()
	log.Info("LED driver selected",
		"driver", selection.Driver.Name(),
		"hardware_backed", selection.HardwareBacked,
	)

	// Initialise audio, falling back to the silent player on failure.
	player := openPlayer(cfg.Audio, log)
	defer func() {
		log.Info("closing audio player")
		if closeErr := player.Close(); closeErr != nil {
			log.Error("error closing audio player", "error", closeErr)
		}
	}()

	// Open the message repository for the configured backend.
	repo, db, err := openRepository(ctx, cfg.Persistence)
	if err != nil {
		return fmt.Errorf("opening message repository: %w", err)
	}
	if db != nil {
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
	}
	log.Info("message repository ready",
		"backend", cfg.Persistence.Backend,
		"path", cfg.Persistence.Path,
	)

	// Build the state store and load the persisted message board.
	store := state.New(state.Deps{
		Driver:         selection.Driver,
		HardwareBacked: selection.HardwareBacked,
		Player:         player,
		Repo:           repo,
		Logger:         log,
	})
	if err := store.LoadMessages(ctx); err != nil {
		return fmt.Errorf("loading message board: %w", err)
	}

	// Background publishers run under one errgroup tied to ctx.
	group, groupCtx := errgroup.WithContext(ctx)

	// Connect to MQTT (optional) and announce state changes.
	var announcer *announce.Announcer
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		announcer = announce.New(
			mqttClient,
			store.Status,
			time.Duration(cfg.MQTT.HeartbeatInterval)*time.Second,
			log,
		)
		group.Go(func() error {
			announcer.Run(groupCtx)
			return nil
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional) for control telemetry.
	var recorder *telemetry.Recorder
	if cfg.InfluxDB.Enabled {
		recorder, err = telemetry.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)

		recorder.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the HTTP API server.
	server, err := api.New(api.Deps{
		Config:  cfg.Server,
		Logger:  log,
		Store:   store,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.Server.Host, "port", cfg.Server.Port)

	// Fan each state change out to every consumer: WebSocket clients,
	// the MQTT announcer and the telemetry recorder.
	store.SetOnChange(func(snap state.Snapshot) {
		server.Hub().Broadcast(snap)
		if announcer != nil {
			announcer.OnChange(snap)
		}
		if recorder != nil {
			recorder.OnChange(snap)
		}
	})

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal, then for background publishers to stop.
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	if err := group.Wait(); err != nil {
		log.Error("background publisher error", "error", err)
	}

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, database, audio, LED driver.

	log.Info("Glowdeck stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GLOWDECK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GLOWDECK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openPlayer initialises the configured audio player.
//
// A failed device initialisation is not fatal: track and volume requests
// still validate and record against the silent player, matching the
// dry-run LED driver's behaviour.
func openPlayer(cfg config.AudioConfig, log *logging.Logger) audio.Player {
	if !cfg.Enabled {
		log.Info("audio disabled, using silent player", "track_dir", cfg.TrackDir)
		return audio.NewNopPlayer(cfg.TrackDir)
	}

	player, err := audio.NewBeepPlayer(cfg)
	if err != nil {
		log.Warn("audio device unavailable, using silent player", "error", err)
		return audio.NewNopPlayer(cfg.TrackDir)
	}

	log.Info("audio device initialised",
		"track_dir", cfg.TrackDir,
		"sample_rate", cfg.SampleRate,
	)
	return player
}

// openRepository builds the message repository for the configured backend.
// The returned DB is non-nil only for the sqlite backend; the caller owns
// closing it after the repository.
func openRepository(ctx context.Context, cfg config.PersistenceConfig) (state.Repository, *database.DB, error) {
	switch cfg.Backend {
	case "memory":
		return nil, nil, nil

	case "file":
		repo, err := state.NewFileRepository(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, nil, nil

	case "sqlite":
		db, err := database.Open(database.Config{
			Path:        cfg.Path,
			WALMode:     cfg.WALMode,
			BusyTimeout: cfg.BusyTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		repo, err := state.NewSQLiteRepository(ctx, db.DB)
		if err != nil {
			db.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, nil, err
		}
		return repo, db, nil

	default:
		return nil, nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
	}
}
