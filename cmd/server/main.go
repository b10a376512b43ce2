package main

import (
	"fmt"
	"os"

	"github.com/donezo-dev/donezo/internal/app"
	"github.com/donezo-dev/donezo/internal/config"
	"github.com/donezo-dev/donezo/internal/logger"
	"github.com/donezo-dev/donezo/internal/server"
	"github.com/donezo-dev/donezo/internal/session"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	if err := run(); err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Msg("Web UI stopped with error")
		os.Exit(1)
	}
}

// run keeps deferred cleanup on every exit path; main only maps the error to an exit code
func run() error {
	// Load configuration
	cfg, err := config.Load("info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return err
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	store, err := session.Open(cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to open %s session store: %w", cfg.Session.Backend, err)
	}

	application := app.New(cfg, store, log)
	defer func() {
		if err := application.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close session store")
		}
	}()

	// Create server
	srv, err := server.New(cfg, application.Auth, application.Dashboard, log, version)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info().Str("version", version).Str("api", cfg.API.BaseURL).Msg("Starting Donezo web UI...")

	// Start HTTP server (this blocks)
	return srv.Start()
}
