package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/donezo-dev/donezo/internal/cli/commands"
	"github.com/donezo-dev/donezo/internal/config"
	"github.com/donezo-dev/donezo/internal/logger"
	"github.com/donezo-dev/donezo/internal/session"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around app.
// When app is already wired (tests), configuration loading is skipped.
func NewRootCmd(app *commands.App) *cobra.Command {
	if app.Version == "" {
		app.Version = version
	}

	rootCmd := &cobra.Command{
		Use:   "donezo",
		Short: "Donezo - projects dashboard",
		Long: `Donezo CLI - sign in and keep an eye on your projects.

The session is stored locally, so a login survives restarts until you
run 'donezo logout'. 'donezo ui' serves the same dashboard in a browser.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// version needs neither configuration nor a session
			if cmd.Name() == "version" {
				return nil
			}

			if !app.Ready() {
				if err := setup(app); err != nil {
					return err
				}
			}

			// Commands run after restore; nothing sees the RESTORING state
			app.Auth.Restore()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !app.Ready() {
				return nil
			}
			return app.Close()
		},
	}

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "donezo version %s\n", app.Version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd(app))
	rootCmd.AddCommand(commands.NewLogoutCmd(app))
	rootCmd.AddCommand(commands.NewStatusCmd(app))
	rootCmd.AddCommand(commands.NewDashCmd(app))
	rootCmd.AddCommand(commands.NewUICmd(app))

	return rootCmd
}

// setup loads configuration and wires the application
func setup(app *commands.App) error {
	// The CLI stays quiet unless LOG_LEVEL asks otherwise
	cfg, err := config.Load("warn")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	store, err := session.Open(cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	app.Wire(cfg, store, logger.GetLogger())
	return nil
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(&commands.App{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
