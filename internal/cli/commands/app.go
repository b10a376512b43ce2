package commands

import (
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/donezo-dev/donezo/internal/app"
	"github.com/donezo-dev/donezo/internal/config"
	"github.com/donezo-dev/donezo/internal/session"
)

// App carries the wired dependencies shared by every command.
// The root command fills it in before any subcommand runs.
type App struct {
	*app.App

	Version string

	// Interactive reports whether prompts may be shown. Defaults to a stdin TTY check.
	Interactive func() bool
}

// Wire builds the shared components on top of store
func (a *App) Wire(cfg *config.Config, store session.Store, log zerolog.Logger) {
	a.App = app.New(cfg, store, log)
}

// Ready reports whether Wire has run
func (a *App) Ready() bool {
	return a.App != nil
}

func (a *App) interactive() bool {
	if a.Interactive != nil {
		return a.Interactive()
	}
	return term.IsTerminal(int(syscall.Stdin))
}
