// Package app wires the shared components both binaries run on.
package app

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/donezo-dev/donezo/internal/auth"
	"github.com/donezo-dev/donezo/internal/client"
	"github.com/donezo-dev/donezo/internal/config"
	"github.com/donezo-dev/donezo/internal/dashboard"
	"github.com/donezo-dev/donezo/internal/session"
)

// App holds the wired client, controller and dashboard fetcher
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     session.Store
	API       *client.Client
	Auth      *auth.Controller
	Dashboard *dashboard.Fetcher
}

// New builds the client, controller and dashboard fetcher on top of store.
// The client reads its bearer token from the controller.
func New(cfg *config.Config, store session.Store, log zerolog.Logger) *App {
	api := client.New(cfg.API.BaseURL, cfg.API.Timeout)
	ctrl := auth.NewController(store, api, log)
	api.SetTokenSource(ctrl)

	return &App{
		Config:    cfg,
		Logger:    log,
		Store:     store,
		API:       api,
		Auth:      ctrl,
		Dashboard: dashboard.NewFetcher(api, log),
	}
}

// Close releases the session store if it holds resources
func (a *App) Close() error {
	if closer, ok := a.Store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
