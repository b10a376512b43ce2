// Package server serves the local web UI: a login screen and the dashboard,
// with the dashboard behind the route guard.
package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/donezo-dev/donezo/internal/auth"
	"github.com/donezo-dev/donezo/internal/config"
	"github.com/donezo-dev/donezo/internal/dashboard"
	"github.com/donezo-dev/donezo/internal/guard"
)

const loginPath = "/login"

//go:embed templates/*.html
var templateFS embed.FS

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    zerolog.Logger
	auth      *auth.Controller
	dashboard *dashboard.Fetcher
	csrf      *csrfManager
	version   string
}

// New creates a new server instance. Restore is not run here; Start does it
// in the background so early requests see the loading state.
func New(cfg *config.Config, ctrl *auth.Controller, fetcher *dashboard.Fetcher, zlog zerolog.Logger, version string) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	csrf, err := newCSRFManager(cfg.UI.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:    cfg,
		logger:    zlog,
		auth:      ctrl,
		dashboard: fetcher,
		csrf:      csrf,
		version:   version,
	}

	// Setup router
	server.setupRouter(tmpl)

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter(tmpl *template.Template) {
	s.router = gin.New()
	s.router.SetHTMLTemplate(tmpl)

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	// CORS is only needed when a separately served frontend talks to this UI
	if len(s.config.UI.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.UI.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth pages; both posts change the machine-wide session
	s.router.GET(loginPath, s.loginPage)
	s.router.POST(loginPath, s.csrf.protect(), s.login)
	s.router.POST("/logout", s.csrf.protect(), s.logout)

	// Everything below sits behind a single guard
	protected := s.router.Group("/")
	protected.Use(guard.Middleware(s.auth, guard.Options{
		LoginPath: loginPath,
		Loading:   s.loadingPage,
	}))
	{
		protected.GET("/", s.dashboardPage)
	}

	// Unknown paths go to the protected root, which redirects to login when needed
	s.router.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	st := s.auth.State()
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "donezo-ui",
		"version":   s.version,
		"auth":      st.State.String(),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start restores the session, starts the HTTP server and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	addr := s.config.UI.Addr

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		st := s.auth.Restore()
		s.logger.Info().Str("state", st.State.String()).Msg("Session restore finished")
	}()

	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting web UI")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
			errChan <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
