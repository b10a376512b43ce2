package commands

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donezo-dev/donezo/internal/server"
)

// NewUICmd creates the ui command
func NewUICmd(app *App) *cobra.Command {
	var addr string
	var open bool

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Serve the web dashboard locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, app, addr, open)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from DONEZO_UI_ADDR)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the dashboard in the default browser")

	return cmd
}

func runUI(cmd *cobra.Command, app *App, addr string, open bool) error {
	cfg := *app.Config
	if addr != "" {
		cfg.UI.Addr = addr
	}

	srv, err := server.New(&cfg, app.Auth, app.Dashboard, app.Logger, app.Version)
	if err != nil {
		return fmt.Errorf("failed to create web UI: %w", err)
	}

	dashboardURL := uiURL(cfg.UI.Addr)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving dashboard at %s (Ctrl+C to stop)\n", dashboardURL)

	if open {
		if err := openBrowser(dashboardURL); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Failed to open browser: %v\nPlease visit: %s\n", err, dashboardURL)
		}
	}

	return srv.Start()
}

// uiURL turns a listen address into a browsable URL
func uiURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
