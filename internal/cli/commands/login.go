package commands

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/donezo-dev/donezo/internal/auth"
)

// NewLoginCmd creates the login command
func NewLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the Donezo backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, app, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set DONEZO_EMAIL, will prompt if not provided)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set DONEZO_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, app *App, email, password string) error {
	out := cmd.OutOrStdout()

	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("DONEZO_EMAIL")
	}
	if password == "" {
		password = os.Getenv("DONEZO_PASSWORD")
	}

	interactive := app.interactive()

	if email == "" {
		if !interactive {
			return fmt.Errorf("email is required in non-interactive mode (use --email flag or DONEZO_EMAIL env var)")
		}
		prompted, err := promptEmail()
		if err != nil {
			return err
		}
		email = prompted
	}

	if password == "" {
		if !interactive {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or DONEZO_PASSWORD env var)")
		}
		fmt.Fprint(out, "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(out) // New line after password input
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
	}

	fmt.Fprintf(out, "Logging in to %s...\n", app.API.BaseURL())

	resp, err := app.Auth.Login(cmd.Context(), email, password)
	if err != nil {
		app.Logger.Debug().Err(err).Msg("Login failed")
		return errors.New(auth.FailureMessage(err))
	}

	fmt.Fprintln(out, "✓ Login successful!")
	fmt.Fprintf(out, "  User: %s", resp.Email)
	if !resp.ID.IsZero() {
		fmt.Fprintf(out, " (id %s)", resp.ID)
	}
	fmt.Fprintln(out)

	return nil
}

func promptEmail() (string, error) {
	prompt := promptui.Prompt{
		Label: "Email",
		Validate: func(input string) error {
			if _, err := mail.ParseAddress(strings.TrimSpace(input)); err != nil {
				return errors.New("enter a valid email address")
			}
			return nil
		},
	}

	email, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("email prompt cancelled: %w", err)
	}
	return strings.TrimSpace(email), nil
}
