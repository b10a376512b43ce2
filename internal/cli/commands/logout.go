package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, wasLoggedIn := app.Auth.Identity()
			app.Auth.Logout()

			if wasLoggedIn {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged out %s\n", identity.Email)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			}
			return nil
		},
	}
}
