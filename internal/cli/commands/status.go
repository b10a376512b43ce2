package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/donezo-dev/donezo/internal/auth"
	"github.com/donezo-dev/donezo/internal/models"
)

type statusOutput struct {
	State         string           `json:"state" yaml:"state"`
	Authenticated bool             `json:"authenticated" yaml:"authenticated"`
	Identity      *models.Identity `json:"identity,omitempty" yaml:"identity,omitempty"`
	Token         *auth.TokenInfo  `json:"token,omitempty" yaml:"token,omitempty"`
	TokenExpired  bool             `json:"tokenExpired,omitempty" yaml:"tokenExpired,omitempty"`
	Backend       string           `json:"sessionBackend" yaml:"sessionBackend"`
	APIURL        string           `json:"apiUrl" yaml:"apiUrl"`
}

// NewStatusCmd creates the status command
func NewStatusCmd(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show who is logged in",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st := app.Auth.State()

			status := statusOutput{
				State:         st.State.String(),
				Authenticated: st.IsAuthenticated,
				Identity:      st.Identity,
				Backend:       app.Config.Session.Backend,
				APIURL:        app.API.BaseURL(),
			}
			if info, ok := app.Auth.TokenInfo(); ok {
				status.Token = info
				status.TokenExpired = info.Expired(time.Now())
			}

			return render(cmd.OutOrStdout(), format, status, func(w io.Writer) error {
				return printStatusTable(w, status)
			})
		},
	}

	addOutputFlag(cmd, &format)

	return cmd
}

func printStatusTable(out io.Writer, status statusOutput) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "State:\t%s\n", status.State)
	if status.Identity != nil {
		fmt.Fprintf(w, "User:\t%s\n", status.Identity.Email)
		if !status.Identity.ID.IsZero() {
			fmt.Fprintf(w, "User ID:\t%s\n", status.Identity.ID)
		}
	}
	if status.Token != nil && status.Token.ExpiresAt != nil {
		expiry := status.Token.ExpiresAt.Local().Format(time.RFC1123)
		if status.TokenExpired {
			expiry += " (expired)"
		}
		fmt.Fprintf(w, "Token expires:\t%s\n", expiry)
	}
	fmt.Fprintf(w, "Session backend:\t%s\n", status.Backend)
	fmt.Fprintf(w, "API:\t%s\n", status.APIURL)

	if err := w.Flush(); err != nil {
		return err
	}

	if !status.Authenticated {
		fmt.Fprintln(out, "\nLog in with: donezo login")
	}
	return nil
}
