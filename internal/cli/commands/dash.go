package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/donezo-dev/donezo/internal/dashboard"
	"github.com/donezo-dev/donezo/internal/guard"
)

// NewDashCmd creates the dash command
func NewDashCmd(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "dash",
		Aliases: []string{"dashboard"},
		Short:   "Show the project dashboard",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			return guard.Require(app.Auth)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			view := app.Dashboard.Load(cmd.Context())
			view.Identity = app.Auth.State().Identity

			return render(cmd.OutOrStdout(), format, view, func(w io.Writer) error {
				return printDashboard(w, view)
			})
		},
	}

	addOutputFlag(cmd, &format)

	return cmd
}

func printDashboard(out io.Writer, view dashboard.View) error {
	if view.Identity != nil {
		fmt.Fprintf(out, "Dashboard for %s\n\n", view.Identity.Email)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOTAL\tENDED\tRUNNING\tPENDING\tPROGRESS")
	fmt.Fprintln(w, "─────\t─────\t───────\t───────\t────────")
	fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d%%\n",
		view.Totals.Total,
		view.Totals.Ended,
		view.Totals.Running,
		view.Totals.Pending,
		view.EndedPercent,
	)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tDUE DATE")
	fmt.Fprintln(w, "───────\t────────")
	for _, project := range view.Projects {
		fmt.Fprintf(w, "%s\t%s\n", project.Title, project.DueDate)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if view.SummaryFallback || view.ProjectsFallback {
		fmt.Fprintln(out, "\nSome data could not be loaded; placeholder values are shown.")
	}
	return nil
}
