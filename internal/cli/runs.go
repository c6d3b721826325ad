package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"petweights/internal/app"
	"petweights/internal/config"
)

func (c *cli) runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [pet]",
		Short: "Show recent sync runs from the run ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pet string
			if len(args) == 1 {
				pet = args[0]
			}

			repo, err := c.runLedger()
			if err != nil {
				return err
			}
			if repo == nil {
				return errors.New("no run ledger configured (set ledger.dsn or " + config.EnvLedgerDSN + ")")
			}

			runs, err := app.NewRunService(repo).Recent(cmd.Context(), pet, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			_, _ = fmt.Fprintln(w, "STARTED\tPET\tSTATUS\tAPPENDED\tDURATION\tERROR")
			for _, r := range runs {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					r.StartedAt.Local().Format(time.DateTime),
					r.Pet,
					r.Status,
					r.Appended,
					r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
					r.Error,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}
