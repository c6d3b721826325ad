package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"petweights/internal/app"
	"petweights/internal/domain"
)

func (c *cli) syncCmd() *cobra.Command {
	var (
		dryRun   bool
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sync [pet]",
		Short: "Append new weight readings for a pet to its sheet tab",
		Long: `Reads the last row of the pet's tab, fetches the pet's weight history from
the device account and writes every newer reading, oldest first, below it.

The pet defaults to the configured one. Exits with status 0 when the tab is
already up to date, the pet has no readings or no pet has that name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				c.settings.Pet = args[0]
			}
			if err := c.settings.ValidateSync(); err != nil {
				return err
			}
			creds, err := c.credentials(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			wl, err := c.weightLog(ctx, c.settings)
			if err != nil {
				return err
			}
			if dryRun {
				wl = app.NewDryRunLog(wl, c.logger)
			}

			svc := app.NewSyncService(c.source(), wl, creds, c.logger)
			if !dryRun {
				runs, err := c.runLedger()
				if err != nil {
					return err
				}
				if runs != nil {
					svc.WithLedger(runs)
				}
			}

			if watch || interval > 0 {
				if interval <= 0 {
					interval = c.settings.Interval
				}
				c.logger.Info("watching for new readings", "pet", c.settings.Pet, "interval", interval)
				return svc.Watch(ctx, c.settings.Pet, interval)
			}

			res, err := svc.Sync(ctx, c.settings.Pet)
			if err != nil {
				return err
			}
			printSyncResult(cmd.OutOrStdout(), res, dryRun)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute the rows to append without writing them")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and sync every interval")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Sync every interval until interrupted (implies --watch)")
	return cmd
}

func printSyncResult(w io.Writer, res app.SyncResult, dryRun bool) {
	prefix := ""
	if dryRun {
		prefix = "[dry run] "
	}

	switch res.Status {
	case domain.StatusAppended:
		verb := "Appended"
		if dryRun {
			verb = "Would append"
		}
		_, _ = fmt.Fprintf(w, "%s%s %d reading(s) to %s (%s .. %s)\n", prefix, verb, res.Appended, res.Range.A1(),
			res.FirstNew.Format(time.RFC3339), res.LastNew.Format(time.RFC3339))
	case domain.StatusUpToDate:
		_, _ = fmt.Fprintf(w, "%s%s is up to date (last row %s)\n", prefix, res.Pet, formatWatermark(res.Watermark))
	case domain.StatusNoData:
		_, _ = fmt.Fprintf(w, "%sNo weight readings recorded for %s\n", prefix, res.Pet)
	case domain.StatusEntityNotFound:
		_, _ = fmt.Fprintf(w, "%sNo pet named %q on the account\n", prefix, res.Pet)
	}
	if res.Status == domain.StatusAppended && res.Stale > 0 {
		_, _ = fmt.Fprintf(w, "%sSkipped %d reading(s) at or before the last row\n", prefix, res.Stale)
	}
}

func formatWatermark(t time.Time) string {
	if t.Equal(domain.Epoch) {
		return "none"
	}
	return t.Format(time.RFC3339)
}
