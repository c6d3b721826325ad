package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"petweights/internal/app"
	"petweights/internal/domain"
)

func (c *cli) accountService(cmd *cobra.Command) (*app.AccountService, error) {
	creds, err := c.credentials(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return app.NewAccountService(c.source(), creds), nil
}

func (c *cli) petsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "pets",
		Aliases: []string{"pet"},
		Short:   "List the pets on the device account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.accountService(cmd)
			if err != nil {
				return err
			}
			pets, err := svc.Pets(cmd.Context())
			if err != nil {
				return err
			}
			if len(pets) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No pets found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			_, _ = fmt.Fprintln(w, "ID\tNAME")
			_, _ = fmt.Fprintln(w, "--\t----")
			for _, p := range pets {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Name)
			}
			c.logger.Debug("pet list completed", "count", len(pets))
			return nil
		},
	}
}

func (c *cli) robotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "robots",
		Aliases: []string{"robot"},
		Short:   "List the Litter-Robots on the device account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.accountService(cmd)
			if err != nil {
				return err
			}
			robots, err := svc.Robots(cmd.Context())
			if err != nil {
				return err
			}
			if len(robots) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No robots found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			_, _ = fmt.Fprintln(w, "NAME\tSERIAL\tMODEL\tONLINE\tLAST SEEN")
			_, _ = fmt.Fprintln(w, "----\t------\t-----\t------\t---------")
			for _, r := range robots {
				lastSeen := "-"
				if !r.LastSeen.IsZero() {
					lastSeen = r.LastSeen.Format(time.RFC3339)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", r.Name, r.Serial, r.Model, r.Online, lastSeen)
			}
			return nil
		},
	}
}

func (c *cli) weightsCmd() *cobra.Command {
	var (
		unit  string
		daily bool
	)

	cmd := &cobra.Command{
		Use:   "weights [pet]",
		Short: "Print a pet's weight history from the device account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pet := c.settings.Pet
			if len(args) == 1 {
				pet = args[0]
			}
			if pet == "" {
				return errors.New("missing pet name")
			}
			u := domain.Unit(unit)
			if !u.Valid() {
				return fmt.Errorf("unknown unit %q (use lb or kg)", unit)
			}

			svc, err := c.accountService(cmd)
			if err != nil {
				return err
			}
			readings, err := svc.WeightHistory(cmd.Context(), pet)
			if errors.Is(err, domain.ErrEntityNotFound) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No pet named %q on the account\n", pet)
				return nil
			}
			if err != nil {
				return err
			}
			if len(readings) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No weight readings recorded for %s\n", pet)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			if daily {
				points, err := app.Daily(readings, u, time.Local)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(w, "DAY\tWEIGHT\tREADINGS")
				for _, p := range points {
					_, _ = fmt.Fprintf(w, "%s\t%s %s\t%d\n", p.Day, p.Weight.StringFixed(2), p.Unit, p.Count)
				}
				return nil
			}

			_, _ = fmt.Fprintln(w, "TIMESTAMP\tWEIGHT")
			for _, r := range readings {
				v := domain.ConvertWeight(r.Weight, domain.Pounds, u).Round(2)
				_, _ = fmt.Fprintf(w, "%s\t%s %s\n", r.Timestamp.Format(time.RFC3339), v.StringFixed(2), u)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "unit", string(domain.Pounds), "Display unit: lb or kg")
	cmd.Flags().BoolVar(&daily, "daily", false, "Show the last reading of each day")
	return cmd
}
