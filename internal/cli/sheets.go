package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"petweights/internal/adapter/sheets"
	"petweights/internal/config"
)

func (c *cli) sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Set up Google Sheets access and the weight spreadsheet",
	}
	cmd.AddCommand(c.sheetsAuthCmd(), c.sheetsCreateCmd(), c.sheetsAddTabCmd())
	return cmd
}

func (c *cli) sheetsAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Sheets and save the token",
		Long: `Opens the Google consent flow for the OAuth client in the configured
credentials file and saves the resulting token, which later runs refresh
automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			oauthCfg, err := sheets.LoadConfig(c.settings.SheetsCredentials)
			if err != nil {
				return err
			}
			tok, err := sheets.Authorize(cmd.Context(), oauthCfg, func(url string) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Open this URL in a browser to authorize access:\n\n  %s\n\n", url)
			})
			if err != nil {
				return err
			}
			if err := sheets.SaveToken(c.settings.SheetsToken, tok); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", c.settings.SheetsToken)
			return nil
		},
	}
}

func (c *cli) sheetsCreateCmd() *cobra.Command {
	var pets []string

	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a spreadsheet with a tab per pet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := "Pet Weights"
			if len(args) == 1 {
				title = args[0]
			}
			if len(pets) == 0 && c.settings.Pet != "" {
				pets = []string{c.settings.Pet}
			}
			if len(pets) == 0 {
				return errors.New("no pets given (use --pet)")
			}

			svc, err := c.sheetsSvc(cmd.Context(), c.settings)
			if err != nil {
				return err
			}
			id, err := sheets.Create(cmd.Context(), svc, title, pets)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created spreadsheet %s\nSet sheets.spreadsheet_id or %s to use it.\n", id, config.EnvSpreadsheetID)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&pets, "pet", nil, "Pet to add a tab for (repeatable)")
	return cmd
}

func (c *cli) sheetsAddTabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-tab <pet>",
		Short: "Add a tab for a pet to the configured spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.settings.SpreadsheetID == "" {
				return fmt.Errorf("missing spreadsheet id (set sheets.spreadsheet_id or %s)", config.EnvSpreadsheetID)
			}
			svc, err := c.sheetsSvc(cmd.Context(), c.settings)
			if err != nil {
				return err
			}
			added, err := sheets.NewLog(svc, c.settings.SpreadsheetID).EnsureTab(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if added {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added tab %s\n", args[0])
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Tab %s already exists\n", args[0])
			}
			return nil
		},
	}
}
