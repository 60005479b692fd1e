package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/recurring"
)

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Create the records recurring rules owe up to today",
		Long: `Create the records recurring rules owe up to today.

Each rule gets at most one record per day, week or month. Running this twice
never creates duplicates, and the dashboard does the same on every start.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			records, err := ws.data.ListCashflowRecords(ctx)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}
			settings, err := ws.data.GetSettings(ctx)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			result, err := recurring.NewReconciler().Reconcile(ctx, ws.data, records, settings)
			out := cmd.OutOrStdout()
			for _, r := range result.Records {
				fmt.Fprintf(out, "  %s %s %s %s\n", cli.SuccessIcon, formatDate(r.Date), r.Category,
					cli.FormatSigned(currency.FormatAmount(r.Amount, appConfig.ReportingCurrency), r.Amount))
			}
			if err != nil {
				return err
			}

			if !result.Created() {
				fmt.Fprintln(out, cli.FormatInfo("Everything is up to date."))
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created %d recurring records.", len(result.Records))))
			return nil
		},
	}
}
