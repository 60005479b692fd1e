package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/Veraticus/findash/internal/auth"
	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/export"
	"github.com/Veraticus/findash/internal/report"
	"github.com/Veraticus/findash/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your data as a backup, a spreadsheet or to Google Sheets",
	}

	cmd.AddCommand(exportJSONCmd())
	cmd.AddCommand(exportXLSXCmd())
	cmd.AddCommand(exportCSVCmd())
	cmd.AddCommand(exportSheetsCmd())

	return cmd
}

// withOutput runs write against the named file, or stdout when path is empty or "-".
func withOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Wrote %s", path)))
	return nil
}

func exportJSONCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "json",
		Short: "Write a full JSON backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			backup, err := export.Collect(ctx, ws.data)
			if err != nil {
				return err
			}
			return withOutput(cmd, output, func(w io.Writer) error {
				return export.WriteJSON(w, backup)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func exportXLSXCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Write accounts and records to an Excel workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			accounts, err := ws.data.ListAssetAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}
			records, err := ws.data.ListCashflowRecords(ctx)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}
			rate, _, err := effectiveRate(ctx, ws.data)
			if err != nil {
				return err
			}

			reporting := appConfig.ReportingCurrency
			processed := currency.Normalize(accounts, rate, reporting)
			return withOutput(cmd, output, func(w io.Writer) error {
				return export.WriteXLSX(w, processed, records, reporting)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "findash.xlsx", "output file")
	return cmd
}

func exportCSVCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write cashflow records as CSV",
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
			return withOutput(cmd, output, func(w io.Writer) error {
				return export.WriteRecordsCSV(w, records)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	var (
		year int
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Publish the report to a Google Sheets spreadsheet",
		Long: `Publish the report to a Google Sheets spreadsheet.

The spreadsheet is found by sheets.spreadsheet_id or created under
sheets.spreadsheet_name. Credentials come from sheets.service_account_path
when set, otherwise from your Google sign-in.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := reportRange(from, to, year, time.Now())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			var ts oauth2.TokenSource
			if g, ok := ws.auth.(*auth.GoogleAuthenticator); ok {
				if ts, err = g.TokenSource(ctx); err != nil {
					return common.NewUserError("Not signed in with Google. Run `findash login` first", err)
				}
			}

			writer, err := sheets.NewWriter(ctx, appConfig.Sheets, ts, slog.Default())
			if err != nil {
				return common.NewUserError("Google Sheets is not available. Sign in with Google or set sheets.service_account_path", err)
			}

			rep, err := buildReport(ctx, ws, r)
			if err != nil {
				return err
			}
			return publishReport(cmd, writer, rep)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "report on a calendar year (default: this year)")
	cmd.Flags().StringVar(&from, "from", "", "start date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date, exclusive (YYYY-MM-DD)")

	return cmd
}

func publishReport(cmd *cobra.Command, writer sheets.ReportWriter, rep *report.Report) error {
	id, err := writer.Write(cmd.Context(), rep)
	if err != nil {
		return common.NewUserError("Failed to publish to Google Sheets", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Published report to Google Sheets"))
	fmt.Fprintf(cmd.OutOrStdout(), "https://docs.google.com/spreadsheets/d/%s\n", id)
	return nil
}
