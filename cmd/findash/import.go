package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/export"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON backup or bank statements",
	}

	cmd.AddCommand(importJSONCmd())
	cmd.AddCommand(importOFXCmd())

	return cmd
}

func importJSONCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "json <file>",
		Short: "Restore a JSON backup written by 'findash export json'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return common.NewUserError(fmt.Sprintf("Could not open %s", args[0]), err)
			}
			defer f.Close()

			backup, err := export.ReadJSON(f)
			if err != nil {
				return common.NewUserError("Not a valid findash backup", err)
			}

			ctx := cmd.Context()
			if !yes {
				ok, err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).
					Confirm(ctx, fmt.Sprintf("Restore %d documents? Existing documents with the same ID are overwritten.", backup.Size()))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Cancelled."))
					return nil
				}
			}

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			autoSnapshot(cmd, ws, "import")

			bar := cli.NewProgressBar(cmd.ErrOrStderr(), backup.Size(), "Restoring")
			if err := export.Restore(ctx, ws.data, backup, func() { _ = bar.Add(1) }); err != nil {
				return err
			}
			_ = bar.Finish()

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Restored %d documents.", backup.Size())))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func importOFXCmd() *cobra.Command {
	var (
		dryRun  bool
		account string
	)

	cmd := &cobra.Command{
		Use:   "ofx <files...>",
		Short: "Import transactions from OFX/QFX statements",
		Long: `Import transactions from OFX or QFX (Quicken) files exported from your bank.

Transactions that match a recurring rule by amount, date and description
take the place of the record the rule would create, so nothing is counted
twice. Importing the same file again does nothing.`,
		Example: `  findash import ofx ~/Downloads/bank_jan_2024.qfx
  findash import ofx ~/Downloads/*.qfx --account 3f6c...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Stopping import after the current record...")
			ctx := handler.HandleInterrupts(cmd.Context())

			parser := ofx.NewParser()
			var (
				records []model.CashflowRecord
				ledger  *float64
			)
			for _, path := range files {
				statements, err := parseStatementFile(cmd, parser, path)
				if err != nil {
					return err
				}
				for _, s := range statements {
					records = append(records, s.Records...)
					balance := s.LedgerBalance
					ledger = &balance
				}
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No transactions found."))
				return nil
			}

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			settings, err := ws.data.GetSettings(ctx)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			linked := ofx.NewLinker(time.Local).Link(records, settings.RecurringRules)

			if dryRun {
				return printImportPreview(cmd, linked)
			}

			autoSnapshot(cmd, ws, "import")

			bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(linked), "Importing")
			stats, err := ofx.Import(ctx, ws.data, linked, func() { _ = bar.Add(1) })
			_ = bar.Finish()
			if err != nil {
				if handler.WasInterrupted() {
					fmt.Fprintln(out, cli.FormatWarning("Import interrupted. Run it again to pick up the rest."))
				}
				return err
			}

			if account != "" && ledger != nil {
				if err := updateBalance(cmd, ws, account, *ledger); err != nil {
					return err
				}
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d new, %d linked to recurring rules, %d already present.",
				stats.Created, stats.Linked, stats.Skipped)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "preview the import without saving")
	cmd.Flags().StringVar(&account, "account", "", "set this account's balance to the statement's ledger balance")

	return cmd
}

// expandFiles resolves glob patterns. A pattern that matches nothing is kept
// so the open error names it.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, common.NewUserError(fmt.Sprintf("Invalid file pattern %s", pattern), err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}
	return files, nil
}

func parseStatementFile(cmd *cobra.Command, parser *ofx.Parser, path string) ([]ofx.Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("Could not open %s", path), err)
	}
	defer f.Close()

	statements, err := parser.ParseFile(cmd.Context(), f)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("Could not read statement %s", filepath.Base(path)), err)
	}
	return statements, nil
}

func printImportPreview(cmd *cobra.Command, records []model.CashflowRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rule := ""
		if r.RecurringRuleID != "" {
			rule = "↻ " + r.RecurringRuleID
		}
		rows = append(rows, []string{formatDate(r.Date), r.Category, r.Note, fmt.Sprintf("%.2f", r.Amount), rule})
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, cli.RenderTable([]string{"Date", "Category", "Note", "Amount", "Rule"}, rows))
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions would be imported.", len(records))))
	return nil
}

func updateBalance(cmd *cobra.Command, ws *workspace, id string, balance float64) error {
	ctx := cmd.Context()
	accounts, err := ws.data.ListAssetAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	for i := range accounts {
		if accounts[i].ID != id {
			continue
		}
		accounts[i].Balance = balance
		accounts[i].UpdatedAt = time.Now()
		if err := ws.data.SaveAssetAccount(ctx, &accounts[i]); err != nil {
			return fmt.Errorf("failed to update account balance: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Balance of %s set to %.2f", accounts[i].Name, balance)))
		return nil
	}
	return common.NewUserError(fmt.Sprintf("No account %s", id), common.ErrNotFound)
}
