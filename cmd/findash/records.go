package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/model"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Manage cashflow records",
	}

	cmd.AddCommand(recordsListCmd())
	cmd.AddCommand(recordsAddCmd())

	return cmd
}

func recordsListCmd() *cobra.Command {
	var (
		month    string
		category string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cashflow records, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var start, end time.Time
			if month != "" {
				m, err := time.ParseInLocation("2006-01", month, time.Local)
				if err != nil {
					return fmt.Errorf("invalid month %q, expected YYYY-MM", month)
				}
				start, end = m, m.AddDate(0, 1, 0)
			}

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

			filtered := records[:0]
			for _, r := range records {
				if !start.IsZero() && (r.Date.Before(start) || !r.Date.Before(end)) {
					continue
				}
				if category != "" && !strings.EqualFold(r.Category, category) {
					continue
				}
				filtered = append(filtered, r)
			}
			sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Date.After(filtered[j].Date) })
			if limit > 0 && len(filtered) > limit {
				filtered = filtered[:limit]
			}

			out := cmd.OutOrStdout()
			if len(filtered) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No records found."))
				return nil
			}

			reporting := appConfig.ReportingCurrency
			rows := make([][]string, 0, len(filtered))
			for _, r := range filtered {
				recurringMark := ""
				if r.RecurringRuleID != "" {
					recurringMark = "↻"
				}
				rows = append(rows, []string{
					formatDate(r.Date),
					r.Category,
					r.Note,
					cli.FormatSigned(currency.FormatAmount(r.Amount, reporting), r.Amount),
					recurringMark,
				})
			}
			fmt.Fprint(out, cli.RenderTable([]string{"Date", "Category", "Note", "Amount", ""}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only show records in this month (YYYY-MM)")
	cmd.Flags().StringVar(&category, "category", "", "only show records in this category")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of records to show (0 for all)")

	return cmd
}

func recordsAddCmd() *cobra.Command {
	var (
		amount   string
		category string
		note     string
		date     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record income (positive) or an expense (negative)",
		Example: `  findash records add --amount 52000 --category Salary
  findash records add --amount -180 --category Food --note Lunch --date 2024-03-02`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := parseAmount(amount)
			if err != nil {
				return err
			}
			day, err := parseDate(date, time.Now())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			record := &model.CashflowRecord{
				ID:       newID(),
				Date:     day,
				Category: category,
				Note:     note,
				Amount:   value,
			}
			if err := ws.data.SaveCashflowRecord(ctx, record); err != nil {
				return fmt.Errorf("failed to save record: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s in %s on %s",
				currency.FormatAmount(value, appConfig.ReportingCurrency), category, formatDate(day))))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount, negative for expenses")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&note, "note", "", "optional note")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}
