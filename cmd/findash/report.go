package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/report"
)

func reportCmd() *cobra.Command {
	var (
		from  string
		to    string
		year  int
		raw   bool
		width int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show net worth, cashflow, budgets and goals for a period",
		Example: `  findash report
  findash report --year 2023
  findash report --from 2024-01-01 --to 2024-04-01 --raw > q1.md`,
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

			rep, err := buildReport(ctx, ws, r)
			if err != nil {
				return err
			}

			md := report.Markdown(rep)
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			rendered, err := report.Render(md, width)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date, exclusive (YYYY-MM-DD)")
	cmd.Flags().IntVar(&year, "year", 0, "report on a calendar year (default: this year)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown instead of rendering it")
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width")

	return cmd
}

// reportRange resolves the period flags. Without any flag the current
// calendar year is used.
func reportRange(from, to string, year int, now time.Time) (report.DateRange, error) {
	if from == "" && to == "" {
		if year == 0 {
			year = now.Year()
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
		return report.DateRange{Start: start, End: start.AddDate(1, 0, 0)}, nil
	}
	if year != 0 {
		return report.DateRange{}, fmt.Errorf("--year cannot be combined with --from or --to")
	}

	start, err := parseDate(from, now)
	if err != nil {
		return report.DateRange{}, err
	}
	end := start.AddDate(1, 0, 0)
	if to != "" {
		if end, err = parseDate(to, now); err != nil {
			return report.DateRange{}, err
		}
	}
	if !end.After(start) {
		return report.DateRange{}, fmt.Errorf("--to must be after --from")
	}
	return report.DateRange{Start: start, End: end}, nil
}

// buildReport loads every collection and builds the report for r.
func buildReport(ctx context.Context, ws *workspace, r report.DateRange) (*report.Report, error) {
	accounts, err := ws.data.ListAssetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	records, err := ws.data.ListCashflowRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	budgets, err := ws.data.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	goals, err := ws.data.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	rate, _, err := effectiveRate(ctx, ws.data)
	if err != nil {
		return nil, err
	}

	reporting := appConfig.ReportingCurrency
	return report.Build(report.Input{
		Accounts:  currency.Normalize(accounts, rate, reporting),
		Records:   records,
		Budgets:   budgets,
		Goals:     goals,
		Reporting: reporting,
		Rate:      rate,
	}, r, time.Now()), nil
}
