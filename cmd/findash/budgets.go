package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/report"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly category budgets",
	}

	cmd.AddCommand(budgetsListCmd())
	cmd.AddCommand(budgetsAddCmd())

	return cmd
}

func budgetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show this month's spending against each budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			budgets, err := ws.data.ListBudgets(ctx)
			if err != nil {
				return fmt.Errorf("failed to list budgets: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(budgets) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No budgets yet. Add one with 'findash budgets add'."))
				return nil
			}
			records, err := ws.data.ListCashflowRecords(ctx)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}

			reporting := appConfig.ReportingCurrency
			progress := report.Budgets(budgets, records, time.Now())
			rows := make([][]string, 0, len(progress))
			for i, p := range progress {
				remaining := p.Remaining.InexactFloat64()
				rows = append(rows, []string{
					budgets[i].ID,
					p.Category,
					currency.FormatAmount(p.Limit.InexactFloat64(), reporting),
					currency.FormatAmount(p.Spent.InexactFloat64(), reporting),
					cli.FormatSigned(currency.FormatAmount(remaining, reporting), remaining),
					p.Percent.String() + "%",
				})
			}
			fmt.Fprintln(out, cli.FormatTitle(time.Now().Format("January 2006")))
			fmt.Fprint(out, cli.RenderTable([]string{"ID", "Category", "Limit", "Spent", "Remaining", "Used"}, rows))
			return nil
		},
	}
}

func budgetsAddCmd() *cobra.Command {
	var (
		category string
		limit    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a monthly budget for a category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := parseAmount(limit)
			if err != nil {
				return err
			}
			budget := &model.Budget{
				ID:        newID(),
				Category:  category,
				Limit:     value,
				UpdatedAt: time.Now(),
			}
			if err := budget.Validate(); err != nil {
				return common.NewUserError("Invalid budget", err)
			}

			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.data.SaveBudget(ctx, budget); err != nil {
				return fmt.Errorf("failed to save budget: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Budget for %s set to %s",
				category, currency.FormatAmount(value, appConfig.ReportingCurrency))))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "expense category")
	cmd.Flags().StringVar(&limit, "limit", "", "monthly spending limit")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("limit")

	return cmd
}
