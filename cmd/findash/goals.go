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

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage savings goals",
	}

	cmd.AddCommand(goalsListCmd())
	cmd.AddCommand(goalsAddCmd())

	return cmd
}

func goalsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show progress towards each goal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			goals, err := ws.data.ListGoals(ctx)
			if err != nil {
				return fmt.Errorf("failed to list goals: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(goals) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No goals yet. Add one with 'findash goals add'."))
				return nil
			}

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
			progress := report.Goals(goals, currency.Normalize(accounts, rate, reporting), records)
			rows := make([][]string, 0, len(progress))
			for i, p := range progress {
				deadline := "-"
				if p.Deadline != nil {
					deadline = formatDate(*p.Deadline)
				}
				status := ""
				if p.Complete {
					status = cli.SuccessIcon
				}
				rows = append(rows, []string{
					goals[i].ID,
					p.Name,
					currency.FormatAmount(p.Saved.InexactFloat64(), reporting),
					currency.FormatAmount(p.Target.InexactFloat64(), reporting),
					p.Percent.String() + "%",
					deadline,
					status,
				})
			}
			fmt.Fprint(out, cli.RenderTable([]string{"ID", "Goal", "Saved", "Target", "Progress", "Deadline", ""}, rows))
			return nil
		},
	}
}

func goalsAddCmd() *cobra.Command {
	var (
		name     string
		target   string
		category string
		deadline string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a savings goal",
		Long: `Add a savings goal.

With --category the goal counts money recorded in that category; without it
the goal tracks your whole net worth.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := parseAmount(target)
			if err != nil {
				return err
			}
			goal := &model.Goal{
				ID:           newID(),
				Name:         name,
				Category:     category,
				TargetAmount: value,
				UpdatedAt:    time.Now(),
			}
			if deadline != "" {
				d, err := parseDate(deadline, time.Now())
				if err != nil {
					return err
				}
				goal.Deadline = &d
			}
			if err := goal.Validate(); err != nil {
				return common.NewUserError("Invalid goal", err)
			}

			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.data.SaveGoal(ctx, goal); err != nil {
				return fmt.Errorf("failed to save goal: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added goal %s", name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "goal name")
	cmd.Flags().StringVar(&target, "target", "", "target amount")
	cmd.Flags().StringVar(&category, "category", "", "count only this category")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
