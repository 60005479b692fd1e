package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"recurring"},
		Short:   "Manage recurring income and expense rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesRemoveCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			settings, err := ws.data.GetSettings(ctx)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(settings.RecurringRules) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No recurring rules yet. Add one with 'findash rules add'."))
				return nil
			}

			rows := make([][]string, 0, len(settings.RecurringRules))
			for _, r := range settings.RecurringRules {
				status := cli.SuccessIcon
				if !r.Enabled {
					status = "⏸"
				}
				last := "-"
				if r.LastGenerated != nil {
					last = formatDate(*r.LastGenerated)
				}
				rows = append(rows, []string{
					status,
					r.ID,
					r.Category,
					r.Note,
					string(r.Frequency),
					cli.FormatSigned(currency.FormatAmount(r.Amount, appConfig.ReportingCurrency), r.Amount),
					formatDate(r.AnchorDate),
					last,
				})
			}
			fmt.Fprint(out, cli.RenderTable(
				[]string{"", "ID", "Category", "Note", "Every", "Amount", "Starts", "Last created"}, rows))
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	var (
		amount    string
		category  string
		note      string
		frequency string
		anchor    string
		end       string
		disabled  bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recurring rule",
		Example: `  findash rules add --amount -15 --category Subscriptions --note Netflix --frequency monthly --anchor 2024-01-15
  findash rules add --amount 52000 --category Salary --frequency monthly --anchor 2024-01-05`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := parseAmount(amount)
			if err != nil {
				return err
			}
			freq, err := model.ParseFrequency(frequency)
			if err != nil {
				return common.NewUserError("Frequency must be daily, weekly or monthly", err)
			}
			anchorDate, err := parseDate(anchor, time.Now())
			if err != nil {
				return err
			}

			rule := model.RecurringRule{
				ID:         newID(),
				Amount:     value,
				Category:   category,
				Note:       note,
				Frequency:  freq,
				AnchorDate: anchorDate,
				Enabled:    !disabled,
			}
			if end != "" {
				endDate, err := parseDate(end, time.Now())
				if err != nil {
					return err
				}
				rule.EndDate = &endDate
			}
			if err := rule.Validate(); err != nil {
				return common.NewUserError("Invalid recurring rule", err)
			}

			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			settings, err := ws.data.GetSettings(ctx)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			settings.RecurringRules = append(settings.RecurringRules, rule)
			if err := ws.data.SaveSettings(ctx, settings); err != nil {
				return fmt.Errorf("failed to save rule: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s rule %s", freq, rule.ID)))
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Past occurrences are created on the next 'findash reconcile' or dashboard start."))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount per occurrence, negative for expenses")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&note, "note", "", "optional note")
	cmd.Flags().StringVar(&frequency, "frequency", string(model.FrequencyMonthly), "daily, weekly or monthly")
	cmd.Flags().StringVar(&anchor, "anchor", "", "first occurrence (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&end, "end", "", "last possible occurrence (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "add the rule switched off")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func rulesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a recurring rule. Records it already created are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			settings, err := ws.data.GetSettings(ctx)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			kept := settings.RecurringRules[:0]
			for _, r := range settings.RecurringRules {
				if r.ID != args[0] {
					kept = append(kept, r)
				}
			}
			if len(kept) == len(settings.RecurringRules) {
				return common.NewUserError(fmt.Sprintf("No recurring rule %s", args[0]), common.ErrNotFound)
			}
			settings.RecurringRules = kept
			if err := ws.data.SaveSettings(ctx, settings); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Rule removed."))
			return nil
		},
	}
}
