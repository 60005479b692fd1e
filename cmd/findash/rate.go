package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
)

func rateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Show or override the exchange rate",
	}

	cmd.AddCommand(rateShowCmd())
	cmd.AddCommand(rateSetCmd())
	cmd.AddCommand(rateClearCmd())

	return cmd
}

func rateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the live, manual and effective rates",
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
			live := liveRate(ctx)
			manual := "not set"
			if settings.ManualRate != nil && *settings.ManualRate != 0 {
				manual = strconv.FormatFloat(*settings.ManualRate, 'f', -1, 64)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, cli.RenderTable([]string{"Rate", "Value"}, [][]string{
				{"Live", strconv.FormatFloat(live, 'f', -1, 64)},
				{"Manual", manual},
				{"Effective", strconv.FormatFloat(currency.EffectiveRate(settings, live), 'f', -1, 64)},
			}))
			return nil
		},
	}
}

func rateSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <rate>",
		Short: "Use a manual rate instead of the live one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("%q is not a number", args[0]), err)
			}
			if err := currency.ValidateRate(rate); err != nil {
				return common.NewUserError("The rate must be a positive number", err)
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
			settings.ManualRate = &rate
			settings.UpdatedAt = time.Now()
			if err := ws.data.SaveSettings(ctx, settings); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Manual rate set to %s", args[0])))
			return nil
		},
	}
}

func rateClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Go back to the live rate",
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
			settings.ManualRate = nil
			settings.UpdatedAt = time.Now()
			if err := ws.data.SaveSettings(ctx, settings); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Using the live rate."))
			return nil
		},
	}
}
