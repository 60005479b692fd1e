package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage asset accounts",
	}

	cmd.AddCommand(accountsListCmd())
	cmd.AddCommand(accountsAddCmd())
	cmd.AddCommand(accountsRemoveCmd())

	return cmd
}

func accountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with balances in the reporting currency",
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
			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No accounts yet. Add one with 'findash accounts add'."))
				return nil
			}

			rate, _, err := effectiveRate(ctx, ws.data)
			if err != nil {
				return err
			}
			reporting := appConfig.ReportingCurrency
			processed := currency.Normalize(accounts, rate, reporting)
			sort.SliceStable(processed, func(i, j int) bool { return processed[i].Name < processed[j].Name })

			rows := make([][]string, 0, len(processed))
			for _, a := range processed {
				rows = append(rows, []string{
					a.ID,
					a.Name,
					string(a.Type),
					currency.FormatAmount(a.Balance, a.Currency),
					currency.FormatAmount(a.DisplayBalance, reporting),
				})
			}

			fmt.Fprint(out, cli.RenderTable([]string{"ID", "Name", "Type", "Balance", "In " + string(reporting)}, rows))
			fmt.Fprintf(out, "\n%s %s (rate %.4f)\n",
				cli.FormatTitle("Total:"),
				currency.FormatAmount(currency.TotalDisplayBalance(processed), reporting),
				rate)
			return nil
		},
	}
}

func accountsAddCmd() *cobra.Command {
	var (
		name     string
		cur      string
		kind     string
		balance  string
		identity string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account or update one by ID",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsedCur, err := model.ParseCurrency(cur)
			if err != nil {
				return common.NewUserError("Unsupported currency", err)
			}
			accountType, err := model.ParseAccountType(kind)
			if err != nil {
				return common.NewUserError("Unsupported account type", err)
			}
			amount, err := parseAmount(balance)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if identity == "" {
				identity = newID()
			}
			account := &model.AssetAccount{
				ID:        identity,
				Name:      name,
				Currency:  parsedCur,
				Type:      accountType,
				Balance:   amount,
				UpdatedAt: time.Now(),
			}
			if err := ws.data.SaveAssetAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to save account: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved account %s (%s)", name, account.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name")
	cmd.Flags().StringVar(&cur, "currency", "", "account currency (TWD, USD, EUR, JPY, GBP, CNY, HKD)")
	cmd.Flags().StringVar(&kind, "type", string(model.AccountTypeBank), "account type (cash, bank, investment, credit, crypto, other)")
	cmd.Flags().StringVar(&balance, "balance", "0", "current balance")
	cmd.Flags().StringVar(&identity, "id", "", "ID of an existing account to update")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("currency")

	return cmd
}

func accountsRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !yes {
				ok, err := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).
					Confirm(ctx, fmt.Sprintf("Remove account %s?", args[0]))
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

			if err := ws.data.DeleteAssetAccount(ctx, args[0]); err != nil {
				return common.NewUserError(fmt.Sprintf("Could not remove account %s", args[0]), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Account removed."))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
