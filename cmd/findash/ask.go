package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/findash/internal/app"
	"github.com/Veraticus/findash/internal/assistant"
	"github.com/Veraticus/findash/internal/cli"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/llm"
	"github.com/Veraticus/findash/internal/report"
)

// newLLMClient is replaced in tests.
var newLLMClient = llmClient

func askCmd() *cobra.Command {
	var (
		raw   bool
		width int
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant about your finances",
		Long: `Ask the assistant about your accounts, cashflow, budgets and goals.

Without a question, questions are read from standard input one per line and
answered as one conversation until the input ends or you type "exit".

The assistant needs an API key for assistant.provider (openai, anthropic or
gemini): set assistant.api_key, or OPENAI_API_KEY, ANTHROPIC_API_KEY or
GEMINI_API_KEY.`,
		Example: `  findash ask "How much did I spend on food this year?"
  findash ask --raw "Which budget is closest to its limit?" > answer.md
  findash ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			assist, err := newAssistant(ctx)
			if err != nil {
				return err
			}
			if assist == nil {
				return common.NewUserError("The assistant is not configured. Set assistant.api_key or your provider's API key variable", common.ErrMissingConfig)
			}

			ws, err := openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			state, err := loadState(ctx, ws)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			answer := func(question string) error {
				reply, err := assist.Ask(ctx, state, question)
				if err != nil {
					return err
				}
				return printAnswer(out, reply, raw, width)
			}

			if len(args) > 0 {
				return answer(strings.Join(args, " "))
			}

			prompter := cli.NewPrompter(cmd.InOrStdin(), out)
			for {
				if _, err := fmt.Fprint(out, cli.FormatPrompt("Ask")); err != nil {
					return err
				}
				question, err := prompter.ReadLine(ctx)
				if errors.Is(err, io.EOF) {
					_, err = fmt.Fprintln(out)
					return err
				}
				if err != nil {
					return err
				}
				switch strings.ToLower(question) {
				case "":
					continue
				case "exit", "quit":
					return nil
				}
				if err := answer(question); err != nil {
					fmt.Fprintln(out, cli.FormatError(common.UserMessage(err)))
				}
			}
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown instead of rendering it")
	cmd.Flags().IntVar(&width, "width", 100, "word wrap width")

	return cmd
}

func llmClient(ctx context.Context) (llm.Client, error) {
	return llm.NewClient(ctx, appConfig.Assistant)
}

// newAssistant returns nil when no API key is configured.
func newAssistant(ctx context.Context) (*assistant.Assistant, error) {
	if appConfig.Assistant.APIKey == "" {
		return nil, nil
	}
	client, err := newLLMClient(ctx)
	if err != nil {
		return nil, common.NewUserError("Could not start the assistant", err)
	}
	return assistant.New(client), nil
}

// loadState reads the signed-in user's documents into the shape the
// dashboard keeps in memory.
func loadState(ctx context.Context, ws *workspace) (app.State, error) {
	accounts, err := ws.data.ListAssetAccounts(ctx)
	if err != nil {
		return app.State{}, fmt.Errorf("failed to list accounts: %w", err)
	}
	records, err := ws.data.ListCashflowRecords(ctx)
	if err != nil {
		return app.State{}, fmt.Errorf("failed to list records: %w", err)
	}
	budgets, err := ws.data.ListBudgets(ctx)
	if err != nil {
		return app.State{}, fmt.Errorf("failed to list budgets: %w", err)
	}
	goals, err := ws.data.ListGoals(ctx)
	if err != nil {
		return app.State{}, fmt.Errorf("failed to list goals: %w", err)
	}
	settings, err := ws.data.GetSettings(ctx)
	if err != nil {
		return app.State{}, fmt.Errorf("failed to load settings: %w", err)
	}

	live := liveRate(ctx)
	rate := currency.EffectiveRate(settings, live)
	reporting := appConfig.ReportingCurrency
	return app.State{
		User:              ws.user,
		Settings:          settings,
		AssetAccounts:     accounts,
		ProcessedAccounts: currency.Normalize(accounts, rate, reporting),
		CashflowRecords:   records,
		Budgets:           budgets,
		Goals:             goals,
		Reporting:         reporting,
		LiveRate:          live,
		EffectiveRate:     rate,
		Synced:            true,
	}, nil
}

func printAnswer(w io.Writer, answer string, raw bool, width int) error {
	if raw {
		_, err := fmt.Fprintln(w, answer)
		return err
	}
	rendered, err := report.Render(answer, width)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}
