package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/model"
)

// Markdown renders the report as a Markdown document.
func Markdown(rep *Report) string {
	var b strings.Builder
	money := func(d decimal.Decimal) string {
		return currency.FormatAmount(d.InexactFloat64(), rep.Currency())
	}

	fmt.Fprintf(&b, "# Finance Report\n\n")
	fmt.Fprintf(&b, "%s - %s · rate %.4g · generated %s\n\n",
		rep.Range.Start.Format("Jan 2, 2006"),
		rep.Range.End.AddDate(0, 0, -1).Format("Jan 2, 2006"),
		rep.Rate,
		rep.GeneratedAt.Format("2006-01-02 15:04"))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| | Amount |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Net worth | %s |\n", money(rep.NetWorth))
	fmt.Fprintf(&b, "| Income | %s |\n", money(rep.TotalIncome))
	fmt.Fprintf(&b, "| Expenses | %s |\n", money(rep.TotalExpenses))
	fmt.Fprintf(&b, "| Net flow | %s |\n\n", money(rep.NetFlow))

	if len(rep.Accounts) > 0 {
		fmt.Fprintf(&b, "## Accounts\n\n| Account | Type | Balance | In %s |\n|---|---|---:|---:|\n", rep.Currency())
		for _, a := range rep.Accounts {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				escape(a.Name), a.Type,
				currency.FormatAmount(a.Balance.InexactFloat64(), a.Currency),
				money(a.DisplayBalance))
		}
		b.WriteString("\n")
	}

	if len(rep.Categories) > 0 {
		b.WriteString("## Categories\n\n| Category | Income | Expenses | Net | Records |\n|---|---:|---:|---:|---:|\n")
		for _, c := range rep.Categories {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n",
				escape(c.Category), money(c.Income), money(c.Expenses), money(c.Net), c.RecordCount)
		}
		b.WriteString("\n")
	}

	if len(rep.MonthlyFlow) > 0 {
		b.WriteString("## Monthly Flow\n\n| Month | Income | Expenses | Net | Running |\n|---|---:|---:|---:|---:|\n")
		for _, m := range rep.MonthlyFlow {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				m.Month, money(m.TotalIncome), money(m.TotalExpenses), money(m.NetFlow), money(m.RunningBalance))
		}
		b.WriteString("\n")
	}

	if len(rep.Budgets) > 0 {
		b.WriteString("## Budgets\n\n| Category | Limit | Spent | Remaining | Used |\n|---|---:|---:|---:|---:|\n")
		for _, p := range rep.Budgets {
			flag := ""
			if p.Over {
				flag = " ⚠"
			}
			fmt.Fprintf(&b, "| %s%s | %s | %s | %s | %s%% |\n",
				escape(p.Category), flag, money(p.Limit), money(p.Spent), money(p.Remaining), p.Percent.String())
		}
		b.WriteString("\n")
	}

	if len(rep.Goals) > 0 {
		b.WriteString("## Goals\n\n| Goal | Target | Saved | Progress | Deadline |\n|---|---:|---:|---:|---|\n")
		for _, g := range rep.Goals {
			deadline := "-"
			if g.Deadline != nil {
				deadline = g.Deadline.Format("2006-01-02")
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s%% | %s |\n",
				escape(g.Name), money(g.Target), money(g.Saved), g.Percent.String(), deadline)
		}
		b.WriteString("\n")
	}

	if len(rep.Investments) > 0 {
		b.WriteString("## Investments\n\n| Holding | Value | Share |\n|---|---:|---:|\n")
		for _, h := range rep.Investments {
			fmt.Fprintf(&b, "| %s | %s | %s%% |\n", escape(h.Name), money(h.DisplayBalance), h.Share.String())
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Render formats Markdown for the terminal.
func Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// Currency returns the report's reporting currency or the default one.
func (r *Report) Currency() model.Currency {
	if r.Reporting == "" {
		return model.DefaultReportingCurrency
	}
	return r.Reporting
}
