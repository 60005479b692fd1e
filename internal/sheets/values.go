package sheets

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/findash/internal/report"
)

// Tab is one sheet of the published spreadsheet.
type Tab struct {
	Title string
	Rows  [][]any
}

// Tab titles, in publishing order.
const (
	TabSummary     = "Summary"
	TabAccounts    = "Accounts"
	TabCategories  = "Categories"
	TabMonthlyFlow = "Monthly Flow"
	TabBudgets     = "Budgets"
	TabGoals       = "Goals"
)

// TabTitles lists every tab the writer maintains.
var TabTitles = []string{TabSummary, TabAccounts, TabCategories, TabMonthlyFlow, TabBudgets, TabGoals}

// Tabs lays the report out as spreadsheet rows. Every tab starts with a
// header row.
func Tabs(rep *report.Report) []Tab {
	return []Tab{
		{Title: TabSummary, Rows: summaryRows(rep)},
		{Title: TabAccounts, Rows: accountRows(rep)},
		{Title: TabCategories, Rows: categoryRows(rep)},
		{Title: TabMonthlyFlow, Rows: monthlyRows(rep)},
		{Title: TabBudgets, Rows: budgetRows(rep)},
		{Title: TabGoals, Rows: goalRows(rep)},
	}
}

func num(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func summaryRows(rep *report.Report) [][]any {
	return [][]any{
		{"Finance Report", fmt.Sprintf("%s - %s",
			rep.Range.Start.Format("Jan 2, 2006"),
			rep.Range.End.AddDate(0, 0, -1).Format("Jan 2, 2006"))},
		{"Reporting currency", string(rep.Currency())},
		{"Exchange rate", rep.Rate},
		{"Net worth", num(rep.NetWorth)},
		{"Income", num(rep.TotalIncome)},
		{"Expenses", num(rep.TotalExpenses)},
		{"Net flow", num(rep.NetFlow)},
		{"Generated", rep.GeneratedAt.Format("2006-01-02 15:04")},
	}
}

func accountRows(rep *report.Report) [][]any {
	rows := make([][]any, 0, len(rep.Accounts)+1)
	rows = append(rows, []any{"Account", "Type", "Currency", "Balance", "In " + string(rep.Currency())})
	for _, a := range rep.Accounts {
		rows = append(rows, []any{a.Name, string(a.Type), string(a.Currency), num(a.Balance), num(a.DisplayBalance)})
	}
	return rows
}

func categoryRows(rep *report.Report) [][]any {
	rows := make([][]any, 0, len(rep.Categories)+1)
	rows = append(rows, []any{"Category", "Income", "Expenses", "Net", "Records"})
	for _, c := range rep.Categories {
		rows = append(rows, []any{c.Category, num(c.Income), num(c.Expenses), num(c.Net), c.RecordCount})
	}
	return rows
}

func monthlyRows(rep *report.Report) [][]any {
	rows := make([][]any, 0, len(rep.MonthlyFlow)+1)
	rows = append(rows, []any{"Month", "Income", "Expenses", "Net", "Running Balance"})
	for _, m := range rep.MonthlyFlow {
		rows = append(rows, []any{m.Month, num(m.TotalIncome), num(m.TotalExpenses), num(m.NetFlow), num(m.RunningBalance)})
	}
	return rows
}

func budgetRows(rep *report.Report) [][]any {
	rows := make([][]any, 0, len(rep.Budgets)+1)
	rows = append(rows, []any{"Category", "Limit", "Spent", "Remaining", "Percent", "Over"})
	for _, b := range rep.Budgets {
		rows = append(rows, []any{b.Category, num(b.Limit), num(b.Spent), num(b.Remaining), num(b.Percent), b.Over})
	}
	return rows
}

func goalRows(rep *report.Report) [][]any {
	rows := make([][]any, 0, len(rep.Goals)+1)
	rows = append(rows, []any{"Goal", "Target", "Saved", "Percent", "Deadline", "Complete"})
	for _, g := range rep.Goals {
		deadline := ""
		if g.Deadline != nil {
			deadline = g.Deadline.Format("2006-01-02")
		}
		rows = append(rows, []any{g.Name, num(g.Target), num(g.Saved), num(g.Percent), deadline, g.Complete})
	}
	return rows
}
