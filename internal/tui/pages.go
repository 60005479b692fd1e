package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/report"
)

const recentRecords = 8

func (m Model) money(d decimal.Decimal) string {
	return currency.FormatAmount(d.InexactFloat64(), m.state.Reporting)
}

func (m Model) signed(amount float64, cur model.Currency) string {
	text := currency.FormatAmount(amount, cur)
	switch {
	case amount > 0:
		return m.theme.Income.Render(text)
	case amount < 0:
		return m.theme.Expense.Render(text)
	default:
		return text
	}
}

func (m Model) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(m.theme.Border)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return m.theme.Bold.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func (m Model) section(title, body string) string {
	return lipgloss.JoinVertical(lipgloss.Left, m.theme.Title.Render(title), body)
}

func (m Model) empty(what string) string {
	return m.theme.Subtitle.Render("No " + what + " yet.")
}

func (m Model) input() report.Input {
	return report.Input{
		Accounts:  m.state.ProcessedAccounts,
		Records:   m.state.CashflowRecords,
		Budgets:   m.state.Budgets,
		Goals:     m.state.Goals,
		Reporting: m.state.Reporting,
		Rate:      m.state.EffectiveRate,
	}
}

func monthRange(now time.Time) report.DateRange {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return report.DateRange{Start: start, End: start.AddDate(0, 1, 0)}
}

func yearRange(now time.Time) report.DateRange {
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	return report.DateRange{Start: start, End: start.AddDate(1, 0, 0)}
}

func newestFirst(records []model.CashflowRecord, limit int) []model.CashflowRecord {
	sorted := make([]model.CashflowRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func (m Model) recordRows(records []model.CashflowRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		recurring := ""
		if r.RecurringRuleID != "" {
			recurring = "↻"
		}
		rows = append(rows, []string{
			r.Date.Format("2006-01-02"),
			r.Category,
			m.signed(r.Amount, m.state.Reporting),
			r.Note,
			recurring,
		})
	}
	return rows
}

func (m Model) dashboardView() string {
	now := m.now()
	rep := report.Build(m.input(), monthRange(now), now)

	summary := m.table([]string{"", "Amount"}, [][]string{
		{"Net worth", m.money(rep.NetWorth)},
		{"Income " + now.Format("Jan 2006"), m.money(rep.TotalIncome)},
		{"Expenses " + now.Format("Jan 2006"), m.money(rep.TotalExpenses)},
		{"Net flow", m.money(rep.NetFlow)},
	})

	recent := m.empty("records")
	if len(m.state.CashflowRecords) > 0 {
		recent = m.table([]string{"Date", "Category", "Amount", "Note", ""},
			m.recordRows(newestFirst(m.state.CashflowRecords, recentRecords)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.section("Overview", summary),
		"",
		m.section("Recent activity", recent),
	)
}

func (m Model) dataManagerView() string {
	counts := m.table([]string{"Collection", "Documents"}, [][]string{
		{"Asset accounts", fmt.Sprint(len(m.state.AssetAccounts))},
		{"Cashflow records", fmt.Sprint(len(m.state.CashflowRecords))},
		{"Budgets", fmt.Sprint(len(m.state.Budgets))},
		{"Goals", fmt.Sprint(len(m.state.Goals))},
		{"Recurring rules", fmt.Sprint(m.ruleCount())},
	})

	commands := strings.Join([]string{
		"findash export json backup.json     full backup",
		"findash export xlsx findash.xlsx    accounts and records workbook",
		"findash export csv records.csv      records only",
		"findash export sheets               publish the report to Google Sheets",
		"findash import json backup.json     restore a backup",
		"findash import ofx statement.qfx    import a bank statement",
	}, "\n")

	return lipgloss.JoinVertical(lipgloss.Left,
		m.section("Stored data", counts),
		"",
		m.section("Import and export", m.theme.Subtitle.Render(commands)),
	)
}

func (m Model) ruleCount() int {
	if m.state.Settings == nil {
		return 0
	}
	return len(m.state.Settings.RecurringRules)
}

func (m Model) assetView() string {
	if len(m.state.ProcessedAccounts) == 0 {
		return m.section("Assets", m.empty("accounts"))
	}

	rows := make([][]string, 0, len(m.state.ProcessedAccounts))
	for _, a := range m.state.ProcessedAccounts {
		rows = append(rows, []string{
			a.Name,
			string(a.Type),
			currency.FormatAmount(a.Balance, a.Currency),
			m.signed(a.DisplayBalance, m.state.Reporting),
		})
	}
	total := currency.TotalDisplayBalance(m.state.ProcessedAccounts)
	rows = append(rows, []string{"Total", "", "", m.signed(total, m.state.Reporting)})

	return m.section("Assets", m.table([]string{"Account", "Type", "Balance", "In " + string(m.state.Reporting)}, rows))
}

func (m Model) cashflowView() string {
	rules := m.empty("recurring rules")
	if m.ruleCount() > 0 {
		rows := make([][]string, 0, m.ruleCount())
		for _, r := range m.state.Settings.RecurringRules {
			last := "never"
			if r.LastGenerated != nil {
				last = r.LastGenerated.Format("2006-01-02")
			}
			status := "on"
			if !r.Enabled {
				status = "off"
			}
			rows = append(rows, []string{
				r.Category,
				m.signed(r.Amount, m.state.Reporting),
				string(r.Frequency),
				r.AnchorDate.Format("2006-01-02"),
				last,
				status,
			})
		}
		rules = m.table([]string{"Category", "Amount", "Every", "From", "Last", ""}, rows)
	}

	records := m.empty("records")
	if len(m.state.CashflowRecords) > 0 {
		records = m.table([]string{"Date", "Category", "Amount", "Note", ""},
			m.recordRows(newestFirst(m.state.CashflowRecords, 3*recentRecords)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.section("Recurring rules", rules),
		"",
		m.section("Records", records),
	)
}

func (m Model) percentBar(percent decimal.Decimal) string {
	ratio := percent.Div(decimal.NewFromInt(100)).InexactFloat64()
	return m.bar.ViewAs(min(max(ratio, 0), 1))
}

func (m Model) budgetView() string {
	now := m.now()
	budgets := report.Budgets(m.state.Budgets, m.state.CashflowRecords, now)
	title := "Budgets · " + now.Format("January 2006")
	if len(budgets) == 0 {
		return m.section(title, m.empty("budgets"))
	}

	rows := make([][]string, 0, len(budgets))
	for _, b := range budgets {
		remaining := m.money(b.Remaining)
		if b.Over {
			remaining = m.theme.Expense.Render(remaining)
		}
		rows = append(rows, []string{b.Category, m.money(b.Spent) + " / " + m.money(b.Limit), remaining, m.percentBar(b.Percent)})
	}
	return m.section(title, m.table([]string{"Category", "Spent", "Remaining", "Progress"}, rows))
}

func (m Model) investmentView() string {
	holdings := report.Investments(m.state.ProcessedAccounts)
	if len(holdings) == 0 {
		return m.section("Investments", m.empty("investment accounts"))
	}

	rows := make([][]string, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, []string{h.Name, string(h.Currency), m.money(h.DisplayBalance), h.Share.String() + "%"})
	}
	return m.section("Investments", m.table([]string{"Holding", "Currency", "Value", "Share"}, rows))
}

func (m Model) goalsView() string {
	goals := report.Goals(m.state.Goals, m.state.ProcessedAccounts, m.state.CashflowRecords)
	if len(goals) == 0 {
		return m.section("Goals", m.empty("goals"))
	}

	rows := make([][]string, 0, len(goals))
	for _, g := range goals {
		deadline := ""
		if g.Deadline != nil {
			deadline = g.Deadline.Format("2006-01-02")
		}
		name := g.Name
		if g.Complete {
			name = m.theme.StatusSuccess.Render("✓ " + name)
		}
		rows = append(rows, []string{name, m.money(g.Saved) + " / " + m.money(g.Target), deadline, m.percentBar(g.Percent)})
	}
	return m.section("Goals", m.table([]string{"Goal", "Saved", "Deadline", "Progress"}, rows))
}

func (m Model) reportView() string {
	now := m.now()
	rep := report.Build(m.input(), yearRange(now), now)
	title := fmt.Sprintf("Report · %d", now.Year())

	if len(rep.Categories) == 0 {
		return m.section(title, m.empty("records this year"))
	}

	categories := make([][]string, 0, len(rep.Categories))
	for _, c := range rep.Categories {
		categories = append(categories, []string{c.Category, m.money(c.Income), m.money(c.Expenses), m.money(c.Net)})
	}
	categories = append(categories, []string{"Total", m.money(rep.TotalIncome), m.money(rep.TotalExpenses), m.money(rep.NetFlow)})

	months := make([][]string, 0, len(rep.MonthlyFlow))
	for _, row := range rep.MonthlyFlow {
		months = append(months, []string{row.Month, m.money(row.TotalIncome), m.money(row.TotalExpenses), m.money(row.RunningBalance)})
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.section(title, m.table([]string{"Category", "Income", "Expenses", "Net"}, categories)),
		"",
		m.section("Monthly flow", m.table([]string{"Month", "Income", "Expenses", "Running"}, months)),
	)
}
