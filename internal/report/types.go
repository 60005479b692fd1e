// Package report aggregates a user's data into the dashboard's report views.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/findash/internal/model"
)

// DateRange represents the time period covered by the report. End is exclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in [Start, End).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// AccountLine is one account in the net worth section.
type AccountLine struct {
	Name           string
	Currency       model.Currency
	Type           model.AccountType
	Balance        decimal.Decimal
	DisplayBalance decimal.Decimal
}

// CategorySummaryRow totals one category over the report range.
type CategorySummaryRow struct {
	Category    string
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	Net         decimal.Decimal
	RecordCount int
}

// MonthlyFlowRow represents a single month of cashflow.
type MonthlyFlowRow struct {
	Month          string // e.g., "January 2024"
	TotalIncome    decimal.Decimal
	TotalExpenses  decimal.Decimal
	NetFlow        decimal.Decimal // Income - Expenses
	RunningBalance decimal.Decimal
}

// BudgetProgress compares a budget with what was spent in its month.
type BudgetProgress struct {
	Category  string
	Limit     decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	Percent   decimal.Decimal
	Over      bool
}

// GoalProgress measures how close a goal is to its target.
type GoalProgress struct {
	Deadline *time.Time
	Name     string
	Target   decimal.Decimal
	Saved    decimal.Decimal
	Percent  decimal.Decimal
	Complete bool
}

// Holding is an investment or crypto account with its share of the portfolio.
type Holding struct {
	Name           string
	Currency       model.Currency
	DisplayBalance decimal.Decimal
	Share          decimal.Decimal
}

// Report is everything the report view shows.
type Report struct {
	GeneratedAt   time.Time
	Range         DateRange
	Reporting     model.Currency
	Rate          float64
	NetWorth      decimal.Decimal
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	NetFlow       decimal.Decimal
	Accounts      []AccountLine
	Categories    []CategorySummaryRow
	MonthlyFlow   []MonthlyFlowRow
	Budgets       []BudgetProgress
	Goals         []GoalProgress
	Investments   []Holding
}

// Input is the data a report is built from. Accounts must already be
// normalized so DisplayBalance is in the reporting currency.
type Input struct {
	Accounts  []model.AssetAccount
	Records   []model.CashflowRecord
	Budgets   []model.Budget
	Goals     []model.Goal
	Reporting model.Currency
	Rate      float64
}
