package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/findash/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Build assembles the full report for the range. Budgets are measured against
// the month containing the last instant of the range.
func Build(in Input, r DateRange, now time.Time) *Report {
	rep := &Report{
		GeneratedAt: now,
		Range:       r,
		Reporting:   in.Reporting,
		Rate:        in.Rate,
		NetWorth:    NetWorth(in.Accounts),
		Accounts:    accountLines(in.Accounts),
		Categories:  CategorySummary(in.Records, r),
		MonthlyFlow: MonthlyFlow(in.Records, r),
		Investments: Investments(in.Accounts),
		Goals:       Goals(in.Goals, in.Accounts, in.Records),
	}

	for _, row := range rep.Categories {
		rep.TotalIncome = rep.TotalIncome.Add(row.Income)
		rep.TotalExpenses = rep.TotalExpenses.Add(row.Expenses)
	}
	rep.NetFlow = rep.TotalIncome.Sub(rep.TotalExpenses)

	month := r.End.Add(-time.Nanosecond)
	if r.End.IsZero() {
		month = now
	}
	rep.Budgets = Budgets(in.Budgets, in.Records, month)
	return rep
}

// NetWorth sums the normalized balances of every account.
func NetWorth(accounts []model.AssetAccount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(decimal.NewFromFloat(a.DisplayBalance))
	}
	return total
}

func accountLines(accounts []model.AssetAccount) []AccountLine {
	lines := make([]AccountLine, 0, len(accounts))
	for _, a := range accounts {
		lines = append(lines, AccountLine{
			Name:           a.Name,
			Currency:       a.Currency,
			Type:           a.Type,
			Balance:        decimal.NewFromFloat(a.Balance),
			DisplayBalance: decimal.NewFromFloat(a.DisplayBalance),
		})
	}
	return lines
}

// CategorySummary totals income and expenses per category, largest movement first.
func CategorySummary(records []model.CashflowRecord, r DateRange) []CategorySummaryRow {
	byCategory := make(map[string]*CategorySummaryRow)
	for _, rec := range records {
		if !r.Contains(rec.Date) {
			continue
		}
		category := rec.Category
		if category == "" {
			category = "Uncategorized"
		}
		row, ok := byCategory[category]
		if !ok {
			row = &CategorySummaryRow{Category: category}
			byCategory[category] = row
		}
		amount := decimal.NewFromFloat(rec.Amount)
		if amount.IsPositive() {
			row.Income = row.Income.Add(amount)
		} else {
			row.Expenses = row.Expenses.Add(amount.Neg())
		}
		row.RecordCount++
	}

	rows := make([]CategorySummaryRow, 0, len(byCategory))
	for _, row := range byCategory {
		row.Net = row.Income.Sub(row.Expenses)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := rows[i].Income.Add(rows[i].Expenses), rows[j].Income.Add(rows[j].Expenses)
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// MonthlyFlow returns one row per calendar month of the range, oldest first,
// with a running balance of net flow.
func MonthlyFlow(records []model.CashflowRecord, r DateRange) []MonthlyFlowRow {
	if r.Start.IsZero() || !r.End.After(r.Start) {
		return nil
	}

	type bucket struct{ income, expenses decimal.Decimal }
	buckets := make(map[string]*bucket)
	for _, rec := range records {
		if !r.Contains(rec.Date) {
			continue
		}
		key := rec.Date.In(r.Start.Location()).Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		amount := decimal.NewFromFloat(rec.Amount)
		if amount.IsPositive() {
			b.income = b.income.Add(amount)
		} else {
			b.expenses = b.expenses.Add(amount.Neg())
		}
	}

	var rows []MonthlyFlowRow
	running := decimal.Zero
	start := time.Date(r.Start.Year(), r.Start.Month(), 1, 0, 0, 0, 0, r.Start.Location())
	for month := start; month.Before(r.End); month = month.AddDate(0, 1, 0) {
		b := buckets[month.Format("2006-01")]
		if b == nil {
			b = &bucket{}
		}
		net := b.income.Sub(b.expenses)
		running = running.Add(net)
		rows = append(rows, MonthlyFlowRow{
			Month:          month.Format("January 2006"),
			TotalIncome:    b.income,
			TotalExpenses:  b.expenses,
			NetFlow:        net,
			RunningBalance: running,
		})
	}
	return rows
}

// Budgets measures each budget against expenses in its category during the
// calendar month containing month.
func Budgets(budgets []model.Budget, records []model.CashflowRecord, month time.Time) []BudgetProgress {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	r := DateRange{Start: start, End: start.AddDate(0, 1, 0)}

	spent := make(map[string]decimal.Decimal)
	for _, rec := range records {
		if rec.Amount >= 0 || !r.Contains(rec.Date) {
			continue
		}
		spent[rec.Category] = spent[rec.Category].Add(decimal.NewFromFloat(-rec.Amount))
	}

	out := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		limit := decimal.NewFromFloat(b.Limit)
		used := spent[b.Category]
		progress := BudgetProgress{
			Category:  b.Category,
			Limit:     limit,
			Spent:     used,
			Remaining: limit.Sub(used),
			Over:      used.GreaterThan(limit),
		}
		if limit.IsPositive() {
			progress.Percent = used.Div(limit).Mul(hundred).Round(1)
		}
		out = append(out, progress)
	}
	return out
}

// Goals measures each goal. A goal tied to a category counts the money moved
// in that category; other goals count the whole net worth.
func Goals(goals []model.Goal, accounts []model.AssetAccount, records []model.CashflowRecord) []GoalProgress {
	netWorth := NetWorth(accounts)

	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		saved := netWorth
		if g.Category != "" {
			saved = decimal.Zero
			for _, rec := range records {
				if rec.Category == g.Category {
					saved = saved.Add(decimal.NewFromFloat(rec.Amount).Abs())
				}
			}
		}

		target := decimal.NewFromFloat(g.TargetAmount)
		progress := GoalProgress{
			Name:     g.Name,
			Deadline: g.Deadline,
			Target:   target,
			Saved:    saved,
			Complete: saved.GreaterThanOrEqual(target),
		}
		if target.IsPositive() {
			progress.Percent = decimal.Min(saved.Div(target).Mul(hundred), hundred).Round(1)
		}
		out = append(out, progress)
	}
	return out
}

// Investments lists investment and crypto accounts, largest first, with their
// share of the invested total.
func Investments(accounts []model.AssetAccount) []Holding {
	var holdings []Holding
	total := decimal.Zero
	for _, a := range accounts {
		if !a.Type.IsInvestment() {
			continue
		}
		value := decimal.NewFromFloat(a.DisplayBalance)
		total = total.Add(value)
		holdings = append(holdings, Holding{
			Name:           a.Name,
			Currency:       a.Currency,
			DisplayBalance: value,
		})
	}

	for i := range holdings {
		if !total.IsZero() {
			holdings[i].Share = holdings[i].DisplayBalance.Div(total).Mul(hundred).Round(1)
		}
	}
	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].DisplayBalance.GreaterThan(holdings[j].DisplayBalance)
	})
	return holdings
}
