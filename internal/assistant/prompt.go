package assistant

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/findash/internal/app"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/report"
)

// Prompt builds the user prompt: the financial data, the earlier turns and the
// question.
func Prompt(state app.State, history []Turn, question string, now time.Time, maxRecords int) string {
	var b strings.Builder
	b.WriteString(Context(state, now, maxRecords))

	if len(history) > 0 {
		b.WriteString("\n# Conversation so far\n\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "**Q:** %s\n\n**A:** %s\n\n", turn.Question, turn.Answer)
		}
	}

	fmt.Fprintf(&b, "\n# Question\n\n%s\n", question)
	return b.String()
}

// Context summarizes state as Markdown: this year's report followed by the
// most recent cashflow records.
func Context(state app.State, now time.Time, maxRecords int) string {
	year := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	rep := report.Build(report.Input{
		Accounts:  state.ProcessedAccounts,
		Records:   state.CashflowRecords,
		Budgets:   state.Budgets,
		Goals:     state.Goals,
		Reporting: state.Reporting,
		Rate:      state.EffectiveRate,
	}, report.DateRange{Start: year, End: year.AddDate(1, 0, 0)}, now)

	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s. Reporting currency: %s.\n\n", now.Format("2006-01-02"), state.Reporting)
	b.WriteString(report.Markdown(rep))

	records := recentRecords(state.CashflowRecords, maxRecords)
	if len(records) > 0 {
		fmt.Fprintf(&b, "\n## Recent records (%d of %d)\n\n", len(records), len(state.CashflowRecords))
		for _, r := range records {
			b.WriteString(recordLine(r))
		}
	}

	if state.Settings != nil && len(state.Settings.RecurringRules) > 0 {
		b.WriteString("\n## Recurring rules\n\n")
		for _, rule := range state.Settings.RecurringRules {
			status := ""
			if !rule.Enabled {
				status = " (disabled)"
			}
			fmt.Fprintf(&b, "- %s %.2f %s, %s since %s%s\n",
				rule.Category, rule.Amount, noteOrDash(rule.Note), rule.Frequency,
				rule.AnchorDate.Format("2006-01-02"), status)
		}
	}
	return b.String()
}

func recentRecords(records []model.CashflowRecord, limit int) []model.CashflowRecord {
	sorted := make([]model.CashflowRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func recordLine(r model.CashflowRecord) string {
	recurring := ""
	if r.RecurringRuleID != "" {
		recurring = " (recurring)"
	}
	return fmt.Sprintf("- %s %s %.2f %s%s\n", r.Date.Format("2006-01-02"), r.Category, r.Amount, noteOrDash(r.Note), recurring)
}

func noteOrDash(note string) string {
	if note == "" {
		return "-"
	}
	return note
}
