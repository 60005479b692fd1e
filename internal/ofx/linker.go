package ofx

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/recurring"
)

// Linker attaches imported records to the recurring rule they pay, so the
// reconciler counts them instead of generating a second record for the period.
type Linker struct {
	Location *time.Location
	// Threshold is the minimum name similarity in [0, 1].
	Threshold float64
	// Tolerance is the largest amount difference still treated as equal.
	Tolerance float64
}

// NewLinker creates a linker computing periods in loc.
func NewLinker(loc *time.Location) *Linker {
	if loc == nil {
		loc = time.Local
	}
	return &Linker{
		Location:  loc,
		Threshold: 0.6,
		Tolerance: 0.005,
	}
}

// Link returns a copy of records in which every record matching an enabled
// rule carries the rule's ID and the ID the reconciler would give that period.
// A rule is linked at most once per period.
func (l *Linker) Link(records []model.CashflowRecord, rules []model.RecurringRule) []model.CashflowRecord {
	out := make([]model.CashflowRecord, len(records))
	copy(out, records)

	used := make(map[string]bool)
	for i := range out {
		rec := &out[i]
		if rec.RecurringRuleID != "" {
			continue
		}

		bestScore := 0.0
		var best *model.RecurringRule
		for j := range rules {
			rule := &rules[j]
			if !l.eligible(rec, rule) {
				continue
			}
			key := rule.ID + "/" + recurring.PeriodKey(rule.Frequency, rec.Date, l.Location)
			if used[key] {
				continue
			}
			score := math.Max(Similarity(rec.Note, rule.Note), Similarity(rec.Note, rule.Category))
			if score >= l.Threshold && score > bestScore {
				bestScore = score
				best = rule
			}
		}
		if best == nil {
			continue
		}

		period := recurring.PeriodKey(best.Frequency, rec.Date, l.Location)
		used[best.ID+"/"+period] = true
		rec.RecurringRuleID = best.ID
		rec.ID = recurring.RecordID(best.ID, period)
		if best.Category != "" {
			rec.Category = best.Category
		}
	}
	return out
}

func (l *Linker) eligible(rec *model.CashflowRecord, rule *model.RecurringRule) bool {
	if !rule.Enabled {
		return false
	}
	if math.Abs(rec.Amount-rule.Amount) > l.Tolerance {
		return false
	}
	anchorDay := time.Date(rule.AnchorDate.Year(), rule.AnchorDate.Month(), rule.AnchorDate.Day(), 0, 0, 0, 0, rule.AnchorDate.Location())
	if rec.Date.Before(anchorDay) {
		return false
	}
	return rule.EndDate == nil || !rec.Date.After(*rule.EndDate)
}

// Similarity is 1 minus the edit distance over the longer length, ignoring case.
func Similarity(a, b string) float64 {
	a, b = strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
