// Package recurring generates the cashflow records that recurring rules owe.
package recurring

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/findash/internal/model"
)

var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("findash/recurring-records"))

// Occurrences returns the rule's due dates in [start, today), oldest first,
// where today is the start of now's calendar day in loc. An occurrence due
// today is returned from the next day on. The grid is AnchorDate + k steps;
// dates up to and including LastGenerated and after EndDate are skipped.
func Occurrences(rule model.RecurringRule, now time.Time, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	anchor := rule.AnchorDate.In(loc)
	today := StartOfDay(now, loc)

	var out []time.Time
	for k := 0; ; k++ {
		date := occurrence(rule.Frequency, anchor, k)
		if !date.Before(today) {
			break
		}
		if rule.EndDate != nil && date.After(*rule.EndDate) {
			break
		}
		if rule.LastGenerated != nil && !date.After(*rule.LastGenerated) {
			continue
		}
		out = append(out, date)
	}
	return out
}

// StartOfDay is midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func occurrence(freq model.Frequency, anchor time.Time, k int) time.Time {
	switch freq {
	case model.FrequencyDaily:
		return anchor.AddDate(0, 0, k)
	case model.FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*k)
	default:
		return addMonths(anchor, k)
	}
}

// addMonths moves t forward n calendar months, clamping the day to the last day
// of the target month so Jan 31 becomes Feb 28 (or 29).
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// PeriodKey names the calendar period t falls in for the frequency: the date
// for daily rules, the ISO week for weekly rules and the month otherwise.
func PeriodKey(freq model.Frequency, t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	switch freq {
	case model.FrequencyDaily:
		return t.Format("2006-01-02")
	case model.FrequencyWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return t.Format("2006-01")
	}
}

// RecordID is the ID of the record a rule generates for a period. Two passes
// over the same period always agree on it.
func RecordID(ruleID, periodKey string) string {
	return uuid.NewSHA1(recordNamespace, []byte(ruleID+"/"+periodKey)).String()
}
