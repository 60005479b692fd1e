package model

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the step between two occurrences of a recurring rule.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency accepts the frequency names and their singular nouns.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return FrequencyDaily, nil
	case "weekly", "week":
		return FrequencyWeekly, nil
	case "monthly", "month":
		return FrequencyMonthly, nil
	default:
		return "", fmt.Errorf("unknown frequency %q", s)
	}
}

// RecurringRule describes a cashflow entry that repeats on a fixed schedule.
type RecurringRule struct {
	AnchorDate    time.Time  `json:"anchorDate"`
	LastGenerated *time.Time `json:"lastGenerated,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	ID            string     `json:"id"`
	Category      string     `json:"category"`
	Note          string     `json:"note,omitempty"`
	Frequency     Frequency  `json:"frequency"`
	Amount        float64    `json:"amount"`
	Enabled       bool       `json:"enabled"`
}

// Validate checks the rule invariants.
func (r *RecurringRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRule)
	}
	if r.AnchorDate.IsZero() {
		return fmt.Errorf("%w: missing anchor date", ErrInvalidRule)
	}
	if _, err := ParseFrequency(string(r.Frequency)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	if r.EndDate != nil && r.EndDate.Before(r.AnchorDate) {
		return fmt.Errorf("%w: end date before anchor date", ErrInvalidRule)
	}
	return nil
}
