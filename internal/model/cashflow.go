package model

import (
	"fmt"
	"math"
	"time"
)

// CashflowRecord is a single income (positive) or expense (negative) entry.
type CashflowRecord struct {
	Date     time.Time `json:"date"`
	ID       string    `json:"id"`
	Category string    `json:"category"`
	Note     string    `json:"note,omitempty"`
	// RecurringRuleID links a record to the rule that generated it. Not owning.
	RecurringRuleID string  `json:"recurringRuleId,omitempty"`
	Amount          float64 `json:"amount"`
}

// IsIncome reports whether the record adds money.
func (r CashflowRecord) IsIncome() bool {
	return r.Amount > 0
}

// Validate checks the record invariants.
func (r *CashflowRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRecord)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidRecord)
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		return fmt.Errorf("%w: amount must be finite", ErrInvalidRecord)
	}
	return nil
}
