package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/model"
)

// Store is the subset of the user store the reconciler writes to.
type Store interface {
	CreateCashflowRecord(ctx context.Context, record *model.CashflowRecord) (bool, error)
	SaveSettings(ctx context.Context, settings *model.Settings) error
}

// Reconciler creates the records recurring rules owe for elapsed periods.
type Reconciler struct {
	now      func() time.Time
	location *time.Location
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock sets the source of "now".
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = now
	}
}

// WithLocation sets the time zone calendar periods are computed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) {
		if loc != nil {
			r.location = loc
		}
	}
}

// NewReconciler creates a reconciler using the wall clock and local time.
func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result describes one reconciliation pass.
type Result struct {
	Records         []model.CashflowRecord
	SettingsUpdated bool
}

// Created reports whether at least one record was written.
func (r Result) Created() bool {
	return len(r.Records) > 0
}

// Reconcile writes a record for every elapsed occurrence of every enabled rule
// that has no matching record yet, then advances LastGenerated on the rules it
// wrote for. The records and settings passed in are not modified.
//
// A failed write stops the rule it belongs to; the other rules still run. All
// failures are joined into one error wrapping common.ErrReconciliation.
func (r *Reconciler) Reconcile(ctx context.Context, store Store, records []model.CashflowRecord, settings *model.Settings) (Result, error) {
	var result Result
	if settings == nil || len(settings.RecurringRules) == 0 {
		return result, nil
	}

	now := r.now()
	updated := settings.Clone()
	var errs []error

	for i := range updated.RecurringRules {
		rule := &updated.RecurringRules[i]
		if !rule.Enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		written, err := r.reconcileRule(ctx, store, rule, records, now)
		result.Records = append(result.Records, written...)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", rule.ID, err))
		}
		if len(written) > 0 {
			last := written[len(written)-1].Date
			rule.LastGenerated = &last
			result.SettingsUpdated = true
		}
	}

	if result.SettingsUpdated {
		if err := store.SaveSettings(ctx, updated); err != nil {
			errs = append(errs, fmt.Errorf("failed to save settings: %w", err))
			result.SettingsUpdated = false
		}
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("%w: %w", common.ErrReconciliation, errors.Join(errs...))
	}
	return result, nil
}

func (r *Reconciler) reconcileRule(ctx context.Context, store Store, rule *model.RecurringRule, records []model.CashflowRecord, now time.Time) ([]model.CashflowRecord, error) {
	existing := make(map[string]bool)
	for _, record := range records {
		if record.RecurringRuleID == rule.ID {
			existing[PeriodKey(rule.Frequency, record.Date, r.location)] = true
		}
	}

	var written []model.CashflowRecord
	for _, date := range Occurrences(*rule, now, r.location) {
		key := PeriodKey(rule.Frequency, date, r.location)
		if existing[key] {
			continue
		}

		record := model.CashflowRecord{
			ID:              RecordID(rule.ID, key),
			Amount:          rule.Amount,
			Category:        rule.Category,
			Note:            rule.Note,
			Date:            date,
			RecurringRuleID: rule.ID,
		}
		created, err := store.CreateCashflowRecord(ctx, &record)
		if err != nil {
			return written, err
		}
		if !created {
			common.LogDebug("Recurring record already exists", common.Fields{
				"rule_id": rule.ID,
				"period":  key,
			})
			continue
		}

		common.LogInfo("Created recurring record", common.Fields{
			"rule_id": rule.ID,
			"period":  key,
			"amount":  rule.Amount,
		})
		written = append(written, record)
	}
	return written, nil
}
