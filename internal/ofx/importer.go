package ofx

import (
	"context"
	"fmt"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
)

// ImportStats counts what an import did.
type ImportStats struct {
	Created int
	Linked  int
	Skipped int
}

// Import writes records to user. Records linked to a recurring rule replace
// whatever the reconciler generated for that period; other records are only
// written if they were not imported before. progress, if set, runs after
// each record.
func Import(ctx context.Context, user service.UserStore, records []model.CashflowRecord, progress func()) (ImportStats, error) {
	var stats ImportStats
	for i := range records {
		rec := &records[i]
		if rec.RecurringRuleID != "" {
			if err := user.SaveCashflowRecord(ctx, rec); err != nil {
				return stats, fmt.Errorf("failed to import record %s: %w", rec.ID, err)
			}
			stats.Linked++
		} else {
			created, err := user.CreateCashflowRecord(ctx, rec)
			if err != nil {
				return stats, fmt.Errorf("failed to import record %s: %w", rec.ID, err)
			}
			if created {
				stats.Created++
			} else {
				stats.Skipped++
			}
		}
		if progress != nil {
			progress()
		}
	}

	common.LogInfo("Imported statement records", common.Fields{
		"created": stats.Created,
		"linked":  stats.Linked,
		"skipped": stats.Skipped,
	})
	return stats, nil
}
