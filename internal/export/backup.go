// Package export writes a user's data out as backups and spreadsheets and
// reads backups back in.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
)

// BackupVersion is the format version written by WriteJSON.
const BackupVersion = 1

// ErrUnsupportedBackup is returned for backups from a newer format.
var ErrUnsupportedBackup = errors.New("unsupported backup version")

// Backup holds every collection of one user.
type Backup struct {
	ExportedAt      time.Time              `json:"exportedAt"`
	Settings        *model.Settings        `json:"settings,omitempty"`
	Namespace       string                 `json:"namespace"`
	UserID          string                 `json:"userId"`
	AssetAccounts   []model.AssetAccount   `json:"assetAccounts"`
	CashflowRecords []model.CashflowRecord `json:"cashflowRecords"`
	Budgets         []model.Budget         `json:"budgets"`
	Goals           []model.Goal           `json:"goals"`
	Version         int                    `json:"version"`
}

// Collect reads all of a user's collections.
func Collect(ctx context.Context, user service.UserStore) (*Backup, error) {
	scope := user.Scope()
	b := &Backup{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Namespace:  scope.Namespace,
		UserID:     scope.UserID,
	}

	var err error
	if b.AssetAccounts, err = user.ListAssetAccounts(ctx); err != nil {
		return nil, fmt.Errorf("failed to read asset accounts: %w", err)
	}
	if b.CashflowRecords, err = user.ListCashflowRecords(ctx); err != nil {
		return nil, fmt.Errorf("failed to read cashflow records: %w", err)
	}
	if b.Budgets, err = user.ListBudgets(ctx); err != nil {
		return nil, fmt.Errorf("failed to read budgets: %w", err)
	}
	if b.Goals, err = user.ListGoals(ctx); err != nil {
		return nil, fmt.Errorf("failed to read goals: %w", err)
	}
	if b.Settings, err = user.GetSettings(ctx); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return b, nil
}

// WriteJSON writes an indented backup.
func WriteJSON(w io.Writer, b *Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// ReadJSON reads a backup written by WriteJSON.
func ReadJSON(r io.Reader) (*Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if b.Version > BackupVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBackup, b.Version)
	}
	return &b, nil
}

// Size is the number of documents Restore writes.
func (b *Backup) Size() int {
	n := len(b.AssetAccounts) + len(b.CashflowRecords) + len(b.Budgets) + len(b.Goals)
	if b.Settings != nil {
		n++
	}
	return n
}

// Restore upserts every document of the backup into user. Documents missing
// from the backup are left alone. progress, if set, is called after each write.
func Restore(ctx context.Context, user service.UserStore, b *Backup, progress func()) error {
	step := func() {
		if progress != nil {
			progress()
		}
	}

	for i := range b.AssetAccounts {
		if err := user.SaveAssetAccount(ctx, &b.AssetAccounts[i]); err != nil {
			return fmt.Errorf("failed to restore account %s: %w", b.AssetAccounts[i].ID, err)
		}
		step()
	}
	for i := range b.CashflowRecords {
		if err := user.SaveCashflowRecord(ctx, &b.CashflowRecords[i]); err != nil {
			return fmt.Errorf("failed to restore record %s: %w", b.CashflowRecords[i].ID, err)
		}
		step()
	}
	for i := range b.Budgets {
		if err := user.SaveBudget(ctx, &b.Budgets[i]); err != nil {
			return fmt.Errorf("failed to restore budget %s: %w", b.Budgets[i].ID, err)
		}
		step()
	}
	for i := range b.Goals {
		if err := user.SaveGoal(ctx, &b.Goals[i]); err != nil {
			return fmt.Errorf("failed to restore goal %s: %w", b.Goals[i].ID, err)
		}
		step()
	}
	if b.Settings != nil {
		if err := user.SaveSettings(ctx, b.Settings); err != nil {
			return fmt.Errorf("failed to restore settings: %w", err)
		}
		step()
	}
	return nil
}
