package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
)

// userStore implements service.UserStore for one scope.
type userStore struct {
	s     *SQLiteStorage
	scope service.Scope
}

func (u *userStore) Scope() service.Scope {
	return u.scope
}

// ListAssetAccounts returns the user's accounts in insertion order.
func (u *userStore) ListAssetAccounts(ctx context.Context) ([]model.AssetAccount, error) {
	return listDocuments[model.AssetAccount](ctx, u.s, u.scope, service.CollectionAssetAccounts)
}

// SaveAssetAccount inserts or replaces an account.
func (u *userStore) SaveAssetAccount(ctx context.Context, account *model.AssetAccount) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if err := account.Validate(); err != nil {
		return err
	}
	account.UpdatedAt = time.Now().UTC()
	return u.s.putDocument(ctx, u.scope, service.CollectionAssetAccounts, account.ID, account)
}

// DeleteAssetAccount removes an account.
func (u *userStore) DeleteAssetAccount(ctx context.Context, id string) error {
	return u.s.deleteDocument(ctx, u.scope, service.CollectionAssetAccounts, id)
}

// ListCashflowRecords returns the user's records in insertion order.
func (u *userStore) ListCashflowRecords(ctx context.Context) ([]model.CashflowRecord, error) {
	return listDocuments[model.CashflowRecord](ctx, u.s, u.scope, service.CollectionCashflowRecords)
}

// SaveCashflowRecord inserts or replaces a record.
func (u *userStore) SaveCashflowRecord(ctx context.Context, record *model.CashflowRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if err := record.Validate(); err != nil {
		return err
	}
	return u.s.putDocument(ctx, u.scope, service.CollectionCashflowRecords, record.ID, record)
}

// CreateCashflowRecord writes the record unless a document with the same ID exists.
func (u *userStore) CreateCashflowRecord(ctx context.Context, record *model.CashflowRecord) (bool, error) {
	if record == nil {
		return false, fmt.Errorf("%w: record", ErrNilParameter)
	}
	if err := record.Validate(); err != nil {
		return false, err
	}
	return u.s.createDocument(ctx, u.scope, service.CollectionCashflowRecords, record.ID, record)
}

// DeleteCashflowRecord removes a record.
func (u *userStore) DeleteCashflowRecord(ctx context.Context, id string) error {
	return u.s.deleteDocument(ctx, u.scope, service.CollectionCashflowRecords, id)
}

// ListBudgets returns the user's budgets.
func (u *userStore) ListBudgets(ctx context.Context) ([]model.Budget, error) {
	return listDocuments[model.Budget](ctx, u.s, u.scope, service.CollectionBudgets)
}

// SaveBudget inserts or replaces a budget.
func (u *userStore) SaveBudget(ctx context.Context, budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if err := budget.Validate(); err != nil {
		return err
	}
	budget.UpdatedAt = time.Now().UTC()
	return u.s.putDocument(ctx, u.scope, service.CollectionBudgets, budget.ID, budget)
}

// DeleteBudget removes a budget.
func (u *userStore) DeleteBudget(ctx context.Context, id string) error {
	return u.s.deleteDocument(ctx, u.scope, service.CollectionBudgets, id)
}

// ListGoals returns the user's goals.
func (u *userStore) ListGoals(ctx context.Context) ([]model.Goal, error) {
	return listDocuments[model.Goal](ctx, u.s, u.scope, service.CollectionGoals)
}

// SaveGoal inserts or replaces a goal.
func (u *userStore) SaveGoal(ctx context.Context, goal *model.Goal) error {
	if goal == nil {
		return fmt.Errorf("%w: goal", ErrNilParameter)
	}
	if err := goal.Validate(); err != nil {
		return err
	}
	goal.UpdatedAt = time.Now().UTC()
	return u.s.putDocument(ctx, u.scope, service.CollectionGoals, goal.ID, goal)
}

// DeleteGoal removes a goal.
func (u *userStore) DeleteGoal(ctx context.Context, id string) error {
	return u.s.deleteDocument(ctx, u.scope, service.CollectionGoals, id)
}
