// Package service defines the contracts shared between the store, the listener bridge
// and the session.
package service

import (
	"context"

	"github.com/Veraticus/findash/internal/model"
)

// Collection names a per-user document collection.
type Collection string

// Collections stored under users/{uid}.
const (
	CollectionAssetAccounts   Collection = "assetAccounts"
	CollectionCashflowRecords Collection = "cashflowRecords"
	CollectionBudgets         Collection = "budgets"
	CollectionGoals           Collection = "goals"
	CollectionSettings        Collection = "settings"
)

// AllCollections lists every collection a dashboard subscribes to.
var AllCollections = []Collection{
	CollectionAssetAccounts,
	CollectionCashflowRecords,
	CollectionBudgets,
	CollectionGoals,
	CollectionSettings,
}

// DefaultNamespace partitions documents written by this application version.
const DefaultNamespace = "finance-dashboard-v1"

// Scope identifies the owner of a set of documents.
type Scope struct {
	Namespace string
	UserID    string
}

// Change announces that a collection in a scope was written.
type Change struct {
	Scope      Scope
	Collection Collection
}

// UserStore is the document store bound to a single user.
type UserStore interface {
	Scope() Scope

	ListAssetAccounts(ctx context.Context) ([]model.AssetAccount, error)
	SaveAssetAccount(ctx context.Context, account *model.AssetAccount) error
	DeleteAssetAccount(ctx context.Context, id string) error

	ListCashflowRecords(ctx context.Context) ([]model.CashflowRecord, error)
	SaveCashflowRecord(ctx context.Context, record *model.CashflowRecord) error
	// CreateCashflowRecord writes the record only if no document with its ID
	// exists and reports whether it was written.
	CreateCashflowRecord(ctx context.Context, record *model.CashflowRecord) (bool, error)
	DeleteCashflowRecord(ctx context.Context, id string) error

	ListBudgets(ctx context.Context) ([]model.Budget, error)
	SaveBudget(ctx context.Context, budget *model.Budget) error
	DeleteBudget(ctx context.Context, id string) error

	ListGoals(ctx context.Context) ([]model.Goal, error)
	SaveGoal(ctx context.Context, goal *model.Goal) error
	DeleteGoal(ctx context.Context, id string) error

	// GetSettings returns the settings document, creating it with defaults on first use.
	GetSettings(ctx context.Context) (*model.Settings, error)
	SaveSettings(ctx context.Context, settings *model.Settings) error
}

// ChangeFeed pushes change notifications for a scope. The returned cancel func
// stops delivery and closes the channel.
type ChangeFeed interface {
	Watch(scope Scope) (<-chan Change, func())
}

// Store is the persistent document store.
type Store interface {
	ChangeFeed
	User(namespace, userID string) UserStore
	Migrate(ctx context.Context) error
	Close() error
}
