package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNamespace = "finance-dashboard-test"

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestOpen_AppliesMigrations(t *testing.T) {
	store := createTestStorage(t)

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Migrating again is a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStoreInit)
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestUserStore_AssetAccounts(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := store.User(testNamespace, "alice")

	accounts := []model.AssetAccount{
		{ID: "acc-2", Name: "Brokerage", Currency: model.CurrencyUSD, Balance: 100, Type: model.AccountTypeInvestment},
		{ID: "acc-1", Name: "Wallet", Currency: model.CurrencyTWD, Balance: 2500, Type: model.AccountTypeCash},
	}
	for i := range accounts {
		require.NoError(t, user.SaveAssetAccount(ctx, &accounts[i]))
	}

	got, err := user.ListAssetAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "acc-2", got[0].ID, "insertion order is preserved")
	assert.Equal(t, "acc-1", got[1].ID)
	assert.InDelta(t, 100.0, got[0].Balance, 1e-9)

	// Updating keeps the original position.
	accounts[0].Balance = 150
	require.NoError(t, user.SaveAssetAccount(ctx, &accounts[0]))
	got, err = user.ListAssetAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-2", got[0].ID)
	assert.InDelta(t, 150.0, got[0].Balance, 1e-9)

	require.NoError(t, user.DeleteAssetAccount(ctx, "acc-2"))
	err = user.DeleteAssetAccount(ctx, "acc-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserStore_RejectsInvalidDocuments(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := store.User(testNamespace, "alice")

	tests := []struct {
		save    func() error
		wantErr error
		name    string
	}{
		{
			name: "unknown currency",
			save: func() error {
				return user.SaveAssetAccount(ctx, &model.AssetAccount{ID: "a", Currency: "XYZ"})
			},
			wantErr: model.ErrInvalidAccount,
		},
		{
			name:    "nil record",
			save:    func() error { return user.SaveCashflowRecord(ctx, nil) },
			wantErr: ErrNilParameter,
		},
		{
			name: "record without date",
			save: func() error {
				return user.SaveCashflowRecord(ctx, &model.CashflowRecord{ID: "r", Amount: 1})
			},
			wantErr: model.ErrInvalidRecord,
		},
		{
			name: "budget without limit",
			save: func() error {
				return user.SaveBudget(ctx, &model.Budget{ID: "b", Category: "Food"})
			},
			wantErr: model.ErrInvalidBudget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.save(), tt.wantErr)
		})
	}
}

func TestUserStore_ScopeIsolation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	alice := store.User(testNamespace, "alice")
	bob := store.User(testNamespace, "bob")
	aliceOtherApp := store.User("other-app", "alice")

	require.NoError(t, alice.SaveGoal(ctx, &model.Goal{ID: "g1", Name: "House", TargetAmount: 1000}))

	goals, err := bob.ListGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)

	goals, err = aliceOtherApp.ListGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)

	_, err = store.User(testNamespace, "").ListGoals(ctx)
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestUserStore_CreateCashflowRecordIsCreateIfAbsent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := store.User(testNamespace, "alice")

	record := &model.CashflowRecord{
		ID:       "rule-1:2024-01",
		Amount:   -500,
		Category: "Rent",
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	created, err := user.CreateCashflowRecord(ctx, record)
	require.NoError(t, err)
	assert.True(t, created)

	duplicate := *record
	duplicate.Amount = -999
	created, err = user.CreateCashflowRecord(ctx, &duplicate)
	require.NoError(t, err)
	assert.False(t, created)

	records, err := user.ListCashflowRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, -500.0, records[0].Amount, 1e-9, "existing document is untouched")
}

func TestUserStore_CreateCashflowRecordConcurrent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := store.User(testNamespace, "alice")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		written int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := user.CreateCashflowRecord(ctx, &model.CashflowRecord{
				ID:     "same-id",
				Amount: 10,
				Date:   time.Now(),
			})
			assert.NoError(t, err)
			if created {
				mu.Lock()
				written++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, written)
}

func TestUserStore_SettingsCreatedOnFirstUse(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := store.User(testNamespace, "alice")

	settings, err := user.GetSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, settings.ManualRate)
	assert.NotNil(t, settings.RecurringRules)
	assert.Empty(t, settings.RecurringRules)

	rate := 31.0
	settings.ManualRate = &rate
	settings.RecurringRules = append(settings.RecurringRules, model.RecurringRule{
		ID:         "rent",
		Amount:     -20000,
		Category:   "Housing",
		Frequency:  model.FrequencyMonthly,
		AnchorDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Enabled:    true,
	})
	require.NoError(t, user.SaveSettings(ctx, settings))

	reloaded, err := user.GetSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ManualRate)
	assert.InDelta(t, 31.0, *reloaded.ManualRate, 1e-9)
	require.Len(t, reloaded.RecurringRules, 1)
	assert.Equal(t, "rent", reloaded.RecurringRules[0].ID)
}

func TestUserStore_SaveSettingsValidatesRules(t *testing.T) {
	store := createTestStorage(t)
	user := store.User(testNamespace, "alice")

	err := user.SaveSettings(context.Background(), &model.Settings{
		RecurringRules: []model.RecurringRule{{ID: "bad", Frequency: "yearly"}},
	})
	assert.ErrorIs(t, err, model.ErrInvalidRule)
}

func TestWatch_DeliversChangesForScope(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	scope := service.Scope{Namespace: testNamespace, UserID: "alice"}
	changes, cancel := store.Watch(scope)
	defer cancel()

	require.NoError(t, store.User(testNamespace, "bob").SaveBudget(ctx, &model.Budget{ID: "b", Category: "Food", Limit: 1}))
	require.NoError(t, store.User(testNamespace, "alice").SaveBudget(ctx, &model.Budget{ID: "b", Category: "Food", Limit: 1}))

	select {
	case change := <-changes:
		assert.Equal(t, scope, change.Scope)
		assert.Equal(t, service.CollectionBudgets, change.Collection)
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestWatch_CancelClosesChannel(t *testing.T) {
	store := createTestStorage(t)

	changes, cancel := store.Watch(service.Scope{Namespace: testNamespace, UserID: "alice"})
	cancel()
	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}
