package listener

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
	"github.com/Veraticus/findash/internal/storage"
)

const testNamespace = "finance-dashboard-test"

func createTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// collector funnels snapshots into channels so tests can wait on them.
type collector struct {
	accounts chan []model.AssetAccount
	records  chan []model.CashflowRecord
	budgets  chan []model.Budget
	goals    chan []model.Goal
	settings chan *model.Settings
	errs     chan error
}

func newCollector() *collector {
	return &collector{
		accounts: make(chan []model.AssetAccount, 16),
		records:  make(chan []model.CashflowRecord, 16),
		budgets:  make(chan []model.Budget, 16),
		goals:    make(chan []model.Goal, 16),
		settings: make(chan *model.Settings, 16),
		errs:     make(chan error, 16),
	}
}

func (c *collector) handlers() Handlers {
	return Handlers{
		OnAssetAccounts:   func(v []model.AssetAccount) { c.accounts <- v },
		OnCashflowRecords: func(v []model.CashflowRecord) { c.records <- v },
		OnBudgets:         func(v []model.Budget) { c.budgets <- v },
		OnGoals:           func(v []model.Goal) { c.goals <- v },
		OnSettings:        func(v *model.Settings) { c.settings <- v },
		OnError:           func(_ service.Collection, err error) { c.errs <- err },
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func TestSubscribe_InitialSnapshots(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	user := store.User(testNamespace, "alice")
	require.NoError(t, user.SaveAssetAccount(ctx, &model.AssetAccount{ID: "a", Currency: model.CurrencyUSD, Balance: 100}))

	c := newCollector()
	sub, err := NewBridge(store).Subscribe(ctx, "alice", testNamespace, c.handlers())
	require.NoError(t, err)
	defer sub.Unsubscribe()

	accounts := receive(t, c.accounts)
	require.Len(t, accounts, 1)
	assert.Equal(t, "a", accounts[0].ID)

	assert.Empty(t, receive(t, c.records))
	assert.Empty(t, receive(t, c.budgets))
	assert.Empty(t, receive(t, c.goals))

	settings := receive(t, c.settings)
	require.NotNil(t, settings)
	assert.Nil(t, settings.ManualRate)
}

func TestSubscribe_SnapshotAfterWrite(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	c := newCollector()
	sub, err := NewBridge(store).Subscribe(ctx, "alice", testNamespace, c.handlers())
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assert.Empty(t, receive(t, c.records))

	user := store.User(testNamespace, "alice")
	require.NoError(t, user.SaveCashflowRecord(ctx, &model.CashflowRecord{ID: "r1", Amount: -10, Date: time.Now()}))
	require.NoError(t, user.SaveCashflowRecord(ctx, &model.CashflowRecord{ID: "r2", Amount: 20, Date: time.Now()}))

	// Notifications may coalesce; the last snapshot always has both records.
	require.Eventually(t, func() bool {
		select {
		case records := <-c.records:
			return len(records) == 2
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSubscribe_OtherUsersAreInvisible(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	c := newCollector()
	sub, err := NewBridge(store).Subscribe(ctx, "alice", testNamespace, c.handlers())
	require.NoError(t, err)
	defer sub.Unsubscribe()
	receive(t, c.goals)

	require.NoError(t, store.User(testNamespace, "bob").SaveGoal(ctx, &model.Goal{ID: "g", Name: "Car", TargetAmount: 10}))

	select {
	case goals := <-c.goals:
		t.Fatalf("unexpected snapshot %v", goals)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribe_RequiresUser(t *testing.T) {
	store := createTestStorage(t)

	_, err := NewBridge(store).Subscribe(context.Background(), "", testNamespace, Handlers{})
	assert.ErrorIs(t, err, common.ErrNotSignedIn)
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	c := newCollector()
	sub, err := NewBridge(store).Subscribe(ctx, "alice", testNamespace, c.handlers())
	require.NoError(t, err)
	receive(t, c.budgets)

	sub.Unsubscribe()
	sub.Unsubscribe()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}

	// Drain whatever was delivered before the stop.
	for len(c.budgets) > 0 {
		<-c.budgets
	}
	require.NoError(t, store.User(testNamespace, "alice").SaveBudget(ctx, &model.Budget{ID: "b", Category: "Food", Limit: 100}))

	select {
	case budgets := <-c.budgets:
		t.Fatalf("snapshot after unsubscribe: %v", budgets)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribe_ContextCancelStops(t *testing.T) {
	store := createTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := NewBridge(store).Subscribe(ctx, "alice", testNamespace, Handlers{})
	require.NoError(t, err)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}
}

var errBudgetsUnavailable = errors.New("budgets unavailable")

// brokenStore fails every budget read.
type brokenStore struct {
	*storage.SQLiteStorage
}

type brokenUser struct {
	service.UserStore
}

func (s brokenStore) User(namespace, userID string) service.UserStore {
	return brokenUser{UserStore: s.SQLiteStorage.User(namespace, userID)}
}

func (brokenUser) ListBudgets(context.Context) ([]model.Budget, error) {
	return nil, errBudgetsUnavailable
}

func TestSubscribe_ReadErrorsAreReported(t *testing.T) {
	store := brokenStore{SQLiteStorage: createTestStorage(t)}

	c := newCollector()
	sub, err := NewBridge(store).Subscribe(context.Background(), "alice", testNamespace, c.handlers())
	require.NoError(t, err)
	defer sub.Unsubscribe()

	err = receive(t, c.errs)
	assert.ErrorIs(t, err, common.ErrRead)
	assert.ErrorIs(t, err, errBudgetsUnavailable)

	// Other collections are still delivered.
	receive(t, c.goals)
}
