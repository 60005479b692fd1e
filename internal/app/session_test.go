package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/findash/internal/auth"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/notify"
	"github.com/Veraticus/findash/internal/recurring"
	"github.com/Veraticus/findash/internal/storage"
)

const testNamespace = "finance-dashboard-test"

var alice = &model.User{ID: "alice", Email: "alice@example.com"}

type harness struct {
	session  *Session
	store    *storage.SQLiteStorage
	auth     *auth.MockAuthenticator
	feed     *currency.Feed
	notifier *notify.Recorder
}

func newHarness(t *testing.T, configure func(*Deps)) *harness {
	t.Helper()

	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		store:    store,
		auth:     auth.NewMockAuthenticator(alice),
		feed:     currency.NewFeed(currency.StaticProvider(32.8), 32.5),
		notifier: &notify.Recorder{},
	}
	deps := Deps{
		Store:    store,
		Auth:     h.auth,
		Feed:     h.feed,
		Notifier: h.notifier,
		Reconciler: recurring.NewReconciler(
			recurring.WithClock(func() time.Time { return time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC) }),
			recurring.WithLocation(time.UTC),
		),
		Namespace: testNamespace,
		Reporting: model.CurrencyTWD,
	}
	if configure != nil {
		configure(&deps)
	}
	h.session = NewSession(deps)
	return h
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.session.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (h *harness) eventually(t *testing.T, cond func(State) bool) {
	t.Helper()
	require.Eventually(t, func() bool { return cond(h.session.State()) }, 3*time.Second, 5*time.Millisecond)
}

func hasNotification(r *notify.Recorder, message string, severity notify.Severity) bool {
	for _, n := range r.Notifications() {
		if n.Message == message && n.Severity == severity {
			return true
		}
	}
	return false
}

func TestSession_SignInRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.auth.SetSignInErr(errors.New("popup closed by user"))
	h.run(t)

	err := h.session.SignIn(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAuthentication)

	last, ok := h.notifier.Last()
	require.True(t, ok)
	assert.Equal(t, notify.SeverityError, last.Severity)
	assert.Equal(t, MsgSignInFailed, last.Message)

	// Give the loop a moment; nothing may change.
	time.Sleep(50 * time.Millisecond)
	state := h.session.State()
	assert.Nil(t, state.User)
	assert.False(t, state.Synced)
	assert.Nil(t, state.Settings)
}

func TestSession_SignInSubscribes(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.store.User(testNamespace, "alice").SaveAssetAccount(context.Background(),
		&model.AssetAccount{ID: "usd", Currency: model.CurrencyUSD, Balance: 100}))
	h.run(t)

	require.NoError(t, h.session.SignIn(context.Background()))
	assert.True(t, hasNotification(h.notifier, MsgSignedIn, notify.SeveritySuccess))

	h.eventually(t, func(s State) bool {
		return s.Synced && s.User != nil && s.Settings != nil && len(s.ProcessedAccounts) == 1
	})
	state := h.session.State()
	assert.Equal(t, "alice@example.com", state.User.Email)
	assert.False(t, state.Loading)
}

func TestSession_SignOutClearsData(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.store.User(testNamespace, "alice").SaveGoal(context.Background(),
		&model.Goal{ID: "g", Name: "Trip", TargetAmount: 1000}))
	h.auth.SetUser(alice)
	h.run(t)

	h.eventually(t, func(s State) bool { return len(s.Goals) == 1 })

	require.NoError(t, h.session.SignOut(context.Background()))
	assert.True(t, hasNotification(h.notifier, MsgSignedOut, notify.SeverityInfo))

	h.eventually(t, func(s State) bool {
		return s.User == nil && !s.Synced && s.Goals == nil && s.Settings == nil
	})
}

func TestSession_ReconcilesOnSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	user := h.store.User(testNamespace, "alice")
	ctx := context.Background()

	settings, err := user.GetSettings(ctx)
	require.NoError(t, err)
	settings.RecurringRules = []model.RecurringRule{{
		ID:         "rent",
		Amount:     -20000,
		Category:   "Housing",
		Frequency:  model.FrequencyMonthly,
		AnchorDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Enabled:    true,
	}}
	require.NoError(t, user.SaveSettings(ctx, settings))

	h.auth.SetUser(alice)
	h.run(t)

	h.eventually(t, func(s State) bool { return len(s.CashflowRecords) == 3 })
	assert.True(t, hasNotification(h.notifier, MsgRecurringCreated, notify.SeverityInfo))

	h.eventually(t, func(s State) bool {
		if s.Settings == nil || len(s.Settings.RecurringRules) != 1 {
			return false
		}
		last := s.Settings.RecurringRules[0].LastGenerated
		return last != nil && last.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	})

	// Later snapshots converge without duplicates.
	time.Sleep(100 * time.Millisecond)
	records, err := user.ListCashflowRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	created := 0
	for _, n := range h.notifier.Notifications() {
		if n.Message == MsgRecurringCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

func TestSession_EffectiveRate(t *testing.T) {
	h := newHarness(t, nil)
	user := h.store.User(testNamespace, "alice")
	ctx := context.Background()
	require.NoError(t, user.SaveAssetAccount(ctx, &model.AssetAccount{ID: "usd", Currency: model.CurrencyUSD, Balance: 100}))
	require.NoError(t, user.SaveAssetAccount(ctx, &model.AssetAccount{ID: "twd", Currency: model.CurrencyTWD, Balance: 500}))

	h.auth.SetUser(alice)
	h.run(t)

	h.eventually(t, func(s State) bool {
		return len(s.ProcessedAccounts) == 2 && s.ProcessedAccounts[0].DisplayBalance == 3250
	})
	assert.InDelta(t, 500.0, h.session.State().ProcessedAccounts[1].DisplayBalance, 1e-9)

	// The live rate moves to 32.8.
	require.NoError(t, h.feed.Refresh(ctx))
	h.eventually(t, func(s State) bool { return s.EffectiveRate == 32.8 })

	// A manual rate wins over the live one.
	settings, err := user.GetSettings(ctx)
	require.NoError(t, err)
	manual := 31.0
	settings.ManualRate = &manual
	require.NoError(t, user.SaveSettings(ctx, settings))

	h.eventually(t, func(s State) bool { return s.EffectiveRate == 31.0 })
	state := h.session.State()
	assert.InDelta(t, 3100.0, state.ProcessedAccounts[0].DisplayBalance, 1e-9)
	assert.InDelta(t, 32.8, state.LiveRate, 1e-9)
}

func TestSession_StoreInitFailure(t *testing.T) {
	h := newHarness(t, func(d *Deps) {
		d.Store = nil
		d.StoreErr = common.ErrStoreInit
	})
	h.auth.SetUser(alice)
	h.run(t)

	h.eventually(t, func(s State) bool { return s.User != nil })
	state := h.session.State()
	assert.True(t, state.Loading)
	assert.False(t, state.Synced)
	assert.ErrorIs(t, state.StoreErr, common.ErrStoreInit)
	assert.True(t, hasNotification(h.notifier, MsgStoreInitFailed, notify.SeverityError))
}

func TestSession_ObserversGetCopies(t *testing.T) {
	h := newHarness(t, nil)

	states := make(chan State, 64)
	unsubscribe := h.session.Subscribe(func(s State) { states <- s })
	defer unsubscribe()

	first := <-states
	assert.Nil(t, first.User)
	assert.InDelta(t, 32.5, first.EffectiveRate, 1e-9)

	h.auth.SetUser(alice)
	h.run(t)

	require.Eventually(t, func() bool {
		for {
			select {
			case s := <-states:
				if s.User != nil {
					s.User.Email = "mutated"
					return true
				}
			default:
				return false
			}
		}
	}, 3*time.Second, 5*time.Millisecond)

	assert.Equal(t, "alice@example.com", h.session.State().User.Email)
}
