package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/findash/internal/auth"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/listener"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/notify"
	"github.com/Veraticus/findash/internal/recurring"
	"github.com/Veraticus/findash/internal/service"
)

// User-facing messages.
const (
	MsgSignedIn         = "Signed in successfully!"
	MsgSignInFailed     = "Sign-in failed, please try again."
	MsgSignedOut        = "Signed out."
	MsgSignOutFailed    = "Sign-out failed, please try again."
	MsgRecurringCreated = "Recurring transactions were created automatically."
	MsgRecurringFailed  = "Failed to check recurring transactions."
	MsgStoreInitFailed  = "Failed to open the data store, check your configuration."
	MsgSyncFailed       = "Failed to start cloud sync."
)

// Deps are the collaborators a Session works with.
type Deps struct {
	Store      service.Store
	Auth       auth.Authenticator
	Feed       *currency.Feed
	Reconciler *recurring.Reconciler
	Notifier   notify.Notifier
	// StoreErr is the error from opening the store, if any.
	StoreErr    error
	Namespace   string
	Reporting   model.Currency
	RateRefresh time.Duration
}

// Session owns the dashboard state. All state changes happen on the goroutine
// running Run, one event at a time.
type Session struct {
	deps       Deps
	bridge     *listener.Bridge
	sub        *listener.Subscription
	events     chan event
	done       chan struct{}
	observers  map[int]func(State)
	state      State
	nextID     int
	generation int
	mu         sync.RWMutex
}

type event any

type authEvent struct {
	user *model.User
}

type rateEvent struct {
	rate float64
}

// snapshotEvent carries one collection. generation ties it to the
// subscription that produced it.
type snapshotEvent struct {
	value      any
	collection service.Collection
	generation int
}

type readErrorEvent struct {
	err        error
	collection service.Collection
	generation int
}

// NewSession creates a session. Nothing happens until Run is called.
func NewSession(deps Deps) *Session {
	if deps.Namespace == "" {
		deps.Namespace = service.DefaultNamespace
	}
	if deps.Reporting == "" {
		deps.Reporting = model.DefaultReportingCurrency
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.LogNotifier{}
	}
	if deps.Reconciler == nil {
		deps.Reconciler = recurring.NewReconciler()
	}
	if deps.Feed == nil {
		deps.Feed = currency.NewFeed(nil, currency.DefaultLiveRate)
	}

	s := &Session{
		deps:      deps,
		events:    make(chan event, 64),
		done:      make(chan struct{}),
		observers: make(map[int]func(State)),
	}
	if deps.Store != nil {
		s.bridge = listener.NewBridge(deps.Store)
	}
	s.state = State{
		Loading:   deps.Store == nil,
		StoreErr:  deps.StoreErr,
		Reporting: deps.Reporting,
		LiveRate:  deps.Feed.Rate(),
	}
	s.recompute()
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe calls fn with the current state and after every change. fn runs
// on the session goroutine and must not block for long.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	current := s.state.Clone()
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// SignIn runs the sign-in flow and reports the outcome to the user.
func (s *Session) SignIn(ctx context.Context) error {
	if _, err := s.deps.Auth.SignIn(ctx); err != nil {
		s.deps.Notifier.Notify(MsgSignInFailed, notify.SeverityError)
		return err
	}
	s.deps.Notifier.Notify(MsgSignedIn, notify.SeveritySuccess)
	return nil
}

// SignOut signs the user out and reports the outcome to the user.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.deps.Auth.SignOut(ctx); err != nil {
		s.deps.Notifier.Notify(MsgSignOutFailed, notify.SeverityError)
		return err
	}
	s.deps.Notifier.Notify(MsgSignedOut, notify.SeverityInfo)
	return nil
}

// Run processes events until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	if s.deps.StoreErr != nil {
		common.LogError(s.deps.StoreErr, "Store initialization failed", nil)
		s.deps.Notifier.Notify(MsgStoreInitFailed, notify.SeverityError)
	}

	if s.deps.Auth != nil {
		stopAuth := s.deps.Auth.OnAuthStateChanged(func(u *model.User) {
			s.post(ctx, authEvent{user: u})
		})
		defer stopAuth()
	}

	stopRate := s.deps.Feed.Subscribe(func(rate float64) {
		s.post(ctx, rateEvent{rate: rate})
	})
	defer stopRate()

	if s.deps.RateRefresh > 0 {
		go s.deps.Feed.Run(ctx, s.deps.RateRefresh)
	}

	defer s.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.events:
			if s.handle(ctx, ev) {
				s.publish()
			}
		}
	}
}

func (s *Session) post(ctx context.Context, ev event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	case <-s.done:
	}
}

// handle applies one event and reports whether the state changed.
func (s *Session) handle(ctx context.Context, ev event) bool {
	switch ev := ev.(type) {
	case authEvent:
		return s.handleAuth(ctx, ev.user)
	case rateEvent:
		s.update(func(st *State) { st.LiveRate = ev.rate })
		return true
	case snapshotEvent:
		if ev.generation != s.generation {
			return false
		}
		s.applySnapshot(ev)
		if ev.collection == service.CollectionSettings || ev.collection == service.CollectionCashflowRecords {
			s.reconcile(ctx)
		}
		return true
	case readErrorEvent:
		if ev.generation != s.generation {
			return false
		}
		s.deps.Notifier.Notify(fmt.Sprintf("Failed to load %s.", ev.collection), notify.SeverityError)
		return false
	}
	return false
}

func (s *Session) handleAuth(ctx context.Context, user *model.User) bool {
	current := s.State().User
	if sameUser(current, user) {
		return false
	}

	s.unsubscribe()
	s.update(func(st *State) {
		st.User = user
		st.Synced = false
		st.AssetAccounts = nil
		st.CashflowRecords = nil
		st.Budgets = nil
		st.Goals = nil
		st.Settings = nil
	})

	if user == nil || s.bridge == nil {
		return true
	}

	s.generation++
	generation := s.generation
	sub, err := s.bridge.Subscribe(ctx, user.ID, s.deps.Namespace, s.handlers(ctx, generation))
	if err != nil {
		common.LogError(err, "Failed to subscribe to user data", common.Fields{"user_id": user.ID})
		s.deps.Notifier.Notify(MsgSyncFailed, notify.SeverityError)
		return true
	}
	s.sub = sub
	s.update(func(st *State) { st.Synced = true })
	return true
}

func (s *Session) handlers(ctx context.Context, generation int) listener.Handlers {
	snapshot := func(col service.Collection, value any) {
		s.post(ctx, snapshotEvent{collection: col, value: value, generation: generation})
	}
	return listener.Handlers{
		OnAssetAccounts:   func(v []model.AssetAccount) { snapshot(service.CollectionAssetAccounts, v) },
		OnCashflowRecords: func(v []model.CashflowRecord) { snapshot(service.CollectionCashflowRecords, v) },
		OnBudgets:         func(v []model.Budget) { snapshot(service.CollectionBudgets, v) },
		OnGoals:           func(v []model.Goal) { snapshot(service.CollectionGoals, v) },
		OnSettings:        func(v *model.Settings) { snapshot(service.CollectionSettings, v) },
		OnError: func(col service.Collection, err error) {
			s.post(ctx, readErrorEvent{collection: col, err: err, generation: generation})
		},
	}
}

func (s *Session) unsubscribe() {
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
}

func (s *Session) applySnapshot(ev snapshotEvent) {
	s.update(func(st *State) {
		switch v := ev.value.(type) {
		case []model.AssetAccount:
			st.AssetAccounts = v
		case []model.CashflowRecord:
			st.CashflowRecords = v
		case []model.Budget:
			st.Budgets = v
		case []model.Goal:
			st.Goals = v
		case *model.Settings:
			st.Settings = v
		}
	})
}

// reconcile runs a recurring pass when a user and their settings are known.
// A failed pass is not retried here; the next settings or records snapshot
// triggers another one.
func (s *Session) reconcile(ctx context.Context) {
	st := s.State()
	if st.User == nil || st.Settings == nil || s.deps.Store == nil {
		return
	}

	store := s.deps.Store.User(s.deps.Namespace, st.User.ID)
	result, err := s.deps.Reconciler.Reconcile(ctx, store, st.CashflowRecords, st.Settings)
	if err != nil && !errors.Is(err, context.Canceled) {
		common.LogError(err, "Error checking recurring transactions", common.Fields{"user_id": st.User.ID})
		s.deps.Notifier.Notify(MsgRecurringFailed, notify.SeverityError)
	}
	if result.Created() {
		s.deps.Notifier.Notify(MsgRecurringCreated, notify.SeverityInfo)
	}
}

// update mutates the state under the lock and refreshes derived values.
func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.recompute()
}

func (s *Session) recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.EffectiveRate = currency.EffectiveRate(s.state.Settings, s.state.LiveRate)
	s.state.ProcessedAccounts = currency.Normalize(s.state.AssetAccounts, s.state.EffectiveRate, s.state.Reporting)
}

func (s *Session) publish() {
	s.mu.RLock()
	observers := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	current := s.state
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(current.Clone())
	}
}

func sameUser(a, b *model.User) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}
