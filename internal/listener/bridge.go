// Package listener turns store change notifications into full collection snapshots.
package listener

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
)

// Handlers receive snapshots. Every call carries the complete collection and
// replaces whatever the receiver held before. Nil handlers are skipped.
type Handlers struct {
	OnAssetAccounts   func([]model.AssetAccount)
	OnCashflowRecords func([]model.CashflowRecord)
	OnBudgets         func([]model.Budget)
	OnGoals           func([]model.Goal)
	OnSettings        func(*model.Settings)
	OnError           func(service.Collection, error)
}

// Bridge subscribes to a user's collections in a store.
type Bridge struct {
	store service.Store
}

// NewBridge creates a bridge over store.
func NewBridge(store service.Store) *Bridge {
	return &Bridge{store: store}
}

// Subscription is a live subscription. It ends when Unsubscribe is called or
// the context passed to Subscribe is done.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	scope  service.Scope
	once   sync.Once
}

// Subscribe delivers every collection once and then again after each change
// to it. Handlers run on a single goroutine, so snapshots of one collection
// arrive in the order the store wrote them.
func (b *Bridge) Subscribe(ctx context.Context, userID, namespace string, handlers Handlers) (*Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.ErrNotSignedIn
	}
	if namespace == "" {
		namespace = service.DefaultNamespace
	}

	scope := service.Scope{Namespace: namespace, UserID: userID}
	user := b.store.User(namespace, userID)

	// Watch before the first read so no write falls between the two.
	changes, stopWatch := b.store.Watch(scope)

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		scope: scope,
		done:  make(chan struct{}),
		cancel: func() {
			cancel()
			stopWatch()
		},
	}

	go func() {
		defer close(sub.done)
		defer stopWatch()

		for _, col := range service.AllCollections {
			deliver(subCtx, user, col, handlers)
		}

		for {
			select {
			case <-subCtx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				deliver(subCtx, user, change.Collection, handlers)
			}
		}
	}()

	common.LogDebug("Subscribed to user collections", common.Fields{
		"namespace": namespace,
		"user_id":   userID,
	})
	return sub, nil
}

// Scope returns the documents this subscription follows.
func (s *Subscription) Scope() service.Scope {
	return s.scope
}

// Unsubscribe stops delivery. It is safe to call more than once and from a handler.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Done is closed once no more handlers will run.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func deliver(ctx context.Context, user service.UserStore, col service.Collection, h Handlers) {
	if ctx.Err() != nil {
		return
	}

	var err error
	switch col {
	case service.CollectionAssetAccounts:
		var accounts []model.AssetAccount
		if accounts, err = user.ListAssetAccounts(ctx); err == nil && h.OnAssetAccounts != nil && ctx.Err() == nil {
			h.OnAssetAccounts(accounts)
		}
	case service.CollectionCashflowRecords:
		var records []model.CashflowRecord
		if records, err = user.ListCashflowRecords(ctx); err == nil && h.OnCashflowRecords != nil && ctx.Err() == nil {
			h.OnCashflowRecords(records)
		}
	case service.CollectionBudgets:
		var budgets []model.Budget
		if budgets, err = user.ListBudgets(ctx); err == nil && h.OnBudgets != nil && ctx.Err() == nil {
			h.OnBudgets(budgets)
		}
	case service.CollectionGoals:
		var goals []model.Goal
		if goals, err = user.ListGoals(ctx); err == nil && h.OnGoals != nil && ctx.Err() == nil {
			h.OnGoals(goals)
		}
	case service.CollectionSettings:
		var settings *model.Settings
		if settings, err = user.GetSettings(ctx); err == nil && h.OnSettings != nil && ctx.Err() == nil {
			h.OnSettings(settings)
		}
	default:
		return
	}

	if err == nil || ctx.Err() != nil {
		return
	}
	if !errors.Is(err, common.ErrRead) {
		err = fmt.Errorf("%w: %s: %w", common.ErrRead, col, err)
	}
	common.LogError(err, "Failed to load collection", common.Fields{"collection": string(col)})
	if h.OnError != nil {
		h.OnError(col, err)
	}
}
