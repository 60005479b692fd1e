package currency

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/findash/internal/common"
)

// Feed holds the live rate and tells subscribers when it changes.
type Feed struct {
	provider    RateProvider
	subscribers map[int]func(float64)
	rate        float64
	nextID      int
	mu          sync.RWMutex
}

// NewFeed starts at initial and refreshes from provider.
func NewFeed(provider RateProvider, initial float64) *Feed {
	if initial == 0 {
		initial = DefaultLiveRate
	}
	return &Feed{
		provider:    provider,
		rate:        initial,
		subscribers: make(map[int]func(float64)),
	}
}

// Rate returns the last good live rate.
func (f *Feed) Rate() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rate
}

// Subscribe registers fn for rate changes and returns a func that removes it.
func (f *Feed) Subscribe(fn func(rate float64)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subscribers[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subscribers, id)
		f.mu.Unlock()
	}
}

// Refresh fetches the rate once. On failure the previous rate is kept.
func (f *Feed) Refresh(ctx context.Context) error {
	if f.provider == nil {
		return nil
	}
	rate, err := f.provider.Rate(ctx)
	if err != nil {
		common.LogError(err, "Failed to refresh exchange rate", common.Fields{"kept_rate": f.Rate()})
		return err
	}
	if err := ValidateRate(rate); err != nil {
		common.LogError(err, "Ignoring invalid exchange rate", common.Fields{"rate": rate})
		return err
	}
	f.set(rate)
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (f *Feed) Run(ctx context.Context, interval time.Duration) {
	_ = f.Refresh(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = f.Refresh(ctx)
		}
	}
}

func (f *Feed) set(rate float64) {
	f.mu.Lock()
	if f.rate == rate {
		f.mu.Unlock()
		return
	}
	f.rate = rate
	subs := make([]func(float64), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	common.LogDebug("Exchange rate updated", common.Fields{"rate": rate})
	for _, fn := range subs {
		fn(rate)
	}
}
