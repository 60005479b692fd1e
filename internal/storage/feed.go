package storage

import (
	"sync"

	"github.com/Veraticus/findash/internal/service"
)

// changeFeed fans store writes out to watchers. Notifications are coalesced per
// collection so a slow watcher never blocks a writer and never misses the latest
// change of a collection.
type changeFeed struct {
	watchers map[int]*watcher
	nextID   int
	mu       sync.Mutex
}

type watcher struct {
	out     chan service.Change
	wake    chan struct{}
	done    chan struct{}
	scope   service.Scope
	pending []service.Collection
	mu      sync.Mutex
	once    sync.Once
}

func newChangeFeed() *changeFeed {
	return &changeFeed{watchers: make(map[int]*watcher)}
}

func (f *changeFeed) watch(scope service.Scope) (<-chan service.Change, func()) {
	w := &watcher{
		scope: scope,
		out:   make(chan service.Change),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.watchers[id] = w
	f.mu.Unlock()

	go w.run()

	cancel := func() {
		f.mu.Lock()
		delete(f.watchers, id)
		f.mu.Unlock()
		w.stop()
	}
	return w.out, cancel
}

func (f *changeFeed) publish(change service.Change) {
	f.mu.Lock()
	targets := make([]*watcher, 0, len(f.watchers))
	for _, w := range f.watchers {
		if w.scope == change.Scope {
			targets = append(targets, w)
		}
	}
	f.mu.Unlock()

	for _, w := range targets {
		w.enqueue(change.Collection)
	}
}

func (f *changeFeed) closeAll() {
	f.mu.Lock()
	all := f.watchers
	f.watchers = make(map[int]*watcher)
	f.mu.Unlock()

	for _, w := range all {
		w.stop()
	}
}

func (w *watcher) enqueue(col service.Collection) {
	w.mu.Lock()
	queued := false
	for _, p := range w.pending {
		if p == col {
			queued = true
			break
		}
	}
	if !queued {
		w.pending = append(w.pending, col)
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *watcher) stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *watcher) run() {
	defer close(w.out)
	for {
		select {
		case <-w.done:
			return
		case <-w.wake:
		}

		w.mu.Lock()
		batch := w.pending
		w.pending = nil
		w.mu.Unlock()

		for _, col := range batch {
			select {
			case w.out <- service.Change{Scope: w.scope, Collection: col}:
			case <-w.done:
				return
			}
		}
	}
}
