// Package auth signs users in with their Google account.
package auth

import (
	"context"
	"sync"

	"github.com/Veraticus/findash/internal/model"
)

// Authenticator signs a user in and out and reports who is signed in.
type Authenticator interface {
	// SignIn runs the interactive sign-in flow. On failure the current user is unchanged.
	SignIn(ctx context.Context) (*model.User, error)
	SignOut(ctx context.Context) error
	// CurrentUser returns nil when nobody is signed in.
	CurrentUser() *model.User
	// OnAuthStateChanged calls fn with the current user right away and again on
	// every sign-in or sign-out. The returned func removes fn.
	OnAuthStateChanged(fn func(*model.User)) func()
}

// stateListeners tracks the signed-in user and its observers. Deliveries are
// serialized by deliver, so observers see user changes in the order they were
// made. Observers must not sign in or out from inside their callback.
type stateListeners struct {
	user    *model.User
	fns     map[int]func(*model.User)
	nextID  int
	mu      sync.Mutex
	deliver sync.Mutex
}

func (l *stateListeners) current() *model.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyUser(l.user)
}

func (l *stateListeners) subscribe(fn func(*model.User)) func() {
	l.deliver.Lock()
	defer l.deliver.Unlock()

	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[int]func(*model.User))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	user := copyUser(l.user)
	l.mu.Unlock()

	fn(user)

	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *stateListeners) set(user *model.User) {
	l.deliver.Lock()
	defer l.deliver.Unlock()

	l.mu.Lock()
	l.user = copyUser(user)
	fns := make([]func(*model.User), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(copyUser(user))
	}
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
