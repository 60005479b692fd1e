package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/model"
)

// MockAuthenticator is a mock implementation of Authenticator for testing.
type MockAuthenticator struct {
	SignInErr    error
	SignOutErr   error
	NextUser     *model.User
	listeners    stateListeners
	SignInCalls  int
	SignOutCalls int
	mu           sync.Mutex
}

var _ Authenticator = (*MockAuthenticator)(nil)

// NewMockAuthenticator creates a mock that signs in as user.
func NewMockAuthenticator(user *model.User) *MockAuthenticator {
	return &MockAuthenticator{NextUser: user}
}

// SignIn implements Authenticator.
func (m *MockAuthenticator) SignIn(_ context.Context) (*model.User, error) {
	m.mu.Lock()
	m.SignInCalls++
	err := m.SignInErr
	user := copyUser(m.NextUser)
	m.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrAuthentication, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: no account configured", common.ErrAuthentication)
	}
	m.listeners.set(user)
	return user, nil
}

// SignOut implements Authenticator.
func (m *MockAuthenticator) SignOut(_ context.Context) error {
	m.mu.Lock()
	m.SignOutCalls++
	err := m.SignOutErr
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrAuthentication, err)
	}
	m.listeners.set(nil)
	return nil
}

// CurrentUser implements Authenticator.
func (m *MockAuthenticator) CurrentUser() *model.User {
	return m.listeners.current()
}

// OnAuthStateChanged implements Authenticator.
func (m *MockAuthenticator) OnAuthStateChanged(fn func(*model.User)) func() {
	return m.listeners.subscribe(fn)
}

// SetUser changes the signed-in user without a sign-in call, as a restored
// session would.
func (m *MockAuthenticator) SetUser(user *model.User) {
	m.listeners.set(user)
}

// SetSignInErr makes the next sign-in attempts fail with err.
func (m *MockAuthenticator) SetSignInErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SignInErr = err
}
