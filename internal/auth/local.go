package auth

import (
	"context"
	"fmt"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/model"
)

// LocalAuthenticator signs in a fixed local profile without any identity
// provider. With an empty profile every sign-in fails.
type LocalAuthenticator struct {
	profile   string
	listeners stateListeners
}

var _ Authenticator = (*LocalAuthenticator)(nil)

// NewLocalAuthenticator creates an authenticator for profile. It starts signed out.
func NewLocalAuthenticator(profile string) *LocalAuthenticator {
	return &LocalAuthenticator{profile: profile}
}

// SignIn implements Authenticator.
func (a *LocalAuthenticator) SignIn(_ context.Context) (*model.User, error) {
	if a.profile == "" {
		return nil, fmt.Errorf("%w: %w: set google.client_id and google.client_secret, or a local user",
			common.ErrAuthentication, common.ErrMissingConfig)
	}
	user := &model.User{ID: a.profile, Email: a.profile + "@local"}
	a.listeners.set(user)
	return copyUser(user), nil
}

// SignOut implements Authenticator.
func (a *LocalAuthenticator) SignOut(_ context.Context) error {
	a.listeners.set(nil)
	return nil
}

// CurrentUser implements Authenticator.
func (a *LocalAuthenticator) CurrentUser() *model.User {
	return a.listeners.current()
}

// OnAuthStateChanged implements Authenticator.
func (a *LocalAuthenticator) OnAuthStateChanged(fn func(*model.User)) func() {
	return a.listeners.subscribe(fn)
}
