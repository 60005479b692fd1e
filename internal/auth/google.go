package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/model"
)

// DefaultCallbackAddr is where the browser is sent back after consent.
const DefaultCallbackAddr = "localhost:8080"

// OAuth2Config holds the Google OAuth client settings.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string // Where to save the token
	CallbackAddr string
}

// UserInfoFunc resolves the account behind a token.
type UserInfoFunc func(ctx context.Context, ts oauth2.TokenSource) (*model.User, error)

// GoogleAuthenticator implements Authenticator with the OAuth2 authorization
// code flow and a local callback server.
type GoogleAuthenticator struct {
	oauth     *oauth2.Config
	openURL   func(string)
	userInfo  UserInfoFunc
	token     *oauth2.Token
	config    OAuth2Config
	listeners stateListeners
	timeout   time.Duration
	mu        sync.Mutex
}

var _ Authenticator = (*GoogleAuthenticator)(nil)

// Option configures a GoogleAuthenticator.
type Option func(*GoogleAuthenticator)

// WithEndpoint replaces the Google OAuth endpoint.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(a *GoogleAuthenticator) {
		a.oauth.Endpoint = endpoint
	}
}

// WithURLOpener sets how the consent URL is shown to the user.
func WithURLOpener(open func(url string)) Option {
	return func(a *GoogleAuthenticator) {
		a.openURL = open
	}
}

// WithUserInfo replaces the userinfo lookup.
func WithUserInfo(fn UserInfoFunc) Option {
	return func(a *GoogleAuthenticator) {
		a.userInfo = fn
	}
}

// WithTimeout bounds how long SignIn waits for the browser.
func WithTimeout(d time.Duration) Option {
	return func(a *GoogleAuthenticator) {
		a.timeout = d
	}
}

// NewGoogleAuthenticator creates an authenticator. Nobody is signed in until
// Restore or SignIn succeeds.
func NewGoogleAuthenticator(config OAuth2Config, opts ...Option) (*GoogleAuthenticator, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: Google OAuth client ID and secret are required", common.ErrMissingConfig)
	}
	if config.CallbackAddr == "" {
		config.CallbackAddr = DefaultCallbackAddr
	}

	a := &GoogleAuthenticator{
		config: config,
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				oauth2api.OpenIDScope,
				oauth2api.UserinfoEmailScope,
				sheets.SpreadsheetsScope,
			},
		},
		openURL: func(url string) {
			slog.Info("Please visit this URL to sign in", "url", url)
		},
		userInfo: fetchUserInfo,
		timeout:  5 * time.Minute,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// CurrentUser implements Authenticator.
func (a *GoogleAuthenticator) CurrentUser() *model.User {
	return a.listeners.current()
}

// OnAuthStateChanged implements Authenticator.
func (a *GoogleAuthenticator) OnAuthStateChanged(fn func(*model.User)) func() {
	return a.listeners.subscribe(fn)
}

// Restore signs the user in from the saved token, if there is one.
func (a *GoogleAuthenticator) Restore(ctx context.Context) error {
	if a.config.TokenFile == "" {
		return nil
	}
	token, err := LoadToken(a.config.TokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return a.fail(err, "Failed to load saved session")
	}

	ts := a.oauth.TokenSource(ctx, token)
	user, err := a.userInfo(ctx, ts)
	if err != nil {
		return a.fail(err, "Failed to restore saved session")
	}

	// Keep a refreshed token so the next start does not refresh again.
	if fresh, err := ts.Token(); err == nil {
		if fresh.AccessToken != token.AccessToken {
			if err := SaveToken(a.config.TokenFile, fresh); err != nil {
				slog.Warn("Failed to save refreshed token", "error", err)
			}
		}
		token = fresh
	}

	a.setSession(token, user)
	common.LogInfo("Restored session", common.Fields{"email": user.Email})
	return nil
}

// SignIn implements Authenticator.
func (a *GoogleAuthenticator) SignIn(ctx context.Context) (*model.User, error) {
	token, err := a.authorize(ctx)
	if err != nil {
		return nil, a.fail(err, "Sign-in failed")
	}

	user, err := a.userInfo(ctx, a.oauth.TokenSource(ctx, token))
	if err != nil {
		return nil, a.fail(err, "Failed to read account details")
	}

	if a.config.TokenFile != "" {
		if err := SaveToken(a.config.TokenFile, token); err != nil {
			slog.Warn("Failed to save token to file", "error", err, "file", a.config.TokenFile)
		}
	}

	a.setSession(token, user)
	common.LogInfo("Signed in", common.Fields{"email": user.Email})
	return copyUser(user), nil
}

// SignOut implements Authenticator. The saved token is removed.
func (a *GoogleAuthenticator) SignOut(_ context.Context) error {
	if a.config.TokenFile != "" {
		if err := DeleteToken(a.config.TokenFile); err != nil {
			return a.fail(err, "Sign-out failed")
		}
	}
	a.setSession(nil, nil)
	common.LogInfo("Signed out", nil)
	return nil
}

// TokenSource returns a refreshing token source for the signed-in user.
func (a *GoogleAuthenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token == nil {
		return nil, common.ErrNotSignedIn
	}
	return a.oauth.TokenSource(ctx, token), nil
}

func (a *GoogleAuthenticator) setSession(token *oauth2.Token, user *model.User) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
	a.listeners.set(user)
}

func (a *GoogleAuthenticator) fail(err error, msg string) error {
	err = fmt.Errorf("%w: %w", common.ErrAuthentication, err)
	common.LogError(err, msg, nil)
	return err
}

// authorize runs the browser consent flow and exchanges the returned code.
func (a *GoogleAuthenticator) authorize(ctx context.Context) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", a.config.CallbackAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	config := *a.oauth
	config.RedirectURL = fmt.Sprintf("http://%s/callback", listener.Addr())
	state := uuid.NewString()

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)
	sendErr := func(err error) {
		select {
		case errorChan <- err:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		switch {
		case query.Get("state") != state:
			sendErr(errors.New("callback state mismatch"))
			writeCallbackPage(w, "Authentication Failed", "The request could not be verified. Please try again.")
			return
		case query.Get("error") != "":
			sendErr(fmt.Errorf("sign-in rejected: %s", query.Get("error")))
			writeCallbackPage(w, "Authentication Failed", "Sign-in was cancelled.")
			return
		case query.Get("code") == "":
			sendErr(errors.New("no authorization code received"))
			writeCallbackPage(w, "Authentication Failed", "No authorization code received. Please try again.")
			return
		}

		select {
		case codeChan <- query.Get("code"):
		default:
		}
		writeCallbackPage(w, "Authentication Successful!", "You can close this window and return to the terminal.")
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(fmt.Errorf("callback server failed: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	a.openURL(config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	var code string
	select {
	case code = <-codeChan:
		slog.Debug("Received authorization code")
	case err := <-errorChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(a.timeout):
		return nil, fmt.Errorf("authentication timeout - no response received within %s", a.timeout)
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

func writeCallbackPage(w http.ResponseWriter, title, message string) {
	_, _ = fmt.Fprintf(w, `<html><body>
		<h1>%s</h1>
		<p>%s</p>
		<script>window.setTimeout(function(){window.close();}, 3000);</script>
	</body></html>`, title, message)
}

// fetchUserInfo asks Google who owns the token.
func fetchUserInfo(ctx context.Context, ts oauth2.TokenSource) (*model.User, error) {
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	if info.Id == "" {
		return nil, errors.New("userinfo returned no account ID")
	}
	return &model.User{ID: info.Id, Email: info.Email}, nil
}
