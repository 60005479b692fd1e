package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/findash/internal/auth"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
	"github.com/Veraticus/findash/internal/storage"
)

const dateLayout = "2006-01-02"

// openStore opens the configured database and applies pending migrations.
func openStore(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.Open(ctx, appConfig.DatabasePath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("Could not open the database at %s", appConfig.DatabasePath), err)
	}
	return store, nil
}

// newAuthenticator uses Google when OAuth credentials are configured and no
// local profile was requested.
func newAuthenticator(opts ...auth.Option) (auth.Authenticator, error) {
	if appConfig.LocalUser != "" || appConfig.Google.ClientID == "" {
		return auth.NewLocalAuthenticator(appConfig.LocalUser), nil
	}
	return auth.NewGoogleAuthenticator(appConfig.Google, opts...)
}

// signedInUser returns the user a command acts on without starting an
// interactive sign-in.
func signedInUser(ctx context.Context, a auth.Authenticator) (*model.User, error) {
	switch a := a.(type) {
	case *auth.LocalAuthenticator:
		user, err := a.SignIn(ctx)
		if err != nil {
			return nil, common.NewUserError("No account configured. Pass --user for a local profile or configure Google sign-in", err)
		}
		return user, nil
	case *auth.GoogleAuthenticator:
		if err := a.Restore(ctx); err != nil {
			return nil, common.NewUserError("Saved session is no longer valid. Run `findash login` again", err)
		}
	}
	if user := a.CurrentUser(); user != nil {
		return user, nil
	}
	return nil, common.NewUserError("Not signed in. Run `findash login` first", common.ErrNotSignedIn)
}

// workspace is everything a data command needs: the store and the signed-in
// user's documents.
type workspace struct {
	store *storage.SQLiteStorage
	auth  auth.Authenticator
	user  *model.User
	data  service.UserStore
}

func openWorkspace(ctx context.Context) (*workspace, error) {
	a, err := newAuthenticator()
	if err != nil {
		return nil, err
	}
	user, err := signedInUser(ctx, a)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("Opened workspace", "user", user.Email, "namespace", appConfig.Namespace)
	return &workspace{
		store: store,
		auth:  a,
		user:  user,
		data:  store.User(appConfig.Namespace, user.ID),
	}, nil
}

func (w *workspace) Close() {
	if err := w.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

func rateProvider() currency.RateProvider {
	if appConfig.RateURL != "" {
		return currency.NewHTTPProvider(appConfig.RateURL, string(appConfig.ReportingCurrency), nil)
	}
	return currency.StaticProvider(appConfig.DefaultRate)
}

// liveRate fetches the rate once, falling back to the configured default.
func liveRate(ctx context.Context) float64 {
	feed := currency.NewFeed(rateProvider(), appConfig.DefaultRate)
	if err := feed.Refresh(ctx); err != nil {
		slog.Warn("Using default exchange rate", "rate", feed.Rate(), "error", err)
	}
	return feed.Rate()
}

// effectiveRate applies the user's manual override to the live rate.
func effectiveRate(ctx context.Context, data service.UserStore) (float64, *model.Settings, error) {
	settings, err := data.GetSettings(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return currency.EffectiveRate(settings, liveRate(ctx)), settings, nil
}

// parseDate reads a YYYY-MM-DD date in local time. Empty means today.
func parseDate(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// parseAmount reads a decimal amount and rounds it to cents.
func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return d.Round(2).InexactFloat64(), nil
}

func newID() string {
	return uuid.NewString()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}
