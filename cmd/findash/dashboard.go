package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/findash/internal/app"
	"github.com/Veraticus/findash/internal/auth"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/notify"
	"github.com/Veraticus/findash/internal/recurring"
	"github.com/Veraticus/findash/internal/service"
	"github.com/Veraticus/findash/internal/tui"
	"github.com/Veraticus/findash/internal/tui/themes"
)

func dashboardCmd() *cobra.Command {
	var (
		page      string
		theme     string
		altScreen bool
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard",
		Long: `Open the interactive dashboard.

Pages: dashboard, data-manager, asset-management, cashflow-management,
budget-missions, investment-tracking, financial-goals, report-analysis.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd.Context(), page, theme, altScreen)
		},
	}

	cmd.Flags().StringVar(&page, "page", "dashboard", "page to open first")
	cmd.Flags().StringVar(&theme, "theme", "default", "color theme (default, catppuccin)")
	cmd.Flags().BoolVar(&altScreen, "alt-screen", true, "use the terminal's alternate screen")

	return cmd
}

func runDashboard(ctx context.Context, page, theme string, altScreen bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	restoreLogs := logToFile(appConfig.LogFile)
	defer restoreLogs()

	forwarder := tui.NewForwarder()
	authenticator, err := newAuthenticator(auth.WithURLOpener(forwarder.ShowSignInURL))
	if err != nil {
		return err
	}

	// A store failure keeps the dashboard on its loading screen and is
	// reported as a notification.
	var store service.Store
	opened, storeErr := openStore(ctx)
	if storeErr == nil {
		defer opened.Close()
		store = opened
	}

	banner := notify.NewBanner(notify.WithOnChange(forwarder.Forward))
	defer banner.Close()

	session := app.NewSession(app.Deps{
		Store:       store,
		StoreErr:    storeErr,
		Auth:        authenticator,
		Feed:        currency.NewFeed(rateProvider(), appConfig.DefaultRate),
		Reconciler:  recurring.NewReconciler(),
		Notifier:    banner,
		Namespace:   appConfig.Namespace,
		Reporting:   appConfig.ReportingCurrency,
		RateRefresh: appConfig.RateRefresh,
	})

	go func() {
		if err := session.Run(ctx); err != nil {
			slog.Error("Session stopped", "error", err)
		}
	}()

	switch a := authenticator.(type) {
	case *auth.GoogleAuthenticator:
		go func() {
			if err := a.Restore(ctx); err != nil {
				banner.Notify(app.MsgSignInFailed, notify.SeverityError)
			}
		}()
	case *auth.LocalAuthenticator:
		if appConfig.LocalUser != "" {
			go func() { _ = session.SignIn(ctx) }()
		}
	}

	opts := []tui.Option{
		tui.WithTheme(themes.ByName(theme)),
		tui.WithStartPage(tui.ParsePage(page)),
		tui.WithAltScreen(altScreen),
	}
	if assist, err := newAssistant(ctx); err != nil {
		slog.Warn("Assistant disabled", "error", err)
	} else if assist != nil {
		opts = append(opts, tui.WithAssistant(assist))
	}

	return tui.Run(ctx, session, forwarder, opts...)
}

// logToFile sends log output to path until the returned func is called, so
// log lines do not draw over the dashboard. Logs are dropped when the file
// cannot be opened.
func logToFile(path string) func() {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	var out io.Writer = io.Discard
	var file *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
				file, out = f, f
			}
		}
	}
	if err := common.SetupLogger(out, level, format); err != nil {
		return func() {}
	}

	return func() {
		_ = common.SetupLogger(nil, level, format)
		if file != nil {
			_ = file.Close()
		}
	}
}
