package tui

import (
	"context"
	"time"

	"github.com/Veraticus/findash/internal/app"
	"github.com/Veraticus/findash/internal/tui/themes"
)

// Assistant answers questions about the session's data.
type Assistant interface {
	Ask(ctx context.Context, state app.State, question string) (string, error)
}

// Config holds TUI configuration.
type Config struct {
	Theme     themes.Theme
	Assistant Assistant
	Now       func() time.Time
	StartPage Page
	Width     int
	Height    int
	AltScreen bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Now:       time.Now,
		StartPage: PageDashboard,
		Width:     100,
		Height:    30,
		AltScreen: true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithStartPage selects the page shown first.
func WithStartPage(p Page) Option {
	return func(c *Config) {
		c.StartPage = Route(p)
	}
}

// WithClock sets the clock used for the current month and year.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}

// WithAssistant enables the assistant panel.
func WithAssistant(a Assistant) Option {
	return func(c *Config) {
		c.Assistant = a
	}
}
