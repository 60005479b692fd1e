// Package config loads the dashboard configuration from viper.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/findash/internal/auth"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/currency"
	"github.com/Veraticus/findash/internal/llm"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
	"github.com/Veraticus/findash/internal/sheets"
)

// Config is the resolved application configuration.
type Config struct {
	Namespace string
	// LocalUser, when set, is used instead of a Google account.
	LocalUser    string
	DatabasePath string
	// LogFile receives log output while the dashboard owns the terminal.
	LogFile           string
	ReportingCurrency model.Currency
	RateURL           string
	Google            auth.OAuth2Config
	Sheets            sheets.Config
	// Assistant is enabled when it has an API key.
	Assistant   llm.Config
	DefaultRate float64
	RateRefresh time.Duration
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("namespace", service.DefaultNamespace)
	v.SetDefault("database.path", "~/.local/share/findash/findash.db")
	v.SetDefault("currency.reporting", string(model.DefaultReportingCurrency))
	v.SetDefault("currency.default_rate", currency.DefaultLiveRate)
	v.SetDefault("currency.rate_url", "")
	v.SetDefault("currency.refresh", 15*time.Minute)
	v.SetDefault("google.token_file", "~/.config/findash/token.json")
	v.SetDefault("google.callback_addr", auth.DefaultCallbackAddr)
	v.SetDefault("assistant.provider", llm.ProviderOpenAI)
	v.SetDefault("assistant.rate_limit", 20)
	v.SetDefault("assistant.timeout", time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "~/.local/state/findash/dashboard.log")
}

// Load reads and validates the configuration.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	reporting, err := model.ParseCurrency(v.GetString("currency.reporting"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	rate := v.GetFloat64("currency.default_rate")
	if err := currency.ValidateRate(rate); err != nil {
		return nil, fmt.Errorf("%w: currency.default_rate: %w", common.ErrInvalidConfig, err)
	}

	refresh := v.GetDuration("currency.refresh")
	if refresh < 0 {
		return nil, fmt.Errorf("%w: currency.refresh cannot be negative", common.ErrInvalidConfig)
	}

	namespace := v.GetString("namespace")
	if namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", common.ErrInvalidConfig)
	}

	sheetsCfg, err := LoadSheetsConfig(v)
	if err != nil {
		return nil, err
	}

	assistantCfg, err := LoadAssistantConfig(v)
	if err != nil {
		return nil, err
	}

	return &Config{
		Namespace:         namespace,
		LocalUser:         v.GetString("user"),
		DatabasePath:      filepath.Clean(ExpandPath(v.GetString("database.path"))),
		LogFile:           ExpandPath(v.GetString("logging.file")),
		ReportingCurrency: reporting,
		DefaultRate:       rate,
		RateURL:           v.GetString("currency.rate_url"),
		RateRefresh:       refresh,
		Google: auth.OAuth2Config{
			ClientID:     v.GetString("google.client_id"),
			ClientSecret: v.GetString("google.client_secret"),
			TokenFile:    ExpandPath(v.GetString("google.token_file")),
			CallbackAddr: v.GetString("google.callback_addr"),
		},
		Sheets:    *sheetsCfg,
		Assistant: assistantCfg,
	}, nil
}
