package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/service"
)

// GetSettings reads settings/default, creating it with defaults on first use.
// Concurrent first reads agree on a single document because creation only
// succeeds for the first writer.
func (u *userStore) GetSettings(ctx context.Context) (*model.Settings, error) {
	settings := &model.Settings{}
	err := u.s.getDocument(ctx, u.scope, service.CollectionSettings, model.SettingsDocumentID, settings)
	if err == nil {
		if settings.RecurringRules == nil {
			settings.RecurringRules = []model.RecurringRule{}
		}
		return settings, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	defaults := model.DefaultSettings()
	defaults.UpdatedAt = time.Now().UTC()
	if _, err := u.s.createDocument(ctx, u.scope, service.CollectionSettings, model.SettingsDocumentID, defaults); err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}

	settings = &model.Settings{}
	if err := u.s.getDocument(ctx, u.scope, service.CollectionSettings, model.SettingsDocumentID, settings); err != nil {
		return nil, err
	}
	if settings.RecurringRules == nil {
		settings.RecurringRules = []model.RecurringRule{}
	}
	return settings, nil
}

// SaveSettings replaces the settings document.
func (u *userStore) SaveSettings(ctx context.Context, settings *model.Settings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings", ErrNilParameter)
	}
	for i := range settings.RecurringRules {
		if err := settings.RecurringRules[i].Validate(); err != nil {
			return fmt.Errorf("recurring rule at index %d: %w", i, err)
		}
	}
	settings.UpdatedAt = time.Now().UTC()
	return u.s.putDocument(ctx, u.scope, service.CollectionSettings, model.SettingsDocumentID, settings)
}
