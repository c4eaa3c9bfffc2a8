package driving

import "github.com/custodia-labs/catalog-sync/internal/core/domain"

// SettingsService manages catalog settings.
type SettingsService interface {
	// Get resolves current settings, filling unset keys with defaults.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// Validate checks that current settings can be used.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
