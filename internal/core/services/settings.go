package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyDataDir         = "data.dir"
	keyLocales         = "locales"
	keyDeviceSDK       = "device.sdk"
	keyDeviceABIs      = "device.abis"
	keyDeviceFeatures  = "device.features"
	keyReleaseChannels = "updates.release_channels"
	keyCheckInterval   = "updates.check_interval"
	keySearchLimit     = "search.limit"
	keyWeightName      = "search.weights.name"
	keyWeightSummary   = "search.weights.summary"
	keyWeightDesc      = "search.weights.description"
	keyWeightAuthor    = "search.weights.author"
	keyWeightPackage   = "search.weights.package"
	keyInboxDir        = "inbox.dir"
	keyInboxRate       = "inbox.rate"
	keyInstalledFile   = "installed.file"
)

// SettingsService manages catalog settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings, falling back to defaults for unset keys.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	checkInterval, err := s.getDuration(keyCheckInterval, defaults.Updates.CheckInterval)
	if err != nil {
		return nil, err
	}

	settings := &domain.Settings{
		DataDir: s.configStore.GetString(keyDataDir),
		Locales: s.getStrings(keyLocales, defaults.Locales),
		Device: domain.DeviceSettings{
			SDK:      s.getInt(keyDeviceSDK, defaults.Device.SDK),
			ABIs:     s.getStrings(keyDeviceABIs, defaults.Device.ABIs),
			Features: s.getStrings(keyDeviceFeatures, defaults.Device.Features),
		},
		Updates: domain.UpdateSettings{
			ReleaseChannels: s.getStrings(keyReleaseChannels, defaults.Updates.ReleaseChannels),
			CheckInterval:   checkInterval,
		},
		Search: domain.SearchSettings{
			Limit: s.getInt(keySearchLimit, defaults.Search.Limit),
			Weights: domain.ColumnWeights{
				Name:        s.getInt(keyWeightName, defaults.Search.Weights.Name),
				Summary:     s.getInt(keyWeightSummary, defaults.Search.Weights.Summary),
				Description: s.getInt(keyWeightDesc, defaults.Search.Weights.Description),
				Author:      s.getInt(keyWeightAuthor, defaults.Search.Weights.Author),
				PackageName: s.getInt(keyWeightPackage, defaults.Search.Weights.PackageName),
			},
		},
		Inbox: domain.InboxSettings{
			Dir:  s.configStore.GetString(keyInboxDir),
			Rate: s.getInt(keyInboxRate, defaults.Inbox.Rate),
		},
		InstalledFile: s.configStore.GetString(keyInstalledFile),
	}

	return settings, nil
}

// Save validates and persists settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyDataDir, settings.DataDir},
		{keyLocales, settings.Locales},
		{keyDeviceSDK, settings.Device.SDK},
		{keyDeviceABIs, settings.Device.ABIs},
		{keyDeviceFeatures, settings.Device.Features},
		{keyReleaseChannels, settings.Updates.ReleaseChannels},
		{keyCheckInterval, settings.Updates.CheckInterval.String()},
		{keySearchLimit, settings.Search.Limit},
		{keyWeightName, settings.Search.Weights.Name},
		{keyWeightSummary, settings.Search.Weights.Summary},
		{keyWeightDesc, settings.Search.Weights.Description},
		{keyWeightAuthor, settings.Search.Weights.Author},
		{keyWeightPackage, settings.Search.Weights.PackageName},
		{keyInboxDir, settings.Inbox.Dir},
		{keyInboxRate, settings.Inbox.Rate},
		{keyInstalledFile, settings.InstalledFile},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Validate checks the stored settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getStrings(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(s.configStore.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	return d, nil
}
