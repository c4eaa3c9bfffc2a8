package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore(map[string]any{
		"data.dir":                 "/srv/catalog",
		"locales":                  []string{"de-DE"},
		"device.sdk":               29,
		"device.abis":              []string{"x86_64"},
		"device.features":          []string{"android.hardware.camera"},
		"updates.release_channels": []string{"Beta"},
		"updates.check_interval":   "30m",
		"search.limit":             10,
		"search.weights.name":      100,
		"inbox.dir":                "/srv/inbox",
		"inbox.rate":               3,
		"installed.file":           "/srv/installed.yaml",
	})
	service := NewSettingsService(store)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "/srv/catalog", settings.DataDir)
	assert.Equal(t, []string{"de-DE"}, settings.Locales)
	assert.Equal(t, 29, settings.Device.SDK)
	assert.Equal(t, []string{"x86_64"}, settings.Device.ABIs)
	assert.Equal(t, []string{"android.hardware.camera"}, settings.Device.Features)
	assert.Equal(t, []string{"Beta"}, settings.Updates.ReleaseChannels)
	assert.Equal(t, 30*time.Minute, settings.Updates.CheckInterval)
	assert.Equal(t, 10, settings.Search.Limit)
	assert.Equal(t, 100, settings.Search.Weights.Name)
	assert.Equal(t, domain.DefaultColumnWeights().Summary, settings.Search.Weights.Summary)
	assert.Equal(t, "/srv/inbox", settings.Inbox.Dir)
	assert.Equal(t, 3, settings.Inbox.Rate)
	assert.Equal(t, "/srv/installed.yaml", settings.InstalledFile)
}

func TestSettingsService_Save(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)
	settings := domain.DefaultSettings()
	settings.Device.SDK = 30
	settings.Locales = []string{"fr-FR", "en-US"}
	settings.Inbox.Dir = "/tmp/inbox"
	settings.Updates.CheckInterval = 90 * time.Minute

	require.NoError(t, service.Save(&settings))

	reloaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *reloaded)
	assert.Equal(t, 30, store.GetInt("device.sdk"))
}

func TestSettingsService_Save_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Settings)
	}{
		{"sdk below minimum", func(s *domain.Settings) { s.Device.SDK = 0 }},
		{"weights out of order", func(s *domain.Settings) { s.Search.Weights.Summary = 100 }},
		{"negative limit", func(s *domain.Settings) { s.Search.Limit = -1 }},
		{"negative inbox rate", func(s *domain.Settings) { s.Inbox.Rate = -1 }},
		{"negative check interval", func(s *domain.Settings) { s.Updates.CheckInterval = -time.Minute }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store)
			settings := domain.DefaultSettings()
			tt.mutate(&settings)

			err := service.Save(&settings)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			_, ok := store.Get("device.sdk")
			assert.False(t, ok, "nothing is written")
		})
	}
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)
	require.NoError(t, service.Validate())

	require.NoError(t, store.Set("search.weights.package", 500))

	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)
}

func TestSettingsService_Get_InvalidDuration(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(map[string]any{
		"updates.check_interval": "every day",
	}))

	_, err := service.Get()

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	assert.Equal(t, domain.DefaultSettings(), service.GetDefaults())
}
