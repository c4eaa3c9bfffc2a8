// Command catalog syncs app repository indexes into a local database and
// answers precedence-aware queries over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/platform"
	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/catalog-sync/internal/adapters/driving/cli"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/services"
	"github.com/custodia-labs/catalog-sync/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, version, bootstrap)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap opens the config and the store and wires the core services.
func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, func() error, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", configStore.Path(), err)
	}

	device, err := platform.NewDeviceChecker(settings.Device)
	if err != nil {
		return nil, nil, err
	}
	locales := platform.NewLocaleProvider(settings.Locales)
	installed := platform.NewInstalledFile(settings.InstalledFile)

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = settings.DataDir
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("Using database %s", store.Path())

	search := services.NewSearchService(store.SearchIndex(), settings.Search.Weights)
	search.SetDefaultLimit(settings.Search.Limit)

	updates := services.NewAppChecker(store.AppStore(), store.VersionStore(), store.AppPrefsStore(),
		installed, settings.Updates.ReleaseChannels)
	scheduler := services.NewScheduler(store.SchedulerStore())
	scheduler.Register(domain.TaskIDUpdateCheck, "Update check", settings.Updates.CheckInterval,
		services.UpdateCheckTask(updates))

	return &cli.Services{
		Repositories: services.NewRepositoryService(store, store.RepositoryStore(), store.AppStore()),
		Index: services.NewIndexService(store, store.RepositoryStore(), store.AppStore(), store.VersionStore(),
			device, locales),
		Catalog: services.NewCatalogService(store.RepositoryStore(), store.AppStore(), store.VersionStore(),
			store.AppPrefsStore(), installed, search, store.Notifier()),
		Search:    search,
		Updates:   updates,
		Settings:  settingsService,
		Scheduler: scheduler,
	}, store.Close, nil
}
