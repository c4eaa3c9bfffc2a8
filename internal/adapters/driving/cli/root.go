// Package cli implements the catalog command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
	"github.com/custodia-labs/catalog-sync/internal/logger"
)

// skipServices marks commands that run without the store.
const skipServices = "catalog/skip-services"

var (
	version = "dev"

	verbose   bool
	dataDir   string
	configDir string

	bootstrap Bootstrap
	shutdown  func() error
)

// Services wired by the caller. Commands fail with a clear error when the
// service they need is missing.
var (
	repositoryService driving.RepositoryService
	indexService      driving.IndexService
	catalogService    driving.CatalogService
	searchService     driving.SearchService
	updateService     driving.UpdateService
	settingsService   driving.SettingsService
	schedulerService  driving.Scheduler
)

// Options carry the global flags to a Bootstrap.
type Options struct {
	DataDir   string
	ConfigDir string
}

// Services are the core services the commands call.
type Services struct {
	Repositories driving.RepositoryService
	Index        driving.IndexService
	Catalog      driving.CatalogService
	Search       driving.SearchService
	Updates      driving.UpdateService
	Settings     driving.SettingsService
	Scheduler    driving.Scheduler
}

// Bootstrap builds the services once the global flags are parsed. The
// returned function releases them.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func() error, error)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Sync and query app repository indexes",
	Long: `catalog keeps a local database of app repositories in sync with their
signed index feeds and resolves one app per package across repositories.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the catalog database")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding config.toml")
}

// Execute runs the root command with the given build version.
func Execute(ctx context.Context, buildVersion string, b Bootstrap) error {
	version = buildVersion
	bootstrap = b
	err := rootCmd.ExecuteContext(ctx)
	if closeErr := closeServices(); err == nil {
		err = closeErr
	}
	return err
}

// SetServices installs services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	repositoryService = s.Repositories
	indexService = s.Index
	catalogService = s.Catalog
	searchService = s.Search
	updateService = s.Updates
	settingsService = s.Settings
	schedulerService = s.Scheduler
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil || cmd.Annotations[skipServices] != "" {
		return nil
	}
	services, closeFn, err := bootstrap(cmd.Context(), Options{DataDir: dataDir, ConfigDir: configDir})
	if err != nil {
		return err
	}
	SetServices(services)
	shutdown = closeFn
	return nil
}

// closeServices releases what the bootstrap opened, also after a failed command.
func closeServices() error {
	if shutdown == nil {
		return nil
	}
	err := shutdown()
	shutdown = nil
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
