package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/platform"
	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/services"
)

var testSHA = strings.Repeat("cd", 32)

var testIndex = `{
	"repo": {
		"address": "https://example.org/repo",
		"timestamp": 1000,
		"name": {"en-US": "Example"},
		"categories": {"Games": {"name": {"en-US": "Games"}}}
	},
	"packages": {
		"org.example.chess": {
			"metadata": {"added": 5, "lastUpdated": 6, "name": {"en-US": "Chess"},
				"summary": {"en-US": "Play chess"}, "categories": ["Games"]},
			"versions": {
				"c2": {"added": 6, "file": {"name": "/chess_2.apk", "sha256": "` + testSHA + `"},
					"manifest": {"versionName": "2.0", "versionCode": 2, "signer": {"sha256": ["s1"]}}},
				"c1": {"added": 5, "file": {"name": "/chess_1.apk", "sha256": "` + testSHA + `"},
					"manifest": {"versionName": "1.0", "versionCode": 1, "signer": {"sha256": ["s1"]}}}
			}
		}
	}
}`

// testEnv holds the services installed for a command test.
type testEnv struct {
	dir       string
	store     *sqlite.Store
	installed string
}

// setupTestServices wires real services over a temporary store and returns
// a cleanup that uninstalls them.
func setupTestServices(t *testing.T) (*testEnv, func()) {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlite.NewStore(dir)
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	device, err := platform.NewDeviceChecker(settings.Device)
	require.NoError(t, err)
	locales := platform.NewLocaleProvider(settings.Locales)
	installedPath := filepath.Join(dir, "installed.yaml")
	installed := platform.NewInstalledFile(installedPath)

	search := services.NewSearchService(store.SearchIndex(), settings.Search.Weights)
	updates := services.NewAppChecker(store.AppStore(), store.VersionStore(), store.AppPrefsStore(),
		installed, settings.Updates.ReleaseChannels)
	scheduler := services.NewScheduler(store.SchedulerStore())
	scheduler.Register(domain.TaskIDUpdateCheck, "Update check", settings.Updates.CheckInterval,
		services.UpdateCheckTask(updates))
	SetServices(&Services{
		Repositories: services.NewRepositoryService(store, store.RepositoryStore(), store.AppStore()),
		Index: services.NewIndexService(store, store.RepositoryStore(), store.AppStore(), store.VersionStore(),
			device, locales),
		Catalog: services.NewCatalogService(store.RepositoryStore(), store.AppStore(), store.VersionStore(),
			store.AppPrefsStore(), installed, search, store.Notifier()),
		Search: search,
		Updates:   updates,
		Settings:  services.NewSettingsService(memory.NewConfigStore()),
		Scheduler: scheduler,
	})

	env := &testEnv{dir: dir, store: store, installed: installedPath}
	return env, func() {
		SetServices(&Services{})
		_ = store.Close()
	}
}

// execute runs the root command with args and stdin, returning its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag so state does not leak between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// addRepo adds a repository through the command line and returns its id.
func addRepo(t *testing.T, address string) int64 {
	t.Helper()
	_, err := execute(t, "", "repo", "add", address)
	require.NoError(t, err)
	repos, err := repositoryService.List(t.Context())
	require.NoError(t, err)
	for _, r := range repos {
		if r.Address == address {
			return r.ID
		}
	}
	t.Fatalf("repository %s not added", address)
	return 0
}

// writeFile writes content under the test directory and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
