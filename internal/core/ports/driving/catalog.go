package driving

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// CatalogService answers precedence-aware app queries and manages
// per-package preferences.
type CatalogService interface {
	// GetApp returns the default copy of a package or nil.
	GetApp(ctx context.Context, packageName string) (*domain.App, error)

	// GetAppInRepo returns the copy held by one repository or nil.
	GetAppInRepo(ctx context.Context, repoID int64, packageName string) (*domain.App, error)

	// ListApps lists one row per package. A search query is ranked.
	ListApps(ctx context.Context, query domain.AppListQuery) ([]domain.AppListItem, error)

	// OverviewItems lists the most complete and recent apps.
	OverviewItems(ctx context.Context, category string, limit int) ([]domain.AppOverviewItem, error)

	// InstalledAppListItems lists installed packages known to any enabled repository.
	InstalledAppListItems(ctx context.Context) ([]domain.AppListItem, error)

	// CountAppsInCategory counts packages declaring a category.
	CountAppsInCategory(ctx context.Context, category string) (int, error)

	// CountAppsInRepository counts apps of one repository.
	CountAppsInRepository(ctx context.Context, repoID int64) (int, error)

	// Categories returns each category once.
	Categories(ctx context.Context) ([]domain.Category, error)

	// AppVersions returns versions of a package from enabled repositories.
	AppVersions(ctx context.Context, packageName string) ([]domain.Version, error)

	// AppPrefs returns the preferences of a package, zero valued when unset.
	AppPrefs(ctx context.Context, packageName string) (domain.AppPrefs, error)

	// SetPreferredRepo pins a package to a repository; nil unpins it.
	SetPreferredRepo(ctx context.Context, packageName string, repoID *int64) error

	// IgnoreUpdates suppresses updates at or below versionCode.
	IgnoreUpdates(ctx context.Context, packageName string, versionCode int64) error

	// ToggleIgnoreAll flips between ignoring every update and none.
	ToggleIgnoreAll(ctx context.Context, packageName string) (domain.AppPrefs, error)

	// ToggleReleaseChannel adds or removes an extra release channel.
	ToggleReleaseChannel(ctx context.Context, packageName, channel string) (domain.AppPrefs, error)

	// WatchApp emits the default copy of a package after every relevant commit.
	WatchApp(ctx context.Context, packageName string) <-chan domain.LiveResult[*domain.App]

	// WatchApps emits the app list after every relevant commit.
	WatchApps(ctx context.Context, query domain.AppListQuery) <-chan domain.LiveResult[[]domain.AppListItem]

	// WatchCategories emits the categories after every relevant commit.
	WatchCategories(ctx context.Context) <-chan domain.LiveResult[[]domain.Category]
}
