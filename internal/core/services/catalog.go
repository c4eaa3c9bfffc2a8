package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
	"github.com/custodia-labs/catalog-sync/internal/logger"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// Tables each live query depends on.
var (
	appTables = []string{
		driven.TableApp, driven.TableVersion, driven.TablePreferences, driven.TableAppPrefs,
	}
	categoryTables = []string{driven.TableAttributes, driven.TablePreferences}
)

// CatalogService resolves one app per package across repositories.
type CatalogService struct {
	repos     driven.RepositoryStore
	apps      driven.AppStore
	versions  driven.VersionStore
	prefs     driven.AppPrefsStore
	installed driven.InstalledPackages
	search    driving.SearchService
	notifier  driven.Notifier
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	repos driven.RepositoryStore,
	apps driven.AppStore,
	versions driven.VersionStore,
	prefs driven.AppPrefsStore,
	installed driven.InstalledPackages,
	search driving.SearchService,
	notifier driven.Notifier,
) *CatalogService {
	return &CatalogService{
		repos:     repos,
		apps:      apps,
		versions:  versions,
		prefs:     prefs,
		installed: installed,
		search:    search,
		notifier:  notifier,
	}
}

// GetApp returns the default copy of a package or nil.
func (s *CatalogService) GetApp(ctx context.Context, packageName string) (*domain.App, error) {
	return s.apps.FindApp(ctx, packageName)
}

// GetAppInRepo returns the copy held by one repository or nil.
func (s *CatalogService) GetAppInRepo(ctx context.Context, repoID int64, packageName string) (*domain.App, error) {
	return s.apps.GetApp(ctx, repoID, packageName)
}

// ListApps lists one row per package. With a search text, rows are ranked
// by relevance; otherwise they follow query.SortBy.
func (s *CatalogService) ListApps(ctx context.Context, query domain.AppListQuery) ([]domain.AppListItem, error) {
	if strings.TrimSpace(query.Search) != "" {
		hits, err := s.search.Search(ctx, domain.SearchQuery{
			Text:     query.Search,
			Category: query.Category,
			Limit:    query.Limit,
		})
		if err != nil {
			return nil, err
		}
		items := make([]domain.AppListItem, 0, len(hits))
		for _, h := range hits {
			items = append(items, h.AppListItem)
		}
		return items, nil
	}

	if query.SortBy == "" {
		query.SortBy = domain.SortByLastUpdated
	}
	if !query.SortBy.IsValid() {
		return nil, fmt.Errorf("%w: unknown sort order %q", domain.ErrInvalidInput, query.SortBy)
	}
	if query.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", domain.ErrInvalidInput)
	}
	return s.apps.ListAppItems(ctx, query)
}

// OverviewItems lists the most complete and recent apps. A zero limit
// falls back to the default for the overview or a category.
func (s *CatalogService) OverviewItems(ctx context.Context, category string, limit int) ([]domain.AppOverviewItem, error) {
	if limit <= 0 {
		limit = domain.DefaultOverviewLimit
		if category != "" {
			limit = domain.DefaultCategoryOverviewLimit
		}
	}
	return s.apps.OverviewItems(ctx, category, limit)
}

// InstalledAppListItems lists installed packages known to any enabled
// repository, sorted by name.
func (s *CatalogService) InstalledAppListItems(ctx context.Context) ([]domain.AppListItem, error) {
	installed, err := s.installed.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading installed packages: %w", err)
	}
	if len(installed) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(installed))
	for name := range installed {
		names = append(names, name)
	}
	sort.Strings(names)

	items, err := s.apps.AppItemsByPackage(ctx, names)
	if err != nil {
		return nil, err
	}
	for i := range items {
		pkg := installed[items[i].PackageName]
		code := pkg.VersionCode
		items[i].InstalledVersionCode = &code
		items[i].InstalledVersionName = pkg.VersionName
	}
	// The store sorts per lookup chunk only.
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	logger.Debug("%d of %d installed packages are in the catalog", len(items), len(installed))
	return items, nil
}

// CountAppsInCategory counts packages declaring a category.
func (s *CatalogService) CountAppsInCategory(ctx context.Context, category string) (int, error) {
	return s.apps.CountAppsInCategory(ctx, category)
}

// CountAppsInRepository counts apps of one repository.
func (s *CatalogService) CountAppsInRepository(ctx context.Context, repoID int64) (int, error) {
	return s.apps.CountAppsInRepository(ctx, repoID)
}

// Categories returns each category once, as defined by the highest-weight
// enabled repository.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repos.EnabledCategories(ctx)
}

// AppVersions returns versions of a package from enabled repositories.
func (s *CatalogService) AppVersions(ctx context.Context, packageName string) ([]domain.Version, error) {
	return s.versions.AppVersions(ctx, packageName)
}

// AppPrefs returns the preferences of a package, zero valued when unset.
func (s *CatalogService) AppPrefs(ctx context.Context, packageName string) (domain.AppPrefs, error) {
	p, err := s.prefs.GetAppPrefs(ctx, packageName)
	if err != nil {
		return domain.AppPrefs{}, err
	}
	if p == nil {
		return domain.AppPrefs{PackageName: packageName}, nil
	}
	return *p, nil
}

// SetPreferredRepo pins a package to a repository; nil unpins it.
func (s *CatalogService) SetPreferredRepo(ctx context.Context, packageName string, repoID *int64) error {
	if repoID != nil {
		repo, err := s.repos.GetRepository(ctx, *repoID)
		if err != nil {
			return err
		}
		if repo == nil {
			return fmt.Errorf("repo %d: %w", *repoID, domain.ErrRepositoryNotFound)
		}
	}
	_, err := s.updatePrefs(ctx, packageName, func(p domain.AppPrefs) domain.AppPrefs {
		p.PreferredRepoID = repoID
		return p
	})
	return err
}

// IgnoreUpdates suppresses updates at or below versionCode.
func (s *CatalogService) IgnoreUpdates(ctx context.Context, packageName string, versionCode int64) error {
	if versionCode < 0 {
		return fmt.Errorf("%w: negative version code", domain.ErrInvalidInput)
	}
	_, err := s.updatePrefs(ctx, packageName, func(p domain.AppPrefs) domain.AppPrefs {
		p.IgnoreVersionCodeUpdate = versionCode
		return p
	})
	return err
}

// ToggleIgnoreAll flips between ignoring every update and none.
func (s *CatalogService) ToggleIgnoreAll(ctx context.Context, packageName string) (domain.AppPrefs, error) {
	return s.updatePrefs(ctx, packageName, domain.AppPrefs.ToggleIgnoreAll)
}

// ToggleReleaseChannel adds or removes an extra release channel.
func (s *CatalogService) ToggleReleaseChannel(ctx context.Context, packageName, channel string) (domain.AppPrefs, error) {
	if channel == "" {
		return domain.AppPrefs{}, fmt.Errorf("%w: empty release channel", domain.ErrInvalidInput)
	}
	return s.updatePrefs(ctx, packageName, func(p domain.AppPrefs) domain.AppPrefs {
		return p.ToggleReleaseChannel(channel)
	})
}

func (s *CatalogService) updatePrefs(
	ctx context.Context,
	packageName string,
	fn func(domain.AppPrefs) domain.AppPrefs,
) (domain.AppPrefs, error) {
	if packageName == "" {
		return domain.AppPrefs{}, fmt.Errorf("%w: empty package name", domain.ErrInvalidInput)
	}
	p, err := s.AppPrefs(ctx, packageName)
	if err != nil {
		return domain.AppPrefs{}, err
	}
	p = fn(p)
	if err := s.prefs.SaveAppPrefs(ctx, p); err != nil {
		return domain.AppPrefs{}, err
	}
	return p, nil
}

// WatchApp emits the default copy of a package after every relevant commit.
func (s *CatalogService) WatchApp(ctx context.Context, packageName string) <-chan domain.LiveResult[*domain.App] {
	return Live(ctx, s.notifier, appTables, func(ctx context.Context) (*domain.App, error) {
		return s.GetApp(ctx, packageName)
	})
}

// WatchApps emits the app list after every relevant commit.
func (s *CatalogService) WatchApps(ctx context.Context, query domain.AppListQuery) <-chan domain.LiveResult[[]domain.AppListItem] {
	return Live(ctx, s.notifier, appTables, func(ctx context.Context) ([]domain.AppListItem, error) {
		return s.ListApps(ctx, query)
	})
}

// WatchCategories emits the categories after every relevant commit.
func (s *CatalogService) WatchCategories(ctx context.Context) <-chan domain.LiveResult[[]domain.Category] {
	return Live(ctx, s.notifier, categoryTables, s.Categories)
}
