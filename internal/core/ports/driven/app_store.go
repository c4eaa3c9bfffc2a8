package driven

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// AppStore persists app metadata and localized files, and answers
// precedence-aware app queries.
type AppStore interface {
	// GetApp returns the app of one repository with its localized files.
	// Returns nil and no error if it does not exist.
	GetApp(ctx context.Context, repoID int64, packageName string) (*domain.App, error)

	// GetAppMetadata returns the metadata row only, or nil.
	GetAppMetadata(ctx context.Context, repoID int64, packageName string) (*domain.AppMetadata, error)

	// ListAppMetadata returns every stored metadata row.
	ListAppMetadata(ctx context.Context) ([]domain.AppMetadata, error)

	// InsertApp stores a new app including its localized files and screenshots.
	InsertApp(ctx context.Context, app *domain.App) error

	// UpdateAppMetadata overwrites an existing metadata row.
	UpdateAppMetadata(ctx context.Context, m *domain.AppMetadata) error

	// UpdateLocalizedNames overwrites the best-locale cache of one app.
	UpdateLocalizedNames(ctx context.Context, repoID int64, packageName, name, summary string) error

	// DeleteApp removes an app with its versions and files.
	DeleteApp(ctx context.Context, repoID int64, packageName string) error

	// DeleteAllApps removes every app of every repository.
	DeleteAllApps(ctx context.Context) error

	// LocalizedFiles returns the single-file resources of an app.
	LocalizedFiles(ctx context.Context, repoID int64, packageName string) ([]domain.LocalizedFileRow, error)

	// UpsertLocalizedFiles inserts or replaces files keyed by (type, locale).
	UpsertLocalizedFiles(ctx context.Context, files []domain.LocalizedFileRow) error

	// DeleteLocalizedFiles removes all files of one type.
	DeleteLocalizedFiles(ctx context.Context, repoID int64, packageName, fileType string) error

	// DeleteLocalizedFile removes the file of one type and locale.
	DeleteLocalizedFile(ctx context.Context, repoID int64, packageName, fileType, locale string) error

	// InsertLocalizedFileLists appends screenshot rows.
	InsertLocalizedFileLists(ctx context.Context, files []domain.LocalizedFileListRow) error

	// DeleteLocalizedFileLists removes screenshots of one type, or of all
	// types when fileType is empty.
	DeleteLocalizedFileLists(ctx context.Context, repoID int64, packageName, fileType string) error

	// DeleteLocalizedFileList removes the screenshots of one type and locale.
	DeleteLocalizedFileList(ctx context.Context, repoID int64, packageName, fileType, locale string) error

	// UpdateCompatibility recomputes is_compatible of every app in a repository
	// as the OR over its versions.
	UpdateCompatibility(ctx context.Context, repoID int64) error

	// FindApp returns the default copy of a package: the preferred repository's
	// copy when that repository is enabled and has it, otherwise the copy of
	// the highest-weight enabled repository.
	FindApp(ctx context.Context, packageName string) (*domain.App, error)

	// PreferredRepos resolves the default repository for each package that
	// exists in an enabled repository.
	PreferredRepos(ctx context.Context, packageNames []string) (map[string]int64, error)

	// ListAppItems lists the highest-weight copy of every package in enabled
	// repositories. query.Search is ignored; use SearchIndex for text queries.
	ListAppItems(ctx context.Context, query domain.AppListQuery) ([]domain.AppListItem, error)

	// AppItemsByPackage lists the default copy of the given packages,
	// sorted case-insensitively by name.
	AppItemsByPackage(ctx context.Context, packageNames []string) ([]domain.AppListItem, error)

	// OverviewItems lists the highest-weight copy of every package, ordered by
	// completeness and then recency. An empty category lists all.
	OverviewItems(ctx context.Context, category string, limit int) ([]domain.AppOverviewItem, error)

	// GetOverviewItem returns the overview row of one app or nil.
	GetOverviewItem(ctx context.Context, repoID int64, packageName string) (*domain.AppOverviewItem, error)

	// CountAppsInCategory counts distinct packages in enabled repositories.
	CountAppsInCategory(ctx context.Context, category string) (int, error)

	// CountAppsInRepository counts apps of one repository.
	CountAppsInRepository(ctx context.Context, repoID int64) (int, error)

	// CountApps counts every stored app row.
	CountApps(ctx context.Context) (int, error)
}
