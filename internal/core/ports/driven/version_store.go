package driven

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// VersionStore persists versions and their permissions.
type VersionStore interface {
	// GetVersion returns one version with its permissions, or nil.
	GetVersion(ctx context.Context, repoID int64, packageName, versionID string) (*domain.Version, error)

	// RepoVersions returns the versions of a package in one repository,
	// ordered by version code descending.
	RepoVersions(ctx context.Context, repoID int64, packageName string) ([]domain.Version, error)

	// InsertVersion stores a new version and its permissions.
	InsertVersion(ctx context.Context, v *domain.Version) error

	// UpdateVersion overwrites the version row. Permissions are not touched.
	UpdateVersion(ctx context.Context, v *domain.Version) error

	// DeleteVersions removes every version of a package in one repository.
	DeleteVersions(ctx context.Context, repoID int64, packageName string) error

	// DeleteVersion removes one version.
	DeleteVersion(ctx context.Context, repoID int64, packageName, versionID string) error

	// InsertPermissions stores permission rows.
	InsertPermissions(ctx context.Context, perms []domain.VersionedString) error

	// DeletePermissions removes the permissions of one type, or of all types
	// when permType is empty.
	DeletePermissions(ctx context.Context, repoID int64, packageName, versionID, permType string) error

	// Permissions returns the permission rows of a version ordered by type and name.
	Permissions(ctx context.Context, repoID int64, packageName, versionID string) ([]domain.VersionedString, error)

	// AppVersions returns versions from enabled repositories ordered by version
	// code descending, then repository weight descending, then native code.
	AppVersions(ctx context.Context, packageName string) ([]domain.Version, error)

	// UpdateCandidates returns versions of the given packages from enabled
	// repositories, ordered by version code then weight, both descending.
	// Ignore thresholds are applied by the caller.
	UpdateCandidates(ctx context.Context, packageNames []string) ([]domain.Version, error)

	// CountVersions counts every stored version.
	CountVersions(ctx context.Context) (int, error)
}
