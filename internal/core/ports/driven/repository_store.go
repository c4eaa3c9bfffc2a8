package driven

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// RepositoryStore persists repositories, their preferences and attribute tables.
type RepositoryStore interface {
	// GetRepository returns a repository with attributes and preferences.
	// Returns nil and no error if the repository does not exist.
	GetRepository(ctx context.Context, repoID int64) (*domain.RepositoryDetail, error)

	// ListRepositories returns all repositories ordered by weight descending.
	ListRepositories(ctx context.Context) ([]domain.RepositoryDetail, error)

	// InsertRepository creates a repository together with its preferences row.
	// prefs.RepoID is ignored. Returns the new repository id.
	InsertRepository(ctx context.Context, repo *domain.Repository, prefs domain.RepositoryPreferences) (int64, error)

	// UpdateRepository overwrites the core row of an existing repository.
	UpdateRepository(ctx context.Context, repo *domain.Repository) error

	// DeleteRepository removes a repository, its preferences and all data rooted at it.
	DeleteRepository(ctx context.Context, repoID int64) error

	// ClearRepository removes apps, versions, mirrors and attributes of a
	// repository. The repository row and its preferences are kept.
	ClearRepository(ctx context.Context, repoID int64) error

	// ResetTimestamps sets every repository timestamp to -1 so the next
	// update is a full index.
	ResetTimestamps(ctx context.Context) error

	// WeightBounds returns the lowest and highest weight in use.
	// ok is false when there are no repositories.
	WeightBounds(ctx context.Context) (minWeight, maxWeight int64, ok bool, err error)

	// InsertMirrors adds official mirrors.
	InsertMirrors(ctx context.Context, mirrors []domain.Mirror) error

	// DeleteMirrors removes all official mirrors of a repository.
	DeleteMirrors(ctx context.Context, repoID int64) error

	// Attributes returns the attributes of one kind declared by a repository.
	Attributes(ctx context.Context, repoID int64, kind domain.AttributeKind) ([]domain.RepoAttribute, error)

	// UpsertAttributes inserts or replaces attributes keyed by (repo, kind, id).
	UpsertAttributes(ctx context.Context, attrs []domain.RepoAttribute) error

	// DeleteAttributes removes all attributes of one kind.
	DeleteAttributes(ctx context.Context, repoID int64, kind domain.AttributeKind) error

	// DeleteAttribute removes one attribute.
	DeleteAttribute(ctx context.Context, repoID int64, kind domain.AttributeKind, id string) error

	// EnabledCategories returns every category id once, taken from the
	// highest-weight enabled repository declaring it.
	EnabledCategories(ctx context.Context) ([]domain.Category, error)

	// GetPreferences returns the preferences of a repository or nil.
	GetPreferences(ctx context.Context, repoID int64) (*domain.RepositoryPreferences, error)

	// SetEnabled toggles whether a repository takes part in default views.
	SetEnabled(ctx context.Context, repoID int64, enabled bool) error

	// SetWeights assigns weights keyed by repository id.
	SetWeights(ctx context.Context, weights map[int64]int64) error

	// SetLastUpdated records when an index was last applied.
	SetLastUpdated(ctx context.Context, repoID int64, lastUpdated int64) error

	// UpdateUserMirrors replaces the user-added mirrors.
	UpdateUserMirrors(ctx context.Context, repoID int64, mirrors []string) error

	// UpdateDisabledMirrors replaces the disabled mirrors.
	UpdateDisabledMirrors(ctx context.Context, repoID int64, mirrors []string) error

	// UpdateCredentials replaces the basic auth credentials.
	UpdateCredentials(ctx context.Context, repoID int64, username, password string) error
}
