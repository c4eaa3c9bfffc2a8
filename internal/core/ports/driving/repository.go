package driving

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// RepositoryService manages repositories, their order and their preferences.
type RepositoryService interface {
	// Add inserts a repository below every existing one.
	Add(ctx context.Context, repo domain.NewRepository) (int64, error)

	// SubscribeEmpty inserts a placeholder repository above every existing one.
	SubscribeEmpty(ctx context.Context, address, username, password string) (int64, error)

	// AddArchive inserts the archive of a main repository directly below it.
	AddArchive(ctx context.Context, mainID int64, address string) (int64, error)

	// Seed inserts repositories with the weights they declare.
	Seed(ctx context.Context, repos []domain.InitialRepository) ([]int64, error)

	// Get returns a repository or nil.
	Get(ctx context.Context, repoID int64) (*domain.RepositoryDetail, error)

	// List returns all repositories ordered by weight descending.
	List(ctx context.Context) ([]domain.RepositoryDetail, error)

	// SetEnabled toggles a repository. Disabling also disables its archive.
	SetEnabled(ctx context.Context, repoID int64, enabled bool) error

	// SetArchiveEnabled toggles the archive of a main repository and
	// returns its id, or nil when the repository has no archive.
	SetArchiveEnabled(ctx context.Context, mainID int64, enabled bool) (*int64, error)

	// Delete removes a repository together with its archive.
	Delete(ctx context.Context, repoID int64) error

	// Reorder moves a repository, with its archive, to the position of target.
	Reorder(ctx context.Context, moveID, targetID int64) error

	// MigrateWeights rewrites all weights so archives sit directly below
	// their main repository.
	MigrateWeights(ctx context.Context) error

	// AddUserMirror adds a user mirror.
	AddUserMirror(ctx context.Context, repoID int64, url string) error

	// DeleteUserMirror removes a user mirror.
	DeleteUserMirror(ctx context.Context, repoID int64, url string) error

	// SetMirrorEnabled enables or disables an official or user mirror.
	SetMirrorEnabled(ctx context.Context, repoID int64, url string, enabled bool) error

	// UpdateCredentials replaces the basic auth credentials.
	UpdateCredentials(ctx context.Context, repoID int64, username, password string) error

	// ClearAppData removes every app and version and resets repository
	// timestamps. Repositories and their preferences are kept.
	ClearAppData(ctx context.Context) error
}
