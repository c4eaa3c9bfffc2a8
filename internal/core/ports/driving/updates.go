package driving

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// UpdateService diagnoses installed packages.
type UpdateService interface {
	// Check returns available updates and issues of installed packages.
	Check(ctx context.Context) (*domain.AppCheckResult, error)

	// SuggestedVersion returns the version suggested for installing a
	// package, or nil.
	SuggestedVersion(ctx context.Context, packageName string) (*domain.Version, error)
}
