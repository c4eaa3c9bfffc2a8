package driving

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// SearchService provides ranked full-text search over enabled repositories.
type SearchService interface {
	// Search returns hits ordered by score, then by last update, both descending.
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.SearchHit, error)
}
