package driven

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// SearchIndex finds full-text candidates for ranking.
type SearchIndex interface {
	// Candidates returns the highest-weight copy of every package in an
	// enabled repository whose indexed columns match all terms as prefixes.
	// Each candidate reports, per term, which columns it matched.
	// An empty category matches all.
	Candidates(ctx context.Context, terms []string, category string) ([]domain.SearchCandidate, error)
}
