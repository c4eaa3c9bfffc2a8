package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
	"github.com/custodia-labs/catalog-sync/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

const (
	week = 7 * 24 * time.Hour

	// maxRecencyPenalty caps the score lost to age.
	maxRecencyPenalty = 100
)

// SearchService ranks full-text candidates by column weights and recency.
type SearchService struct {
	index        driven.SearchIndex
	weights      domain.ColumnWeights
	defaultLimit int
	now          func() time.Time
}

// NewSearchService creates a new search service.
// Zero weights fall back to the default column weights.
func NewSearchService(index driven.SearchIndex, weights domain.ColumnWeights) *SearchService {
	if weights == (domain.ColumnWeights{}) {
		weights = domain.DefaultColumnWeights()
	}
	return &SearchService{
		index:   index,
		weights: weights,
		now:     time.Now,
	}
}

// SetDefaultLimit caps queries that carry no limit. Zero means unlimited.
func (s *SearchService) SetDefaultLimit(n int) {
	if n >= 0 {
		s.defaultLimit = n
	}
}

// Search returns hits ordered by score, then by last update, both descending.
func (s *SearchService) Search(ctx context.Context, query domain.SearchQuery) ([]domain.SearchHit, error) {
	terms := splitTerms(query.Text)
	if len(terms) == 0 {
		return nil, nil
	}

	candidates, err := s.index.Candidates(ctx, terms, query.Category)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("Search %q matched %d candidates", query.Text, len(candidates))

	hits := rank(candidates, s.weights, s.now())
	limit := query.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// splitTerms breaks text into lower-case terms at every rune that is
// neither a letter nor a digit. Repeated terms are dropped.
func splitTerms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// rank scores and orders candidates.
func rank(candidates []domain.SearchCandidate, weights domain.ColumnWeights, now time.Time) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, domain.SearchHit{
			AppListItem: c.Item,
			Score:       score(c, weights, now),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].LastUpdated != hits[j].LastUpdated {
			return hits[i].LastUpdated > hits[j].LastUpdated
		}
		return hits[i].PackageName < hits[j].PackageName
	})
	return hits
}

// score adds the column weight once per matched (term, column) pair and
// subtracts one point per three weeks since the last update, at most 100.
func score(c domain.SearchCandidate, weights domain.ColumnWeights, now time.Time) int {
	total := 0
	for _, hits := range c.Hits {
		for col, hit := range hits {
			if hit {
				total += weights.Of(domain.SearchColumn(col))
			}
		}
	}
	return total - recencyPenalty(c.Item.LastUpdated, now)
}

func recencyPenalty(lastUpdated int64, now time.Time) int {
	age := now.Sub(time.UnixMilli(lastUpdated))
	if age <= 0 {
		return 0
	}
	penalty := int(age/week) / 3
	if penalty > maxRecencyPenalty {
		return maxRecencyPenalty
	}
	return penalty
}
