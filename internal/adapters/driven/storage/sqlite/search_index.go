package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

// ==================== Search Index ====================

// searchIndex implements driven.SearchIndex over the app_fts table.
type searchIndex struct {
	store *Store
}

var _ driven.SearchIndex = (*searchIndex)(nil)

// markOpen is the highlight start marker, char(1) in SQL. It never occurs in
// indexed text.
const markOpen = "\x01"

type searchRow struct {
	itemRow
	AppID int64 `db:"app_id"`
}

type highlightRow struct {
	AppID       int64          `db:"app_id"`
	Name        sql.NullString `db:"h_name"`
	Summary     sql.NullString `db:"h_summary"`
	Description sql.NullString `db:"h_description"`
	Author      sql.NullString `db:"h_author"`
	PackageName sql.NullString `db:"h_package"`
}

func (r *highlightRow) hits() domain.TermHits {
	var h domain.TermHits
	for i, col := range []sql.NullString{r.Name, r.Summary, r.Description, r.Author, r.PackageName} {
		h[i] = col.Valid && strings.Contains(col.String, markOpen)
	}
	return h
}

// ftsTerm quotes a query term as an FTS5 prefix token.
func ftsTerm(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"*`
}

// Candidates returns the precedence copy of every package matching all
// terms, with per-term column hits.
func (s *searchIndex) Candidates(ctx context.Context, terms []string, category string) ([]domain.SearchCandidate, error) {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, ftsTerm(t))
		}
	}
	if len(quoted) == 0 {
		return nil, nil
	}

	q := "SELECT " + itemColumns + `, a.app_id
		FROM app_fts
		JOIN app_metadata a ON a.app_id = app_fts.rowid
		JOIN preferred_app pa ON pa.app_id = a.app_id
		LEFT JOIN highest_version hv ON hv.repo_id = a.repo_id AND hv.package_name = a.package_name
		WHERE app_fts MATCH ?
	`
	args := []any{strings.Join(quoted, " ")}
	if category != "" {
		q += " AND a.categories LIKE ?" + likeEscape
		args = append(args, likeList(category))
	}

	var rows []searchRow
	err := instrumentQuery("search_candidates", func() error {
		return sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, q, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("searching apps: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(rows))
	for i := range rows {
		ids[i] = rows[i].AppID
	}

	// One highlight pass per term tells which columns that term matched.
	hits := make(map[int64][]domain.TermHits, len(rows))
	for _, term := range quoted {
		var hl []highlightRow
		err := selectIn(ctx, s.store.conn(ctx), &hl, `
			SELECT rowid AS app_id,
			       highlight(app_fts, 0, char(1), char(2)) AS h_name,
			       highlight(app_fts, 1, char(1), char(2)) AS h_summary,
			       highlight(app_fts, 2, char(1), char(2)) AS h_description,
			       highlight(app_fts, 3, char(1), char(2)) AS h_author,
			       highlight(app_fts, 4, char(1), char(2)) AS h_package
			FROM app_fts
			WHERE rowid IN (?) AND app_fts MATCH ?
		`, ids, term)
		if err != nil {
			return nil, fmt.Errorf("highlighting %s: %w", term, err)
		}
		for i := range hl {
			hits[hl[i].AppID] = append(hits[hl[i].AppID], hl[i].hits())
		}
	}

	candidates := make([]domain.SearchCandidate, 0, len(rows))
	for i := range rows {
		item, err := rows[i].listItem()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, domain.SearchCandidate{Item: item, Hits: hits[rows[i].AppID]})
	}
	return candidates, nil
}
