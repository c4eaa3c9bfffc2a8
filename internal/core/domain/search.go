package domain

// SearchColumn identifies an indexed column of the app full-text index.
type SearchColumn int

// Indexed columns, in full-text table order.
const (
	ColumnName SearchColumn = iota
	ColumnSummary
	ColumnDescription
	ColumnAuthor
	ColumnPackageName
)

// SearchColumnCount is the number of indexed columns.
const SearchColumnCount = 5

// String returns the column name.
func (c SearchColumn) String() string {
	switch c {
	case ColumnName:
		return "name"
	case ColumnSummary:
		return "summary"
	case ColumnDescription:
		return "description"
	case ColumnAuthor:
		return "author"
	case ColumnPackageName:
		return "package"
	default:
		return unknownDescription
	}
}

const unknownDescription = "unknown"

// ColumnWeights assigns a score to a term matching a column.
// Name must outrank summary, which outranks description, author and package.
type ColumnWeights struct {
	Name        int
	Summary     int
	Description int
	Author      int
	PackageName int
}

// DefaultColumnWeights returns the stock column weights.
func DefaultColumnWeights() ColumnWeights {
	return ColumnWeights{
		Name:        40,
		Summary:     20,
		Description: 8,
		Author:      4,
		PackageName: 2,
	}
}

// Of returns the weight of one column.
func (w ColumnWeights) Of(c SearchColumn) int {
	switch c {
	case ColumnName:
		return w.Name
	case ColumnSummary:
		return w.Summary
	case ColumnDescription:
		return w.Description
	case ColumnAuthor:
		return w.Author
	case ColumnPackageName:
		return w.PackageName
	default:
		return 0
	}
}

// IsOrdered reports whether the weights keep name > summary > description > author > package.
func (w ColumnWeights) IsOrdered() bool {
	return w.Name > w.Summary && w.Summary > w.Description &&
		w.Description > w.Author && w.Author > w.PackageName && w.PackageName >= 0
}

// SearchQuery is a ranked full-text query against enabled repositories.
type SearchQuery struct {
	Text     string
	Category string
	Limit    int
}

// TermHits records for one query term which columns it matched.
type TermHits [SearchColumnCount]bool

// SearchCandidate is a row matched by the full-text predicate, before ranking.
type SearchCandidate struct {
	Item AppListItem

	// Hits has one entry per query term.
	Hits []TermHits
}

// SearchHit is a ranked search result.
type SearchHit struct {
	AppListItem
	Score int
}
