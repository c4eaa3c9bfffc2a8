package domain

// AppSortOrder selects the ordering of app list queries.
type AppSortOrder string

// Supported sort orders.
const (
	SortByName        AppSortOrder = "name"
	SortByLastUpdated AppSortOrder = "lastUpdated"
)

// IsValid returns true if the sort order is recognised.
func (o AppSortOrder) IsValid() bool {
	return o == SortByName || o == SortByLastUpdated
}

// Default list limits.
const (
	DefaultOverviewLimit         = 200
	DefaultCategoryOverviewLimit = 50
)

// AppOverviewItem is a lightweight app row used for overview screens.
// AntiFeatures come from the highest version of the app.
type AppOverviewItem struct {
	RepoID       int64
	PackageName  string
	Added        int64
	LastUpdated  int64
	Name         string
	Summary      string
	Icon         LocalizedFile
	AntiFeatures []string
	IsCompatible bool
}

// AppListItem is a lightweight app row used for lists and search results.
type AppListItem struct {
	RepoID          int64
	PackageName     string
	Name            string
	Summary         string
	LastUpdated     int64
	Categories      []string
	AntiFeatures    []string
	Icon            LocalizedFile
	IsCompatible    bool
	PreferredSigner string

	// Installed fields are only set for installed app lists.
	InstalledVersionCode *int64
	InstalledVersionName string
}

// AppListQuery filters and orders an app list.
type AppListQuery struct {
	// Category restricts to apps declaring this category id.
	Category string

	// Search is a free-text query, ranked by relevance when set.
	Search string

	// SortBy applies when Search is empty. Defaults to SortByLastUpdated.
	SortBy AppSortOrder

	// Limit caps the result size, 0 means no limit.
	Limit int
}

// Category is a category id resolved from the highest-weight enabled repository.
type Category struct {
	RepoAttribute
}

// LiveResult is one emission of a live query.
type LiveResult[T any] struct {
	Value T
	Err   error
}
