package tui

import (
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// appsChanged carries one emission of the live app list. Generation ties
// the emission to the watch that produced it so stale watches are dropped.
type appsChanged struct {
	generation int
	result     domain.LiveResult[[]domain.AppListItem]
}

// watchClosed is sent when a live watch channel closes.
type watchClosed struct {
	generation int
}

// appLoaded carries the default copy of a package for the detail pane.
type appLoaded struct {
	app *domain.App
	err error
}
