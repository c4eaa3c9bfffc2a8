package driven

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// AppPrefsStore persists per-package user preferences.
type AppPrefsStore interface {
	// GetAppPrefs returns the preferences of a package or nil.
	GetAppPrefs(ctx context.Context, packageName string) (*domain.AppPrefs, error)

	// AppPrefsFor returns stored preferences keyed by package name.
	AppPrefsFor(ctx context.Context, packageNames []string) (map[string]domain.AppPrefs, error)

	// SaveAppPrefs creates or replaces the preferences of a package.
	SaveAppPrefs(ctx context.Context, prefs domain.AppPrefs) error
}
