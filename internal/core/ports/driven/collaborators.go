package driven

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

//go:generate mockgen -destination=./mocks/collaborators.go -package=mocks . CompatibilityChecker,InstalledPackages,LocaleProvider

// CompatibilityChecker decides whether a version can run on this device.
// It is evaluated once per version write; an error aborts the write.
type CompatibilityChecker interface {
	IsCompatible(manifest domain.Manifest) (bool, error)
}

// InstalledPackages lists the packages installed on the device.
type InstalledPackages interface {
	// Installed returns installed packages keyed by package name.
	Installed(ctx context.Context) (map[string]domain.InstalledPackage, error)
}

// LocaleProvider returns the user's preferred locales, most preferred first.
type LocaleProvider interface {
	Locales() []string
}
