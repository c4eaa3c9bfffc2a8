package platform

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

// Ensure InstalledFile implements the interface.
var _ driven.InstalledPackages = (*InstalledFile)(nil)

// InstalledFile reads the installed package inventory from a YAML file:
//
//	packages:
//	  - package: org.example.app
//	    versionCode: 12
//	    signers: [ab12...]
//
// The file is re-read on every call. A missing file means nothing is installed.
type InstalledFile struct {
	path string
}

// NewInstalledFile creates an inventory backed by path.
func NewInstalledFile(path string) *InstalledFile {
	return &InstalledFile{path: path}
}

type inventory struct {
	Packages []domain.InstalledPackage `yaml:"packages"`
}

// Installed returns installed packages keyed by package name.
func (f *InstalledFile) Installed(_ context.Context) (map[string]domain.InstalledPackage, error) {
	out := make(map[string]domain.InstalledPackage)
	if f.path == "" {
		return out, nil
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	var inv inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, f.path, err)
	}
	for _, p := range inv.Packages {
		if p.PackageName == "" {
			return nil, fmt.Errorf("%w: %s: package without name", domain.ErrInvalidInput, f.path)
		}
		out[p.PackageName] = p
	}
	return out, nil
}
