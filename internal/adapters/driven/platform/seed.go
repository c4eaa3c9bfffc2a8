package platform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

type seedFile struct {
	Repositories []domain.InitialRepository `yaml:"repositories"`
}

// LoadSeed reads the default repositories from a YAML file. Entries
// without a weight are given descending weights from BaseWeight in file
// order.
func LoadSeed(path string) ([]domain.InitialRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, path, err)
	}

	next := domain.BaseWeight
	for i := range seed.Repositories {
		r := &seed.Repositories[i]
		if r.Address == "" {
			return nil, fmt.Errorf("%w: %s: repository %d has no address", domain.ErrInvalidInput, path, i)
		}
		if r.Weight == 0 {
			r.Weight = next
		}
		next = r.Weight - 2
	}
	return seed.Repositories, nil
}
