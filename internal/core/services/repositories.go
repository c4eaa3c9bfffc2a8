package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
	"github.com/custodia-labs/catalog-sync/internal/logger"
)

// Ensure RepositoryService implements the interface.
var _ driving.RepositoryService = (*RepositoryService)(nil)

// RepositoryService manages repositories and their weights.
type RepositoryService struct {
	tx    driven.Transactor
	repos driven.RepositoryStore
	apps  driven.AppStore
}

// NewRepositoryService creates a new repository service.
func NewRepositoryService(tx driven.Transactor, repos driven.RepositoryStore, apps driven.AppStore) *RepositoryService {
	return &RepositoryService{
		tx:    tx,
		repos: repos,
		apps:  apps,
	}
}

// Add inserts a repository two below the current minimum weight.
func (s *RepositoryService) Add(ctx context.Context, repo domain.NewRepository) (int64, error) {
	if strings.TrimSpace(repo.Address) == "" {
		return 0, fmt.Errorf("%w: address is required", domain.ErrInvalidInput)
	}
	name := repo.Name
	if name == "" {
		name = repo.Address
	}

	var id int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		minWeight, _, ok, err := s.repos.WeightBounds(ctx)
		if err != nil {
			return err
		}
		weight := domain.BaseWeight
		if ok {
			weight = minWeight - 2
		}
		id, err = s.repos.InsertRepository(ctx, &domain.Repository{
			Name:        domain.LocalizedText{domain.DefaultLocale: name},
			Address:     repo.Address,
			Timestamp:   -1,
			Certificate: repo.Certificate,
		}, domain.RepositoryPreferences{
			Weight:   weight,
			Enabled:  true,
			Username: repo.Username,
			Password: repo.Password,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("adding repository %s: %w", repo.Address, err)
	}
	logger.Info("Added repository %d (%s)", id, repo.Address)
	return id, nil
}

// SubscribeEmpty inserts a placeholder repository one above the current maximum weight.
func (s *RepositoryService) SubscribeEmpty(ctx context.Context, address, username, password string) (int64, error) {
	if strings.TrimSpace(address) == "" {
		return 0, fmt.Errorf("%w: address is required", domain.ErrInvalidInput)
	}

	var id int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		_, maxWeight, ok, err := s.repos.WeightBounds(ctx)
		if err != nil {
			return err
		}
		weight := domain.BaseWeight
		if ok {
			weight = maxWeight + 1
		}
		id, err = s.repos.InsertRepository(ctx, &domain.Repository{
			Name:      domain.LocalizedText{domain.DefaultLocale: address},
			Address:   address,
			Timestamp: -1,
		}, domain.RepositoryPreferences{
			Weight:   weight,
			Enabled:  true,
			Username: username,
			Password: password,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("subscribing to %s: %w", address, err)
	}
	logger.Info("Subscribed to repository %d (%s)", id, address)
	return id, nil
}

// AddArchive inserts the archive of a main repository one below it,
// shifting lower repositories down when that weight is taken.
func (s *RepositoryService) AddArchive(ctx context.Context, mainID int64, address string) (int64, error) {
	if !domain.IsArchiveAddress(address) {
		return 0, fmt.Errorf("%w: %s is not an archive address", domain.ErrInvalidInput, address)
	}

	var id int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		repos, err := s.repos.ListRepositories(ctx)
		if err != nil {
			return err
		}
		main := findRepo(repos, mainID)
		if main == nil {
			return fmt.Errorf("repo %d: %w", mainID, domain.ErrRepositoryNotFound)
		}
		if main.IsArchive() {
			return fmt.Errorf("%w: repo %d is an archive", domain.ErrInvalidInput, mainID)
		}
		if archive := archiveOf(repos, main); archive != nil {
			return fmt.Errorf("repo %d already has archive %d: %w", mainID, archive.ID, domain.ErrAlreadyExists)
		}

		weight := main.Preferences.Weight - 1
		shift := make(map[int64]int64)
		taken := false
		for _, r := range repos {
			if r.Preferences.Weight == weight {
				taken = true
			}
			if r.Preferences.Weight <= weight {
				shift[r.ID] = r.Preferences.Weight - 1
			}
		}
		if taken {
			if err := s.repos.SetWeights(ctx, shift); err != nil {
				return err
			}
		}

		id, err = s.repos.InsertRepository(ctx, &domain.Repository{
			Name:        main.Name,
			Address:     address,
			Timestamp:   -1,
			Certificate: main.Certificate,
		}, domain.RepositoryPreferences{
			Weight:   weight,
			Enabled:  true,
			Username: main.Preferences.Username,
			Password: main.Preferences.Password,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("adding archive of repo %d: %w", mainID, err)
	}
	logger.Info("Added archive %d for repository %d", id, mainID)
	return id, nil
}

// Seed inserts repositories with their declared weight and enabled flag.
func (s *RepositoryService) Seed(ctx context.Context, initial []domain.InitialRepository) ([]int64, error) {
	ids := make([]int64, 0, len(initial))
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, r := range initial {
			if r.Address == "" {
				return fmt.Errorf("%w: seed repository %q has no address", domain.ErrInvalidInput, r.Name)
			}
			version := r.Version
			repo := &domain.Repository{
				Name:        domain.LocalizedText{domain.DefaultLocale: r.Name},
				Address:     r.Address,
				Timestamp:   -1,
				Version:     &version,
				Certificate: r.Certificate,
			}
			if r.Description != "" {
				repo.Description = domain.LocalizedText{domain.DefaultLocale: r.Description}
			}
			id, err := s.repos.InsertRepository(ctx, repo, domain.RepositoryPreferences{
				Weight:  r.Weight,
				Enabled: r.Enabled,
			})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seeding repositories: %w", err)
	}
	logger.Info("Seeded %d repositories", len(ids))
	return ids, nil
}

// Get returns a repository or nil.
func (s *RepositoryService) Get(ctx context.Context, repoID int64) (*domain.RepositoryDetail, error) {
	return s.repos.GetRepository(ctx, repoID)
}

// List returns all repositories ordered by weight descending.
func (s *RepositoryService) List(ctx context.Context) ([]domain.RepositoryDetail, error) {
	return s.repos.ListRepositories(ctx)
}

// SetEnabled toggles a repository. Disabling a main repository also
// disables its archive.
func (s *RepositoryService) SetEnabled(ctx context.Context, repoID int64, enabled bool) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		repos, err := s.repos.ListRepositories(ctx)
		if err != nil {
			return err
		}
		repo := findRepo(repos, repoID)
		if repo == nil {
			return fmt.Errorf("repo %d: %w", repoID, domain.ErrRepositoryNotFound)
		}
		if err := s.repos.SetEnabled(ctx, repoID, enabled); err != nil {
			return err
		}
		if enabled || repo.IsArchive() {
			return nil
		}
		if archive := archiveOf(repos, repo); archive != nil {
			logger.Debug("Disabling archive %d of repository %d", archive.ID, repoID)
			return s.repos.SetEnabled(ctx, archive.ID, false)
		}
		return nil
	})
}

// SetArchiveEnabled toggles the archive of a main repository.
func (s *RepositoryService) SetArchiveEnabled(ctx context.Context, mainID int64, enabled bool) (*int64, error) {
	var archiveID *int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		repos, err := s.repos.ListRepositories(ctx)
		if err != nil {
			return err
		}
		main := findRepo(repos, mainID)
		if main == nil {
			return fmt.Errorf("repo %d: %w", mainID, domain.ErrRepositoryNotFound)
		}
		archive := archiveOf(repos, main)
		if archive == nil {
			return nil
		}
		id := archive.ID
		archiveID = &id
		return s.repos.SetEnabled(ctx, id, enabled)
	})
	if err != nil {
		return nil, err
	}
	return archiveID, nil
}

// Delete removes a repository. Deleting a main repository also deletes its archive.
func (s *RepositoryService) Delete(ctx context.Context, repoID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		repos, err := s.repos.ListRepositories(ctx)
		if err != nil {
			return err
		}
		repo := findRepo(repos, repoID)
		if repo == nil {
			return fmt.Errorf("repo %d: %w", repoID, domain.ErrRepositoryNotFound)
		}
		if !repo.IsArchive() {
			if archive := archiveOf(repos, repo); archive != nil {
				if err := s.repos.DeleteRepository(ctx, archive.ID); err != nil {
					return err
				}
			}
		}
		logger.Info("Deleting repository %d (%s)", repoID, repo.Address)
		return s.repos.DeleteRepository(ctx, repoID)
	})
}

// Reorder moves a repository with its archive to the position of target.
func (s *RepositoryService) Reorder(ctx context.Context, moveID, targetID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		repos, err := s.repos.ListRepositories(ctx)
		if err != nil {
			return err
		}
		weights, err := reorderedWeights(repos, moveID, targetID)
		if err != nil {
			return err
		}
		return s.repos.SetWeights(ctx, weights)
	})
}

// MigrateWeights rewrites every weight so each archive sits directly
// below its main repository.
func (s *RepositoryService) MigrateWeights(ctx context.Context) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		repos, err := s.repos.ListRepositories(ctx)
		if err != nil {
			return err
		}
		logger.Info("Migrating weights of %d repositories", len(repos))
		return s.repos.SetWeights(ctx, migratedWeights(repos))
	})
}

// AddUserMirror adds a user mirror unless it is already present.
func (s *RepositoryService) AddUserMirror(ctx context.Context, repoID int64, url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: mirror url is required", domain.ErrInvalidInput)
	}
	return s.updatePrefs(ctx, repoID, func(ctx context.Context, p *domain.RepositoryPreferences) error {
		if slices.Contains(p.UserMirrors, url) {
			return nil
		}
		return s.repos.UpdateUserMirrors(ctx, repoID, append(p.UserMirrors, url))
	})
}

// DeleteUserMirror removes a user mirror and any disabled entry for it.
func (s *RepositoryService) DeleteUserMirror(ctx context.Context, repoID int64, url string) error {
	return s.updatePrefs(ctx, repoID, func(ctx context.Context, p *domain.RepositoryPreferences) error {
		if err := s.repos.UpdateUserMirrors(ctx, repoID, without(p.UserMirrors, url)); err != nil {
			return err
		}
		if slices.Contains(p.DisabledMirrors, url) {
			return s.repos.UpdateDisabledMirrors(ctx, repoID, without(p.DisabledMirrors, url))
		}
		return nil
	})
}

// SetMirrorEnabled enables or disables an official or user mirror.
func (s *RepositoryService) SetMirrorEnabled(ctx context.Context, repoID int64, url string, enabled bool) error {
	return s.updatePrefs(ctx, repoID, func(ctx context.Context, p *domain.RepositoryPreferences) error {
		disabled := without(p.DisabledMirrors, url)
		if !enabled {
			disabled = append(disabled, url)
		}
		return s.repos.UpdateDisabledMirrors(ctx, repoID, disabled)
	})
}

// UpdateCredentials replaces the basic auth credentials.
func (s *RepositoryService) UpdateCredentials(ctx context.Context, repoID int64, username, password string) error {
	return s.repos.UpdateCredentials(ctx, repoID, username, password)
}

// ClearAppData removes every app and resets every repository timestamp so
// the next update fetches a full index.
func (s *RepositoryService) ClearAppData(ctx context.Context) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.apps.DeleteAllApps(ctx); err != nil {
			return err
		}
		return s.repos.ResetTimestamps(ctx)
	})
	if err != nil {
		return fmt.Errorf("clearing app data: %w", err)
	}
	logger.Info("Cleared app data")
	return nil
}

func (s *RepositoryService) updatePrefs(
	ctx context.Context,
	repoID int64,
	fn func(ctx context.Context, p *domain.RepositoryPreferences) error,
) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		prefs, err := s.repos.GetPreferences(ctx, repoID)
		if err != nil {
			return err
		}
		if prefs == nil {
			return fmt.Errorf("repo %d: %w", repoID, domain.ErrRepositoryNotFound)
		}
		return fn(ctx, prefs)
	})
}

func findRepo(repos []domain.RepositoryDetail, id int64) *domain.RepositoryDetail {
	for i := range repos {
		if repos[i].ID == id {
			return &repos[i]
		}
	}
	return nil
}

// archiveOf returns the archive paired with a main repository or nil.
func archiveOf(repos []domain.RepositoryDetail, main *domain.RepositoryDetail) *domain.RepositoryDetail {
	groups, _ := pairArchives(repos)
	for _, g := range groups {
		if g.main.ID == main.ID {
			return g.archive
		}
	}
	return nil
}

func without(items []string, s string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != s {
			out = append(out, item)
		}
	}
	return out
}
