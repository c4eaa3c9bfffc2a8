package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/index"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
	"github.com/custodia-labs/catalog-sync/internal/logger"
	"github.com/custodia-labs/catalog-sync/internal/metrics"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// Apply modes used as metric labels.
const (
	modeFull = "full"
	modeDiff = "diff"
)

// Identity keys a diff may never carry.
var (
	appDenyList     = []string{"packageName", "repoId"}
	versionDenyList = []string{"packageName", "repoId", "versionId"}
	fileDenyList    = []string{"packageName", "repoId", "type"}
)

// IndexService applies index feeds to the store.
type IndexService struct {
	tx       driven.Transactor
	repos    driven.RepositoryStore
	apps     driven.AppStore
	versions driven.VersionStore
	compat   driven.CompatibilityChecker
	locales  driven.LocaleProvider
	now      func() time.Time
}

// NewIndexService creates a new index service.
func NewIndexService(
	tx driven.Transactor,
	repos driven.RepositoryStore,
	apps driven.AppStore,
	versions driven.VersionStore,
	compat driven.CompatibilityChecker,
	locales driven.LocaleProvider,
) *IndexService {
	return &IndexService{
		tx:       tx,
		repos:    repos,
		apps:     apps,
		versions: versions,
		compat:   compat,
		locales:  locales,
		now:      time.Now,
	}
}

// ApplyFull replaces all data of a repository with a full index.
func (s *IndexService) ApplyFull(ctx context.Context, repoID, version int64, formatVersion string, r io.Reader) error {
	start := time.Now()
	runID := uuid.NewString()
	logger.Info("Applying full index for repo %d (run %s)", repoID, runID)

	recv := &fullReceiver{
		svc:           s,
		repoID:        repoID,
		version:       version,
		formatVersion: formatVersion,
		locales:       s.locales.Locales(),
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireRepository(ctx, repoID); err != nil {
			return err
		}
		return index.Decode(ctx, r, recv)
	})
	return s.finish(modeFull, runID, repoID, recv.packages, start, err)
}

// ApplyDiff merges a diff index into the stored data of a repository.
func (s *IndexService) ApplyDiff(ctx context.Context, repoID, version int64, r io.Reader) error {
	start := time.Now()
	runID := uuid.NewString()
	logger.Info("Applying diff for repo %d (run %s)", repoID, runID)

	recv := s.newDiffReceiver(repoID, version)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireRepository(ctx, repoID); err != nil {
			return err
		}
		return index.Decode(ctx, r, recv)
	})
	return s.finish(modeDiff, runID, repoID, recv.packages, start, err)
}

// Update applies a diff only when it was generated against the stored
// repository timestamp.
func (s *IndexService) Update(ctx context.Context, repoID, baseTimestamp, version int64, r io.Reader) error {
	start := time.Now()
	runID := uuid.NewString()
	logger.Info("Updating repo %d from timestamp %d (run %s)", repoID, baseTimestamp, runID)

	recv := s.newDiffReceiver(repoID, version)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		repo, err := s.repos.GetRepository(ctx, repoID)
		if err != nil {
			return err
		}
		if repo == nil {
			return fmt.Errorf("repo %d: %w", repoID, domain.ErrRepositoryNotFound)
		}
		if repo.Timestamp != baseTimestamp {
			return fmt.Errorf("repo %d is at %d, diff is based on %d: %w",
				repoID, repo.Timestamp, baseTimestamp, domain.ErrStaleDiff)
		}
		return index.Decode(ctx, r, recv)
	})
	return s.finish(modeDiff, runID, repoID, recv.packages, start, err)
}

func (s *IndexService) requireRepository(ctx context.Context, repoID int64) error {
	repo, err := s.repos.GetRepository(ctx, repoID)
	if err != nil {
		return err
	}
	if repo == nil {
		return fmt.Errorf("repo %d: %w", repoID, domain.ErrRepositoryNotFound)
	}
	return nil
}

func (s *IndexService) finish(mode, runID string, repoID int64, packages int, start time.Time, err error) error {
	switch {
	case err == nil:
		metrics.ObserveApply(mode, metrics.ResultOK, start)
		metrics.IndexPackagesTotal.WithLabelValues(mode).Add(float64(packages))
		logger.Info("Applied %s index for repo %d: %d packages in %s (run %s)",
			mode, repoID, packages, time.Since(start).Round(time.Millisecond), runID)
		return nil
	case errors.Is(err, domain.ErrStaleDiff):
		metrics.ObserveApply(mode, metrics.ResultStale, start)
		logger.Warn("Diff for repo %d is stale (run %s)", repoID, runID)
	default:
		metrics.ObserveApply(mode, metrics.ResultError, start)
		logger.Warn("Rolled back %s index for repo %d (run %s): %v", mode, repoID, runID, err)
	}
	return fmt.Errorf("applying %s index to repo %d: %w", mode, repoID, err)
}

// streamEnded recomputes app compatibility and records the update time.
func (s *IndexService) streamEnded(ctx context.Context, repoID int64) error {
	if err := s.apps.UpdateCompatibility(ctx, repoID); err != nil {
		return err
	}
	return s.repos.SetLastUpdated(ctx, repoID, s.now().UnixMilli())
}

// insertVersion evaluates compatibility and stores a new version.
func (s *IndexService) insertVersion(ctx context.Context, v *domain.Version) error {
	compatible, err := s.compat.IsCompatible(v.Manifest)
	if err != nil {
		return fmt.Errorf("checking compatibility of %s/%s: %w", v.PackageName, v.VersionID, err)
	}
	v.IsCompatible = compatible
	return s.versions.InsertVersion(ctx, v)
}

// ==================== Full index ====================

// fullReceiver inserts every record of a full index after clearing the
// repository once.
type fullReceiver struct {
	svc           *IndexService
	repoID        int64
	version       int64
	formatVersion string
	locales       []string
	cleared       bool
	packages      int
}

func (f *fullReceiver) clearOnce(ctx context.Context) error {
	if f.cleared {
		return nil
	}
	f.cleared = true
	logger.Debug("Clearing repo %d", f.repoID)
	return f.svc.repos.ClearRepository(ctx, f.repoID)
}

// ReceiveRepo replaces the repository row and its attribute tables.
func (f *fullReceiver) ReceiveRepo(ctx context.Context, raw json.RawMessage) error {
	if err := f.clearOnce(ctx); err != nil {
		return err
	}
	idx, err := index.DecodeRepo(raw)
	if err != nil {
		return err
	}
	stored, err := f.svc.repos.GetRepository(ctx, f.repoID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("repo %d: %w", f.repoID, domain.ErrRepositoryNotFound)
	}

	repo := idx.Repository
	repo.ID = f.repoID
	repo.Version = &f.version
	repo.FormatVersion = f.formatVersion
	repo.Certificate = stored.Certificate
	if err := f.svc.repos.UpdateRepository(ctx, &repo); err != nil {
		return err
	}

	mirrors := make([]domain.Mirror, 0, len(idx.Mirrors))
	for _, m := range idx.Mirrors {
		m.RepoID = f.repoID
		mirrors = append(mirrors, m)
	}
	if err := f.svc.repos.InsertMirrors(ctx, mirrors); err != nil {
		return err
	}
	for _, kind := range []domain.AttributeKind{
		domain.AttributeAntiFeature, domain.AttributeCategory, domain.AttributeReleaseChannel,
	} {
		if err := f.svc.repos.UpsertAttributes(ctx, idx.Attributes(f.repoID, kind)); err != nil {
			return err
		}
	}
	return nil
}

// ReceivePackage inserts an app and all its versions.
func (f *fullReceiver) ReceivePackage(ctx context.Context, packageName string, raw json.RawMessage) error {
	if err := f.clearOnce(ctx); err != nil {
		return err
	}
	if index.IsNull(raw) {
		return fmt.Errorf("%w: null package in a full index", domain.ErrSerialization)
	}
	pkg, err := index.DecodePackage(raw)
	if err != nil {
		return err
	}

	app := pkg.Metadata
	app.RepoID = f.repoID
	app.PackageName = packageName
	app.UpdateLocaleCache(f.locales)
	if err := f.svc.apps.InsertApp(ctx, &app); err != nil {
		return err
	}

	versionIDs := make([]string, 0, len(pkg.Versions))
	for id := range pkg.Versions {
		versionIDs = append(versionIDs, id)
	}
	sort.Strings(versionIDs)
	for _, id := range versionIDs {
		v := pkg.Versions[id]
		v.RepoID = f.repoID
		v.PackageName = packageName
		v.VersionID = id
		if err := f.svc.insertVersion(ctx, &v); err != nil {
			return err
		}
	}
	f.packages++
	return nil
}

// StreamEnded clears an empty index and finalises the repository.
func (f *fullReceiver) StreamEnded(ctx context.Context) error {
	if err := f.clearOnce(ctx); err != nil {
		return err
	}
	return f.svc.streamEnded(ctx, f.repoID)
}
