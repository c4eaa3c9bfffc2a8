package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
	"github.com/custodia-labs/catalog-sync/internal/logger"
)

// Ensure AppChecker implements the interface.
var _ driving.UpdateService = (*AppChecker)(nil)

// defaultCheckConcurrency bounds parallel per-package diagnosis.
const defaultCheckConcurrency = 4

// AppChecker diagnoses installed packages against the catalog.
type AppChecker struct {
	apps            driven.AppStore
	versions        driven.VersionStore
	prefs           driven.AppPrefsStore
	installed       driven.InstalledPackages
	checker         *UpdateChecker
	releaseChannels []string
	concurrency     int
}

// NewAppChecker creates a new app checker. releaseChannels are allowed
// for every package on top of stable.
func NewAppChecker(
	apps driven.AppStore,
	versions driven.VersionStore,
	prefs driven.AppPrefsStore,
	installed driven.InstalledPackages,
	releaseChannels []string,
) *AppChecker {
	return &AppChecker{
		apps:            apps,
		versions:        versions,
		prefs:           prefs,
		installed:       installed,
		checker:         NewUpdateChecker(),
		releaseChannels: releaseChannels,
		concurrency:     defaultCheckConcurrency,
	}
}

// SetConcurrency sets how many packages are diagnosed in parallel.
func (c *AppChecker) SetConcurrency(n int) {
	if n > 0 {
		c.concurrency = n
	}
}

// diagnosis is the outcome for one package; at most one field is set.
type diagnosis struct {
	update *domain.UpdatableApp
	issue  *domain.AppWithIssue
}

// Check returns available updates and issues of installed packages,
// both ordered by package name.
func (c *AppChecker) Check(ctx context.Context) (*domain.AppCheckResult, error) {
	installed, err := c.installed.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading installed packages: %w", err)
	}
	names := make([]string, 0, len(installed))
	for name := range installed {
		names = append(names, name)
	}
	sort.Strings(names)

	candidates, err := c.versions.UpdateCandidates(ctx, names)
	if err != nil {
		return nil, err
	}
	byPackage := make(map[string][]domain.Version, len(names))
	for _, v := range candidates {
		byPackage[v.PackageName] = append(byPackage[v.PackageName], v)
	}
	preferred, err := c.apps.PreferredRepos(ctx, names)
	if err != nil {
		return nil, err
	}
	prefs, err := c.prefs.AppPrefsFor(ctx, names)
	if err != nil {
		return nil, err
	}

	results := make([]diagnosis, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, name := range names {
		g.Go(func() error {
			var p *domain.AppPrefs
			if stored, ok := prefs[name]; ok {
				p = &stored
			}
			repoID, hasRepo := preferred[name]
			d, err := c.diagnose(gctx, installed[name], byPackage[name], repoID, hasRepo, p)
			if err != nil {
				return fmt.Errorf("checking %s: %w", name, err)
			}
			results[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &domain.AppCheckResult{}
	for _, d := range results {
		if d.update != nil {
			result.Updates = append(result.Updates, *d.update)
		}
		if d.issue != nil {
			result.Issues = append(result.Issues, *d.issue)
		}
	}
	logger.Info("Checked %d installed packages: %d updates, %d issues",
		len(names), len(result.Updates), len(result.Issues))
	return result, nil
}

func (c *AppChecker) diagnose(
	ctx context.Context,
	pkg domain.InstalledPackage,
	versions []domain.Version,
	preferredRepo int64,
	hasPreferredRepo bool,
	prefs *domain.AppPrefs,
) (diagnosis, error) {
	if len(versions) == 0 {
		if pkg.System || !pkg.InstalledByUs {
			return diagnosis{}, nil
		}
		if hasPreferredRepo {
			item, err := c.apps.GetOverviewItem(ctx, preferredRepo, pkg.PackageName)
			if err != nil || item != nil {
				return diagnosis{}, err
			}
		}
		return issueOf(pkg, pkg.PackageName, domain.AppIssue{Kind: domain.IssueNotAvailable}), nil
	}

	updates := c.checker.Updates(versions, domain.UpdateQuery{
		InstalledVersionCode:        pkg.VersionCode,
		AllowedReleaseChannels:      c.releaseChannels,
		Prefs:                       prefs,
		IncludeKnownVulnerabilities: true,
	})
	if len(updates) == 0 {
		return diagnosis{}, nil
	}
	if !hasPreferredRepo {
		logger.Warn("No enabled repository resolves %s", pkg.PackageName)
		return diagnosis{}, nil
	}

	for _, u := range updates {
		if !IsOK(u, preferredRepo, pkg.Signers) {
			continue
		}
		item, err := c.apps.GetOverviewItem(ctx, u.RepoID, pkg.PackageName)
		if err != nil || item == nil {
			return diagnosis{}, err
		}
		return diagnosis{update: &domain.UpdatableApp{
			RepoID:               u.RepoID,
			PackageName:          pkg.PackageName,
			InstalledVersionCode: pkg.VersionCode,
			InstalledVersionName: pkg.VersionName,
			Update:               u,
			Name:                 item.Name,
			Summary:              item.Summary,
			Icon:                 item.Icon,
			IsFromPreferredRepo:  true,
		}}, nil
	}

	item, err := c.apps.GetOverviewItem(ctx, preferredRepo, pkg.PackageName)
	if err != nil || item == nil {
		return diagnosis{}, err
	}
	first := updates[0]
	switch {
	case first.HasKnownVulnerability():
		return issueOf(pkg, item.Name, domain.AppIssue{
			Kind:              domain.IssueKnownVulnerability,
			FromPreferredRepo: first.RepoID == preferredRepo,
		}), nil
	case signersMatch(first.Manifest.SignerFingerprints(), pkg.Signers):
		repoID := first.RepoID
		return issueOf(pkg, item.Name, domain.AppIssue{
			Kind:   domain.IssueUpdateInOtherRepo,
			RepoID: &repoID,
		}), nil
	}

	for _, u := range updates {
		if signersMatch(u.Manifest.SignerFingerprints(), pkg.Signers) {
			repoID := u.RepoID
			return issueOf(pkg, item.Name, domain.AppIssue{
				Kind:   domain.IssueNoCompatibleSigner,
				RepoID: &repoID,
			}), nil
		}
	}

	// Report only when no version of the preferred repository is usable.
	for _, v := range versions {
		if IsOK(v, preferredRepo, pkg.Signers) {
			return diagnosis{}, nil
		}
	}
	var repoID *int64
	for _, v := range versions {
		if IsOK(v, v.RepoID, pkg.Signers) {
			id := v.RepoID
			repoID = &id
			break
		}
	}
	if repoID == nil && !pkg.InstalledByUs {
		// Installed by another store with its own signer.
		return diagnosis{}, nil
	}
	return issueOf(pkg, item.Name, domain.AppIssue{
		Kind:   domain.IssueNoCompatibleSigner,
		RepoID: repoID,
	}), nil
}

func issueOf(pkg domain.InstalledPackage, name string, issue domain.AppIssue) diagnosis {
	return diagnosis{issue: &domain.AppWithIssue{
		PackageName:          pkg.PackageName,
		Name:                 name,
		InstalledVersionCode: pkg.VersionCode,
		InstalledVersionName: pkg.VersionName,
		Issue:                issue,
	}}
}

// SuggestedVersion returns the version to offer for installing a package
// from its default repository, or nil.
func (c *AppChecker) SuggestedVersion(ctx context.Context, packageName string) (*domain.Version, error) {
	app, err := c.apps.FindApp(ctx, packageName)
	if err != nil || app == nil {
		return nil, err
	}
	all, err := c.versions.AppVersions(ctx, packageName)
	if err != nil {
		return nil, err
	}
	versions := make([]domain.Version, 0, len(all))
	for _, v := range all {
		if v.RepoID == app.RepoID {
			versions = append(versions, v)
		}
	}
	prefs, err := c.prefs.GetAppPrefs(ctx, packageName)
	if err != nil {
		return nil, err
	}

	signer := app.PreferredSigner
	installed, err := c.installed.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading installed packages: %w", err)
	}
	if pkg, ok := installed[packageName]; ok && len(pkg.Signers) > 0 {
		signer = pkg.Signers[0]
	}
	return c.checker.SuggestedVersion(versions, signer, c.releaseChannels, prefs), nil
}
