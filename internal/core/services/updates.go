package services

import (
	"sort"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// UpdateChecker picks update candidates from a package's versions.
// It holds no state and is safe for concurrent use.
type UpdateChecker struct{}

// NewUpdateChecker creates a new update checker.
func NewUpdateChecker() *UpdateChecker {
	return &UpdateChecker{}
}

// Updates returns the acceptable updates of one package, best first.
// versions may span repositories and need not be sorted.
func (c *UpdateChecker) Updates(versions []domain.Version, query domain.UpdateQuery) []domain.Version {
	sorted := sortVersions(versions)

	var out []domain.Version
	for _, v := range sorted {
		code := v.VersionCode()
		if query.IncludeKnownVulnerabilities && code == query.InstalledVersionCode && v.HasKnownVulnerability() {
			out = append(out, v)
		}
		if code <= query.InstalledVersionCode {
			break
		}
		if v.Manifest.Signer != nil && v.Manifest.Signer.HasMultipleSigners {
			continue
		}
		if !v.IsCompatible && !query.IncludeIncompatible {
			continue
		}
		if !query.IgnorePreferences && query.Prefs != nil && query.Prefs.ShouldIgnoreUpdate(code) {
			continue
		}
		if !releaseChannelAllowed(v, query) {
			continue
		}
		if !signersMatch(v.Manifest.SignerFingerprints(), query.AllowedSigners) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Update returns the best acceptable update or nil.
func (c *UpdateChecker) Update(versions []domain.Version, query domain.UpdateQuery) *domain.Version {
	updates := c.Updates(versions, query)
	if len(updates) == 0 {
		return nil
	}
	return &updates[0]
}

// SuggestedVersion returns the version to offer for installing a package.
// An empty preferredSigner accepts every signer. Ignored version codes are
// never suggested.
func (c *UpdateChecker) SuggestedVersion(
	versions []domain.Version,
	preferredSigner string,
	releaseChannels []string,
	prefs *domain.AppPrefs,
) *domain.Version {
	var signers []string
	if preferredSigner != "" {
		signers = []string{preferredSigner}
	}
	return c.Update(versions, domain.UpdateQuery{
		AllowedSigners:         signers,
		AllowedReleaseChannels: releaseChannels,
		Prefs:                  prefs,
	})
}

// IsOK reports whether an update can be applied without user attention:
// it comes from the preferred repository, is not known vulnerable and its
// signer matches the installed one.
func IsOK(v domain.Version, preferredRepoID int64, installedSigners []string) bool {
	return v.RepoID == preferredRepoID &&
		!v.HasKnownVulnerability() &&
		signersMatch(v.Manifest.SignerFingerprints(), installedSigners)
}

// sortVersions orders by version code and repository weight, both
// descending, then by version id for determinism.
func sortVersions(versions []domain.Version) []domain.Version {
	sorted := make([]domain.Version, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		if a.VersionCode() != b.VersionCode() {
			return a.VersionCode() > b.VersionCode()
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.VersionID < b.VersionID
	})
	return sorted
}

// releaseChannelAllowed passes versions without channels (stable) and
// versions sharing a channel with the global or per-package allow list.
func releaseChannelAllowed(v domain.Version, query domain.UpdateQuery) bool {
	if len(v.ReleaseChannels) == 0 {
		return true
	}
	allowed := query.AllowedReleaseChannels
	if query.Prefs != nil {
		allowed = append(append([]string(nil), allowed...), query.Prefs.ReleaseChannels...)
	}
	return intersects(v.ReleaseChannels, allowed)
}

// signersMatch passes when either side declares no signer set.
func signersMatch(versionSigners, allowed []string) bool {
	if versionSigners == nil || allowed == nil {
		return true
	}
	return intersects(versionSigners, allowed)
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	for _, s := range a {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
