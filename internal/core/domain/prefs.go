package domain

import "math"

// IgnoreAll is the ignore threshold that suppresses every update of a package.
const IgnoreAll int64 = math.MaxInt64

// AppPrefs is per-package user state. It survives repository churn; a
// preferred repository that no longer exists is ignored by readers.
type AppPrefs struct {
	PackageName string

	// PreferredRepoID pins the package to one repository, overriding weight.
	PreferredRepoID *int64

	// IgnoreVersionCodeUpdate suppresses updates at or below this version code.
	// Zero means nothing is ignored, IgnoreAll means everything is.
	IgnoreVersionCodeUpdate int64

	// ReleaseChannels are extra channels allowed for this package only.
	ReleaseChannels []string
}

// IgnoresAllUpdates reports whether every update is suppressed.
func (p AppPrefs) IgnoresAllUpdates() bool {
	return p.IgnoreVersionCodeUpdate == IgnoreAll
}

// ShouldIgnoreUpdate reports whether an update to versionCode is suppressed.
func (p AppPrefs) ShouldIgnoreUpdate(versionCode int64) bool {
	return p.IgnoreVersionCodeUpdate >= versionCode
}

// ToggleIgnoreAll flips between ignoring everything and ignoring nothing.
func (p AppPrefs) ToggleIgnoreAll() AppPrefs {
	if p.IgnoresAllUpdates() {
		p.IgnoreVersionCodeUpdate = 0
	} else {
		p.IgnoreVersionCodeUpdate = IgnoreAll
	}
	return p
}

// ToggleReleaseChannel adds channel if absent, or removes it if present.
func (p AppPrefs) ToggleReleaseChannel(channel string) AppPrefs {
	out := make([]string, 0, len(p.ReleaseChannels)+1)
	found := false
	for _, c := range p.ReleaseChannels {
		if c == channel {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, channel)
	}
	p.ReleaseChannels = out
	return p
}
