package domain

// InstalledPackage describes a package installed on the device.
type InstalledPackage struct {
	PackageName string   `yaml:"package"`
	VersionCode int64    `yaml:"versionCode"`
	VersionName string   `yaml:"versionName"`
	Signers     []string `yaml:"signers"`

	// System packages are only reported when an update exists for them.
	System bool `yaml:"system"`

	// InstalledByUs is true when the catalog client performed the install.
	InstalledByUs bool `yaml:"installedByUs"`
}

// UpdateQuery tunes the update candidate algorithm.
type UpdateQuery struct {
	// InstalledVersionCode is the version currently installed, 0 if none.
	InstalledVersionCode int64

	// AllowedSigners are the fingerprints the candidate must match.
	// A nil slice accepts every signer.
	AllowedSigners []string

	// AllowedReleaseChannels are globally allowed channels on top of stable.
	AllowedReleaseChannels []string

	// Prefs holds per-package user preferences.
	Prefs *AppPrefs

	// IncludeKnownVulnerabilities also yields the installed version when it is
	// known vulnerable, so it can be reported.
	IncludeKnownVulnerabilities bool

	// IncludeIncompatible keeps versions the device cannot install.
	IncludeIncompatible bool

	// IgnorePreferences disables the ignore threshold filter.
	IgnorePreferences bool
}

// UpdatableApp is an installed app together with its best update.
type UpdatableApp struct {
	RepoID               int64
	PackageName          string
	InstalledVersionCode int64
	InstalledVersionName string
	Update               Version
	Name                 string
	Summary              string
	Icon                 LocalizedFile

	// IsFromPreferredRepo is false when the update comes from another repository.
	IsFromPreferredRepo bool

	// HasKnownVulnerability is true when Update is the installed, vulnerable version.
	HasKnownVulnerability bool
}

// IssueKind classifies why an installed app cannot be updated normally.
type IssueKind string

// Known issue kinds.
const (
	IssueKnownVulnerability IssueKind = "known_vulnerability"
	IssueUpdateInOtherRepo  IssueKind = "update_in_other_repo"
	IssueNoCompatibleSigner IssueKind = "no_compatible_signer"
	IssueNotAvailable       IssueKind = "not_available"
)

// AppIssue is one diagnosed problem of an installed app.
type AppIssue struct {
	Kind IssueKind

	// FromPreferredRepo applies to IssueKnownVulnerability.
	FromPreferredRepo bool

	// RepoID is the repository offering the update or lacking a compatible signer.
	// Nil for IssueNoCompatibleSigner when no repository has the app.
	RepoID *int64
}

// AppWithIssue pairs an installed app with its issue.
type AppWithIssue struct {
	PackageName          string
	Name                 string
	InstalledVersionCode int64
	InstalledVersionName string
	Issue                AppIssue
}

// AppCheckResult is the outcome of checking all installed apps.
type AppCheckResult struct {
	Updates []UpdatableApp
	Issues  []AppWithIssue
}
