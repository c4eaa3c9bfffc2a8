package domain

import "strings"

// Attribute kinds a repository declares.
const (
	AttributeAntiFeature    AttributeKind = "antiFeatures"
	AttributeCategory       AttributeKind = "categories"
	AttributeReleaseChannel AttributeKind = "releaseChannels"
)

// BaseWeight is the weight of the first repository and the top of a
// migrated weight sequence.
const BaseWeight int64 = 1_000_000_000

// AttributeKind identifies one of the localized attribute tables of a repository.
type AttributeKind string

// Repository is the core row of a subscribed repository.
// The JSON form is the shape a repository diff is applied against.
type Repository struct {
	// ID is stable for the life of the repository row.
	ID int64 `json:"-"`

	// Name is the localized display name.
	Name LocalizedText `json:"name,omitempty"`

	// Icon is the localized repository icon.
	Icon LocalizedFile `json:"icon,omitempty" validate:"omitempty,dive"`

	// Address is the canonical repository URL.
	Address string `json:"address" validate:"required"`

	// WebBaseURL links to the repository's web front-end, if any.
	WebBaseURL string `json:"webBaseUrl,omitempty"`

	// Description is the localized repository description.
	Description LocalizedText `json:"description,omitempty"`

	// Timestamp of the last successfully applied index, -1 if never updated.
	Timestamp int64 `json:"timestamp"`

	// MaxAge in days after which the index is considered stale.
	MaxAge *int `json:"maxAge,omitempty"`

	// Version is the entry version of the last applied index.
	Version *int64 `json:"-"`

	// FormatVersion of the last applied index (e.g. "2").
	FormatVersion string `json:"-"`

	// Certificate is the hex signing certificate fingerprint.
	Certificate string `json:"-"`
}

// IsArchive reports whether this repository hosts archived artifacts of a main repository.
func (r *Repository) IsArchive() bool {
	return IsArchiveAddress(r.Address)
}

// IsArchiveAddress reports whether address points at an archive repository.
// Trailing slashes and letter case are ignored.
func IsArchiveAddress(address string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimRight(address, "/")), "/archive")
}

// Mirror is an alternative address for a repository.
type Mirror struct {
	RepoID      int64  `json:"-"`
	URL         string `json:"url" validate:"required"`
	CountryCode string `json:"countryCode,omitempty"`
}

// RepoAttribute is a localized anti-feature, category or release channel
// declared by a repository and keyed by ID.
type RepoAttribute struct {
	RepoID      int64         `json:"-"`
	Kind        AttributeKind `json:"-"`
	ID          string        `json:"-"`
	Icon        LocalizedFile `json:"icon,omitempty" validate:"omitempty,dive"`
	Name        LocalizedText `json:"name,omitempty"`
	Description LocalizedText `json:"description,omitempty"`
}

// RepositoryPreferences hold per-repository user state.
// Every repository has exactly one preferences row and it survives index clears.
type RepositoryPreferences struct {
	RepoID int64

	// Weight orders repositories. Higher wins. Unique across all repositories.
	Weight int64

	// Enabled repositories take part in default-view queries.
	Enabled bool

	// LastUpdated is when an index was last applied (unix millis).
	LastUpdated *int64

	// LastETag is the transport cache tag of the last fetched index.
	LastETag string

	UserMirrors     []string
	DisabledMirrors []string
	Username        string
	Password        string
}

// RepositoryDetail is a repository together with its attribute tables and preferences.
type RepositoryDetail struct {
	Repository
	Mirrors         []Mirror
	AntiFeatures    []RepoAttribute
	Categories      []RepoAttribute
	ReleaseChannels []RepoAttribute
	Preferences     RepositoryPreferences
}

// AllMirrors returns official and user mirrors with disabled ones removed.
func (r *RepositoryDetail) AllMirrors() []string {
	disabled := make(map[string]struct{}, len(r.Preferences.DisabledMirrors))
	for _, m := range r.Preferences.DisabledMirrors {
		disabled[m] = struct{}{}
	}
	var out []string //nolint:prealloc // filtered
	for _, m := range r.Mirrors {
		if _, ok := disabled[m.URL]; !ok {
			out = append(out, m.URL)
		}
	}
	for _, m := range r.Preferences.UserMirrors {
		if _, ok := disabled[m]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// InitialRepository seeds a repository with a fixed weight, e.g. from a defaults file.
type InitialRepository struct {
	Name        string `yaml:"name"`
	Address     string `yaml:"address"`
	Description string `yaml:"description"`
	Certificate string `yaml:"certificate"`
	Version     int64  `yaml:"version"`
	Enabled     bool   `yaml:"enabled"`
	Weight      int64  `yaml:"weight"`
}

// NewRepository describes a repository added by the user.
type NewRepository struct {
	Address     string
	Name        string
	Certificate string
	Username    string
	Password    string
}
