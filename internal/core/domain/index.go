package domain

// Index feed keys.
const (
	IndexKeyRepo     = "repo"
	IndexKeyPackages = "packages"
	IndexKeyMetadata = "metadata"
	IndexKeyVersions = "versions"
)

// IndexAttribute is a localized attribute as it appears in a full index.
type IndexAttribute struct {
	Icon        LocalizedFile `json:"icon,omitempty" validate:"omitempty,dive"`
	Name        LocalizedText `json:"name,omitempty"`
	Description LocalizedText `json:"description,omitempty"`
}

// IndexRepo is the "repo" record of a full index.
type IndexRepo struct {
	Repository

	Mirrors         []Mirror                  `json:"mirrors,omitempty" validate:"omitempty,dive"`
	AntiFeatures    map[string]IndexAttribute `json:"antiFeatures,omitempty" validate:"omitempty,dive"`
	Categories      map[string]IndexAttribute `json:"categories,omitempty" validate:"omitempty,dive"`
	ReleaseChannels map[string]IndexAttribute `json:"releaseChannels,omitempty" validate:"omitempty,dive"`
}

// Attributes converts one attribute map of the index into store rows.
func (r *IndexRepo) Attributes(repoID int64, kind AttributeKind) []RepoAttribute {
	var src map[string]IndexAttribute
	switch kind {
	case AttributeAntiFeature:
		src = r.AntiFeatures
	case AttributeCategory:
		src = r.Categories
	case AttributeReleaseChannel:
		src = r.ReleaseChannels
	}
	out := make([]RepoAttribute, 0, len(src))
	for id, a := range src {
		out = append(out, RepoAttribute{
			RepoID:      repoID,
			Kind:        kind,
			ID:          id,
			Icon:        a.Icon,
			Name:        a.Name,
			Description: a.Description,
		})
	}
	return out
}

// IndexPackage is one entry of the "packages" map of a full index.
type IndexPackage struct {
	Metadata App                `json:"metadata"`
	Versions map[string]Version `json:"versions" validate:"omitempty,dive"`
}
