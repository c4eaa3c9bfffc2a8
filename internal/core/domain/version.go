package domain

import "sort"

// AntiFeatureKnownVulnerability marks a version with a known security issue.
const AntiFeatureKnownVulnerability = "KnownVuln"

// ReleaseChannelBeta is the most common non-stable release channel.
const ReleaseChannelBeta = "Beta"

// Permission kinds stored for a version.
const (
	PermissionTypeDefault = "PERMISSION"
	PermissionTypeSDK23   = "PERMISSION_SDK_23"
)

// PackageFile is the installable artifact of a version. Unlike File, its
// checksum is mandatory.
type PackageFile struct {
	Name   string `json:"name" validate:"required,startswith=/"`
	SHA256 string `json:"sha256" validate:"required,len=64,hexadecimal"`
	Size   *int64 `json:"size,omitempty" validate:"omitempty,gte=0"`
}

// UsesSdk holds the SDK range of a manifest.
type UsesSdk struct {
	MinSdkVersion    int `json:"minSdkVersion"`
	TargetSdkVersion int `json:"targetSdkVersion"`
}

// Signer holds the signing certificate fingerprints of a version.
type Signer struct {
	Sha256             []string `json:"sha256"`
	HasMultipleSigners bool     `json:"hasMultipleSigners,omitempty"`
}

// Permission is a declared permission with an optional SDK ceiling.
type Permission struct {
	Name          string `json:"name" validate:"required"`
	MaxSdkVersion *int   `json:"maxSdkVersion,omitempty"`
}

// Feature is a declared hardware or software feature.
type Feature struct {
	Name string `json:"name" validate:"required"`
}

// Manifest is the installable metadata of a version the device checker evaluates.
type Manifest struct {
	VersionName         string       `json:"versionName"`
	VersionCode         int64        `json:"versionCode"`
	UsesSdk             *UsesSdk     `json:"usesSdk,omitempty"`
	MaxSdkVersion       *int         `json:"maxSdkVersion,omitempty"`
	Signer              *Signer      `json:"signer,omitempty"`
	UsesPermission      []Permission `json:"usesPermission,omitempty" validate:"omitempty,dive"`
	UsesPermissionSdk23 []Permission `json:"usesPermissionSdk23,omitempty" validate:"omitempty,dive"`
	Nativecode          []string     `json:"nativecode,omitempty"`
	Features            []Feature    `json:"features,omitempty" validate:"omitempty,dive"`
}

// MinSdkVersion returns the declared minimum SDK or 0.
func (m *Manifest) MinSdkVersion() int {
	if m.UsesSdk == nil {
		return 0
	}
	return m.UsesSdk.MinSdkVersion
}

// SignerFingerprints returns the declared signer set or nil.
func (m *Manifest) SignerFingerprints() []string {
	if m.Signer == nil {
		return nil
	}
	return m.Signer.Sha256
}

// Version is one installable artifact of a package in one repository.
type Version struct {
	RepoID      int64  `json:"-"`
	PackageName string `json:"-"`

	// VersionID is a content hash of the artifact. Never changed by a diff.
	VersionID string `json:"-"`

	Added           int64                    `json:"added"`
	File            PackageFile              `json:"file"`
	Src             *File                    `json:"src,omitempty" validate:"omitempty"`
	Manifest        Manifest                 `json:"manifest"`
	ReleaseChannels []string                 `json:"releaseChannels,omitempty"`
	AntiFeatures    map[string]LocalizedText `json:"antiFeatures,omitempty"`
	WhatsNew        LocalizedText            `json:"whatsNew,omitempty"`

	// IsCompatible is derived from the device checker on every write.
	IsCompatible bool `json:"-"`

	// Weight of the owning repository, filled by read queries that join preferences.
	Weight int64 `json:"-"`
}

// VersionCode is a shortcut for Manifest.VersionCode.
func (v *Version) VersionCode() int64 {
	return v.Manifest.VersionCode
}

// HasKnownVulnerability reports whether the version carries the KnownVuln anti-feature.
func (v *Version) HasKnownVulnerability() bool {
	_, ok := v.AntiFeatures[AntiFeatureKnownVulnerability]
	return ok
}

// AntiFeatureKeys returns the declared anti-feature ids in sorted order.
func (v *Version) AntiFeatureKeys() []string {
	keys := make([]string, 0, len(v.AntiFeatures))
	for k := range v.AntiFeatures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VersionedString is one stored permission row of a version.
type VersionedString struct {
	RepoID        int64
	PackageName   string
	VersionID     string
	Type          string
	Name          string
	MaxSdkVersion *int
}

// Permissions flattens the manifest permissions into rows.
func (v *Version) Permissions() []VersionedString {
	out := make([]VersionedString, 0, len(v.Manifest.UsesPermission)+len(v.Manifest.UsesPermissionSdk23))
	for _, set := range []struct {
		kind  string
		perms []Permission
	}{
		{PermissionTypeDefault, v.Manifest.UsesPermission},
		{PermissionTypeSDK23, v.Manifest.UsesPermissionSdk23},
	} {
		for _, p := range set.perms {
			out = append(out, VersionedString{
				RepoID:        v.RepoID,
				PackageName:   v.PackageName,
				VersionID:     v.VersionID,
				Type:          set.kind,
				Name:          p.Name,
				MaxSdkVersion: p.MaxSdkVersion,
			})
		}
	}
	return out
}
