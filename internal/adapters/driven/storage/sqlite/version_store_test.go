package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

func TestVersionStore_InsertAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	versions := store.VersionStore()

	repoID := createTestRepo(t, store, "https://a.example/repo", 1, true)
	createTestApp(t, store, repoID, "org.example", "Example", 1)

	maxSdk := 22
	v := &domain.Version{
		RepoID: repoID, PackageName: "org.example", VersionID: "abc",
		Added: 5,
		File:  domain.PackageFile{Name: "/org.example_3.apk", SHA256: testSHA},
		Src:   &domain.File{Name: "/src.tar.gz"},
		Manifest: domain.Manifest{
			VersionName: "1.2",
			VersionCode: 3,
			UsesSdk:     &domain.UsesSdk{MinSdkVersion: 21, TargetSdkVersion: 33},
			Signer:      &domain.Signer{Sha256: []string{"s1"}},
			UsesPermission: []domain.Permission{
				{Name: "android.permission.INTERNET"},
				{Name: "android.permission.READ_PHONE_STATE", MaxSdkVersion: &maxSdk},
			},
			UsesPermissionSdk23: []domain.Permission{{Name: "android.permission.CAMERA"}},
			Nativecode:          []string{"arm64-v8a"},
		},
		ReleaseChannels: []string{"Beta"},
		AntiFeatures:    map[string]domain.LocalizedText{"KnownVuln": {"en-US": "CVE"}},
		WhatsNew:        domain.LocalizedText{"en-US": "fixes"},
		IsCompatible:    true,
	}
	require.NoError(t, versions.InsertVersion(ctx, v))

	got, err := versions.GetVersion(ctx, repoID, "org.example", "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.VersionCode())
	assert.Equal(t, v.Manifest, got.Manifest)
	assert.Equal(t, "/src.tar.gz", got.Src.Name)
	assert.Equal(t, []string{"Beta"}, got.ReleaseChannels)
	assert.True(t, got.HasKnownVulnerability())
	assert.True(t, got.IsCompatible)

	perms, err := versions.Permissions(ctx, repoID, "org.example", "abc")
	require.NoError(t, err)
	require.Len(t, perms, 3)
	assert.Equal(t, domain.PermissionTypeDefault, perms[0].Type)
	assert.Equal(t, "android.permission.INTERNET", perms[0].Name)
	assert.Equal(t, 22, *perms[1].MaxSdkVersion)
	assert.Equal(t, domain.PermissionTypeSDK23, perms[2].Type)

	require.NoError(t, versions.DeletePermissions(ctx, repoID, "org.example", "abc", domain.PermissionTypeSDK23))
	perms, err = versions.Permissions(ctx, repoID, "org.example", "abc")
	require.NoError(t, err)
	assert.Len(t, perms, 2)

	require.NoError(t, versions.DeletePermissions(ctx, repoID, "org.example", "abc", ""))
	perms, err = versions.Permissions(ctx, repoID, "org.example", "abc")
	require.NoError(t, err)
	assert.Empty(t, perms)

	missing, err := versions.GetVersion(ctx, repoID, "org.example", "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestVersionStore_RequiresApp(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	repoID := createTestRepo(t, store, "https://a.example/repo", 1, true)
	err := store.VersionStore().InsertVersion(context.Background(), &domain.Version{
		RepoID: repoID, PackageName: "org.orphan", VersionID: "v1",
		File: domain.PackageFile{Name: "/x.apk", SHA256: testSHA},
	})
	assert.Error(t, err)
}

func TestVersionStore_UpdateAndDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	versions := store.VersionStore()

	repoID := createTestRepo(t, store, "https://a.example/repo", 1, true)
	createTestApp(t, store, repoID, "org.example", "Example", 1)
	createTestVersion(t, store, repoID, "org.example", "v1", 1, "s")
	createTestVersion(t, store, repoID, "org.example", "v2", 2, "s")

	v, err := versions.GetVersion(ctx, repoID, "org.example", "v1")
	require.NoError(t, err)
	v.Manifest.VersionCode = 5
	v.IsCompatible = false
	require.NoError(t, versions.UpdateVersion(ctx, v))

	list, err := versions.RepoVersions(ctx, repoID, "org.example")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "v1", list[0].VersionID, "ordered by version code descending")
	assert.False(t, list[0].IsCompatible)

	require.NoError(t, versions.DeleteVersion(ctx, repoID, "org.example", "v1"))
	list, err = versions.RepoVersions(ctx, repoID, "org.example")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, versions.DeleteVersions(ctx, repoID, "org.example"))
	n, err := versions.CountVersions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVersionStore_AppVersionsOrdering(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	versions := store.VersionStore()

	low := createTestRepo(t, store, "https://low.example/repo", 1, true)
	high := createTestRepo(t, store, "https://high.example/repo", 2, true)
	off := createTestRepo(t, store, "https://off.example/repo", 3, false)
	for _, id := range []int64{low, high, off} {
		createTestApp(t, store, id, "org.example", "Example", 1)
	}

	insert := func(repoID int64, id string, code int64, abi ...string) {
		require.NoError(t, versions.InsertVersion(ctx, &domain.Version{
			RepoID: repoID, PackageName: "org.example", VersionID: id,
			File:     domain.PackageFile{Name: "/" + id + ".apk", SHA256: testSHA},
			Manifest: domain.Manifest{VersionCode: code, Nativecode: abi},
		}))
	}
	insert(low, "low-2", 2)
	insert(high, "high-1", 1)
	insert(high, "high-2-x86", 2, "x86")
	insert(high, "high-2-arm", 2, "arm64-v8a")
	insert(off, "off-9", 9)

	list, err := versions.AppVersions(ctx, "org.example")
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, v := range list {
		ids = append(ids, v.VersionID)
	}
	assert.Equal(t, []string{"high-2-arm", "high-2-x86", "low-2", "high-1"}, ids)
	assert.Equal(t, int64(2), list[0].Weight)

	candidates, err := versions.UpdateCandidates(ctx, []string{"org.example", "org.other"})
	require.NoError(t, err)
	assert.Len(t, candidates, 4, "disabled repositories are excluded")
}
