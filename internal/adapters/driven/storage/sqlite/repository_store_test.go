package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

func TestRepositoryStore_InsertAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repos := store.RepositoryStore()

	version := int64(20001)
	maxAge := 14
	lastUpdated := int64(1700000000000)
	id, err := repos.InsertRepository(ctx, &domain.Repository{
		Name:          domain.LocalizedText{"en-US": "Main"},
		Icon:          domain.LocalizedFile{"en-US": {Name: "/icon.png", SHA256: testSHA}},
		Address:       "https://example.org/repo",
		WebBaseURL:    "https://example.org",
		Description:   domain.LocalizedText{"en-US": "The main repo"},
		Timestamp:     42,
		MaxAge:        &maxAge,
		Version:       &version,
		FormatVersion: "2.0",
		Certificate:   "cafe",
	}, domain.RepositoryPreferences{
		Weight:          100,
		Enabled:         true,
		LastUpdated:     &lastUpdated,
		UserMirrors:     []string{"https://mirror.example/repo"},
		DisabledMirrors: []string{"https://down.example/repo"},
		Username:        "user",
		Password:        "pass",
	})
	require.NoError(t, err)

	got, err := repos.GetRepository(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Main", got.Name["en-US"])
	assert.Equal(t, "/icon.png", got.Icon["en-US"].Name)
	assert.Equal(t, "https://example.org/repo", got.Address)
	assert.Equal(t, int64(42), got.Timestamp)
	require.NotNil(t, got.Version)
	assert.Equal(t, version, *got.Version)
	require.NotNil(t, got.MaxAge)
	assert.Equal(t, 14, *got.MaxAge)
	assert.Equal(t, "2.0", got.FormatVersion)
	assert.Equal(t, "cafe", got.Certificate)

	assert.Equal(t, id, got.Preferences.RepoID)
	assert.Equal(t, int64(100), got.Preferences.Weight)
	assert.True(t, got.Preferences.Enabled)
	require.NotNil(t, got.Preferences.LastUpdated)
	assert.Equal(t, lastUpdated, *got.Preferences.LastUpdated)
	assert.Equal(t, []string{"https://mirror.example/repo"}, got.Preferences.UserMirrors)
	assert.Equal(t, []string{"https://down.example/repo"}, got.Preferences.DisabledMirrors)
	assert.Equal(t, "user", got.Preferences.Username)
	assert.Equal(t, "pass", got.Preferences.Password)
}

func TestRepositoryStore_Get_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.RepositoryStore().GetRepository(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)

	prefs, err := store.RepositoryStore().GetPreferences(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, prefs)
}

func TestRepositoryStore_ListOrderedByWeight(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	low := createTestRepo(t, store, "https://low.example/repo", 1, true)
	high := createTestRepo(t, store, "https://high.example/repo", 3, true)
	mid := createTestRepo(t, store, "https://mid.example/repo", 2, false)

	list, err := store.RepositoryStore().ListRepositories(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{high, mid, low}, []int64{list[0].ID, list[1].ID, list[2].ID})
}

func TestRepositoryStore_UpdateRepository(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repos := store.RepositoryStore()

	id := createTestRepo(t, store, "https://example.org/repo", 1, true)
	got, err := repos.GetRepository(ctx, id)
	require.NoError(t, err)

	got.Timestamp = 99
	got.Name = domain.LocalizedText{"de": "Haupt"}
	require.NoError(t, repos.UpdateRepository(ctx, &got.Repository))

	got, err = repos.GetRepository(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.Timestamp)
	assert.Equal(t, domain.LocalizedText{"de": "Haupt"}, got.Name)

	err = repos.UpdateRepository(ctx, &domain.Repository{ID: 999, Address: "x"})
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}

func TestRepositoryStore_WeightBounds(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, _, ok, err := store.RepositoryStore().WeightBounds(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	createTestRepo(t, store, "https://a.example/repo", 5, true)
	createTestRepo(t, store, "https://b.example/repo", -3, false)

	minW, maxW, ok, err := store.RepositoryStore().WeightBounds(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(-3), minW)
	assert.Equal(t, int64(5), maxW)
}

func TestRepositoryStore_MirrorsAndAttributes(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repos := store.RepositoryStore()

	id := createTestRepo(t, store, "https://example.org/repo", 1, true)

	require.NoError(t, repos.InsertMirrors(ctx, []domain.Mirror{
		{RepoID: id, URL: "https://m1.example/repo", CountryCode: "DE"},
		{RepoID: id, URL: "https://m2.example/repo"},
	}))
	require.NoError(t, repos.UpsertAttributes(ctx, []domain.RepoAttribute{
		{RepoID: id, Kind: domain.AttributeCategory, ID: "Games", Name: domain.LocalizedText{"en-US": "Games"}},
		{RepoID: id, Kind: domain.AttributeCategory, ID: "Internet"},
		{RepoID: id, Kind: domain.AttributeAntiFeature, ID: "Ads"},
	}))

	got, err := repos.GetRepository(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Mirrors, 2)
	assert.Equal(t, "DE", got.Mirrors[0].CountryCode)
	require.Len(t, got.Categories, 2)
	assert.Equal(t, "Games", got.Categories[0].ID)
	assert.Equal(t, "Games", got.Categories[0].Name["en-US"])
	require.Len(t, got.AntiFeatures, 1)
	assert.Empty(t, got.ReleaseChannels)

	// Upsert replaces in place.
	require.NoError(t, repos.UpsertAttributes(ctx, []domain.RepoAttribute{
		{RepoID: id, Kind: domain.AttributeCategory, ID: "Games", Name: domain.LocalizedText{"en-US": "Fun"}},
	}))
	require.NoError(t, repos.DeleteAttribute(ctx, id, domain.AttributeCategory, "Internet"))
	cats, err := repos.Attributes(ctx, id, domain.AttributeCategory)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Fun", cats[0].Name["en-US"])

	require.NoError(t, repos.DeleteAttributes(ctx, id, domain.AttributeAntiFeature))
	require.NoError(t, repos.DeleteMirrors(ctx, id))
	got, err = repos.GetRepository(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got.Mirrors)
	assert.Empty(t, got.AntiFeatures)
}

func TestRepositoryStore_UnknownRepository(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repos := store.RepositoryStore()

	err := repos.InsertMirrors(ctx, []domain.Mirror{{RepoID: 42, URL: "https://m.example"}})
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)

	err = repos.UpsertAttributes(ctx, []domain.RepoAttribute{{RepoID: 42, Kind: domain.AttributeCategory, ID: "x"}})
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)

	assert.ErrorIs(t, repos.SetEnabled(ctx, 42, false), domain.ErrRepositoryNotFound)
	assert.ErrorIs(t, repos.SetWeights(ctx, map[int64]int64{42: 1}), domain.ErrRepositoryNotFound)

	err = store.AppStore().InsertApp(ctx, &domain.App{AppMetadata: domain.AppMetadata{RepoID: 42, PackageName: "a"}})
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}

func TestRepositoryStore_PreferencesUpdates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repos := store.RepositoryStore()

	a := createTestRepo(t, store, "https://a.example/repo", 1, true)
	b := createTestRepo(t, store, "https://b.example/repo", 2, true)

	require.NoError(t, repos.SetEnabled(ctx, a, false))
	require.NoError(t, repos.SetWeights(ctx, map[int64]int64{a: 20, b: 10}))
	require.NoError(t, repos.SetLastUpdated(ctx, a, 123))
	require.NoError(t, repos.UpdateUserMirrors(ctx, a, []string{"https://u.example"}))
	require.NoError(t, repos.UpdateDisabledMirrors(ctx, a, []string{"https://d.example"}))
	require.NoError(t, repos.UpdateCredentials(ctx, a, "me", "secret"))

	prefs, err := repos.GetPreferences(ctx, a)
	require.NoError(t, err)
	assert.False(t, prefs.Enabled)
	assert.Equal(t, int64(20), prefs.Weight)
	assert.Equal(t, int64(123), *prefs.LastUpdated)
	assert.Equal(t, []string{"https://u.example"}, prefs.UserMirrors)
	assert.Equal(t, []string{"https://d.example"}, prefs.DisabledMirrors)
	assert.Equal(t, "me", prefs.Username)
	assert.Equal(t, "secret", prefs.Password)

	require.NoError(t, repos.UpdateUserMirrors(ctx, a, nil))
	prefs, err = repos.GetPreferences(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, prefs.UserMirrors)
}

func TestRepositoryStore_DeleteCascades(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	id := createTestRepo(t, store, "https://a.example/repo", 1, true)
	createTestApp(t, store, id, "org.example", "Example", 1)
	createTestVersion(t, store, id, "org.example", "v1", 1, "signer")
	require.NoError(t, store.RepositoryStore().InsertMirrors(ctx, []domain.Mirror{{RepoID: id, URL: "https://m"}}))

	require.NoError(t, store.RepositoryStore().DeleteRepository(ctx, id))

	n, err := store.AppStore().CountApps(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = store.VersionStore().CountVersions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	var rows int
	require.NoError(t, store.db.Get(&rows, "SELECT COUNT(*) FROM repository_preferences"))
	assert.Zero(t, rows)
	require.NoError(t, store.db.Get(&rows, "SELECT COUNT(*) FROM app_fts"))
	assert.Zero(t, rows)
}

func TestRepositoryStore_ClearKeepsPreferences(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repos := store.RepositoryStore()

	id := createTestRepo(t, store, "https://a.example/repo", 7, false)
	createTestApp(t, store, id, "org.example", "Example", 1)
	createTestVersion(t, store, id, "org.example", "v1", 1, "signer")
	require.NoError(t, repos.UpsertAttributes(ctx, []domain.RepoAttribute{{RepoID: id, Kind: domain.AttributeCategory, ID: "x"}}))

	require.NoError(t, repos.ClearRepository(ctx, id))

	got, err := repos.GetRepository(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Categories)
	assert.Equal(t, int64(7), got.Preferences.Weight)
	assert.False(t, got.Preferences.Enabled)

	n, err := store.AppStore().CountAppsInRepository(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepositoryStore_ResetTimestamps(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repos := store.RepositoryStore()

	id := createTestRepo(t, store, "https://a.example/repo", 1, true)
	got, err := repos.GetRepository(ctx, id)
	require.NoError(t, err)
	got.Timestamp = 500
	require.NoError(t, repos.UpdateRepository(ctx, &got.Repository))

	require.NoError(t, repos.ResetTimestamps(ctx))

	got, err = repos.GetRepository(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), got.Timestamp)
}

func TestRepositoryStore_EnabledCategories(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repos := store.RepositoryStore()

	low := createTestRepo(t, store, "https://low.example/repo", 1, true)
	high := createTestRepo(t, store, "https://high.example/repo", 2, true)
	off := createTestRepo(t, store, "https://off.example/repo", 3, false)

	require.NoError(t, repos.UpsertAttributes(ctx, []domain.RepoAttribute{
		{RepoID: low, Kind: domain.AttributeCategory, ID: "Games", Name: domain.LocalizedText{"en-US": "low"}},
		{RepoID: low, Kind: domain.AttributeCategory, ID: "Science"},
		{RepoID: high, Kind: domain.AttributeCategory, ID: "Games", Name: domain.LocalizedText{"en-US": "high"}},
		{RepoID: off, Kind: domain.AttributeCategory, ID: "Games", Name: domain.LocalizedText{"en-US": "off"}},
		{RepoID: off, Kind: domain.AttributeCategory, ID: "Hidden"},
		{RepoID: high, Kind: domain.AttributeAntiFeature, ID: "Ads"},
	}))

	cats, err := repos.EnabledCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Games", cats[0].ID)
	assert.Equal(t, high, cats[0].RepoID)
	assert.Equal(t, "high", cats[0].Name["en-US"])
	assert.Equal(t, "Science", cats[1].ID)
}
