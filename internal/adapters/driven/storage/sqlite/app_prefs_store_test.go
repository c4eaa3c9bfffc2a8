package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

func TestAppPrefsStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	prefs := store.AppPrefsStore()

	got, err := prefs.GetAppPrefs(ctx, "org.example")
	require.NoError(t, err)
	assert.Nil(t, got)

	repoID := int64(7)
	require.NoError(t, prefs.SaveAppPrefs(ctx, domain.AppPrefs{
		PackageName:             "org.example",
		PreferredRepoID:         &repoID,
		IgnoreVersionCodeUpdate: domain.IgnoreAll,
		ReleaseChannels:         []string{"Beta"},
	}))

	got, err = prefs.GetAppPrefs(ctx, "org.example")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, repoID, *got.PreferredRepoID)
	assert.True(t, got.IgnoresAllUpdates())
	assert.Equal(t, []string{"Beta"}, got.ReleaseChannels)

	require.NoError(t, prefs.SaveAppPrefs(ctx, domain.AppPrefs{PackageName: "org.example"}))
	got, err = prefs.GetAppPrefs(ctx, "org.example")
	require.NoError(t, err)
	assert.Nil(t, got.PreferredRepoID)
	assert.Zero(t, got.IgnoreVersionCodeUpdate)
	assert.Empty(t, got.ReleaseChannels)
}

func TestAppPrefsStore_AppPrefsFor(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	prefs := store.AppPrefsStore()

	require.NoError(t, prefs.SaveAppPrefs(ctx, domain.AppPrefs{PackageName: "a", IgnoreVersionCodeUpdate: 3}))
	require.NoError(t, prefs.SaveAppPrefs(ctx, domain.AppPrefs{PackageName: "b"}))

	got, err := prefs.AppPrefsFor(ctx, []string{"a", "c"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got["a"].IgnoreVersionCodeUpdate)

	empty, err := prefs.AppPrefsFor(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
