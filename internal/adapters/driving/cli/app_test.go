package cli

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

const chess = "org.example.chess"

func TestAppCmd_Subcommands(t *testing.T) {
	names := make([]string, 0, len(appCmd.Commands()))
	for _, c := range appCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"show", "list", "installed", "versions", "categories", "count",
		"prefer", "ignore", "channel"}, names)
}

func TestAppListCmd_HasSortFlag(t *testing.T) {
	flag := appListCmd.Flags().Lookup("sort")
	require.NotNil(t, flag, "sort flag should exist")
	assert.Equal(t, "name", flag.DefValue)
}

func TestAppCmd_NotConfigured(t *testing.T) {
	_, err := execute(t, "", "app", "show", chess)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog service not configured")
}

func TestAppShowCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	id := applyTestIndex(t, env)

	out, err := execute(t, "", "app", "show", chess)

	require.NoError(t, err)
	assert.Contains(t, out, "Chess")
	assert.Contains(t, out, "Package: org.example.chess")
	assert.Contains(t, out, fmt.Sprintf("Repository: %d", id))
	assert.Contains(t, out, "Summary: Play chess")
	assert.Contains(t, out, "Categories: Games")
}

func TestAppShowCmd_InRepoAndJSON(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	id := applyTestIndex(t, env)

	out, err := execute(t, "", "app", "show", "--repo", fmt.Sprint(id), "--json", chess)

	require.NoError(t, err)
	assert.Contains(t, out, `"lastUpdated": 6`)

	_, err = execute(t, "", "app", "show", "--repo", fmt.Sprint(id+1), chess)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAppShowCmd_NotFound(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "", "app", "show", "org.missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAppListCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	applyTestIndex(t, env)

	out, err := execute(t, "", "app", "list", "--category", "Games")
	require.NoError(t, err)
	assert.Contains(t, out, "Chess (org.example.chess)")
	assert.Contains(t, out, "Play chess")

	out, err = execute(t, "", "app", "list", "--category", "Office")
	require.NoError(t, err)
	assert.Contains(t, out, "No apps found.")

	_, err = execute(t, "", "app", "list", "--sort", "size")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAppInstalledCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	applyTestIndex(t, env)
	writeFile(t, env.dir, "installed.yaml", `packages:
  - package: org.example.chess
    versionCode: 1
    versionName: "1.0"
    signers: [s1]
`)

	out, err := execute(t, "", "app", "installed")

	require.NoError(t, err)
	assert.Contains(t, out, "Chess (org.example.chess)")
	assert.Contains(t, out, "Installed: 1.0 (1)")
}

func TestAppVersionsCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	id := applyTestIndex(t, env)

	out, err := execute(t, "", "app", "versions", chess)

	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("2.0 (2) [repo %d]", id))
	assert.Contains(t, out, fmt.Sprintf("1.0 (1) [repo %d]", id))
}

func TestAppCategoriesAndCountCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	id := applyTestIndex(t, env)

	out, err := execute(t, "", "app", "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Games (1)")

	out, err = execute(t, "", "app", "count", "--category", "Games")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = execute(t, "", "app", "count", "--repo", fmt.Sprint(id))
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, err = execute(t, "", "app", "count")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "", "app", "count", "--category", "Games", "--repo", fmt.Sprint(id))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAppPreferCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	id := applyTestIndex(t, env)
	ctx := context.Background()

	out, err := execute(t, "", "app", "prefer", chess, fmt.Sprint(id))
	require.NoError(t, err)
	assert.Contains(t, out, "Pinned")
	prefs, err := catalogService.AppPrefs(ctx, chess)
	require.NoError(t, err)
	require.NotNil(t, prefs.PreferredRepoID)
	assert.Equal(t, id, *prefs.PreferredRepoID)

	_, err = execute(t, "", "app", "prefer", "--unpin", chess)
	require.NoError(t, err)
	prefs, err = catalogService.AppPrefs(ctx, chess)
	require.NoError(t, err)
	assert.Nil(t, prefs.PreferredRepoID)

	_, err = execute(t, "", "app", "prefer", chess)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAppIgnoreCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	applyTestIndex(t, env)
	ctx := context.Background()

	_, err := execute(t, "", "app", "ignore", chess, "5")
	require.NoError(t, err)
	prefs, err := catalogService.AppPrefs(ctx, chess)
	require.NoError(t, err)
	assert.Equal(t, int64(5), prefs.IgnoreVersionCodeUpdate)

	out, err := execute(t, "", "app", "ignore", chess, "all")
	require.NoError(t, err)
	assert.Contains(t, out, "Ignoring all updates")

	out, err = execute(t, "", "app", "ignore", chess, "all")
	require.NoError(t, err)
	assert.Contains(t, out, "No longer ignoring")

	_, err = execute(t, "", "app", "ignore", chess, "soon")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAppChannelCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	applyTestIndex(t, env)

	out, err := execute(t, "", "app", "channel", chess, domain.ReleaseChannelBeta)
	require.NoError(t, err)
	assert.Contains(t, out, "org.example.chess follows Beta")

	out, err = execute(t, "", "app", "channel", chess, domain.ReleaseChannelBeta)
	require.NoError(t, err)
	assert.Contains(t, out, "follows the default channels")
}
