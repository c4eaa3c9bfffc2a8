package cli

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// applyTestIndex adds a repository and applies testIndex to it.
func applyTestIndex(t *testing.T, env *testEnv) int64 {
	t.Helper()
	id := addRepo(t, "https://example.org/repo")
	path := writeFile(t, env.dir, "index.json", testIndex)
	_, err := execute(t, "", "index", "full", "--version", "7", fmt.Sprint(id), path)
	require.NoError(t, err)
	return id
}

func TestIndexCmd_Use(t *testing.T) {
	assert.Equal(t, "full [repo-id] [file]", indexFullCmd.Use)
	assert.Equal(t, "diff [repo-id] [file]", indexDiffCmd.Use)
}

func TestIndexDiffCmd_HasBaseFlag(t *testing.T) {
	flag := indexDiffCmd.Flags().Lookup("base")
	require.NotNil(t, flag, "base flag should exist")
	assert.Equal(t, "0", flag.DefValue)
}

func TestIndexCmd_NotConfigured(t *testing.T) {
	_, err := execute(t, "", "index", "full", "1", "-")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index service not configured")
}

func TestIndexFullCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()

	id := applyTestIndex(t, env)

	repo, err := repositoryService.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), repo.Timestamp)
	require.NotNil(t, repo.Version)
	assert.Equal(t, int64(7), *repo.Version)
	assert.Equal(t, "2", repo.FormatVersion)

	app, err := catalogService.GetApp(context.Background(), "org.example.chess")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "Chess", app.LocalizedName)
}

func TestIndexFullCmd_Stdin(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()
	id := addRepo(t, "https://example.org/repo")

	out, err := execute(t, testIndex, "index", "full", fmt.Sprint(id), "-")

	require.NoError(t, err)
	assert.Contains(t, out, "Applied full index")
}

func TestIndexFullCmd_MissingFile(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	id := addRepo(t, "https://example.org/repo")

	_, err := execute(t, "", "index", "full", fmt.Sprint(id), env.dir+"/missing.json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open index")
}

func TestIndexDiffCmd(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	id := applyTestIndex(t, env)
	path := writeFile(t, env.dir, "diff.json", `{"repo": {"timestamp": 2000},
		"packages": {"org.example.chess": {"metadata": {"summary": {"en-US": "Checkmate"}}}}}`)

	_, err := execute(t, "", "index", "diff", "--base", "999", fmt.Sprint(id), path)
	require.ErrorIs(t, err, domain.ErrStaleDiff)
	assert.Contains(t, err.Error(), "fetch a full index")

	out, err := execute(t, "", "index", "diff", "--base", "1000", fmt.Sprint(id), path)
	require.NoError(t, err)
	assert.Contains(t, out, "Applied diff")

	app, err := catalogService.GetApp(context.Background(), "org.example.chess")
	require.NoError(t, err)
	assert.Equal(t, "Checkmate", app.LocalizedSummary)
}

func TestIndexDiffCmd_WithoutBase(t *testing.T) {
	env, cleanup := setupTestServices(t)
	defer cleanup()
	id := applyTestIndex(t, env)
	path := writeFile(t, env.dir, "diff.json", `{"packages": {"org.example.chess": null}}`)

	_, err := execute(t, "", "index", "diff", fmt.Sprint(id), path)
	require.NoError(t, err)

	app, err := catalogService.GetApp(context.Background(), "org.example.chess")
	require.NoError(t, err)
	assert.Nil(t, app, "a null package removes the app")
}
