package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_EnvDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(EnvConfigDir, tmpDir)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestDefaultConfigDir_Home(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	dir, err := DefaultConfigDir()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".catalog"), dir)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("inbox.dir", "/var/spool/catalog"))

	val, ok := store.Get("inbox.dir")
	assert.True(t, ok)
	assert.Equal(t, "/var/spool/catalog", val)
	assert.Equal(t, "/var/spool/catalog", store.GetString("inbox.dir"))
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_WrongTypes(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("device.sdk", "thirty"))
	require.NoError(t, store.Set("locales", 7))

	assert.Zero(t, store.GetInt("device.sdk"))
	assert.Nil(t, store.GetStringSlice("locales"))
}

func TestConfigStore_SaveReload_PreservesData(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("device.sdk", 30))
	require.NoError(t, store.Set("device.abis", []string{"arm64-v8a", "x86_64"}))
	require.NoError(t, store.Set("search.weights.name", 50))
	require.NoError(t, store.Set("search.weights.summary", 25))
	require.NoError(t, store.Set("locales", []string{"de-DE", "en-US"}))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 30, reloaded.GetInt("device.sdk"))
	assert.Equal(t, []string{"arm64-v8a", "x86_64"}, reloaded.GetStringSlice("device.abis"))
	assert.Equal(t, 50, reloaded.GetInt("search.weights.name"))
	assert.Equal(t, 25, reloaded.GetInt("search.weights.summary"))
	assert.Equal(t, []string{"de-DE", "en-US"}, reloaded.GetStringSlice("locales"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("search.weights.name", 40))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[search.weights]")
	assert.NotContains(t, string(data), `"search.weights.name"`)
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte(`
locales = ["fr-FR"]

[device]
sdk = 29
abis = ["armeabi-v7a"]

[inbox]
rate = 5
`)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"fr-FR"}, store.GetStringSlice("locales"))
	assert.Equal(t, 29, store.GetInt("device.sdk"))
	assert.Equal(t, []string{"armeabi-v7a"}, store.GetStringSlice("device.abis"))
	assert.Equal(t, 5, store.GetInt("inbox.rate"))
}

func TestConfigStore_KeyConflict(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("search.limit", 10))

	err = store.Set("search.limit.max", 20)

	assert.Error(t, err)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("installed.file", "installed.yaml"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	_, ok := store.Get("locales")
	assert.False(t, ok)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	corrupted := []byte("this is not valid TOML {{{[[")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), corrupted, 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("inbox.rate", i)
			_ = store.GetInt("inbox.rate")
		}()
	}
	wg.Wait()

	_, ok := store.Get("inbox.rate")
	assert.True(t, ok)
}

func TestNest(t *testing.T) {
	tree, err := nest(map[string]any{
		"locales":             []string{"en-US"},
		"device.sdk":          34,
		"device.abis":         []string{"x86"},
		"search.weights.name": 40,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"en-US"}, tree["locales"])
	device, ok := tree["device"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 34, device["sdk"])
	search := tree["search"].(map[string]any)
	weights := search["weights"].(map[string]any)
	assert.Equal(t, 40, weights["name"])
}
