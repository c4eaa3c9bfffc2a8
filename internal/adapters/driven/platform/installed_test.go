package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestInstalledFile_Installed(t *testing.T) {
	path := writeFile(t, "installed.yaml", `
packages:
  - package: org.example.notes
    versionCode: 12
    versionName: "1.2"
    signers: [aa11]
    installedByUs: true
  - package: com.android.chrome
    versionCode: 500
    system: true
`)

	got, err := NewInstalledFile(path).Installed(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	notes := got["org.example.notes"]
	assert.Equal(t, int64(12), notes.VersionCode)
	assert.Equal(t, "1.2", notes.VersionName)
	assert.Equal(t, []string{"aa11"}, notes.Signers)
	assert.True(t, notes.InstalledByUs)
	assert.True(t, got["com.android.chrome"].System)
}

func TestInstalledFile_Missing(t *testing.T) {
	got, err := NewInstalledFile(filepath.Join(t.TempDir(), "none.yaml")).Installed(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInstalledFile_EmptyPath(t *testing.T) {
	got, err := NewInstalledFile("").Installed(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInstalledFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "packages: [::"},
		{"missing name", "packages:\n  - versionCode: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "installed.yaml", tt.content)

			_, err := NewInstalledFile(path).Installed(context.Background())

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}
