package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven/mocks"
)

var testSHA = strings.Repeat("ab", 32)

// newTestStore opens a SQLite store in a temporary directory.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// compatibleAll returns a checker that accepts every manifest.
func compatibleAll(ctrl *gomock.Controller) *mocks.MockCompatibilityChecker {
	compat := mocks.NewMockCompatibilityChecker(ctrl)
	compat.EXPECT().IsCompatible(gomock.Any()).Return(true, nil).AnyTimes()
	return compat
}

// englishOnly returns a locale provider preferring en-US.
func englishOnly(ctrl *gomock.Controller) *mocks.MockLocaleProvider {
	locales := mocks.NewMockLocaleProvider(ctrl)
	locales.EXPECT().Locales().Return([]string{"en-US"}).AnyTimes()
	return locales
}

// newTestIndexService wires an index service to store.
func newTestIndexService(store *sqlite.Store, compat *mocks.MockCompatibilityChecker,
	locales *mocks.MockLocaleProvider) *IndexService {
	return NewIndexService(store, store.RepositoryStore(), store.AppStore(), store.VersionStore(), compat, locales)
}

// addTestRepo inserts an enabled repository that was never updated.
func addTestRepo(t *testing.T, store *sqlite.Store, address string, weight int64) int64 {
	t.Helper()
	id, err := store.RepositoryStore().InsertRepository(context.Background(),
		&domain.Repository{Address: address, Timestamp: -1, Certificate: "cert-" + address},
		domain.RepositoryPreferences{Weight: weight, Enabled: true})
	require.NoError(t, err)
	return id
}

// testVersion builds a compatible version.
func testVersion(repoID int64, pkg, id string, code int64, signers ...string) domain.Version {
	v := domain.Version{
		RepoID:       repoID,
		PackageName:  pkg,
		VersionID:    id,
		File:         domain.PackageFile{Name: "/" + id + ".apk", SHA256: testSHA},
		Manifest:     domain.Manifest{VersionCode: code},
		IsCompatible: true,
	}
	if signers != nil {
		v.Manifest.Signer = &domain.Signer{Sha256: signers}
	}
	return v
}

func int64Ptr(i int64) *int64 { return &i }

// compatFailing returns a checker that always fails.
func compatFailing(ctrl *gomock.Controller) *mocks.MockCompatibilityChecker {
	compat := mocks.NewMockCompatibilityChecker(ctrl)
	compat.EXPECT().IsCompatible(gomock.Any()).Return(false, errors.New("device profile unavailable")).AnyTimes()
	return compat
}

// compatibleBelow accepts manifests with a version code below limit.
func compatibleBelow(ctrl *gomock.Controller, limit int64) *mocks.MockCompatibilityChecker {
	compat := mocks.NewMockCompatibilityChecker(ctrl)
	compat.EXPECT().IsCompatible(gomock.Any()).DoAndReturn(func(m domain.Manifest) (bool, error) {
		return m.VersionCode < limit, nil
	}).AnyTimes()
	return compat
}
