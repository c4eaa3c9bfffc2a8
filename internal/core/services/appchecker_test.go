package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven/mocks"
)

// addTestApp inserts an app together with its versions.
func addTestApp(t *testing.T, store *sqlite.Store, repoID int64, pkg, name string, versions ...domain.Version) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.AppStore().InsertApp(ctx, &domain.App{AppMetadata: domain.AppMetadata{
		RepoID:        repoID,
		PackageName:   pkg,
		Name:          domain.LocalizedText{"en-US": name},
		LocalizedName: name,
		IsCompatible:  true,
	}}))
	for i := range versions {
		require.NoError(t, store.VersionStore().InsertVersion(ctx, &versions[i]))
	}
}

func vulnerable(v domain.Version) domain.Version {
	v.AntiFeatures = map[string]domain.LocalizedText{domain.AntiFeatureKnownVulnerability: {"en-US": "CVE"}}
	return v
}

func newTestAppChecker(store *sqlite.Store, installed *mocks.MockInstalledPackages) *AppChecker {
	return NewAppChecker(store.AppStore(), store.VersionStore(), store.AppPrefsStore(), installed, nil)
}

func installedMock(ctrl *gomock.Controller, pkgs ...domain.InstalledPackage) *mocks.MockInstalledPackages {
	installed := mocks.NewMockInstalledPackages(ctrl)
	byName := make(map[string]domain.InstalledPackage, len(pkgs))
	for _, p := range pkgs {
		byName[p.PackageName] = p
	}
	installed.EXPECT().Installed(gomock.Any()).Return(byName, nil).AnyTimes()
	return installed
}

func TestAppChecker_Check(t *testing.T) {
	store := newTestStore(t)
	ctrl := gomock.NewController(t)
	high := addTestRepo(t, store, "https://high.org/repo", 100)
	low := addTestRepo(t, store, "https://low.org/repo", 90)

	addTestApp(t, store, high, "org.ok", "Okay",
		testVersion(high, "org.ok", "ok1", 1, "s1"),
		testVersion(high, "org.ok", "ok2", 2, "s1"))
	addTestApp(t, store, high, "org.other", "Other",
		testVersion(high, "org.other", "other1", 1, "s1"))
	addTestApp(t, store, low, "org.other", "Other",
		testVersion(low, "org.other", "other3", 3, "s1"))
	addTestApp(t, store, high, "org.signer", "Signer",
		testVersion(high, "org.signer", "signer2", 2, "s2"))
	addTestApp(t, store, high, "org.vuln", "Vuln",
		vulnerable(testVersion(high, "org.vuln", "vuln2", 2, "s1")))

	installed := installedMock(ctrl,
		domain.InstalledPackage{PackageName: "org.ok", VersionCode: 1, VersionName: "1.0", Signers: []string{"s1"}, InstalledByUs: true},
		domain.InstalledPackage{PackageName: "org.other", VersionCode: 1, Signers: []string{"s1"}, InstalledByUs: true},
		domain.InstalledPackage{PackageName: "org.signer", VersionCode: 1, Signers: []string{"s1"}, InstalledByUs: true},
		domain.InstalledPackage{PackageName: "org.vuln", VersionCode: 2, Signers: []string{"s1"}, InstalledByUs: true},
		domain.InstalledPackage{PackageName: "org.gone", VersionCode: 5, InstalledByUs: true},
		domain.InstalledPackage{PackageName: "org.system", VersionCode: 5, System: true},
		domain.InstalledPackage{PackageName: "org.foreign", VersionCode: 5},
	)
	checker := newTestAppChecker(store, installed)
	checker.SetConcurrency(2)

	result, err := checker.Check(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Updates, 1)
	update := result.Updates[0]
	assert.Equal(t, "org.ok", update.PackageName)
	assert.Equal(t, "ok2", update.Update.VersionID)
	assert.Equal(t, high, update.RepoID)
	assert.Equal(t, "Okay", update.Name)
	assert.Equal(t, "1.0", update.InstalledVersionName)
	assert.True(t, update.IsFromPreferredRepo)

	issues := make(map[string]domain.AppIssue, len(result.Issues))
	var order []string
	for _, i := range result.Issues {
		issues[i.PackageName] = i.Issue
		order = append(order, i.PackageName)
	}
	assert.Equal(t, []string{"org.gone", "org.other", "org.signer", "org.vuln"}, order)

	assert.Equal(t, domain.IssueNotAvailable, issues["org.gone"].Kind)

	assert.Equal(t, domain.IssueUpdateInOtherRepo, issues["org.other"].Kind)
	require.NotNil(t, issues["org.other"].RepoID)
	assert.Equal(t, low, *issues["org.other"].RepoID)

	assert.Equal(t, domain.IssueNoCompatibleSigner, issues["org.signer"].Kind)
	assert.Nil(t, issues["org.signer"].RepoID)

	assert.Equal(t, domain.IssueKnownVulnerability, issues["org.vuln"].Kind)
	assert.True(t, issues["org.vuln"].FromPreferredRepo)
}

func TestAppChecker_Check_IgnoredUpdates(t *testing.T) {
	store := newTestStore(t)
	ctrl := gomock.NewController(t)
	repo := addTestRepo(t, store, "https://a.org/repo", 100)
	addTestApp(t, store, repo, "org.ok", "Okay",
		testVersion(repo, "org.ok", "ok1", 1),
		testVersion(repo, "org.ok", "ok2", 2))
	require.NoError(t, store.AppPrefsStore().SaveAppPrefs(context.Background(),
		domain.AppPrefs{PackageName: "org.ok", IgnoreVersionCodeUpdate: domain.IgnoreAll}))
	installed := installedMock(ctrl, domain.InstalledPackage{PackageName: "org.ok", VersionCode: 1, InstalledByUs: true})

	result, err := newTestAppChecker(store, installed).Check(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Updates)
	assert.Empty(t, result.Issues)
}

func TestAppChecker_Check_SignerElsewhere(t *testing.T) {
	store := newTestStore(t)
	ctrl := gomock.NewController(t)
	high := addTestRepo(t, store, "https://high.org/repo", 100)
	low := addTestRepo(t, store, "https://low.org/repo", 90)
	addTestApp(t, store, high, "org.split", "Split",
		testVersion(high, "org.split", "h3", 3, "s2"))
	addTestApp(t, store, low, "org.split", "Split",
		testVersion(low, "org.split", "l2", 2, "s1"))
	installed := installedMock(ctrl,
		domain.InstalledPackage{PackageName: "org.split", VersionCode: 1, Signers: []string{"s1"}})

	result, err := newTestAppChecker(store, installed).Check(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	issue := result.Issues[0].Issue
	assert.Equal(t, domain.IssueNoCompatibleSigner, issue.Kind)
	require.NotNil(t, issue.RepoID)
	assert.Equal(t, low, *issue.RepoID)
}

func TestAppChecker_Check_InstalledError(t *testing.T) {
	store := newTestStore(t)
	ctrl := gomock.NewController(t)
	installed := mocks.NewMockInstalledPackages(ctrl)
	installed.EXPECT().Installed(gomock.Any()).Return(nil, errors.New("inventory unreadable"))

	_, err := newTestAppChecker(store, installed).Check(context.Background())

	assert.ErrorContains(t, err, "inventory unreadable")
}

func TestAppChecker_Check_NothingInstalled(t *testing.T) {
	store := newTestStore(t)
	ctrl := gomock.NewController(t)

	result, err := newTestAppChecker(store, installedMock(ctrl)).Check(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Updates)
	assert.Empty(t, result.Issues)
}

func TestAppChecker_SuggestedVersion(t *testing.T) {
	store := newTestStore(t)
	ctrl := gomock.NewController(t)
	high := addTestRepo(t, store, "https://high.org/repo", 100)
	low := addTestRepo(t, store, "https://low.org/repo", 90)
	addTestApp(t, store, high, "org.app", "App",
		testVersion(high, "org.app", "h1", 1, "s1"),
		testVersion(high, "org.app", "h2", 2, "s2"))
	addTestApp(t, store, low, "org.app", "App",
		testVersion(low, "org.app", "l9", 9, "s1"))

	fresh := newTestAppChecker(store, installedMock(ctrl))
	got, err := fresh.SuggestedVersion(context.Background(), "org.app")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h2", got.VersionID, "only the default repository is considered")

	signed := newTestAppChecker(store, installedMock(ctrl,
		domain.InstalledPackage{PackageName: "org.app", VersionCode: 1, Signers: []string{"s1"}}))
	got, err = signed.SuggestedVersion(context.Background(), "org.app")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "h1", got.VersionID, "installed signer wins")

	got, err = fresh.SuggestedVersion(context.Background(), "org.missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.AppPrefsStore().SaveAppPrefs(context.Background(),
		domain.AppPrefs{PackageName: "org.app", IgnoreVersionCodeUpdate: domain.IgnoreAll}))
	got, err = fresh.SuggestedVersion(context.Background(), "org.app")
	require.NoError(t, err)
	assert.Nil(t, got, "ignored versions are not suggested")
}

func TestAppChecker_Check_IgnoreThresholdScenario(t *testing.T) {
	store := newTestStore(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	repo := addTestRepo(t, store, "https://a.org/repo", 100)
	addTestApp(t, store, repo, "org.chess", "Chess",
		testVersion(repo, "org.chess", "v42", 42),
		testVersion(repo, "org.chess", "v50", 50))
	checker := newTestAppChecker(store, installedMock(ctrl,
		domain.InstalledPackage{PackageName: "org.chess", VersionCode: 42, InstalledByUs: true}))

	updateWith := func(threshold int64) []string {
		t.Helper()
		require.NoError(t, store.AppPrefsStore().SaveAppPrefs(ctx,
			domain.AppPrefs{PackageName: "org.chess", IgnoreVersionCodeUpdate: threshold}))
		result, err := checker.Check(ctx)
		require.NoError(t, err)
		assert.Empty(t, result.Issues)
		var ids []string
		for _, u := range result.Updates {
			ids = append(ids, u.Update.VersionID)
		}
		return ids
	}

	assert.Equal(t, []string{"v50"}, updateWith(42), "a threshold at the installed code hides nothing newer")
	assert.Empty(t, updateWith(50), "the ignored update is excluded")

	v51 := testVersion(repo, "org.chess", "v51", 51)
	require.NoError(t, store.VersionStore().InsertVersion(ctx, &v51))
	assert.Equal(t, []string{"v51"}, updateWith(50), "a newer candidate is offered again")

	assert.Empty(t, updateWith(domain.IgnoreAll))
}
