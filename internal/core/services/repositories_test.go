package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

func newTestRepositoryService(store *sqlite.Store) *RepositoryService {
	return NewRepositoryService(store, store.RepositoryStore(), store.AppStore())
}

func weightOf(t *testing.T, svc *RepositoryService, id int64) int64 {
	t.Helper()
	repo, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, repo)
	return repo.Preferences.Weight
}

func TestRepositoryService_Add(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()

	first, err := svc.Add(ctx, domain.NewRepository{Address: "https://a.org/repo", Certificate: "a"})
	require.NoError(t, err)
	second, err := svc.Add(ctx, domain.NewRepository{Address: "https://b.org/repo", Name: "B"})
	require.NoError(t, err)

	assert.Equal(t, domain.BaseWeight, weightOf(t, svc, first))
	assert.Equal(t, domain.BaseWeight-2, weightOf(t, svc, second), "new repositories leave room for an archive")

	repo, err := svc.Get(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "B", repo.Name[domain.DefaultLocale])
	assert.Equal(t, int64(-1), repo.Timestamp)
	assert.True(t, repo.Preferences.Enabled)

	_, err = svc.Add(ctx, domain.NewRepository{Address: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRepositoryService_SubscribeEmpty(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	first, err := svc.Add(ctx, domain.NewRepository{Address: "https://a.org/repo"})
	require.NoError(t, err)

	id, err := svc.SubscribeEmpty(ctx, "https://new.org/repo", "user", "secret")

	require.NoError(t, err)
	assert.Equal(t, weightOf(t, svc, first)+1, weightOf(t, svc, id))
	repo, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "user", repo.Preferences.Username)
	assert.Equal(t, "secret", repo.Preferences.Password)
}

func TestRepositoryService_AddArchive(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	main, err := svc.Add(ctx, domain.NewRepository{Address: "https://a.org/repo", Certificate: "a", Username: "u"})
	require.NoError(t, err)
	other, err := svc.Add(ctx, domain.NewRepository{Address: "https://b.org/repo", Certificate: "b"})
	require.NoError(t, err)

	archive, err := svc.AddArchive(ctx, main, "https://a.org/archive")

	require.NoError(t, err)
	assert.Equal(t, weightOf(t, svc, main)-1, weightOf(t, svc, archive))
	assert.Greater(t, weightOf(t, svc, archive), weightOf(t, svc, other))
	repo, err := svc.Get(ctx, archive)
	require.NoError(t, err)
	assert.Equal(t, "a", repo.Certificate)
	assert.Equal(t, "u", repo.Preferences.Username)

	_, err = svc.AddArchive(ctx, main, "https://a.org/archive2/archive")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	_, err = svc.AddArchive(ctx, main, "https://a.org/repo2")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.AddArchive(ctx, 404, "https://x.org/archive")
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}

func TestRepositoryService_AddArchive_ShiftsTakenSlot(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	ids, err := svc.Seed(ctx, []domain.InitialRepository{
		{Name: "A", Address: "https://a.org/repo", Certificate: "a", Weight: 10, Enabled: true},
		{Name: "B", Address: "https://b.org/repo", Certificate: "b", Weight: 9, Enabled: true},
		{Name: "C", Address: "https://c.org/repo", Certificate: "c", Weight: 8, Enabled: true},
	})
	require.NoError(t, err)

	archive, err := svc.AddArchive(ctx, ids[0], "https://a.org/archive")

	require.NoError(t, err)
	assert.Equal(t, int64(10), weightOf(t, svc, ids[0]))
	assert.Equal(t, int64(9), weightOf(t, svc, archive))
	assert.Equal(t, int64(8), weightOf(t, svc, ids[1]))
	assert.Equal(t, int64(7), weightOf(t, svc, ids[2]))
}

func TestRepositoryService_Seed(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()

	ids, err := svc.Seed(ctx, []domain.InitialRepository{
		{Name: "Main", Address: "https://a.org/repo", Description: "Main repo", Version: 3, Weight: 100, Enabled: true},
		{Name: "Off", Address: "https://b.org/repo", Weight: 98},
	})

	require.NoError(t, err)
	require.Len(t, ids, 2)
	main, err := svc.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Main repo", main.Description[domain.DefaultLocale])
	require.NotNil(t, main.Version)
	assert.Equal(t, int64(3), *main.Version)
	off, err := svc.Get(ctx, ids[1])
	require.NoError(t, err)
	assert.False(t, off.Preferences.Enabled)

	_, err = svc.Seed(ctx, []domain.InitialRepository{{Name: "x"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "a failed seed inserts nothing")
}

func TestRepositoryService_SetEnabled_DisablesArchive(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	main, err := svc.Add(ctx, domain.NewRepository{Address: "https://a.org/repo", Certificate: "a"})
	require.NoError(t, err)
	archive, err := svc.AddArchive(ctx, main, "https://a.org/archive")
	require.NoError(t, err)

	require.NoError(t, svc.SetEnabled(ctx, main, false))

	repo, err := svc.Get(ctx, archive)
	require.NoError(t, err)
	assert.False(t, repo.Preferences.Enabled)

	require.NoError(t, svc.SetEnabled(ctx, main, true))
	repo, err = svc.Get(ctx, archive)
	require.NoError(t, err)
	assert.False(t, repo.Preferences.Enabled, "enabling the main repository leaves the archive alone")

	id, err := svc.SetArchiveEnabled(ctx, main, true)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, archive, *id)
	repo, err = svc.Get(ctx, archive)
	require.NoError(t, err)
	assert.True(t, repo.Preferences.Enabled)

	assert.ErrorIs(t, svc.SetEnabled(ctx, 404, true), domain.ErrRepositoryNotFound)
}

func TestRepositoryService_SetArchiveEnabled_NoArchive(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	main, err := svc.Add(ctx, domain.NewRepository{Address: "https://a.org/repo", Certificate: "a"})
	require.NoError(t, err)

	id, err := svc.SetArchiveEnabled(ctx, main, true)

	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestRepositoryService_Delete_RemovesArchive(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	main, err := svc.Add(ctx, domain.NewRepository{Address: "https://a.org/repo", Certificate: "a"})
	require.NoError(t, err)
	_, err = svc.AddArchive(ctx, main, "https://a.org/archive")
	require.NoError(t, err)
	other, err := svc.Add(ctx, domain.NewRepository{Address: "https://b.org/repo", Certificate: "b"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, main))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, other, all[0].ID)
	assert.ErrorIs(t, svc.Delete(ctx, main), domain.ErrRepositoryNotFound)
}

func TestRepositoryService_Reorder(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	a, err := svc.Add(ctx, domain.NewRepository{Address: "https://a.org/repo", Certificate: "a"})
	require.NoError(t, err)
	archive, err := svc.AddArchive(ctx, a, "https://a.org/archive")
	require.NoError(t, err)
	b, err := svc.Add(ctx, domain.NewRepository{Address: "https://b.org/repo", Certificate: "b"})
	require.NoError(t, err)

	require.NoError(t, svc.Reorder(ctx, b, a))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{b, a, archive}, []int64{all[0].ID, all[1].ID, all[2].ID})

	assert.ErrorIs(t, svc.Reorder(ctx, archive, b), domain.ErrArchiveReorder)
}

func TestRepositoryService_MigrateWeights(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	ids, err := svc.Seed(ctx, []domain.InitialRepository{
		{Name: "A", Address: "https://a.org/repo", Certificate: "a", Weight: 5, Enabled: true},
		{Name: "B", Address: "https://b.org/repo", Certificate: "b", Weight: 5, Enabled: true},
		{Name: "A archive", Address: "https://a.org/archive", Certificate: "a", Weight: 1},
	})
	require.NoError(t, err)

	require.NoError(t, svc.MigrateWeights(ctx))

	wa, wb, warch := weightOf(t, svc, ids[0]), weightOf(t, svc, ids[1]), weightOf(t, svc, ids[2])
	assert.Equal(t, wa-1, warch, "archive directly below its main repository")
	assert.NotEqual(t, wa, wb)
	assert.Contains(t, []int64{domain.BaseWeight, domain.BaseWeight - 2}, wa)
	assert.Contains(t, []int64{domain.BaseWeight, domain.BaseWeight - 2}, wb)
}

func TestRepositoryService_Mirrors(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	id, err := svc.Add(ctx, domain.NewRepository{Address: "https://a.org/repo"})
	require.NoError(t, err)
	const mirror = "https://mirror.example/repo"

	require.NoError(t, svc.AddUserMirror(ctx, id, mirror))
	require.NoError(t, svc.AddUserMirror(ctx, id, mirror))
	require.NoError(t, svc.SetMirrorEnabled(ctx, id, mirror, false))

	repo, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{mirror}, repo.Preferences.UserMirrors)
	assert.Equal(t, []string{mirror}, repo.Preferences.DisabledMirrors)
	assert.Empty(t, repo.AllMirrors())

	require.NoError(t, svc.SetMirrorEnabled(ctx, id, mirror, true))
	repo, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{mirror}, repo.AllMirrors())

	require.NoError(t, svc.DeleteUserMirror(ctx, id, mirror))
	repo, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, repo.Preferences.UserMirrors)

	assert.ErrorIs(t, svc.AddUserMirror(ctx, 404, mirror), domain.ErrRepositoryNotFound)
	assert.ErrorIs(t, svc.AddUserMirror(ctx, id, ""), domain.ErrInvalidInput)
}

func TestRepositoryService_ClearAppData(t *testing.T) {
	store := newTestStore(t)
	svc := newTestRepositoryService(store)
	ctx := context.Background()
	id := addTestRepo(t, store, "https://a.org/repo", domain.BaseWeight)
	require.NoError(t, store.AppStore().InsertApp(ctx, &domain.App{
		AppMetadata: domain.AppMetadata{RepoID: id, PackageName: "org.example"},
	}))
	v := testVersion(id, "org.example", "v1", 1)
	require.NoError(t, store.VersionStore().InsertVersion(ctx, &v))
	require.NoError(t, store.RepositoryStore().UpdateRepository(ctx, &domain.Repository{
		ID: id, Address: "https://a.org/repo", Timestamp: 500,
	}))

	require.NoError(t, svc.ClearAppData(ctx))

	apps, err := store.AppStore().CountApps(ctx)
	require.NoError(t, err)
	assert.Zero(t, apps)
	versions, err := store.VersionStore().CountVersions(ctx)
	require.NoError(t, err)
	assert.Zero(t, versions)
	repo, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), repo.Timestamp)
}
