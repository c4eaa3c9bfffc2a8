package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

// ==================== App Prefs Store ====================

// appPrefsStore implements driven.AppPrefsStore.
type appPrefsStore struct {
	store *Store
}

var _ driven.AppPrefsStore = (*appPrefsStore)(nil)

type appPrefsRow struct {
	PackageName             string         `db:"package_name"`
	PreferredRepoID         sql.NullInt64  `db:"preferred_repo_id"`
	IgnoreVersionCodeUpdate int64          `db:"ignore_version_code_update"`
	ReleaseChannels         sql.NullString `db:"release_channels"`
}

func (r *appPrefsRow) toDomain() (domain.AppPrefs, error) {
	p := domain.AppPrefs{
		PackageName:             r.PackageName,
		IgnoreVersionCodeUpdate: r.IgnoreVersionCodeUpdate,
	}
	if r.PreferredRepoID.Valid {
		id := r.PreferredRepoID.Int64
		p.PreferredRepoID = &id
	}
	if err := fromJSON(r.ReleaseChannels, &p.ReleaseChannels); err != nil {
		return p, fmt.Errorf("app prefs %s: %w", r.PackageName, err)
	}
	return p, nil
}

const appPrefsSelect = `
	SELECT package_name, preferred_repo_id, ignore_version_code_update, release_channels
	FROM app_prefs
`

// GetAppPrefs returns the preferences of a package or nil.
func (s *appPrefsStore) GetAppPrefs(ctx context.Context, packageName string) (*domain.AppPrefs, error) {
	var row appPrefsRow
	err := sqlx.GetContext(ctx, s.store.conn(ctx), &row, appPrefsSelect+" WHERE package_name = ?", packageName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting app prefs: %w", err)
	}
	p, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AppPrefsFor returns stored preferences keyed by package name.
func (s *appPrefsStore) AppPrefsFor(ctx context.Context, packageNames []string) (map[string]domain.AppPrefs, error) {
	var rows []appPrefsRow
	if err := selectIn(ctx, s.store.conn(ctx), &rows, appPrefsSelect+" WHERE package_name IN (?)", packageNames); err != nil {
		return nil, fmt.Errorf("listing app prefs: %w", err)
	}
	out := make(map[string]domain.AppPrefs, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out[p.PackageName] = p
	}
	return out, nil
}

// SaveAppPrefs creates or replaces the preferences of a package.
func (s *appPrefsStore) SaveAppPrefs(ctx context.Context, prefs domain.AppPrefs) error {
	channels, err := toJSON(prefs.ReleaseChannels)
	if err != nil {
		return err
	}
	_, err = s.store.exec(ctx, `
		INSERT INTO app_prefs (package_name, preferred_repo_id, ignore_version_code_update, release_channels)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(package_name) DO UPDATE SET
			preferred_repo_id = excluded.preferred_repo_id,
			ignore_version_code_update = excluded.ignore_version_code_update,
			release_channels = excluded.release_channels
	`, []any{prefs.PackageName, prefs.PreferredRepoID, prefs.IgnoreVersionCodeUpdate, channels}, driven.TableAppPrefs)
	if err != nil {
		return fmt.Errorf("saving app prefs: %w", err)
	}
	return nil
}
