package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

// ==================== Version Store ====================

// versionStore implements driven.VersionStore.
type versionStore struct {
	store *Store
}

var _ driven.VersionStore = (*versionStore)(nil)

const versionColumns = `
	v.repo_id, v.package_name, v.version_id, v.added, v.file, v.src, v.manifest,
	v.release_channels, v.anti_features, v.whats_new, v.is_compatible
`

type versionRow struct {
	RepoID          int64          `db:"repo_id"`
	PackageName     string         `db:"package_name"`
	VersionID       string         `db:"version_id"`
	Added           int64          `db:"added"`
	File            string         `db:"file"`
	Src             sql.NullString `db:"src"`
	Manifest        string         `db:"manifest"`
	ReleaseChannels sql.NullString `db:"release_channels"`
	AntiFeatures    sql.NullString `db:"anti_features"`
	WhatsNew        sql.NullString `db:"whats_new"`
	IsCompatible    bool           `db:"is_compatible"`
	Weight          sql.NullInt64  `db:"weight"`
}

func (r *versionRow) toDomain() (domain.Version, error) {
	v := domain.Version{
		RepoID:       r.RepoID,
		PackageName:  r.PackageName,
		VersionID:    r.VersionID,
		Added:        r.Added,
		IsCompatible: r.IsCompatible,
		Weight:       r.Weight.Int64,
	}
	for _, f := range []struct {
		col sql.NullString
		dst any
	}{
		{sql.NullString{String: r.File, Valid: true}, &v.File},
		{r.Src, &v.Src},
		{sql.NullString{String: r.Manifest, Valid: true}, &v.Manifest},
		{r.ReleaseChannels, &v.ReleaseChannels},
		{r.AntiFeatures, &v.AntiFeatures},
		{r.WhatsNew, &v.WhatsNew},
	} {
		if err := fromJSON(f.col, f.dst); err != nil {
			return v, fmt.Errorf("version %s/%s: %w", r.PackageName, r.VersionID, err)
		}
	}
	return v, nil
}

func versionsToDomain(rows []versionRow) ([]domain.Version, error) {
	versions := make([]domain.Version, 0, len(rows))
	for i := range rows {
		v, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func versionArgs(v *domain.Version) ([]any, error) {
	cols := make([]sql.NullString, 0, 6)
	for _, x := range []any{v.File, v.Src, v.Manifest, v.ReleaseChannels, v.AntiFeatures, v.WhatsNew} {
		col, err := toJSON(x)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	// nativecode is copied out of the manifest for ordering.
	var nativecode sql.NullString
	if len(v.Manifest.Nativecode) > 0 {
		nativecode = nullString(strings.Join(v.Manifest.Nativecode, ","))
	}
	return []any{
		v.VersionCode(), v.Added, cols[0].String, cols[1], cols[2].String, nativecode,
		cols[3], cols[4], cols[5], v.IsCompatible,
	}, nil
}

// GetVersion returns one version, or nil.
func (s *versionStore) GetVersion(ctx context.Context, repoID int64, packageName, versionID string) (*domain.Version, error) {
	var row versionRow
	err := sqlx.GetContext(ctx, s.store.conn(ctx), &row, "SELECT "+versionColumns+`
		FROM version v WHERE v.repo_id = ? AND v.package_name = ? AND v.version_id = ?
	`, repoID, packageName, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting version: %w", err)
	}
	v, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// RepoVersions returns the versions of a package in one repository.
func (s *versionStore) RepoVersions(ctx context.Context, repoID int64, packageName string) ([]domain.Version, error) {
	var rows []versionRow
	err := sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, "SELECT "+versionColumns+`
		FROM version v WHERE v.repo_id = ? AND v.package_name = ?
		ORDER BY v.version_code DESC, v.version_id
	`, repoID, packageName)
	if err != nil {
		return nil, fmt.Errorf("listing repo versions: %w", err)
	}
	return versionsToDomain(rows)
}

// InsertVersion stores a new version and its permissions.
func (s *versionStore) InsertVersion(ctx context.Context, v *domain.Version) error {
	return s.store.WithinTx(ctx, func(ctx context.Context) error {
		args, err := versionArgs(v)
		if err != nil {
			return err
		}
		_, err = s.store.exec(ctx, `
			INSERT INTO version (repo_id, package_name, version_id, version_code, added, file, src,
			                     manifest, nativecode, release_channels, anti_features, whats_new, is_compatible)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, append([]any{v.RepoID, v.PackageName, v.VersionID}, args...), driven.TableVersion)
		if err != nil {
			return fmt.Errorf("inserting version %s/%s: %w", v.PackageName, v.VersionID, err)
		}
		return s.InsertPermissions(ctx, v.Permissions())
	})
}

// UpdateVersion overwrites the version row. Permissions are not touched.
func (s *versionStore) UpdateVersion(ctx context.Context, v *domain.Version) error {
	args, err := versionArgs(v)
	if err != nil {
		return err
	}
	_, err = s.store.exec(ctx, `
		UPDATE version SET version_code = ?, added = ?, file = ?, src = ?, manifest = ?, nativecode = ?,
		       release_channels = ?, anti_features = ?, whats_new = ?, is_compatible = ?
		WHERE repo_id = ? AND package_name = ? AND version_id = ?
	`, append(args, v.RepoID, v.PackageName, v.VersionID), driven.TableVersion)
	if err != nil {
		return fmt.Errorf("updating version %s/%s: %w", v.PackageName, v.VersionID, err)
	}
	return nil
}

// DeleteVersions removes every version of a package in one repository.
func (s *versionStore) DeleteVersions(ctx context.Context, repoID int64, packageName string) error {
	_, err := s.store.exec(ctx, "DELETE FROM version WHERE repo_id = ? AND package_name = ?",
		[]any{repoID, packageName}, driven.TableVersion)
	if err != nil {
		return fmt.Errorf("deleting versions of %s: %w", packageName, err)
	}
	return nil
}

// DeleteVersion removes one version.
func (s *versionStore) DeleteVersion(ctx context.Context, repoID int64, packageName, versionID string) error {
	_, err := s.store.exec(ctx, "DELETE FROM version WHERE repo_id = ? AND package_name = ? AND version_id = ?",
		[]any{repoID, packageName, versionID}, driven.TableVersion)
	if err != nil {
		return fmt.Errorf("deleting version %s/%s: %w", packageName, versionID, err)
	}
	return nil
}

// InsertPermissions stores permission rows, replacing duplicates.
func (s *versionStore) InsertPermissions(ctx context.Context, perms []domain.VersionedString) error {
	for _, p := range perms {
		_, err := s.store.exec(ctx, `
			INSERT INTO versioned_string (repo_id, package_name, version_id, type, name, max_sdk_version)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(repo_id, package_name, version_id, type, name) DO UPDATE SET
				max_sdk_version = excluded.max_sdk_version
		`, []any{p.RepoID, p.PackageName, p.VersionID, p.Type, p.Name, p.MaxSdkVersion}, driven.TableVersion)
		if err != nil {
			return fmt.Errorf("saving permission %s: %w", p.Name, err)
		}
	}
	return nil
}

// DeletePermissions removes permissions of one type, or of every type when
// permType is empty.
func (s *versionStore) DeletePermissions(ctx context.Context, repoID int64, packageName, versionID, permType string) error {
	query := "DELETE FROM versioned_string WHERE repo_id = ? AND package_name = ? AND version_id = ?"
	args := []any{repoID, packageName, versionID}
	if permType != "" {
		query += " AND type = ?"
		args = append(args, permType)
	}
	if _, err := s.store.exec(ctx, query, args, driven.TableVersion); err != nil {
		return fmt.Errorf("deleting permissions of %s/%s: %w", packageName, versionID, err)
	}
	return nil
}

// Permissions returns the stored permission rows of a version.
func (s *versionStore) Permissions(ctx context.Context, repoID int64, packageName, versionID string) ([]domain.VersionedString, error) {
	var rows []struct {
		Type          string        `db:"type"`
		Name          string        `db:"name"`
		MaxSdkVersion sql.NullInt64 `db:"max_sdk_version"`
	}
	err := sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, `
		SELECT type, name, max_sdk_version FROM versioned_string
		WHERE repo_id = ? AND package_name = ? AND version_id = ?
		ORDER BY type, name
	`, repoID, packageName, versionID)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	out := make([]domain.VersionedString, 0, len(rows))
	for _, r := range rows {
		vs := domain.VersionedString{
			RepoID: repoID, PackageName: packageName, VersionID: versionID,
			Type: r.Type, Name: r.Name,
		}
		if r.MaxSdkVersion.Valid {
			m := int(r.MaxSdkVersion.Int64)
			vs.MaxSdkVersion = &m
		}
		out = append(out, vs)
	}
	return out, nil
}

const enabledVersionSelect = "SELECT " + versionColumns + `, p.weight
	FROM version v
	JOIN repository_preferences p ON p.repo_id = v.repo_id AND p.enabled = 1
`

// AppVersions returns versions of a package from enabled repositories.
func (s *versionStore) AppVersions(ctx context.Context, packageName string) ([]domain.Version, error) {
	var rows []versionRow
	err := instrumentQuery("app_versions", func() error {
		return sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, enabledVersionSelect+`
			WHERE v.package_name = ?
			ORDER BY v.version_code DESC, p.weight DESC, v.nativecode
		`, packageName)
	})
	if err != nil {
		return nil, fmt.Errorf("listing app versions: %w", err)
	}
	return versionsToDomain(rows)
}

// UpdateCandidates returns versions of the given packages from enabled repositories.
func (s *versionStore) UpdateCandidates(ctx context.Context, packageNames []string) ([]domain.Version, error) {
	var rows []versionRow
	err := instrumentQuery("update_candidates", func() error {
		return selectIn(ctx, s.store.conn(ctx), &rows, enabledVersionSelect+`
			WHERE v.package_name IN (?)
			ORDER BY v.version_code DESC, p.weight DESC
		`, packageNames)
	})
	if err != nil {
		return nil, fmt.Errorf("listing update candidates: %w", err)
	}
	return versionsToDomain(rows)
}

// CountVersions counts every stored version.
func (s *versionStore) CountVersions(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, s.store.conn(ctx), &n, "SELECT COUNT(*) FROM version"); err != nil {
		return 0, fmt.Errorf("counting versions: %w", err)
	}
	return n, nil
}
