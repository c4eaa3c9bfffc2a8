package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

// ==================== Repository Store ====================

// repositoryStore implements driven.RepositoryStore.
type repositoryStore struct {
	store *Store
}

var _ driven.RepositoryStore = (*repositoryStore)(nil)

type repositoryRow struct {
	RepoID        int64          `db:"repo_id"`
	Name          sql.NullString `db:"name"`
	Icon          sql.NullString `db:"icon"`
	Address       string         `db:"address"`
	WebBaseURL    sql.NullString `db:"web_base_url"`
	Description   sql.NullString `db:"description"`
	Timestamp     int64          `db:"timestamp"`
	Version       sql.NullInt64  `db:"version"`
	FormatVersion sql.NullString `db:"format_version"`
	MaxAge        sql.NullInt64  `db:"max_age"`
	Certificate   string         `db:"certificate"`

	Weight          int64          `db:"weight"`
	Enabled         bool           `db:"enabled"`
	LastUpdated     sql.NullInt64  `db:"last_updated"`
	LastETag        sql.NullString `db:"last_etag"`
	UserMirrors     sql.NullString `db:"user_mirrors"`
	DisabledMirrors sql.NullString `db:"disabled_mirrors"`
	Username        sql.NullString `db:"username"`
	Password        sql.NullString `db:"password"`
}

const repositorySelect = `
	SELECT r.repo_id, r.name, r.icon, r.address, r.web_base_url, r.description,
	       r.timestamp, r.version, r.format_version, r.max_age, r.certificate,
	       p.weight, p.enabled, p.last_updated, p.last_etag, p.user_mirrors,
	       p.disabled_mirrors, p.username, p.password
	FROM repository r
	JOIN repository_preferences p ON p.repo_id = r.repo_id
`

func (r *repositoryRow) toDomain() (*domain.RepositoryDetail, error) {
	d := &domain.RepositoryDetail{
		Repository: domain.Repository{
			ID:            r.RepoID,
			Address:       r.Address,
			WebBaseURL:    r.WebBaseURL.String,
			Timestamp:     r.Timestamp,
			FormatVersion: r.FormatVersion.String,
			Certificate:   r.Certificate,
		},
		Preferences: domain.RepositoryPreferences{
			RepoID:   r.RepoID,
			Weight:   r.Weight,
			Enabled:  r.Enabled,
			LastETag: r.LastETag.String,
			Username: r.Username.String,
			Password: r.Password.String,
		},
	}
	if r.Version.Valid {
		v := r.Version.Int64
		d.Version = &v
	}
	if r.MaxAge.Valid {
		m := int(r.MaxAge.Int64)
		d.MaxAge = &m
	}
	if r.LastUpdated.Valid {
		lu := r.LastUpdated.Int64
		d.Preferences.LastUpdated = &lu
	}
	for _, f := range []struct {
		col sql.NullString
		dst any
	}{
		{r.Name, &d.Name},
		{r.Icon, &d.Icon},
		{r.Description, &d.Description},
		{r.UserMirrors, &d.Preferences.UserMirrors},
		{r.DisabledMirrors, &d.Preferences.DisabledMirrors},
	} {
		if err := fromJSON(f.col, f.dst); err != nil {
			return nil, fmt.Errorf("repository %d: %w", r.RepoID, err)
		}
	}
	return d, nil
}

// GetRepository returns a repository with mirrors, attributes and preferences.
func (s *repositoryStore) GetRepository(ctx context.Context, repoID int64) (*domain.RepositoryDetail, error) {
	q := s.store.conn(ctx)

	var row repositoryRow
	if err := sqlx.GetContext(ctx, q, &row, repositorySelect+" WHERE r.repo_id = ?", repoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting repository: %w", err)
	}

	d, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListRepositories returns all repositories ordered by weight descending.
func (s *repositoryStore) ListRepositories(ctx context.Context) ([]domain.RepositoryDetail, error) {
	var rows []repositoryRow
	if err := sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, repositorySelect+" ORDER BY p.weight DESC"); err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	repos := make([]domain.RepositoryDetail, 0, len(rows))
	for i := range rows {
		d, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		if err := s.loadChildren(ctx, d); err != nil {
			return nil, err
		}
		repos = append(repos, *d)
	}
	return repos, nil
}

func (s *repositoryStore) loadChildren(ctx context.Context, d *domain.RepositoryDetail) error {
	var mirrors []struct {
		URL         string         `db:"url"`
		CountryCode sql.NullString `db:"country_code"`
	}
	if err := sqlx.SelectContext(ctx, s.store.conn(ctx), &mirrors,
		"SELECT url, country_code FROM mirror WHERE repo_id = ? ORDER BY rowid", d.ID); err != nil {
		return fmt.Errorf("listing mirrors: %w", err)
	}
	for _, m := range mirrors {
		d.Mirrors = append(d.Mirrors, domain.Mirror{RepoID: d.ID, URL: m.URL, CountryCode: m.CountryCode.String})
	}

	var err error
	if d.AntiFeatures, err = s.Attributes(ctx, d.ID, domain.AttributeAntiFeature); err != nil {
		return err
	}
	if d.Categories, err = s.Attributes(ctx, d.ID, domain.AttributeCategory); err != nil {
		return err
	}
	if d.ReleaseChannels, err = s.Attributes(ctx, d.ID, domain.AttributeReleaseChannel); err != nil {
		return err
	}
	return nil
}

// InsertRepository creates a repository together with its preferences row.
func (s *repositoryStore) InsertRepository(ctx context.Context, repo *domain.Repository, prefs domain.RepositoryPreferences) (int64, error) {
	var repoID int64
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		args, err := repositoryArgs(repo)
		if err != nil {
			return err
		}
		res, err := s.store.exec(ctx, `
			INSERT INTO repository (name, icon, address, web_base_url, description, timestamp,
			                        version, format_version, max_age, certificate)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, args, driven.TableRepository)
		if err != nil {
			return fmt.Errorf("inserting repository: %w", err)
		}
		if repoID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading repository id: %w", err)
		}

		userMirrors, err := toJSON(prefs.UserMirrors)
		if err != nil {
			return err
		}
		disabledMirrors, err := toJSON(prefs.DisabledMirrors)
		if err != nil {
			return err
		}
		_, err = s.store.exec(ctx, `
			INSERT INTO repository_preferences (repo_id, weight, enabled, last_updated, last_etag,
			                                    user_mirrors, disabled_mirrors, username, password)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, []any{repoID, prefs.Weight, prefs.Enabled, prefs.LastUpdated, nullString(prefs.LastETag),
			userMirrors, disabledMirrors, nullString(prefs.Username), nullString(prefs.Password)},
			driven.TablePreferences)
		if err != nil {
			return fmt.Errorf("inserting repository preferences: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return repoID, nil
}

func repositoryArgs(repo *domain.Repository) ([]any, error) {
	name, err := toJSON(repo.Name)
	if err != nil {
		return nil, err
	}
	icon, err := toJSON(repo.Icon)
	if err != nil {
		return nil, err
	}
	description, err := toJSON(repo.Description)
	if err != nil {
		return nil, err
	}
	return []any{name, icon, repo.Address, nullString(repo.WebBaseURL), description, repo.Timestamp,
		repo.Version, nullString(repo.FormatVersion), repo.MaxAge, repo.Certificate}, nil
}

// UpdateRepository overwrites the core row of an existing repository.
func (s *repositoryStore) UpdateRepository(ctx context.Context, repo *domain.Repository) error {
	args, err := repositoryArgs(repo)
	if err != nil {
		return err
	}
	res, err := s.store.exec(ctx, `
		UPDATE repository SET name = ?, icon = ?, address = ?, web_base_url = ?, description = ?,
		       timestamp = ?, version = ?, format_version = ?, max_age = ?, certificate = ?
		WHERE repo_id = ?
	`, append(args, repo.ID), driven.TableRepository)
	if err != nil {
		return fmt.Errorf("updating repository: %w", err)
	}
	return requireRow(res, repo.ID)
}

// DeleteRepository removes a repository and everything rooted at it.
func (s *repositoryStore) DeleteRepository(ctx context.Context, repoID int64) error {
	_, err := s.store.exec(ctx, "DELETE FROM repository WHERE repo_id = ?", []any{repoID},
		driven.TableRepository, driven.TablePreferences, driven.TableAttributes,
		driven.TableApp, driven.TableVersion)
	if err != nil {
		return fmt.Errorf("deleting repository: %w", err)
	}
	return nil
}

// ClearRepository removes the index data of a repository, keeping the
// repository row and its preferences.
func (s *repositoryStore) ClearRepository(ctx context.Context, repoID int64) error {
	return s.store.WithinTx(ctx, func(ctx context.Context) error {
		for _, stmt := range []struct {
			query string
			table string
		}{
			{"DELETE FROM app_metadata WHERE repo_id = ?", driven.TableApp},
			{"DELETE FROM mirror WHERE repo_id = ?", driven.TableRepository},
			{"DELETE FROM repo_attribute WHERE repo_id = ?", driven.TableAttributes},
		} {
			if _, err := s.store.exec(ctx, stmt.query, []any{repoID}, stmt.table); err != nil {
				return fmt.Errorf("clearing repository %d: %w", repoID, err)
			}
		}
		s.store.touch(ctx, driven.TableVersion)
		return nil
	})
}

// ResetTimestamps marks every repository as never updated.
func (s *repositoryStore) ResetTimestamps(ctx context.Context) error {
	if _, err := s.store.exec(ctx, "UPDATE repository SET timestamp = -1", nil, driven.TableRepository); err != nil {
		return fmt.Errorf("resetting timestamps: %w", err)
	}
	return nil
}

// WeightBounds returns the lowest and highest weight in use.
func (s *repositoryStore) WeightBounds(ctx context.Context) (int64, int64, bool, error) {
	var bounds struct {
		Min sql.NullInt64 `db:"min_weight"`
		Max sql.NullInt64 `db:"max_weight"`
	}
	err := sqlx.GetContext(ctx, s.store.conn(ctx), &bounds,
		"SELECT MIN(weight) AS min_weight, MAX(weight) AS max_weight FROM repository_preferences")
	if err != nil {
		return 0, 0, false, fmt.Errorf("getting weight bounds: %w", err)
	}
	if !bounds.Min.Valid {
		return 0, 0, false, nil
	}
	return bounds.Min.Int64, bounds.Max.Int64, true, nil
}

// InsertMirrors adds official mirrors, replacing duplicates.
func (s *repositoryStore) InsertMirrors(ctx context.Context, mirrors []domain.Mirror) error {
	for _, m := range mirrors {
		_, err := s.store.exec(ctx, `
			INSERT INTO mirror (repo_id, url, country_code) VALUES (?, ?, ?)
			ON CONFLICT(repo_id, url) DO UPDATE SET country_code = excluded.country_code
		`, []any{m.RepoID, m.URL, nullString(m.CountryCode)}, driven.TableRepository)
		if err != nil {
			return repoWriteError("inserting mirror", m.RepoID, err)
		}
	}
	return nil
}

// DeleteMirrors removes all official mirrors of a repository.
func (s *repositoryStore) DeleteMirrors(ctx context.Context, repoID int64) error {
	if _, err := s.store.exec(ctx, "DELETE FROM mirror WHERE repo_id = ?", []any{repoID}, driven.TableRepository); err != nil {
		return fmt.Errorf("deleting mirrors: %w", err)
	}
	return nil
}

type attributeRow struct {
	RepoID      int64          `db:"repo_id"`
	Kind        string         `db:"kind"`
	ID          string         `db:"id"`
	Icon        sql.NullString `db:"icon"`
	Name        sql.NullString `db:"name"`
	Description sql.NullString `db:"description"`
}

func (r *attributeRow) toDomain() (domain.RepoAttribute, error) {
	a := domain.RepoAttribute{RepoID: r.RepoID, Kind: domain.AttributeKind(r.Kind), ID: r.ID}
	if err := fromJSON(r.Icon, &a.Icon); err != nil {
		return a, err
	}
	if err := fromJSON(r.Name, &a.Name); err != nil {
		return a, err
	}
	if err := fromJSON(r.Description, &a.Description); err != nil {
		return a, err
	}
	return a, nil
}

// Attributes returns the attributes of one kind, ordered by id.
func (s *repositoryStore) Attributes(ctx context.Context, repoID int64, kind domain.AttributeKind) ([]domain.RepoAttribute, error) {
	var rows []attributeRow
	err := sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, `
		SELECT repo_id, kind, id, icon, name, description FROM repo_attribute
		WHERE repo_id = ? AND kind = ? ORDER BY id
	`, repoID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	return attributesToDomain(rows)
}

func attributesToDomain(rows []attributeRow) ([]domain.RepoAttribute, error) {
	attrs := make([]domain.RepoAttribute, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// UpsertAttributes inserts or replaces attributes keyed by (repo, kind, id).
func (s *repositoryStore) UpsertAttributes(ctx context.Context, attrs []domain.RepoAttribute) error {
	for _, a := range attrs {
		icon, err := toJSON(a.Icon)
		if err != nil {
			return err
		}
		name, err := toJSON(a.Name)
		if err != nil {
			return err
		}
		description, err := toJSON(a.Description)
		if err != nil {
			return err
		}
		_, err = s.store.exec(ctx, `
			INSERT INTO repo_attribute (repo_id, kind, id, icon, name, description)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(repo_id, kind, id) DO UPDATE SET
				icon = excluded.icon,
				name = excluded.name,
				description = excluded.description
		`, []any{a.RepoID, string(a.Kind), a.ID, icon, name, description}, driven.TableAttributes)
		if err != nil {
			return repoWriteError("saving attribute", a.RepoID, err)
		}
	}
	return nil
}

// DeleteAttributes removes all attributes of one kind.
func (s *repositoryStore) DeleteAttributes(ctx context.Context, repoID int64, kind domain.AttributeKind) error {
	_, err := s.store.exec(ctx, "DELETE FROM repo_attribute WHERE repo_id = ? AND kind = ?",
		[]any{repoID, string(kind)}, driven.TableAttributes)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", kind, err)
	}
	return nil
}

// DeleteAttribute removes one attribute.
func (s *repositoryStore) DeleteAttribute(ctx context.Context, repoID int64, kind domain.AttributeKind, id string) error {
	_, err := s.store.exec(ctx, "DELETE FROM repo_attribute WHERE repo_id = ? AND kind = ? AND id = ?",
		[]any{repoID, string(kind), id}, driven.TableAttributes)
	if err != nil {
		return fmt.Errorf("deleting %s %q: %w", kind, id, err)
	}
	return nil
}

// EnabledCategories returns every category once, from the highest-weight
// enabled repository declaring it.
func (s *repositoryStore) EnabledCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []attributeRow
	err := instrumentQuery("enabled_categories", func() error {
		return sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, `
			SELECT repo_id, kind, id, icon, name, description FROM (
				SELECT a.repo_id, a.kind, a.id, a.icon, a.name, a.description,
				       ROW_NUMBER() OVER (PARTITION BY a.id ORDER BY p.weight DESC) AS rn
				FROM repo_attribute a
				JOIN repository_preferences p ON p.repo_id = a.repo_id AND p.enabled = 1
				WHERE a.kind = ?
			)
			WHERE rn = 1
			ORDER BY id
		`, string(domain.AttributeCategory))
	})
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	attrs, err := attributesToDomain(rows)
	if err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(attrs))
	for _, a := range attrs {
		categories = append(categories, domain.Category{RepoAttribute: a})
	}
	return categories, nil
}

// GetPreferences returns the preferences of a repository or nil.
func (s *repositoryStore) GetPreferences(ctx context.Context, repoID int64) (*domain.RepositoryPreferences, error) {
	d, err := s.GetRepository(ctx, repoID)
	if err != nil || d == nil {
		return nil, err
	}
	return &d.Preferences, nil
}

// SetEnabled toggles whether a repository takes part in default views.
func (s *repositoryStore) SetEnabled(ctx context.Context, repoID int64, enabled bool) error {
	return s.updatePreferences(ctx, repoID, "enabled = ?", enabled)
}

// SetWeights assigns weights keyed by repository id.
func (s *repositoryStore) SetWeights(ctx context.Context, weights map[int64]int64) error {
	ids := make([]int64, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return s.store.WithinTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			if err := s.updatePreferences(ctx, id, "weight = ?", weights[id]); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetLastUpdated records when an index was last applied.
func (s *repositoryStore) SetLastUpdated(ctx context.Context, repoID int64, lastUpdated int64) error {
	return s.updatePreferences(ctx, repoID, "last_updated = ?", lastUpdated)
}

// UpdateUserMirrors replaces the user-added mirrors.
func (s *repositoryStore) UpdateUserMirrors(ctx context.Context, repoID int64, mirrors []string) error {
	value, err := toJSON(mirrors)
	if err != nil {
		return err
	}
	return s.updatePreferences(ctx, repoID, "user_mirrors = ?", value)
}

// UpdateDisabledMirrors replaces the disabled mirrors.
func (s *repositoryStore) UpdateDisabledMirrors(ctx context.Context, repoID int64, mirrors []string) error {
	value, err := toJSON(mirrors)
	if err != nil {
		return err
	}
	return s.updatePreferences(ctx, repoID, "disabled_mirrors = ?", value)
}

// UpdateCredentials replaces the basic auth credentials.
func (s *repositoryStore) UpdateCredentials(ctx context.Context, repoID int64, username, password string) error {
	return s.updatePreferences(ctx, repoID, "username = ?, password = ?", nullString(username), nullString(password))
}

func (s *repositoryStore) updatePreferences(ctx context.Context, repoID int64, set string, args ...any) error {
	res, err := s.store.exec(ctx, "UPDATE repository_preferences SET "+set+" WHERE repo_id = ?",
		append(args, repoID), driven.TablePreferences)
	if err != nil {
		return fmt.Errorf("updating repository preferences: %w", err)
	}
	return requireRow(res, repoID)
}

// requireRow fails with ErrRepositoryNotFound when a write matched no row.
func requireRow(res sql.Result, repoID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repo %d: %w", repoID, domain.ErrRepositoryNotFound)
	}
	return nil
}
