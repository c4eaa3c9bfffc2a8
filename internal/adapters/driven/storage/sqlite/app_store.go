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

// ==================== App Store ====================

// appStore implements driven.AppStore.
type appStore struct {
	store *Store
}

var _ driven.AppStore = (*appStore)(nil)

// appColumns lists app_metadata columns in appArgs order.
var appColumns = []string{
	"repo_id", "package_name", "added", "last_updated", "name", "summary", "description", "video",
	"web_site", "changelog", "license", "source_code", "issue_tracker", "translation",
	"preferred_signer", "author_name", "author_email", "author_web_site", "author_phone",
	"donate", "liberapay_id", "liberapay", "open_collective", "bitcoin", "litecoin", "flattr_id",
	"categories", "localized_name", "localized_summary", "is_compatible",
}

var (
	appSelect = "SELECT " + strings.Join(appColumns, ", ") + " FROM app_metadata"

	appInsert = "INSERT INTO app_metadata (" + strings.Join(appColumns, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(appColumns)), ", ") + ")" +
		" ON CONFLICT(repo_id, package_name) DO UPDATE SET " + assignments(appColumns[2:], "excluded.")

	appUpdate = "UPDATE app_metadata SET " + assignments(appColumns[2:], "") +
		" WHERE repo_id = ? AND package_name = ?"
)

// assignments renders "col = <prefix>col" pairs, or "col = ?" for an empty prefix.
func assignments(cols []string, prefix string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if prefix == "" {
			parts[i] = c + " = ?"
		} else {
			parts[i] = c + " = " + prefix + c
		}
	}
	return strings.Join(parts, ", ")
}

type appRow struct {
	RepoID           int64          `db:"repo_id"`
	PackageName      string         `db:"package_name"`
	Added            int64          `db:"added"`
	LastUpdated      int64          `db:"last_updated"`
	Name             sql.NullString `db:"name"`
	Summary          sql.NullString `db:"summary"`
	Description      sql.NullString `db:"description"`
	Video            sql.NullString `db:"video"`
	WebSite          sql.NullString `db:"web_site"`
	Changelog        sql.NullString `db:"changelog"`
	License          sql.NullString `db:"license"`
	SourceCode       sql.NullString `db:"source_code"`
	IssueTracker     sql.NullString `db:"issue_tracker"`
	Translation      sql.NullString `db:"translation"`
	PreferredSigner  sql.NullString `db:"preferred_signer"`
	AuthorName       sql.NullString `db:"author_name"`
	AuthorEmail      sql.NullString `db:"author_email"`
	AuthorWebSite    sql.NullString `db:"author_web_site"`
	AuthorPhone      sql.NullString `db:"author_phone"`
	Donate           sql.NullString `db:"donate"`
	LiberapayID      sql.NullString `db:"liberapay_id"`
	Liberapay        sql.NullString `db:"liberapay"`
	OpenCollective   sql.NullString `db:"open_collective"`
	Bitcoin          sql.NullString `db:"bitcoin"`
	Litecoin         sql.NullString `db:"litecoin"`
	FlattrID         sql.NullString `db:"flattr_id"`
	Categories       sql.NullString `db:"categories"`
	LocalizedName    sql.NullString `db:"localized_name"`
	LocalizedSummary sql.NullString `db:"localized_summary"`
	IsCompatible     bool           `db:"is_compatible"`
}

func (r *appRow) toDomain() (*domain.AppMetadata, error) {
	m := &domain.AppMetadata{
		RepoID:           r.RepoID,
		PackageName:      r.PackageName,
		Added:            r.Added,
		LastUpdated:      r.LastUpdated,
		WebSite:          r.WebSite.String,
		Changelog:        r.Changelog.String,
		License:          r.License.String,
		SourceCode:       r.SourceCode.String,
		IssueTracker:     r.IssueTracker.String,
		Translation:      r.Translation.String,
		PreferredSigner:  r.PreferredSigner.String,
		AuthorName:       r.AuthorName.String,
		AuthorEmail:      r.AuthorEmail.String,
		AuthorWebSite:    r.AuthorWebSite.String,
		AuthorPhone:      r.AuthorPhone.String,
		LiberapayID:      r.LiberapayID.String,
		Liberapay:        r.Liberapay.String,
		OpenCollective:   r.OpenCollective.String,
		Bitcoin:          r.Bitcoin.String,
		Litecoin:         r.Litecoin.String,
		FlattrID:         r.FlattrID.String,
		Categories:       splitList(r.Categories),
		LocalizedName:    r.LocalizedName.String,
		LocalizedSummary: r.LocalizedSummary.String,
		IsCompatible:     r.IsCompatible,
	}
	for _, f := range []struct {
		col sql.NullString
		dst any
	}{
		{r.Name, &m.Name},
		{r.Summary, &m.Summary},
		{r.Description, &m.Description},
		{r.Video, &m.Video},
		{r.Donate, &m.Donate},
	} {
		if err := fromJSON(f.col, f.dst); err != nil {
			return nil, fmt.Errorf("app %s: %w", r.PackageName, err)
		}
	}
	return m, nil
}

func appArgs(m *domain.AppMetadata) ([]any, error) {
	localized := make([]sql.NullString, 0, 5)
	for _, v := range []any{m.Name, m.Summary, m.Description, m.Video, m.Donate} {
		col, err := toJSON(v)
		if err != nil {
			return nil, err
		}
		localized = append(localized, col)
	}
	return []any{
		m.RepoID, m.PackageName, m.Added, m.LastUpdated,
		localized[0], localized[1], localized[2], localized[3],
		nullString(m.WebSite), nullString(m.Changelog), nullString(m.License),
		nullString(m.SourceCode), nullString(m.IssueTracker), nullString(m.Translation),
		nullString(m.PreferredSigner), nullString(m.AuthorName), nullString(m.AuthorEmail),
		nullString(m.AuthorWebSite), nullString(m.AuthorPhone),
		localized[4], nullString(m.LiberapayID), nullString(m.Liberapay),
		nullString(m.OpenCollective), nullString(m.Bitcoin), nullString(m.Litecoin),
		nullString(m.FlattrID), joinList(m.Categories),
		nullString(m.LocalizedName), nullString(m.LocalizedSummary), m.IsCompatible,
	}, nil
}

// GetApp returns an app with its localized files, or nil.
func (s *appStore) GetApp(ctx context.Context, repoID int64, packageName string) (*domain.App, error) {
	m, err := s.GetAppMetadata(ctx, repoID, packageName)
	if err != nil || m == nil {
		return nil, err
	}

	app := &domain.App{AppMetadata: *m}

	files, err := s.LocalizedFiles(ctx, repoID, packageName)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		byLocale := app.FileByType(f.Type)
		if byLocale == nil {
			byLocale = domain.LocalizedFile{}
		}
		byLocale[f.Locale] = f.File
		app.SetFile(f.Type, byLocale)
	}

	var lists []localizedFileRow
	err = sqlx.SelectContext(ctx, s.store.conn(ctx), &lists, `
		SELECT repo_id, package_name, type, locale, name, sha256, size, sort_order
		FROM localized_file_list WHERE repo_id = ? AND package_name = ?
		ORDER BY type, locale, sort_order
	`, repoID, packageName)
	if err != nil {
		return nil, fmt.Errorf("listing screenshots: %w", err)
	}
	if len(lists) > 0 {
		app.Screenshots = &domain.Screenshots{}
		for _, l := range lists {
			byLocale := app.Screenshots.ByType(l.Type)
			if byLocale == nil {
				byLocale = domain.LocalizedFileList{}
			}
			byLocale[l.Locale] = append(byLocale[l.Locale], l.file())
			app.Screenshots.Set(l.Type, byLocale)
		}
	}
	return app, nil
}

// GetAppMetadata returns the metadata row of an app, or nil.
func (s *appStore) GetAppMetadata(ctx context.Context, repoID int64, packageName string) (*domain.AppMetadata, error) {
	var row appRow
	err := sqlx.GetContext(ctx, s.store.conn(ctx), &row,
		appSelect+" WHERE repo_id = ? AND package_name = ?", repoID, packageName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting app: %w", err)
	}
	return row.toDomain()
}

// ListAppMetadata returns every app metadata row of every repository.
func (s *appStore) ListAppMetadata(ctx context.Context) ([]domain.AppMetadata, error) {
	var rows []appRow
	if err := sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, appSelect+" ORDER BY app_id"); err != nil {
		return nil, fmt.Errorf("listing apps: %w", err)
	}
	apps := make([]domain.AppMetadata, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		apps = append(apps, *m)
	}
	return apps, nil
}

// InsertApp inserts an app with its localized files and screenshots.
// An existing row for the same key is updated in place.
func (s *appStore) InsertApp(ctx context.Context, app *domain.App) error {
	return s.store.WithinTx(ctx, func(ctx context.Context) error {
		args, err := appArgs(&app.AppMetadata)
		if err != nil {
			return err
		}
		if _, err := s.store.exec(ctx, appInsert, args, driven.TableApp); err != nil {
			return repoWriteError("inserting app "+app.PackageName, app.RepoID, err)
		}

		var files []domain.LocalizedFileRow
		for _, fileType := range domain.FileTypes {
			for locale, f := range app.FileByType(fileType) {
				files = append(files, domain.LocalizedFileRow{
					RepoID: app.RepoID, PackageName: app.PackageName,
					Type: fileType, Locale: locale, File: f,
				})
			}
		}
		if err := s.UpsertLocalizedFiles(ctx, files); err != nil {
			return err
		}

		var lists []domain.LocalizedFileListRow
		for _, kind := range domain.ScreenshotTypes {
			for locale, list := range app.Screenshots.ByType(kind) {
				for i, f := range list {
					lists = append(lists, domain.LocalizedFileListRow{
						RepoID: app.RepoID, PackageName: app.PackageName,
						Type: kind, Locale: locale, Order: i, File: f,
					})
				}
			}
		}
		return s.InsertLocalizedFileLists(ctx, lists)
	})
}

// UpdateAppMetadata overwrites the metadata row of an existing app.
func (s *appStore) UpdateAppMetadata(ctx context.Context, m *domain.AppMetadata) error {
	args, err := appArgs(m)
	if err != nil {
		return err
	}
	args = append(args[2:], m.RepoID, m.PackageName)
	if _, err := s.store.exec(ctx, appUpdate, args, driven.TableApp); err != nil {
		return fmt.Errorf("updating app %s: %w", m.PackageName, err)
	}
	return nil
}

// UpdateLocalizedNames refreshes the locale cache of one app.
func (s *appStore) UpdateLocalizedNames(ctx context.Context, repoID int64, packageName, name, summary string) error {
	_, err := s.store.exec(ctx, `
		UPDATE app_metadata SET localized_name = ?, localized_summary = ?
		WHERE repo_id = ? AND package_name = ?
	`, []any{nullString(name), nullString(summary), repoID, packageName}, driven.TableApp)
	if err != nil {
		return fmt.Errorf("updating localized names of %s: %w", packageName, err)
	}
	return nil
}

// DeleteApp removes an app with its files and versions.
func (s *appStore) DeleteApp(ctx context.Context, repoID int64, packageName string) error {
	_, err := s.store.exec(ctx, "DELETE FROM app_metadata WHERE repo_id = ? AND package_name = ?",
		[]any{repoID, packageName}, driven.TableApp, driven.TableVersion)
	if err != nil {
		return fmt.Errorf("deleting app %s: %w", packageName, err)
	}
	return nil
}

// DeleteAllApps removes every app of every repository.
func (s *appStore) DeleteAllApps(ctx context.Context) error {
	if _, err := s.store.exec(ctx, "DELETE FROM app_metadata", nil, driven.TableApp, driven.TableVersion); err != nil {
		return fmt.Errorf("deleting apps: %w", err)
	}
	return nil
}

type localizedFileRow struct {
	RepoID      int64          `db:"repo_id"`
	PackageName string         `db:"package_name"`
	Type        string         `db:"type"`
	Locale      string         `db:"locale"`
	Name        string         `db:"name"`
	SHA256      sql.NullString `db:"sha256"`
	Size        sql.NullInt64  `db:"size"`
	SortOrder   int            `db:"sort_order"`
}

func (r *localizedFileRow) file() domain.File {
	f := domain.File{Name: r.Name, SHA256: r.SHA256.String}
	if r.Size.Valid {
		size := r.Size.Int64
		f.Size = &size
	}
	return f
}

// LocalizedFiles returns the single-file assets of an app.
func (s *appStore) LocalizedFiles(ctx context.Context, repoID int64, packageName string) ([]domain.LocalizedFileRow, error) {
	var rows []localizedFileRow
	err := sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, `
		SELECT repo_id, package_name, type, locale, name, sha256, size
		FROM localized_file WHERE repo_id = ? AND package_name = ?
		ORDER BY type, locale
	`, repoID, packageName)
	if err != nil {
		return nil, fmt.Errorf("listing localized files: %w", err)
	}
	files := make([]domain.LocalizedFileRow, 0, len(rows))
	for i := range rows {
		files = append(files, domain.LocalizedFileRow{
			RepoID: rows[i].RepoID, PackageName: rows[i].PackageName,
			Type: rows[i].Type, Locale: rows[i].Locale, File: rows[i].file(),
		})
	}
	return files, nil
}

// UpsertLocalizedFiles inserts or replaces files keyed by (repo, package, type, locale).
func (s *appStore) UpsertLocalizedFiles(ctx context.Context, files []domain.LocalizedFileRow) error {
	for _, f := range files {
		_, err := s.store.exec(ctx, `
			INSERT INTO localized_file (repo_id, package_name, type, locale, name, sha256, size)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(repo_id, package_name, type, locale) DO UPDATE SET
				name = excluded.name,
				sha256 = excluded.sha256,
				size = excluded.size
		`, []any{f.RepoID, f.PackageName, f.Type, f.Locale, f.File.Name, nullString(f.File.SHA256), f.File.Size},
			driven.TableApp)
		if err != nil {
			return fmt.Errorf("saving %s of %s: %w", f.Type, f.PackageName, err)
		}
	}
	return nil
}

// DeleteLocalizedFiles removes the files of one type, or of every type when
// fileType is empty.
func (s *appStore) DeleteLocalizedFiles(ctx context.Context, repoID int64, packageName, fileType string) error {
	query := "DELETE FROM localized_file WHERE repo_id = ? AND package_name = ?"
	args := []any{repoID, packageName}
	if fileType != "" {
		query += " AND type = ?"
		args = append(args, fileType)
	}
	if _, err := s.store.exec(ctx, query, args, driven.TableApp); err != nil {
		return fmt.Errorf("deleting localized files of %s: %w", packageName, err)
	}
	return nil
}

// DeleteLocalizedFile removes the file of one type and locale.
func (s *appStore) DeleteLocalizedFile(ctx context.Context, repoID int64, packageName, fileType, locale string) error {
	_, err := s.store.exec(ctx,
		"DELETE FROM localized_file WHERE repo_id = ? AND package_name = ? AND type = ? AND locale = ?",
		[]any{repoID, packageName, fileType, locale}, driven.TableApp)
	if err != nil {
		return fmt.Errorf("deleting %s/%s of %s: %w", fileType, locale, packageName, err)
	}
	return nil
}

// InsertLocalizedFileLists inserts screenshot rows, replacing duplicates.
func (s *appStore) InsertLocalizedFileLists(ctx context.Context, files []domain.LocalizedFileListRow) error {
	for _, f := range files {
		_, err := s.store.exec(ctx, `
			INSERT INTO localized_file_list (repo_id, package_name, type, locale, name, sha256, size, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(repo_id, package_name, type, locale, name) DO UPDATE SET
				sha256 = excluded.sha256,
				size = excluded.size,
				sort_order = excluded.sort_order
		`, []any{f.RepoID, f.PackageName, f.Type, f.Locale, f.File.Name, nullString(f.File.SHA256), f.File.Size, f.Order},
			driven.TableApp)
		if err != nil {
			return fmt.Errorf("saving %s screenshot of %s: %w", f.Type, f.PackageName, err)
		}
	}
	return nil
}

// DeleteLocalizedFileLists removes the screenshots of one type, or of every
// type when fileType is empty.
func (s *appStore) DeleteLocalizedFileLists(ctx context.Context, repoID int64, packageName, fileType string) error {
	query := "DELETE FROM localized_file_list WHERE repo_id = ? AND package_name = ?"
	args := []any{repoID, packageName}
	if fileType != "" {
		query += " AND type = ?"
		args = append(args, fileType)
	}
	if _, err := s.store.exec(ctx, query, args, driven.TableApp); err != nil {
		return fmt.Errorf("deleting screenshots of %s: %w", packageName, err)
	}
	return nil
}

// DeleteLocalizedFileList removes the screenshots of one type and locale.
func (s *appStore) DeleteLocalizedFileList(ctx context.Context, repoID int64, packageName, fileType, locale string) error {
	_, err := s.store.exec(ctx,
		"DELETE FROM localized_file_list WHERE repo_id = ? AND package_name = ? AND type = ? AND locale = ?",
		[]any{repoID, packageName, fileType, locale}, driven.TableApp)
	if err != nil {
		return fmt.Errorf("deleting %s/%s screenshots of %s: %w", fileType, locale, packageName, err)
	}
	return nil
}

// UpdateCompatibility marks each app of a repository compatible when at
// least one of its versions is.
func (s *appStore) UpdateCompatibility(ctx context.Context, repoID int64) error {
	_, err := s.store.exec(ctx, `
		UPDATE app_metadata SET is_compatible = (
			SELECT TOTAL(v.is_compatible) > 0 FROM version v
			WHERE v.repo_id = app_metadata.repo_id AND v.package_name = app_metadata.package_name
		)
		WHERE repo_id = ?
	`, []any{repoID}, driven.TableApp)
	if err != nil {
		return fmt.Errorf("updating app compatibility: %w", err)
	}
	return nil
}

// FindApp returns the copy of a package that takes precedence, or nil.
func (s *appStore) FindApp(ctx context.Context, packageName string) (*domain.App, error) {
	repos, err := s.PreferredRepos(ctx, []string{packageName})
	if err != nil {
		return nil, err
	}
	repoID, ok := repos[packageName]
	if !ok {
		return nil, nil
	}
	return s.GetApp(ctx, repoID, packageName)
}

// PreferredRepos maps each package to the repository whose copy takes precedence.
// Packages missing from every enabled repository are absent from the map.
func (s *appStore) PreferredRepos(ctx context.Context, packageNames []string) (map[string]int64, error) {
	var rows []struct {
		PackageName string `db:"package_name"`
		RepoID      int64  `db:"repo_id"`
	}
	err := instrumentQuery("preferred_repos", func() error {
		return selectIn(ctx, s.store.conn(ctx), &rows,
			"SELECT package_name, repo_id FROM preferred_app WHERE package_name IN (?)", packageNames)
	})
	if err != nil {
		return nil, fmt.Errorf("getting preferred repos: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.PackageName] = r.RepoID
	}
	return out, nil
}

// ==================== App Lists ====================

const itemColumns = `
	a.repo_id, a.package_name, a.added, a.last_updated, a.localized_name, a.localized_summary,
	a.categories, a.is_compatible, a.preferred_signer, hv.anti_features,
	(SELECT json_group_object(i.locale, json_object('name', i.name, 'sha256', i.sha256, 'size', i.size))
	 FROM localized_icon i
	 WHERE i.repo_id = a.repo_id AND i.package_name = a.package_name) AS icon_json
`

const preferredItemSelect = "SELECT " + itemColumns + `
	FROM preferred_app pa
	JOIN app_metadata a ON a.app_id = pa.app_id
	LEFT JOIN highest_version hv ON hv.repo_id = a.repo_id AND hv.package_name = a.package_name
`

type itemRow struct {
	RepoID           int64          `db:"repo_id"`
	PackageName      string         `db:"package_name"`
	Added            int64          `db:"added"`
	LastUpdated      int64          `db:"last_updated"`
	LocalizedName    sql.NullString `db:"localized_name"`
	LocalizedSummary sql.NullString `db:"localized_summary"`
	Categories       sql.NullString `db:"categories"`
	IsCompatible     bool           `db:"is_compatible"`
	PreferredSigner  sql.NullString `db:"preferred_signer"`
	AntiFeatures     sql.NullString `db:"anti_features"`
	IconJSON         sql.NullString `db:"icon_json"`
}

func (r *itemRow) decode() (domain.LocalizedFile, []string, error) {
	var icon domain.LocalizedFile
	if err := fromJSON(r.IconJSON, &icon); err != nil {
		return nil, nil, fmt.Errorf("app %s icon: %w", r.PackageName, err)
	}
	if len(icon) == 0 {
		icon = nil
	}
	var anti map[string]domain.LocalizedText
	if err := fromJSON(r.AntiFeatures, &anti); err != nil {
		return nil, nil, fmt.Errorf("app %s anti-features: %w", r.PackageName, err)
	}
	v := domain.Version{AntiFeatures: anti}
	keys := v.AntiFeatureKeys()
	if len(keys) == 0 {
		keys = nil
	}
	return icon, keys, nil
}

func (r *itemRow) listItem() (domain.AppListItem, error) {
	icon, anti, err := r.decode()
	if err != nil {
		return domain.AppListItem{}, err
	}
	return domain.AppListItem{
		RepoID:          r.RepoID,
		PackageName:     r.PackageName,
		Name:            r.LocalizedName.String,
		Summary:         r.LocalizedSummary.String,
		LastUpdated:     r.LastUpdated,
		Categories:      splitList(r.Categories),
		AntiFeatures:    anti,
		Icon:            icon,
		IsCompatible:    r.IsCompatible,
		PreferredSigner: r.PreferredSigner.String,
	}, nil
}

func (r *itemRow) overviewItem() (domain.AppOverviewItem, error) {
	icon, anti, err := r.decode()
	if err != nil {
		return domain.AppOverviewItem{}, err
	}
	return domain.AppOverviewItem{
		RepoID:       r.RepoID,
		PackageName:  r.PackageName,
		Added:        r.Added,
		LastUpdated:  r.LastUpdated,
		Name:         r.LocalizedName.String,
		Summary:      r.LocalizedSummary.String,
		Icon:         icon,
		AntiFeatures: anti,
		IsCompatible: r.IsCompatible,
	}, nil
}

func listItems(rows []itemRow) ([]domain.AppListItem, error) {
	items := make([]domain.AppListItem, 0, len(rows))
	for i := range rows {
		item, err := rows[i].listItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ListAppItems returns one row per package from the repository that takes
// precedence, filtered by category and ordered by query.SortBy.
// query.Search is not applied here.
func (s *appStore) ListAppItems(ctx context.Context, query domain.AppListQuery) ([]domain.AppListItem, error) {
	q := preferredItemSelect
	var args []any
	if query.Category != "" {
		q += " WHERE a.categories LIKE ?" + likeEscape
		args = append(args, likeList(query.Category))
	}
	if query.SortBy == domain.SortByName {
		q += " ORDER BY a.localized_name IS NULL, a.localized_name COLLATE NOCASE, a.package_name"
	} else {
		q += " ORDER BY a.last_updated DESC, a.package_name"
	}
	if query.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, query.Limit)
	}

	var rows []itemRow
	err := instrumentQuery("list_app_items", func() error {
		return sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, q, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("listing apps: %w", err)
	}
	return listItems(rows)
}

// AppItemsByPackage returns the precedence row of each given package.
func (s *appStore) AppItemsByPackage(ctx context.Context, packageNames []string) ([]domain.AppListItem, error) {
	var rows []itemRow
	err := instrumentQuery("app_items_by_package", func() error {
		return selectIn(ctx, s.store.conn(ctx), &rows,
			preferredItemSelect+" WHERE a.package_name IN (?)", packageNames)
	})
	if err != nil {
		return nil, fmt.Errorf("listing apps by package: %w", err)
	}
	return listItems(rows)
}

// OverviewItems returns apps with a name first, then with an icon, then with
// a summary, most recently updated first within each group.
func (s *appStore) OverviewItems(ctx context.Context, category string, limit int) ([]domain.AppOverviewItem, error) {
	q := preferredItemSelect
	var args []any
	if category != "" {
		q += " WHERE a.categories LIKE ?" + likeEscape
		args = append(args, likeList(category))
	}
	q += ` ORDER BY a.localized_name IS NULL, COALESCE(icon_json, '{}') = '{}',
		a.localized_summary IS NULL, a.last_updated DESC, a.package_name LIMIT ?`
	args = append(args, limit)

	var rows []itemRow
	err := instrumentQuery("overview_items", func() error {
		return sqlx.SelectContext(ctx, s.store.conn(ctx), &rows, q, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("listing overview: %w", err)
	}

	items := make([]domain.AppOverviewItem, 0, len(rows))
	for i := range rows {
		item, err := rows[i].overviewItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// GetOverviewItem returns the overview row of an app in a given repository, or nil.
func (s *appStore) GetOverviewItem(ctx context.Context, repoID int64, packageName string) (*domain.AppOverviewItem, error) {
	var row itemRow
	err := sqlx.GetContext(ctx, s.store.conn(ctx), &row, "SELECT "+itemColumns+`
		FROM app_metadata a
		LEFT JOIN highest_version hv ON hv.repo_id = a.repo_id AND hv.package_name = a.package_name
		WHERE a.repo_id = ? AND a.package_name = ?
	`, repoID, packageName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting overview item: %w", err)
	}
	item, err := row.overviewItem()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CountAppsInCategory counts packages in a category across enabled repositories.
func (s *appStore) CountAppsInCategory(ctx context.Context, category string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, s.store.conn(ctx), &n, `
		SELECT COUNT(*) FROM preferred_app pa
		JOIN app_metadata a ON a.app_id = pa.app_id
		WHERE a.categories LIKE ? ESCAPE '\'
	`, likeList(category))
	if err != nil {
		return 0, fmt.Errorf("counting apps in category: %w", err)
	}
	return n, nil
}

// CountAppsInRepository counts the apps of one repository.
func (s *appStore) CountAppsInRepository(ctx context.Context, repoID int64) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, s.store.conn(ctx), &n,
		"SELECT COUNT(*) FROM app_metadata WHERE repo_id = ?", repoID); err != nil {
		return 0, fmt.Errorf("counting apps in repository: %w", err)
	}
	return n, nil
}

// CountApps counts app rows across all repositories.
func (s *appStore) CountApps(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, s.store.conn(ctx), &n, "SELECT COUNT(*) FROM app_metadata"); err != nil {
		return 0, fmt.Errorf("counting apps: %w", err)
	}
	return n, nil
}
