package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/catalog-sync/internal/core/diff"
	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/index"
	"github.com/custodia-labs/catalog-sync/internal/logger"
)

// repoTableKeys are the repository diff keys backed by child tables.
var repoTableKeys = []string{"mirrors", "antiFeatures", "categories", "releaseChannels"}

// diffReceiver merges the records of a diff index into stored data.
type diffReceiver struct {
	svc      *IndexService
	repoID   int64
	version  int64
	locales  []string
	packages int
}

func (s *IndexService) newDiffReceiver(repoID, version int64) *diffReceiver {
	return &diffReceiver{
		svc:     s,
		repoID:  repoID,
		version: version,
		locales: s.locales.Locales(),
	}
}

// ReceiveRepo merges the repository diff and its attribute tables.
func (d *diffReceiver) ReceiveRepo(ctx context.Context, raw json.RawMessage) error {
	c, err := diff.Parse(raw)
	if err != nil {
		return fmt.Errorf("repo: %w", err)
	}
	stored, err := d.svc.repos.GetRepository(ctx, d.repoID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("repo %d: %w", d.repoID, domain.ErrRepositoryNotFound)
	}

	repo, err := diff.Apply(stored.Repository, c.Without(repoTableKeys...), "address")
	if err != nil {
		return fmt.Errorf("repo: %w", err)
	}
	repo.Version = &d.version
	if err := d.svc.repos.UpdateRepository(ctx, &repo); err != nil {
		return err
	}

	repos := d.svc.repos
	err = diff.DiffAndUpdateListTable(c, "mirrors", diff.ListOps[domain.Mirror]{
		Parse: func(raw json.RawMessage) ([]domain.Mirror, error) {
			var mirrors []domain.Mirror
			if err := json.Unmarshal(raw, &mirrors); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
			}
			for i := range mirrors {
				mirrors[i].RepoID = d.repoID
			}
			return mirrors, nil
		},
		DeleteList:    func() error { return repos.DeleteMirrors(ctx, d.repoID) },
		InsertNewList: func(items []domain.Mirror) error { return repos.InsertMirrors(ctx, items) },
	})
	if err != nil {
		return err
	}

	for _, attrs := range []struct {
		kind  domain.AttributeKind
		items []domain.RepoAttribute
	}{
		{domain.AttributeAntiFeature, stored.AntiFeatures},
		{domain.AttributeCategory, stored.Categories},
		{domain.AttributeReleaseChannel, stored.ReleaseChannels},
	} {
		kind := attrs.kind
		err := diff.DiffAndUpdateTable(c, string(kind), diff.TableOps[domain.RepoAttribute]{
			Items: attrs.items,
			Find:  func(key string, a domain.RepoAttribute) bool { return a.ID == key },
			New: func(key string) domain.RepoAttribute {
				return domain.RepoAttribute{RepoID: d.repoID, Kind: kind, ID: key}
			},
			DeleteAll: func() error { return repos.DeleteAttributes(ctx, d.repoID, kind) },
			DeleteOne: func(key string) error { return repos.DeleteAttribute(ctx, d.repoID, kind, key) },
			InsertReplace: func(items []domain.RepoAttribute) error {
				return repos.UpsertAttributes(ctx, items)
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReceivePackage applies the metadata and versions diff of one package.
// A null package deletes it together with its versions.
func (d *diffReceiver) ReceivePackage(ctx context.Context, packageName string, raw json.RawMessage) error {
	d.packages++
	if index.IsNull(raw) {
		logger.Debug("Deleting %s from repo %d", packageName, d.repoID)
		return d.svc.apps.DeleteApp(ctx, d.repoID, packageName)
	}
	c, err := diff.Parse(raw)
	if err != nil {
		return err
	}

	metadata := c.Field(domain.IndexKeyMetadata)
	switch {
	case metadata.IsNull():
		return d.svc.apps.DeleteApp(ctx, d.repoID, packageName)
	case !metadata.IsAbsent():
		if err := d.updateApp(ctx, packageName, metadata); err != nil {
			return err
		}
	}

	return d.updateVersions(ctx, packageName, c.Field(domain.IndexKeyVersions))
}

// StreamEnded recomputes app compatibility and records the update time.
func (d *diffReceiver) StreamEnded(ctx context.Context) error {
	return d.svc.streamEnded(ctx, d.repoID)
}

// ==================== Apps ====================

// localizedFile is one locale of a localized file table. Its JSON form is
// the file itself, which is what a per-locale diff merges into.
type localizedFile struct {
	Locale string `json:"-"`
	domain.File
}

func (d *diffReceiver) updateApp(ctx context.Context, packageName string, f diff.Field) error {
	stored, err := d.svc.apps.GetAppMetadata(ctx, d.repoID, packageName)
	if err != nil {
		return err
	}
	if stored == nil {
		app, err := index.DecodeApp(f.Raw)
		if err != nil {
			return err
		}
		app.RepoID = d.repoID
		app.PackageName = packageName
		app.UpdateLocaleCache(d.locales)
		return d.svc.apps.InsertApp(ctx, app)
	}

	c, err := f.Object()
	if err != nil {
		return err
	}
	if err := c.CheckDenyList(appDenyList...); err != nil {
		return err
	}

	scalars := c.Without(append([]string{"screenshots"}, domain.FileTypes...)...)
	updated, err := diff.Apply(*stored, scalars)
	if err != nil {
		return err
	}
	if c.Has("name") || c.Has("summary") {
		updated.UpdateLocaleCache(d.locales)
	}
	if err := d.svc.apps.UpdateAppMetadata(ctx, &updated); err != nil {
		return err
	}

	if err := d.updateLocalizedFiles(ctx, packageName, c); err != nil {
		return err
	}
	return d.updateScreenshots(ctx, packageName, c)
}

func (d *diffReceiver) updateLocalizedFiles(ctx context.Context, packageName string, c diff.Changes) error {
	apps := d.svc.apps
	rows, err := apps.LocalizedFiles(ctx, d.repoID, packageName)
	if err != nil {
		return err
	}
	for _, fileType := range domain.FileTypes {
		var items []localizedFile
		for _, r := range rows {
			if r.Type == fileType {
				items = append(items, localizedFile{Locale: r.Locale, File: r.File})
			}
		}
		err := diff.DiffAndUpdateTable(c, fileType, diff.TableOps[localizedFile]{
			Items: items,
			Find:  func(locale string, f localizedFile) bool { return f.Locale == locale },
			New:   func(locale string) localizedFile { return localizedFile{Locale: locale} },
			DeleteAll: func() error {
				return apps.DeleteLocalizedFiles(ctx, d.repoID, packageName, fileType)
			},
			DeleteOne: func(locale string) error {
				return apps.DeleteLocalizedFile(ctx, d.repoID, packageName, fileType, locale)
			},
			InsertReplace: func(items []localizedFile) error {
				out := make([]domain.LocalizedFileRow, 0, len(items))
				for _, f := range items {
					if err := index.Validate(&f.File); err != nil {
						return fmt.Errorf("%s/%s: %w", fileType, f.Locale, err)
					}
					out = append(out, domain.LocalizedFileRow{
						RepoID:      d.repoID,
						PackageName: packageName,
						Type:        fileType,
						Locale:      f.Locale,
						File:        f.File,
					})
				}
				return apps.UpsertLocalizedFiles(ctx, out)
			},
			IsNewItemValid: func(f localizedFile) bool { return f.Name != "" },
			DenyList:       fileDenyList,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *diffReceiver) updateScreenshots(ctx context.Context, packageName string, c diff.Changes) error {
	apps := d.svc.apps
	f := c.Field("screenshots")
	switch {
	case f.IsAbsent():
		return nil
	case f.IsNull():
		return apps.DeleteLocalizedFileLists(ctx, d.repoID, packageName, "")
	}
	screenshots, err := f.Object()
	if err != nil {
		return fmt.Errorf("screenshots: %w", err)
	}
	for _, kind := range domain.ScreenshotTypes {
		err := diff.DiffAndUpdateLocaleListTable(screenshots, kind, diff.LocaleListOps[domain.LocalizedFileListRow]{
			Parse: func(locale string, raw json.RawMessage) ([]domain.LocalizedFileListRow, error) {
				var files []domain.File
				if err := json.Unmarshal(raw, &files); err != nil {
					return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
				}
				out := make([]domain.LocalizedFileListRow, 0, len(files))
				for i, file := range files {
					if err := index.Validate(&file); err != nil {
						return nil, err
					}
					out = append(out, domain.LocalizedFileListRow{
						RepoID:      d.repoID,
						PackageName: packageName,
						Type:        kind,
						Locale:      locale,
						Order:       i,
						File:        file,
					})
				}
				return out, nil
			},
			DeleteAll: func() error {
				return apps.DeleteLocalizedFileLists(ctx, d.repoID, packageName, kind)
			},
			DeleteList: func(locale string) error {
				return apps.DeleteLocalizedFileList(ctx, d.repoID, packageName, kind, locale)
			},
			InsertNewList: func(_ string, items []domain.LocalizedFileListRow) error {
				return apps.InsertLocalizedFileLists(ctx, items)
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ==================== Versions ====================

func (d *diffReceiver) updateVersions(ctx context.Context, packageName string, f diff.Field) error {
	versions := d.svc.versions
	switch {
	case f.IsAbsent():
		return nil
	case f.IsNull():
		return versions.DeleteVersions(ctx, d.repoID, packageName)
	}
	c, err := f.Object()
	if err != nil {
		return fmt.Errorf("versions: %w", err)
	}
	for _, versionID := range c.Keys() {
		vf := c.Field(versionID)
		if vf.IsNull() {
			if err := versions.DeleteVersion(ctx, d.repoID, packageName, versionID); err != nil {
				return err
			}
			continue
		}
		if err := d.updateVersion(ctx, packageName, versionID, vf); err != nil {
			return fmt.Errorf("version %s: %w", versionID, err)
		}
	}
	return nil
}

func (d *diffReceiver) updateVersion(ctx context.Context, packageName, versionID string, f diff.Field) error {
	versions := d.svc.versions
	stored, err := versions.GetVersion(ctx, d.repoID, packageName, versionID)
	if err != nil {
		return err
	}
	if stored == nil {
		v, err := index.DecodeVersion(f.Raw)
		if err != nil {
			return err
		}
		v.RepoID = d.repoID
		v.PackageName = packageName
		v.VersionID = versionID
		return d.svc.insertVersion(ctx, v)
	}

	c, err := f.Object()
	if err != nil {
		return err
	}
	if err := c.CheckDenyList(versionDenyList...); err != nil {
		return err
	}
	updated, err := diff.Apply(*stored, c, "file")
	if err != nil {
		return err
	}
	compatible, err := d.svc.compat.IsCompatible(updated.Manifest)
	if err != nil {
		return fmt.Errorf("checking compatibility: %w", err)
	}
	updated.IsCompatible = compatible
	if err := versions.UpdateVersion(ctx, &updated); err != nil {
		return err
	}

	manifest := c.Field("manifest")
	switch {
	case manifest.IsNull():
		return versions.DeletePermissions(ctx, d.repoID, packageName, versionID, "")
	case manifest.IsAbsent():
		return nil
	}
	mc, err := manifest.Object()
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	for _, set := range []struct {
		key  string
		kind string
	}{
		{"usesPermission", domain.PermissionTypeDefault},
		{"usesPermissionSdk23", domain.PermissionTypeSDK23},
	} {
		kind := set.kind
		err := diff.DiffAndUpdateListTable(mc, set.key, diff.ListOps[domain.VersionedString]{
			Parse: func(raw json.RawMessage) ([]domain.VersionedString, error) {
				var perms []domain.Permission
				if err := json.Unmarshal(raw, &perms); err != nil {
					return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
				}
				out := make([]domain.VersionedString, 0, len(perms))
				for _, p := range perms {
					out = append(out, domain.VersionedString{
						RepoID:        d.repoID,
						PackageName:   packageName,
						VersionID:     versionID,
						Type:          kind,
						Name:          p.Name,
						MaxSdkVersion: p.MaxSdkVersion,
					})
				}
				return out, nil
			},
			DeleteList: func() error {
				return versions.DeletePermissions(ctx, d.repoID, packageName, versionID, kind)
			},
			InsertNewList: func(items []domain.VersionedString) error {
				return versions.InsertPermissions(ctx, items)
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
