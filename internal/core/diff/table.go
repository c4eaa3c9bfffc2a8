package diff

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// TableOps describes a keyed child table, such as repository categories or
// the localized icons of an app, to DiffAndUpdateTable.
type TableOps[T any] struct {
	// Items are the rows currently stored.
	Items []T

	// Find reports whether item is the row stored under key.
	Find func(key string, item T) bool

	// New builds a blank row for a key that is not stored yet.
	New func(key string) T

	// DeleteAll removes every row of the table.
	DeleteAll func() error

	// DeleteOne removes the row stored under key.
	DeleteOne func(key string) error

	// InsertReplace writes new and changed rows.
	InsertReplace func(items []T) error

	// IsNewItemValid, if set, rejects new rows that are incomplete after the merge.
	IsNewItemValid func(item T) bool

	// DenyList names keys a per-row change tree must not contain.
	DenyList []string
}

// DiffAndUpdateTable applies the change tree found at key onto a keyed
// child table. A null value deletes the whole table; an object is walked
// per row key where null deletes the row and an object merges into the
// stored row or a new blank one.
func DiffAndUpdateTable[T any](c Changes, key string, ops TableOps[T]) error {
	f := c.Field(key)
	switch {
	case f.IsAbsent():
		return nil
	case f.IsNull():
		return ops.DeleteAll()
	}
	rows, err := f.Object()
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	var changed []T //nolint:prealloc // deletions are skipped
	for _, rowKey := range rows.Keys() {
		rf := rows.Field(rowKey)
		if rf.IsNull() {
			if err := ops.DeleteOne(rowKey); err != nil {
				return fmt.Errorf("delete %s/%s: %w", key, rowKey, err)
			}
			continue
		}
		rowChanges, err := rf.Object()
		if err != nil {
			return fmt.Errorf("%s/%s: %w", key, rowKey, err)
		}
		if err := rowChanges.CheckDenyList(ops.DenyList...); err != nil {
			return err
		}

		existing, found := findItem(ops.Items, rowKey, ops.Find)
		if !found {
			existing = ops.New(rowKey)
		}
		updated, err := Apply(existing, rowChanges)
		if err != nil {
			return fmt.Errorf("%s/%s: %w", key, rowKey, err)
		}
		if !found && ops.IsNewItemValid != nil && !ops.IsNewItemValid(updated) {
			return fmt.Errorf("%w: new %s entry %q is incomplete", domain.ErrSerialization, key, rowKey)
		}
		changed = append(changed, updated)
	}
	if len(changed) == 0 {
		return nil
	}
	return ops.InsertReplace(changed)
}

func findItem[T any](items []T, key string, find func(string, T) bool) (T, bool) {
	for _, item := range items {
		if find(key, item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// ListOps describes a child list that is only ever replaced wholesale,
// such as mirrors or permissions.
type ListOps[T any] struct {
	Parse         func(raw json.RawMessage) ([]T, error)
	DeleteList    func() error
	InsertNewList func(items []T) error
}

// DiffAndUpdateListTable replaces the list found at key. Null deletes it,
// an array replaces it.
func DiffAndUpdateListTable[T any](c Changes, key string, ops ListOps[T]) error {
	f := c.Field(key)
	if f.IsAbsent() {
		return nil
	}
	if !f.IsNull() && !f.IsArray() {
		return fmt.Errorf("%w: %s must be null or an array", domain.ErrSerialization, key)
	}
	var items []T
	if f.IsArray() {
		var err error
		if items, err = ops.Parse(f.Raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if err := ops.DeleteList(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if len(items) == 0 {
		return nil
	}
	return ops.InsertNewList(items)
}

// LocaleListOps describes a per-locale list, such as phone screenshots.
type LocaleListOps[T any] struct {
	Parse         func(locale string, raw json.RawMessage) ([]T, error)
	DeleteAll     func() error
	DeleteList    func(locale string) error
	InsertNewList func(locale string, items []T) error
}

// DiffAndUpdateLocaleListTable applies the object found at key. Null
// deletes every locale; within the object null deletes one locale and an
// array replaces that locale's list.
func DiffAndUpdateLocaleListTable[T any](c Changes, key string, ops LocaleListOps[T]) error {
	f := c.Field(key)
	switch {
	case f.IsAbsent():
		return nil
	case f.IsNull():
		return ops.DeleteAll()
	}
	locales, err := f.Object()
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	for _, locale := range locales.Keys() {
		lf := locales.Field(locale)
		if !lf.IsNull() && !lf.IsArray() {
			return fmt.Errorf("%w: %s/%s must be null or an array", domain.ErrSerialization, key, locale)
		}
		var items []T
		if lf.IsArray() {
			if items, err = ops.Parse(locale, lf.Raw); err != nil {
				return fmt.Errorf("%s/%s: %w", key, locale, err)
			}
		}
		if err := ops.DeleteList(locale); err != nil {
			return fmt.Errorf("delete %s/%s: %w", key, locale, err)
		}
		if len(items) == 0 {
			continue
		}
		if err := ops.InsertNewList(locale, items); err != nil {
			return fmt.Errorf("insert %s/%s: %w", key, locale, err)
		}
	}
	return nil
}
