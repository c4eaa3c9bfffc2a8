package diff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// Apply merges c onto the JSON form of existing and returns the result.
//
// Absent keys keep their value, null keys clear the field and present keys
// replace scalars or merge into objects. Fields excluded from the JSON form
// (tagged `json:"-"`) are identity or derived fields and are carried over
// from existing unchanged. Keys in nonNullable may not be set to null.
func Apply[T any](existing T, c Changes, nonNullable ...string) (T, error) {
	var zero T
	for _, k := range nonNullable {
		if c.Field(k).IsNull() {
			return zero, fmt.Errorf("%w: %q is not nullable", domain.ErrSerialization, k)
		}
	}
	if c.Len() == 0 {
		return existing, nil
	}

	original, err := json.Marshal(existing)
	if err != nil {
		return zero, fmt.Errorf("marshal record: %w", err)
	}
	patch, err := c.MarshalJSON()
	if err != nil {
		return zero, fmt.Errorf("marshal changes: %w", err)
	}
	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return zero, fmt.Errorf("%w: merge: %w", domain.ErrSerialization, err)
	}

	var out T
	if err := decodeStrict(merged, &out); err != nil {
		return zero, err
	}
	carryHidden(reflect.ValueOf(&out).Elem(), reflect.ValueOf(&existing).Elem())
	return out, nil
}

// carryHidden copies `json:"-"` fields from src to dst, descending into
// embedded structs that encoding/json flattens.
func carryHidden(dst, src reflect.Value) {
	if dst.Kind() != reflect.Struct {
		return
	}
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		name := strings.Split(tag, ",")[0]
		switch {
		case tag == "-":
			dst.Field(i).Set(src.Field(i))
		case f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct:
			carryHidden(dst.Field(i), src.Field(i))
		}
	}
}

// DecodeList strictly decodes a JSON array.
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	var out []T
	if err := decodeStrict(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
