// Package diff applies sparse change trees from index diffs onto stored records.
//
// A change tree is a JSON object. For every key it distinguishes three
// states: the key is absent (leave the field alone), the key is null (clear
// or delete), or the key carries a value (replace or merge). Records are
// merged following RFC 7386 and decoded strictly, so a diff that does not
// fit the record's shape fails with domain.ErrSerialization.
package diff

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// State is the presence state of a key in a change tree.
type State int

// Key states.
const (
	Absent State = iota
	Null
	Value
)

var jsonNull = []byte("null")

// Field is one key of a change tree.
type Field struct {
	State State
	Raw   json.RawMessage
}

// IsAbsent reports whether the key was not in the change tree.
func (f Field) IsAbsent() bool { return f.State == Absent }

// IsNull reports whether the key was explicitly null.
func (f Field) IsNull() bool { return f.State == Null }

// IsObject reports whether the value is a JSON object.
func (f Field) IsObject() bool { return f.State == Value && firstByte(f.Raw) == '{' }

// IsArray reports whether the value is a JSON array.
func (f Field) IsArray() bool { return f.State == Value && firstByte(f.Raw) == '[' }

// Object parses the value as a nested change tree.
func (f Field) Object() (Changes, error) {
	if !f.IsObject() {
		return Changes{}, fmt.Errorf("%w: expected object, got %s", domain.ErrSerialization, truncate(f.Raw))
	}
	return Parse(f.Raw)
}

// Decode strictly decodes the value into v.
func (f Field) Decode(v any) error {
	if f.State != Value {
		return fmt.Errorf("%w: no value to decode", domain.ErrSerialization)
	}
	return decodeStrict(f.Raw, v)
}

// Changes is a parsed change tree that remembers key order.
type Changes struct {
	keys   []string
	fields map[string]json.RawMessage
}

// Parse reads a JSON object into a change tree.
func Parse(raw []byte) (Changes, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return Changes{}, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Changes{}, fmt.Errorf("%w: change tree is not an object", domain.ErrSerialization)
	}

	c := Changes{fields: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Changes{}, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
		}
		key, ok := tok.(string)
		if !ok {
			return Changes{}, fmt.Errorf("%w: unexpected token %v", domain.ErrSerialization, tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return Changes{}, fmt.Errorf("%w: key %q: %w", domain.ErrSerialization, key, err)
		}
		if _, seen := c.fields[key]; !seen {
			c.keys = append(c.keys, key)
		}
		c.fields[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return Changes{}, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	return c, nil
}

// MustParse is Parse for literals in tests and fixtures. It panics on error.
func MustParse(raw string) Changes {
	c, err := Parse([]byte(raw))
	if err != nil {
		panic(err)
	}
	return c
}

// Keys returns the keys in document order.
func (c Changes) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of keys.
func (c Changes) Len() int { return len(c.keys) }

// Has reports whether key is present, null or not.
func (c Changes) Has(key string) bool {
	_, ok := c.fields[key]
	return ok
}

// Field returns the tri-state value of key.
func (c Changes) Field(key string) Field {
	raw, ok := c.fields[key]
	switch {
	case !ok:
		return Field{State: Absent}
	case bytes.Equal(bytes.TrimSpace(raw), jsonNull):
		return Field{State: Null}
	default:
		return Field{State: Value, Raw: raw}
	}
}

// Object returns the nested change tree at key.
func (c Changes) Object(key string) (Changes, error) {
	c2, err := c.Field(key).Object()
	if err != nil {
		return Changes{}, fmt.Errorf("%s: %w", key, err)
	}
	return c2, nil
}

// Without returns a copy of c with keys removed.
func (c Changes) Without(keys ...string) Changes {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := Changes{fields: make(map[string]json.RawMessage, len(c.fields))}
	for _, k := range c.keys {
		if _, ok := drop[k]; ok {
			continue
		}
		out.keys = append(out.keys, k)
		out.fields[k] = c.fields[k]
	}
	return out
}

// CheckDenyList fails if any of keys is present in the change tree.
// It runs before any mutation so a rejected diff leaves no trace.
func (c Changes) CheckDenyList(keys ...string) error {
	for _, k := range keys {
		if c.Has(k) {
			return fmt.Errorf("%w: diff must not contain %q", domain.ErrSerialization, k)
		}
	}
	return nil
}

// MarshalJSON writes the change tree back in key order.
func (c Changes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(c.fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	return nil
}

func firstByte(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func truncate(raw []byte) string {
	const maxLen = 64
	if len(raw) > maxLen {
		return string(raw[:maxLen]) + "..."
	}
	return string(raw)
}
