package domain

import (
	"sort"
	"strings"
)

// DefaultLocale is used when none of the preferred locales has a value.
const DefaultLocale = "en-US"

// LocalizedText maps a locale tag (e.g. "en-US", "de") to a text value.
type LocalizedText map[string]string

// File references a file published by a repository.
type File struct {
	// Name is the file path relative to the repository root.
	// It must start with a slash.
	Name string `json:"name" validate:"required,startswith=/"`

	// SHA256 is the lower-case hex digest of the file, if known.
	SHA256 string `json:"sha256,omitempty" validate:"omitempty,len=64,hexadecimal"`

	// Size is the file size in bytes, if known.
	Size *int64 `json:"size,omitempty" validate:"omitempty,gte=0"`
}

// LocalizedFile maps a locale tag to a single file (icons, graphics).
type LocalizedFile map[string]File

// LocalizedFileList maps a locale tag to an ordered list of files (screenshots).
type LocalizedFileList map[string][]File

// BestLocale picks the value for the most preferred locale in m.
//
// For every preferred locale it tries the exact tag, then the bare language,
// then any regional variant of that language. If nothing matches it falls back
// to en-US, en, and finally the first key in sorted order.
func BestLocale[T any](m map[string]T, locales []string) (T, bool) {
	var zero T
	if len(m) == 0 {
		return zero, false
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, locale := range locales {
		locale = normalizeLocale(locale)
		if locale == "" {
			continue
		}
		if v, ok := m[locale]; ok {
			return v, true
		}
		lang := languageOf(locale)
		if v, ok := m[lang]; ok {
			return v, true
		}
		for _, k := range keys {
			if languageOf(k) == lang {
				return m[k], true
			}
		}
	}
	if v, ok := m[DefaultLocale]; ok {
		return v, true
	}
	if v, ok := m["en"]; ok {
		return v, true
	}
	return m[keys[0]], true
}

// BestText returns the best localized string or "" when t is empty.
func BestText(t LocalizedText, locales []string) string {
	v, _ := BestLocale(t, locales)
	return v
}

// normalizeLocale turns POSIX style tags (de_DE.UTF-8) into BCP 47 style (de-DE).
func normalizeLocale(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	return strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
}

func languageOf(locale string) string {
	if i := strings.Index(locale, "-"); i >= 0 {
		return strings.ToLower(locale[:i])
	}
	return strings.ToLower(locale)
}
