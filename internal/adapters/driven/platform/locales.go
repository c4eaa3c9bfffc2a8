package platform

import (
	"os"
	"strings"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

// Ensure LocaleProvider implements the interface.
var _ driven.LocaleProvider = (*LocaleProvider)(nil)

// localeEnv lists the environment variables consulted, in POSIX precedence.
var localeEnv = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// LocaleProvider returns configured locales, falling back to the
// environment and finally to the default locale.
type LocaleProvider struct {
	configured []string
	getenv     func(string) string
}

// NewLocaleProvider creates a locale provider.
func NewLocaleProvider(configured []string) *LocaleProvider {
	return &LocaleProvider{configured: configured, getenv: os.Getenv}
}

// Locales returns the preferred locales, most preferred first.
func (p *LocaleProvider) Locales() []string {
	var out []string
	add := func(l string) {
		for _, o := range out {
			if o == l {
				return
			}
		}
		out = append(out, l)
	}
	for _, l := range p.configured {
		if l != "" {
			add(l)
		}
	}
	if len(out) == 0 {
		for _, key := range localeEnv {
			if l := posixToTag(p.getenv(key)); l != "" {
				add(l)
				break
			}
		}
	}
	add(domain.DefaultLocale)
	return out
}

// posixToTag converts "de_DE.UTF-8@euro" to "de-DE". C and POSIX yield "".
func posixToTag(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "" || v == "C" || v == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(v, "_", "-")
}
