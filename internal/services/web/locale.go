package web

import (
	"net/http"
	"strings"

	"github.com/louisbranch/giving.space/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const langQueryKey = "lang"

// resolveTag picks the request language from the lang query parameter, then
// Accept-Language, then the base locale.
func resolveTag(r *http.Request) language.Tag {
	if raw := strings.TrimSpace(r.URL.Query().Get(langQueryKey)); raw != "" {
		if tag, err := language.Parse(raw); err == nil {
			return tag
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		return tags[0]
	}
	return language.Make(catalog.BaseLocale)
}

// localize returns the catalog message for key in the closest locale to tag.
func localize(tag language.Tag, key string) string {
	bundle := catalog.Default()
	fallback, ok := bundle.Message(catalog.BaseLocale, key)
	if !ok {
		fallback = key
	}
	return bundle.Printer(tag).Sprintf(message.Key(key, fallback))
}
