package cache

import (
	"net/url"
	"strings"
)

// Key identifies one cacheable request. The empty key is the null key and
// suppresses fetching.
type Key string

// NullKey is the key used when a required identifier is not yet known.
const NullKey Key = ""

// IsNull reports whether k suppresses fetching.
func (k Key) IsNull() bool {
	return strings.TrimSpace(string(k)) == ""
}

// String returns the key text.
func (k Key) String() string {
	return string(k)
}

// Resource returns the resource name segment of k, or "" for the null key.
func (k Key) Resource() string {
	if k.IsNull() {
		return ""
	}
	resource, _, _ := strings.Cut(string(k), ":")
	return resource
}

// AuthVariant partitions keys by the fetch path used to read a resource.
type AuthVariant string

// Public is the unauthenticated fetch path.
const Public AuthVariant = "public"

// UserVariant returns the authenticated fetch path for one credential identity.
func UserVariant(subject string) AuthVariant {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Public
	}
	return AuthVariant("user:" + url.PathEscape(subject))
}

// NewKey derives a deterministic key from a resource name, its identifying
// parts and the auth variant. Any blank resource or part yields NullKey.
func NewKey(resource string, auth AuthVariant, parts ...string) Key {
	resource = strings.TrimSpace(resource)
	if resource == "" {
		return NullKey
	}

	var b strings.Builder
	b.WriteString(resource)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return NullKey
		}
		b.WriteString(":id:")
		b.WriteString(url.PathEscape(part))
	}

	variant := strings.TrimSpace(string(auth))
	if variant == "" {
		variant = string(Public)
	}
	b.WriteString(":auth:")
	b.WriteString(variant)
	return Key(b.String())
}
