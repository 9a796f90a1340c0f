// Package auth derives the fetch identity of a web request from its bearer
// token.
//
// Tokens are verified by the remote API, not here. Because claims are read
// unverified, cached payloads are partitioned by a digest of the whole token
// and never by its subject; the expiry only decides when a credential falls
// back to the public fetch path.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/giving.space/internal/platform/requestctx"
	"github.com/louisbranch/giving.space/internal/services/web/cache"
)

// Session is the credential one request fetches with.
type Session struct {
	token     string
	digest    string
	subject   string
	expiresAt time.Time
	now       func() time.Time
}

// Anonymous returns a session that uses the public fetch path.
func Anonymous() Session {
	return Session{now: time.Now}
}

// NewSession reads the unverified subject and expiry of token. Tokens that are
// not JWTs are treated as opaque credentials without subject or expiry.
func NewSession(token string, now func() time.Time) Session {
	if now == nil {
		now = time.Now
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{now: now}
	}

	sum := sha256.Sum256([]byte(token))
	s := Session{token: token, digest: "token-" + hex.EncodeToString(sum[:16]), now: now}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil {
		s.subject = strings.TrimSpace(claims.Subject)
		if claims.ExpiresAt != nil {
			s.expiresAt = claims.ExpiresAt.Time.UTC()
		}
	}
	return s
}

// FromContext returns the session for the bearer token carried by ctx, or
// fallback when the request has none.
func FromContext(ctx context.Context, fallback Session) Session {
	token := requestctx.BearerTokenFromContext(ctx)
	if token == "" {
		return fallback
	}
	return NewSession(token, fallback.now)
}

// Authenticated reports whether the session holds an unexpired credential.
func (s Session) Authenticated() bool {
	if s.token == "" {
		return false
	}
	if s.expiresAt.IsZero() {
		return true
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return now().UTC().Before(s.expiresAt)
}

// Token returns the bearer credential, or "" when the session is anonymous
// or expired.
func (s Session) Token() string {
	if !s.Authenticated() {
		return ""
	}
	return s.token
}

// Subject returns the unverified token subject. It is informational only and
// is "" for anonymous sessions and opaque tokens.
func (s Session) Subject() string {
	if s.token == "" {
		return ""
	}
	return s.subject
}

// ExpiresAt returns the token expiry; zero means no expiry was declared.
func (s Session) ExpiresAt() time.Time {
	return s.expiresAt
}

// Variant returns the cache auth variant for this session. Two tokens share
// a variant only when they are byte-identical.
func (s Session) Variant() cache.AuthVariant {
	if !s.Authenticated() {
		return cache.Public
	}
	return cache.UserVariant(s.digest)
}
