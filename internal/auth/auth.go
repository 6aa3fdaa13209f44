// Package auth implements C6's credential verification: every route but
// /healthz (and the unauthenticated rate-limit diagnostic route) requires
// a valid bearer token or, when a public/secret key pair is configured, a
// matching Basic credential (spec.md §4.6).
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/lipish/xtrace/internal/config"
)

// Principal identifies the caller for rate-limiting and diagnostics: the
// bearer token string, or the Basic username, whichever credential
// verified.
type Principal string

// Verify checks the Authorization header value against cfg, returning the
// principal on success. It never returns partial success: either a
// credential fully matches or verification fails.
func Verify(cfg config.AuthConfig, authorizationHeader string) (Principal, bool) {
	authorizationHeader = strings.TrimSpace(authorizationHeader)
	if authorizationHeader == "" {
		return "", false
	}

	if rest, ok := cutPrefixFold(authorizationHeader, "Bearer "); ok {
		token := strings.TrimSpace(rest)
		if constantTimeEqual(token, cfg.BearerToken) {
			return Principal(token), true
		}
		return "", false
	}

	if rest, ok := cutPrefixFold(authorizationHeader, "Basic "); ok {
		if !cfg.BasicAuthEnabled() {
			return "", false
		}
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest))
		if err != nil {
			return "", false
		}
		parts := strings.SplitN(string(decoded), ":", 2)
		if len(parts) != 2 {
			return "", false
		}
		user, pass := parts[0], parts[1]
		if constantTimeEqual(user, cfg.PublicKey) && constantTimeEqual(pass, cfg.SecretKey) {
			return Principal(user), true
		}
		return "", false
	}

	return "", false
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) {
		return "", false
	}
	if !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
