// Package middleware implements C6's gin middleware: credential
// verification and read-route rate limiting.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/lipish/xtrace/internal/auth"
	"github.com/lipish/xtrace/internal/config"
	"github.com/lipish/xtrace/pkg/apperrors"
	"github.com/lipish/xtrace/pkg/response"
)

// principalContextKey is the gin context key the verified principal is
// stored under, for downstream rate-limit middleware to read.
const principalContextKey = "xtrace.principal"

// RequireAuth enforces bearer/basic credential verification on every route
// it's attached to (spec.md §4.6: every route but /healthz and the rate
// limit diagnostic route).
func RequireAuth(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.Verify(cfg, c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, apperrors.NewUnauthorized("missing or invalid credentials"))
			c.Abort()
			return
		}
		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// Principal returns the verified principal set by RequireAuth, or empty if
// absent (e.g. on an unauthenticated route).
func Principal(c *gin.Context) auth.Principal {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return ""
	}
	p, _ := v.(auth.Principal)
	return p
}
