package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lipish/xtrace/internal/obsmetrics"
	"github.com/lipish/xtrace/internal/ratelimit"
	"github.com/lipish/xtrace/pkg/apperrors"
	"github.com/lipish/xtrace/pkg/response"
)

// RateLimit enforces the per-principal token bucket on read routes only
// (spec.md §4.6: write routes rely on queue backpressure instead). A
// rejection carries a Retry-After header and meta.rate_limit, unlike the
// write-side 429 which carries neither.
func RateLimit(limiter *ratelimit.Limiter, metrics *obsmetrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := string(Principal(c))
		result := limiter.TryAcquire(principal)
		if result.Allowed {
			c.Next()
			return
		}

		metrics.RateLimitRejections.WithLabelValues(principal).Inc()

		retryAfter := int(time.Until(result.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))

		meta := &response.Meta{
			RateLimit: &response.RateLimit{
				Remaining: result.Remaining,
				ResetAt:   result.ResetAt.UTC().Format(time.RFC3339),
			},
		}
		response.ErrorWithMeta(c, apperrors.NewTooManyRequests("rate limit exceeded"), meta)
		c.Abort()
	}
}
