// Package response renders the uniform HTTP envelope described in spec
// §4.7: success responses carry message+data, error responses carry
// message+code+data(null)+optional meta.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lipish/xtrace/pkg/apperrors"
)

const successMessage = "Request Successful."

// Envelope is the wire shape of every JSON response this service sends.
type Envelope struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries the assorted out-of-band fields the spec attaches to
// specific responses (pagination, rate-limit state, metric-query
// freshness). Callers populate only the fields relevant to their route.
type Meta struct {
	Page       int        `json:"page,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	TotalItems int64      `json:"totalItems,omitempty"`
	TotalPages int        `json:"totalPages,omitempty"`
	// SeriesCount and Truncated are pointers so a metrics-query response
	// can render them at their zero value (spec.md §4.4/§8: this meta
	// always carries series_count and truncated, including the
	// empty-result case {series_count: 0, truncated: false}) while other
	// routes' meta, which never set these, omit them entirely.
	SeriesCount *int       `json:"series_count,omitempty"`
	Truncated   *bool      `json:"truncated,omitempty"`
	LatestTS    *string    `json:"latest_ts,omitempty"`
	RateLimit   *RateLimit `json:"rate_limit,omitempty"`
}

// RateLimit is the meta.rate_limit payload emitted on a 429 from the read
// limiter (spec §4.6).
type RateLimit struct {
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"reset_at"`
}

// OK renders a 200 success envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Message: successMessage, Data: data})
}

// OKWithMeta renders a 200 success envelope including meta.
func OKWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Envelope{Message: successMessage, Data: data, Meta: meta})
}

// Error renders the error envelope for err, using its AppError status/code
// when available and otherwise falling back to 500/INTERNAL_ERROR.
func Error(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternal("internal error", err)
	}
	c.JSON(appErr.StatusCode, Envelope{
		Message: appErr.Message,
		Code:    string(appErr.Code),
		Data:    nil,
	})
}

// ErrorWithMeta renders the error envelope plus meta (used for the 429
// read-rate-limit response, which always carries meta.rate_limit).
func ErrorWithMeta(c *gin.Context, err error, meta *Meta) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternal("internal error", err)
	}
	c.JSON(appErr.StatusCode, Envelope{
		Message: appErr.Message,
		Code:    string(appErr.Code),
		Data:    nil,
		Meta:    meta,
	})
}
