package apperrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_StatusCodes(t *testing.T) {
	cases := []struct {
		err      *AppError
		wantCode Code
		wantHTTP int
	}{
		{NewUnauthorized("x"), Unauthorized, http.StatusUnauthorized},
		{NewBadRequest("x"), BadRequest, http.StatusBadRequest},
		{NewNotFound("x"), NotFound, http.StatusNotFound},
		{NewTooManyRequests("x"), TooManyRequests, http.StatusTooManyRequests},
		{NewServiceUnavailable("x"), ServiceUnavailable, http.StatusServiceUnavailable},
		{NewInternal("x", nil), InternalError, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.wantCode, c.err.Code)
		assert.Equal(t, c.wantHTTP, c.err.StatusCode)
	}
}

func TestAs_UnwrapsWrappedError(t *testing.T) {
	cause := errors.New("db timeout")
	wrapped := Wrap(cause, "query failed")
	outer := errors.New("outer")
	_ = outer

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, InternalError, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
}

func TestStatusCode_NonAppErrorDefaultsTo500(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("plain")))
}

func TestRetryableFlags(t *testing.T) {
	assert.False(t, NewBadRequest("x").Retryable)
	assert.False(t, NewUnauthorized("x").Retryable)
	assert.False(t, NewNotFound("x").Retryable)
	assert.True(t, NewTooManyRequests("x").Retryable)
	assert.True(t, NewServiceUnavailable("x").Retryable)
	assert.True(t, NewInternal("x", nil).Retryable)
}
