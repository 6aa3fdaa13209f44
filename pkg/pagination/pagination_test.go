package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	var p Params
	p.SetDefaults()
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
}

func TestValidate_LimitExceedsMax(t *testing.T) {
	p := Params{Page: 1, Limit: 201}
	assert.Error(t, p.Validate())
}

func TestValidate_LimitAtMaxIsOK(t *testing.T) {
	p := Params{Page: 1, Limit: MaxLimit}
	assert.NoError(t, p.Validate())
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, Limit: 50}
	assert.Equal(t, 100, p.Offset())
}

func TestTotalPages(t *testing.T) {
	p := Params{Limit: 50}
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(1))
	assert.Equal(t, 2, p.TotalPages(51))
	assert.Equal(t, 2, p.TotalPages(100))
	assert.Equal(t, 3, p.TotalPages(101))
}

func TestParseOrderBy_Default(t *testing.T) {
	field, desc, err := ParseOrderBy("", []string{"timestamp"}, "timestamp", true)
	require.NoError(t, err)
	assert.Equal(t, "timestamp", field)
	assert.True(t, desc)
}

func TestParseOrderBy_ExplicitDirection(t *testing.T) {
	field, desc, err := ParseOrderBy("latency:asc", []string{"timestamp", "latency"}, "timestamp", true)
	require.NoError(t, err)
	assert.Equal(t, "latency", field)
	assert.False(t, desc)
}

func TestParseOrderBy_UnknownFieldIsError(t *testing.T) {
	_, _, err := ParseOrderBy("bogus", []string{"timestamp", "latency", "totalCost"}, "timestamp", true)
	assert.Error(t, err)
}

func TestParseOrderBy_UnknownDirectionIsError(t *testing.T) {
	_, _, err := ParseOrderBy("timestamp:sideways", []string{"timestamp"}, "timestamp", true)
	assert.Error(t, err)
}
