package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHex_FullLength(t *testing.T) {
	in := "0123456789abcdef0123456789abcdef"[:32]
	got, err := FromHex(in)
	require.NoError(t, err)
	assert.Equal(t, in, got.String())
}

func TestFromHex_RightPadsShortSpanID(t *testing.T) {
	// An 8-byte OTLP span id maps to a 128-bit observation id by
	// right-padding with zero bytes (spec §4.3/§9).
	spanID := "0123456789abcdef" // 16 hex chars = 8 bytes
	got, err := FromHex(spanID)
	require.NoError(t, err)
	assert.Equal(t, spanID+"0000000000000000", got.String())
}

func TestFromHex_TooLong(t *testing.T) {
	_, err := FromHex("00112233445566778899aabbccddeeff00")
	assert.Error(t, err)
}

func TestFromHex_InvalidHex(t *testing.T) {
	_, err := FromHex("not-hex")
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	want := New()
	raw, err := want.MarshalJSON()
	require.NoError(t, err)

	var got ID
	require.NoError(t, got.UnmarshalJSON(raw))
	assert.Equal(t, want, got)
}

func TestScanValueRoundTrip(t *testing.T) {
	want := New()
	v, err := want.Value()
	require.NoError(t, err)

	var got ID
	require.NoError(t, got.Scan(v))
	assert.Equal(t, want, got)
}

func TestScanNil(t *testing.T) {
	var got ID = New()
	require.NoError(t, got.Scan(nil))
	assert.True(t, got.IsZero())
}

func TestIsZero(t *testing.T) {
	assert.True(t, Nil.IsZero())
	assert.False(t, New().IsZero())
}
