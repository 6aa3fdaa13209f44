package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lipish/xtrace/internal/config"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		BearerToken: "secret-token",
		PublicKey:   "pk-live",
		SecretKey:   "sk-live",
	}
}

func TestVerify_ValidBearer(t *testing.T) {
	p, ok := Verify(testConfig(), "Bearer secret-token")
	assert.True(t, ok)
	assert.Equal(t, Principal("secret-token"), p)
}

func TestVerify_InvalidBearer(t *testing.T) {
	_, ok := Verify(testConfig(), "Bearer wrong-token")
	assert.False(t, ok)
}

func TestVerify_ValidBasic(t *testing.T) {
	creds := base64.StdEncoding.EncodeToString([]byte("pk-live:sk-live"))
	p, ok := Verify(testConfig(), "Basic "+creds)
	assert.True(t, ok)
	assert.Equal(t, Principal("pk-live"), p)
}

func TestVerify_BasicDisabledWhenKeysUnset(t *testing.T) {
	cfg := config.AuthConfig{BearerToken: "secret-token"}
	creds := base64.StdEncoding.EncodeToString([]byte("anything:anything"))
	_, ok := Verify(cfg, "Basic "+creds)
	assert.False(t, ok)
}

func TestVerify_MissingHeader(t *testing.T) {
	_, ok := Verify(testConfig(), "")
	assert.False(t, ok)
}

func TestVerify_MalformedBasic(t *testing.T) {
	_, ok := Verify(testConfig(), "Basic not-base64!!")
	assert.False(t, ok)
}
