package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("OAUTH_DOMAIN", "https://idp.example.com")
	t.Setenv("OAUTH_CLIENT_ID", "client-123")
	t.Setenv("OAUTH_REDIRECT_URI", "http://localhost:7070/callback")
	t.Setenv("BACKEND_URL", "https://api.example.com")
	t.Setenv("SESSION_SECRET", "secret")
}

func TestConfigFromEnv(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	setRequiredEnv(t)

	cfg, err := configFromEnv()
	require.NoError(err)

	assert.Equal("https://idp.example.com", cfg.Domain)
	assert.Equal("client-123", cfg.ClientId)
	assert.Equal(":7070", cfg.Bind)
	assert.Equal("weshare-web.db", cfg.DbPath)
	assert.NotEmpty(cfg.SignOutUri)
}

func TestConfigFromEnvMissingRequired(t *testing.T) {
	assert := assert.New(t)

	setRequiredEnv(t)
	t.Setenv("OAUTH_CLIENT_ID", "")

	_, err := configFromEnv()
	assert.Error(err)
}

func TestConfigFromEnvNeedsDomainOrIssuer(t *testing.T) {
	assert := assert.New(t)

	setRequiredEnv(t)
	t.Setenv("OAUTH_DOMAIN", "")

	_, err := configFromEnv()
	assert.Error(err)

	t.Setenv("OAUTH_ISSUER", "https://idp.example.com")

	cfg, err := configFromEnv()
	assert.NoError(err)
	assert.Equal("https://idp.example.com", cfg.Issuer)
}
