package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 4000, c.App.HTTP.Port)
	assert.Equal(t, 120, c.Captcha.TTLSec)
	assert.Equal(t, 6, c.Captcha.Length)
	assert.Equal(t, "memory", c.Captcha.Store)
	assert.Equal(t, 60, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, "admin@konecta.local", c.Seed.AdminEmail)
	assert.False(t, c.Redis.Enabled())
	assert.False(t, c.App.IsProduction())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  env: production
  http:
    port: 8081
db:
  driver: mysql
redis:
  addr: localhost:6379
captcha:
  ttlSec: 60
  store: redis
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("APP_JWT_SECRET", "from-env")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, c.App.HTTP.Port)
	assert.True(t, c.App.IsProduction())
	assert.Equal(t, "mysql", c.DB.Driver)
	assert.True(t, c.Redis.Enabled())
	assert.Equal(t, 60, c.Captcha.TTLSec)
	assert.Equal(t, "redis", c.Captcha.Store)
	assert.Equal(t, "from-env", c.JWT.Secret)
}
