package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = ":8080"
enable_auth = true

[auth]
redis_url = "redis://localhost:6379/1"

[api]
required_headers = [{ name = "X-Client", value = "console" }]

[database]
dsn = "file:test.db"

[paging]
default_size = 25
max_size = 50
`), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.Port)
	assert.True(t, config.Server.EnableAuth)
	assert.Equal(t, 10*time.Second, config.ShutdownTimeout())
	assert.Equal(t, "Authorization", config.Auth.TokenHeader)
	assert.Equal(t, "admin_token:{token}", config.Auth.TokenKeyTemplate)
	assert.Equal(t, "./migrations", config.Database.MigrationsDir)
	require.Len(t, config.API.RequiredHeaders, 1)
	assert.Equal(t, "X-Client", config.API.RequiredHeaders[0].Name)

	assert.Equal(t, 25, config.ExceptionLimits().DefaultSize)
	assert.Equal(t, 50, config.ExceptionLimits().MaxSize)
	assert.Equal(t, 10, config.AssigneeLimits().DefaultSize)
	assert.Equal(t, 200, config.AssigneeLimits().MaxSize)
	assert.Equal(t, 10, config.SimpleLimits().DefaultSize)
	assert.Equal(t, 100, config.SimpleLimits().MaxSize)
}

func TestParseConfigErrors(t *testing.T) {
	t.Run("missing port", func(t *testing.T) {
		_, err := ParseConfig("inline", []byte(`[database]
dsn = ":memory:"`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port")
	})

	t.Run("broken toml", func(t *testing.T) {
		_, err := ParseConfig("inline", []byte(`[server`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inline")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		require.Error(t, err)
	})
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("UNDANTAG_DATABASE_DSN", "postgres://env@db/undantag")
	t.Setenv("UNDANTAG_REDIS_URL", "redis://env:6379/0")
	t.Setenv("UNDANTAG_PORT", ":7000")

	config, err := ParseConfig("inline", []byte(`
[server]
port = ":9999"

[database]
dsn = ":memory:"
`))
	require.NoError(t, err)

	assert.Equal(t, ":7000", config.Server.Port)
	assert.Equal(t, "postgres://env@db/undantag", config.Database.DSN)
	assert.Equal(t, "redis://env:6379/0", config.Auth.RedisURL)
}
