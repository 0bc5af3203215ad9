package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"HOST", "PORT", "DEBUG", "TLS_CERT_FILE", "TLS_KEY_FILE", "CORS_ORIGINS", "LOGIN_RATE_LIMIT",
	"JWT_SECRET", "JWT_EXPIRES_IN", "PASSWORD_PEPPER", "BCRYPT_COST", "ROOT_NAME", "ROOT_EMAIL", "ROOT_PASSWORD",
	"STORAGE_DRIVER", "USERS_FILE", "SQLITE_FILE",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB", "POSTGRES_USER", "POSTGRES_PASSWORD",
	"TG_BOT_ENABLED", "TG_BOT_TOKEN", "TG_BOT_SUBSCRIBERS", "TG_BOT_DEBUG",
}

// clearEnv unsets every variable the config reads and restores them when the
// test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := New("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Server.Address())
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.HashCost)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "data/users.json", cfg.Storage.File)
	assert.False(t, cfg.Server.TLS())
	assert.False(t, cfg.TgBot.Enabled)
}

func TestNew_MissingSecret(t *testing.T) {
	clearEnv(t)

	_, err := New("")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNew_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[server]
port = 8080
debug_mode = true

[auth]
jwt_secret = "from-file"
jwt_expires_in = "30m"
root_email = "root@example.com"

[storage]
driver = "sqlite"
sqlite_file = "/tmp/users.sqlite"

[storage.postgres]
host = "db"
port = 5433

[tg_bot]
enabled = true
token = "bot-token"
subscribers = [1, 2]
`)

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "from-file", cfg.Auth.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "root@example.com", cfg.Auth.RootEmail)
	assert.Equal(t, DriverSqlite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/users.sqlite", cfg.Storage.SqliteFile)
	assert.Equal(t, "db:5433", cfg.Storage.Postgres.HostPort())
	assert.Equal(t, "users", cfg.Storage.Postgres.DBName, "unset keys keep defaults")
	assert.Equal(t, []int64{1, 2}, cfg.TgBot.Subscribers)
}

func TestNew_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[server]
port = 8080

[auth]
jwt_secret = "from-file"
`)
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_HOST", "pg")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("TG_BOT_SUBSCRIBERS", "10,20")

	cfg, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "pg", cfg.Storage.Postgres.Host)
	assert.Equal(t, "pw", cfg.Storage.Postgres.Password)
	assert.Equal(t, 5432, cfg.Storage.Postgres.Port)
	assert.Equal(t, []int64{10, 20}, cfg.TgBot.Subscribers)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"STORAGE_DRIVER": "mongo"},
		},
		{
			name: "port out of range",
			env:  map[string]string{"PORT": "70000"},
		},
		{
			name: "negative rate limit",
			env:  map[string]string{"LOGIN_RATE_LIMIT": "-1"},
		},
		{
			name: "bot without token",
			env:  map[string]string{"TG_BOT_ENABLED": "true"},
		},
		{
			name: "bad duration",
			env:  map[string]string{"JWT_EXPIRES_IN": "soon"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := New("")
			assert.Error(t, err)
		})
	}
}

func TestNew_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	_, err := New(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
