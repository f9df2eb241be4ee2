package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir for the duration of the test so optional files are not picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BLOGBOARD_AUTH_JWTSECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/blogboard.db", cfg.Database.Path)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "uploads", cfg.Storage.Dir)
	assert.Equal(t, 15*time.Minute, cfg.Storage.URLExpiry)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Duration(0), cfg.Auth.TokenTTL)
	assert.False(t, cfg.Auth.EnforceOwnership)
	assert.Equal(t, time.Hour, cfg.Janitor.Interval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BLOGBOARD_AUTH_JWTSECRET", "s3cret")
	t.Setenv("BLOGBOARD_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("BLOGBOARD_AUTH_TOKENTTL", "2h")
	t.Setenv("BLOGBOARD_AUTH_ENFORCEOWNERSHIP", "true")
	t.Setenv("BLOGBOARD_JANITOR_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.EnforceOwnership)
	assert.Equal(t, time.Duration(0), cfg.Janitor.Interval)
}

func TestLoad_MissingSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BLOGBOARD_AUTH_JWTSECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("BLOGBOARD_SERVER_ADDR", "from-env:1")
	require.NoError(t, os.Unsetenv("BLOGBOARD_SERVER_ADDR"))
	t.Setenv("BLOGBOARD_AUTH_JWTSECRET", "env-wins")

	content := "# comment\nBLOGBOARD_SERVER_ADDR=\"127.0.0.1:4000\"\nBLOGBOARD_AUTH_JWTSECRET=file\nnot a pair\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4000", cfg.Server.Addr)
	assert.Equal(t, "env-wins", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	var cfg Config
	cfg.Auth.JWTSecret = "k"
	cfg.Database.Driver = "sqlite"
	cfg.Storage.Driver = "local"
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Database.Driver = "postgres"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Storage.Driver = "s3"
	require.Error(t, bad.Validate())
	bad.Storage.Bucket = "b"
	require.NoError(t, bad.Validate())

	bad = cfg
	bad.Storage.Driver = "ftp"
	require.Error(t, bad.Validate())
}
