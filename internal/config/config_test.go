package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(DefaultFile)
	require.NoError(t, err)

	assert.Equal(t, DefaultURL, cfg.URL)
	assert.Equal(t, DefaultMarker, cfg.Marker)
	assert.Equal(t, FetcherChrome, cfg.Fetcher)
	assert.Equal(t, 20*time.Second, cfg.ListTimeout)
	assert.Equal(t, "plantas_medicinais", cfg.Store.Table)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load("other.json5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_FileWithLocalOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	base := `{
		// comments are allowed
		url: "https://example.org/list",
		list_timeout_seconds: 5,
		store: { driver: "sqlite", database: "catalog.db" },
	}`
	local := `{ url: "https://example.org/local", store: { table: "herbs" } }`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extract.json5"), []byte(base), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extract.local.json5"), []byte(local), 0o644))

	cfg, err := Load(DefaultFile)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/local", cfg.URL)
	assert.Equal(t, 5*time.Second, cfg.ListTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "catalog.db", cfg.Store.Database)
	assert.Equal(t, "herbs", cfg.Store.Table)
	assert.Equal(t, "nome", cfg.Store.KeyColumn)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extract.json5"), []byte(`{ store: { host: "file-host" } }`), 0o644))

	t.Setenv("DB_HOST", "env-host")
	t.Setenv("DB_TIMEOUT", "3s")
	t.Setenv("HEADLESS", "false")

	cfg, err := Load(DefaultFile)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Store.Host)
	assert.Equal(t, 3*time.Second, cfg.Store.Timeout)
	assert.False(t, cfg.Headless)
}

func TestLoad_InvalidEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("EXTRACT_LIST_TIMEOUT", "soon")

	_, err := Load(DefaultFile)
	assert.Error(t, err)
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_USER=from_file\nDB_DATABASE=herbs\n"), 0o644))

	t.Setenv("DB_USER", "from_env")
	t.Setenv("DB_DATABASE", "")
	_ = os.Unsetenv("DB_DATABASE")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Store.User)
	assert.Equal(t, "herbs", cfg.Store.Database)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.URL = ""
	cfg.Fetcher = "curl"
	cfg.ListTimeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
	assert.Contains(t, err.Error(), "unknown fetcher")
	assert.Contains(t, err.Error(), "list timeout")
}
