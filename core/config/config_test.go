package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"role-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `# role sync settings
server:
  port: "9090"
sync:
  manage_whitelist: false # toggled by /whitelist/manage
  roles:
    "1234": [member]
    "5678": [vip, member]
permission:
  memory:
    enabled: true
`

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "database.db", cfg.Database.Name)
	assert.True(t, cfg.Sync.ManageWhitelist)
	assert.Equal(t, 4, cfg.Sync.Workers)
	assert.Equal(t, uint(3), cfg.Sync.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Sync.Retry.CallTimeout)
	assert.Empty(t, cfg.Sync.Roles)
	assert.Equal(t, []string{"luckperms", "memory"}, cfg.Permission.Priority)
	assert.False(t, cfg.Permission.Memory.Enabled)
	assert.Equal(t, 50*time.Millisecond, cfg.Host.TickInterval)
	assert.Equal(t, "en_US", cfg.Lang.Language)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.File())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(sampleConfig), 0o644))
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.False(t, cfg.Sync.ManageWhitelist)
	assert.True(t, cfg.Permission.Memory.Enabled)
	assert.Equal(t, reconcile.Mapping{
		"1234": {"member"},
		"5678": {"vip", "member"},
	}, cfg.Sync.Roles)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_FORMAT=console\n"), 0o644))
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("sync: [\n"), 0o644))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestSaveManageWhitelist(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(file, []byte(sampleConfig), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.SaveManageWhitelist(true))
	assert.True(t, cfg.Sync.ManageWhitelist)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# role sync settings")

	reloaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, reloaded.Sync.ManageWhitelist)
	assert.Equal(t, "9090", reloaded.Server.Port)
	assert.Len(t, reloaded.Sync.Roles, 2)
}

func TestSetValue_CreatesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), FileName)

	require.NoError(t, SetValue(file, "sync.manage_whitelist", false))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "sync:\n    manage_whitelist: false\n", string(data))

	require.NoError(t, os.WriteFile(file, []byte("sync: on\n"), 0o644))
	assert.Error(t, SetValue(file, "sync.manage_whitelist", true))
}
