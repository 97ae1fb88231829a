package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "integrity.db", cfg.Store.Path)
	assert.Equal(t, 10, cfg.Store.HistoryLimit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 32, cfg.Server.MaxUploadMB)
	assert.Equal(t, 10, cfg.Notify.TimeoutSecs)
	assert.Equal(t, 2, cfg.Notify.MaxRetries)
	assert.InDelta(t, 6.0, cfg.Notify.RatePerMinute, 0.001)
	assert.Equal(t, "cross", cfg.Compare.DuplicatePolicy)
	assert.Equal(t, "reports", cfg.Compare.OutDir)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/integrity
  history_limit: 25
log:
  level: debug
  format: console
server:
  port: 9090
compare:
  duplicate_policy: first
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/integrity", cfg.Store.DatabaseURL)
	assert.Equal(t, 25, cfg.Store.HistoryLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "first", cfg.Compare.DuplicatePolicy)
	// Defaults still apply for unset values
	assert.Equal(t, 32, cfg.Server.MaxUploadMB)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INTEGRITY_STORE_DRIVER", "postgres")
	t.Setenv("INTEGRITY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("INTEGRITY_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "integrity.db"
	cfg.Store.HistoryLimit = 10
	cfg.Server.Port = 8080
	cfg.Server.MaxUploadMB = 32
	cfg.Compare.DuplicatePolicy = "cross"
	return cfg
}

func TestValidateCompare_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("compare"))
}

func TestValidateCompare_BadDuplicatePolicy(t *testing.T) {
	cfg := validDefaults()
	cfg.Compare.DuplicatePolicy = "last"

	err := cfg.Validate("compare")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate_policy")
}

func TestValidateStore_PostgresRequiresURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("compare")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateStore_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("history")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateStore_HistoryLimitBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Store.HistoryLimit = 0
	err := cfg.Validate("history")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "history_limit must be between 1 and 1000")

	cfg.Store.HistoryLimit = 1001
	err = cfg.Validate("history")
	assert.Error(t, err)

	cfg.Store.HistoryLimit = 1000
	assert.NoError(t, cfg.Validate("history"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateNotify_RequiresTimeoutAndRate(t *testing.T) {
	cfg := validDefaults()
	cfg.Notify.WebhookURL = "https://hooks.example.com/run"
	cfg.Notify.TimeoutSecs = 0
	cfg.Notify.RatePerMinute = 0

	err := cfg.Validate("compare")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "notify.timeout_secs")
	assert.Contains(t, err.Error(), "notify.rate_per_minute")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
