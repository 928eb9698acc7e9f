package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: sqlite
sqlite:
  dsn: /tmp/signoff-test.db
log:
  level: debug
approvals:
  sections:
    - name: Executive Summary
      approval_required: true
      roles: [CEO, Sponsor]
    - name: Appendix
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/signoff-test.db", cfg.SQLite.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Server.TLS.Enabled)
	assert.Equal(t, "certs/dev.crt", cfg.Server.TLS.CertFile)
	require.Len(t, cfg.Approvals.Sections, 2)
	assert.Equal(t, "Executive Summary", cfg.Approvals.Sections[0].Name)
	assert.True(t, cfg.Approvals.Sections[0].ApprovalRequired)
	assert.Equal(t, []string{"CEO", "Sponsor"}, cfg.Approvals.Sections[0].Roles)
	assert.False(t, cfg.Approvals.Sections[1].ApprovalRequired)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: memory\n")
	t.Setenv("SOW_STORE_DRIVER", "pg")
	t.Setenv("SOW_DB_PORT", "6543")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Contains(t, cfg.PostgresDSN(), "port=6543")
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "store:\n  driver: mongo\n"))
	assert.ErrorContains(t, err, "unsupported store.driver")

	_, err = LoadConfig(writeConfig(t, "approvals:\n  sections:\n    - roles: [CFO]\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = LoadConfig(writeConfig(t, "server:\n  tls:\n    enabled: true\n    cert_file: \"\"\n"))
	assert.ErrorContains(t, err, "cert_file")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalizeDriver(t *testing.T) {
	assert.Equal(t, DriverMemory, normalizeDriver(""))
	assert.Equal(t, DriverPostgres, normalizeDriver(" PostgreSQL "))
	assert.Equal(t, DriverSQLite, normalizeDriver("sqlite3"))
}
