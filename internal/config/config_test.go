package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Analytics.Engine)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data", "temp"), cfg.Analytics.TempDirectory)

	// A second load reads the file back to the same values.
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9100\nsession:\n  idle_timeout: 45m\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 45*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 50, cfg.Session.MaxSessions)
	assert.Equal(t, "Filtered Results", cfg.Export.SheetName)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.yaml")
	t.Setenv("CLAIMS_SERVER_PORT", "9200")
	t.Setenv("CLAIMS_ANALYTICS_ENGINE", "duckdb")
	t.Setenv("CLAIMS_SESSION_CLEANUP_INTERVAL", "90s")
	t.Setenv("CLAIMS_SERVER_ALLOW_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "duckdb", cfg.Analytics.Engine)
	assert.Equal(t, 90*time.Second, cfg.Session.CleanupInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown engine", "analytics:\n  engine: spreadsheet\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"malformed yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "claims.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analytics.TempDirectory = filepath.Join(t.TempDir(), "nested", "temp")

	require.NoError(t, cfg.EnsureDirectories())

	info, err := os.Stat(cfg.Analytics.TempDirectory)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestServerAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.BindAddress = "127.0.0.1"
	cfg.Server.Port = 9000
	assert.Equal(t, "127.0.0.1:9000", cfg.ServerAddr())
}
