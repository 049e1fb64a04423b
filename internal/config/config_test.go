package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, filepath.Join("data", "moviecatalog.db"), cfg.Database.DatabasePath)
	assert.Equal(t, 5, cfg.Catalog.RecentWindow)
	assert.False(t, cfg.Catalog.ZeroIsMissing)
	assert.Equal(t, 20, cfg.Catalog.DefaultPageSize)
	assert.Equal(t, 100, cfg.Catalog.MaxPageSize)
	assert.True(t, cfg.Security.RateLimitEnabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFilePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
catalog:
  recent_window: 3
  zero_is_missing: true
security:
  allowed_origins: ["http://localhost:3000"]
`), 0644))

	t.Setenv("CATALOG_RECENT_WINDOW", "7")
	t.Setenv("MOVIECATALOG_TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))
	cfg := cm.GetConfig()

	// file values survive the defaults, env wins over file
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Catalog.RecentWindow)
	assert.True(t, cfg.Catalog.ZeroIsMissing)
	assert.Equal(t, 20, cfg.Catalog.DefaultPageSize)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Server.TrustedProxies)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database": {"type": "postgres", "host": "db"}}`), 0644))

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))
	cfg := cm.GetConfig()
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Empty(t, cfg.Database.DatabasePath)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port", map[string]string{"MOVIECATALOG_PORT": "70000"}},
		{"database type", map[string]string{"DATABASE_TYPE": "mysql"}},
		{"recent window", map[string]string{"CATALOG_RECENT_WINDOW": "-1"}},
		{"page sizes", map[string]string{"CATALOG_MAX_PAGE_SIZE": "10"}},
		{"unparseable", map[string]string{"MOVIECATALOG_READ_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cm := NewConfigManager()
			assert.Error(t, cm.LoadConfig(""))
			// a failed load keeps the previous configuration
			assert.Equal(t, 8080, cm.GetConfig().Server.Port)
		})
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 1"), 0644))
	assert.Error(t, NewConfigManager().LoadConfig(path))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))
	require.NoError(t, cm.SaveConfig())

	reloaded := NewConfigManager()
	require.NoError(t, reloaded.LoadConfig(path))
	assert.Equal(t, cm.GetConfig(), reloaded.GetConfig())

	assert.Error(t, NewConfigManager().SaveConfig())
}

func TestWatchersNotified(t *testing.T) {
	cm := NewConfigManager()
	changed := make(chan int, 1)
	cm.AddWatcher(func(oldConfig, newConfig *Config) {
		changed <- newConfig.Catalog.RecentWindow
	})

	t.Setenv("CATALOG_RECENT_WINDOW", "2")
	require.NoError(t, cm.LoadConfig(""))

	select {
	case got := <-changed:
		assert.Equal(t, 2, got)
	case <-time.After(time.Second):
		t.Fatal("watcher not notified")
	}
}

func TestFileWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  recent_window: 3\n"), 0644))

	cm := NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))

	fw, err := NewFileWatcher(cm, hclog.NewNullLogger(), 20*time.Millisecond)
	require.NoError(t, err)
	fw.Start(context.Background())
	t.Cleanup(func() { fw.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  recent_window: 9\n"), 0644))

	assert.Eventually(t, func() bool {
		return cm.GetConfig().Catalog.RecentWindow == 9
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileWatcherRequiresPath(t *testing.T) {
	_, err := NewFileWatcher(NewConfigManager(), hclog.NewNullLogger(), 0)
	assert.Error(t, err)
}
