package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nikbrunner/bmpop/internal/config"
	"github.com/nikbrunner/bmpop/internal/storage"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestLoad_CreatesFileWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bmpop", "config.yaml")

	cfg, err := config.Load(path)
	assert.NilError(t, err)

	defaults := config.DefaultConfig()
	assert.Equal(t, cfg.Backend, storage.BackendSQLite)
	assert.Equal(t, cfg.SQLite.Path, defaults.SQLite.Path)
	assert.Equal(t, cfg.Server.Listen, "127.0.0.1:8787")
	assert.Equal(t, cfg.Timeout, 10*time.Second)
	assert.Check(t, cfg.Watch)

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(string(data), "backend: sqlite"))
	assert.Check(t, is.Contains(string(data), "timeout: 10s"))
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
backend: chrome
chrome:
  path: /tmp/Bookmarks
timeout: 3s
`
	assert.NilError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	assert.NilError(t, err)

	assert.Equal(t, cfg.Backend, storage.BackendChrome)
	assert.Equal(t, cfg.Chrome.Path, "/tmp/Bookmarks")
	assert.Equal(t, cfg.Timeout, 3*time.Second)
	assert.Equal(t, cfg.Log.Level, "info")
	assert.Equal(t, cfg.Redis.Prefix, "bmpop")
	assert.Equal(t, cfg.WatchPath(), "/tmp/Bookmarks")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("BMPOP_BACKEND", "redis")
	t.Setenv("BMPOP_REDIS_ADDR", "cache:6380")
	t.Setenv("BMPOP_REDIS_DB", "4")
	t.Setenv("BMPOP_WATCH", "false")
	t.Setenv("BMPOP_TIMEOUT", "2s")
	t.Setenv("BMPOP_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	assert.NilError(t, err)

	assert.Equal(t, cfg.Backend, storage.BackendRedis)
	assert.Equal(t, cfg.Redis.Addr, "cache:6380")
	assert.Equal(t, cfg.Redis.DB, 4)
	assert.Equal(t, cfg.Log.Level, "debug")
	assert.Equal(t, cfg.Timeout, 2*time.Second)
	assert.Equal(t, cfg.WatchPath(), "")

	opts := cfg.StorageOptions()
	assert.Equal(t, opts.Backend, storage.BackendRedis)
	assert.Equal(t, opts.Redis.Addr, "cache:6380")
	assert.Equal(t, opts.Redis.DB, 4)
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"BMPOP_REDIS_DB", "zero"},
		{"BMPOP_WATCH", "sometimes"},
		{"BMPOP_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NilError(t, os.WriteFile(path, []byte("backend: [sqlite\n"), 0644))

	_, err := config.Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BMPOP_SQLITE_PATH", "~/data/bm.db")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	assert.NilError(t, err)
	assert.Equal(t, cfg.SQLite.Path, filepath.Join(home, "data", "bm.db"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *config.Config) {}},
		{
			name:    "unknown backend",
			mutate:  func(c *config.Config) { c.Backend = "firefox" },
			wantErr: "backend",
		},
		{
			name: "chrome needs a path",
			mutate: func(c *config.Config) {
				c.Backend = storage.BackendChrome
				c.Chrome.Path = ""
			},
			wantErr: "chrome.path",
		},
		{
			name: "sqlite path unused by redis",
			mutate: func(c *config.Config) {
				c.Backend = storage.BackendRedis
				c.SQLite.Path = ""
			},
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Log.Level = "loud" },
			wantErr: "log.level",
		},
		{
			name:    "listen without port",
			mutate:  func(c *config.Config) { c.Server.Listen = "localhost" },
			wantErr: "server.listen",
		},
		{
			name:   "listen on all interfaces",
			mutate: func(c *config.Config) { c.Server.Listen = ":9000" },
		},
		{
			name:    "timeout too short",
			mutate:  func(c *config.Config) { c.Timeout = time.Millisecond },
			wantErr: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NilError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
