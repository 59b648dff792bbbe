package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/tocstrip/internal/toc"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, toc.DefaultSelector, cfg.Selector)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Watch)
	assert.Empty(t, cfg.DatabasePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
database_path: /tmp/tocstrip/ledger.db
selector: "aside.toc a"
expand_shortcodes: true
workers: 8
log:
  level: debug
sites:
  - root: ./site
    rescan_interval: 90s
  - root: ./other
server:
  addr: 127.0.0.1:9000
  rate_limit: 5
  burst: 10
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tocstrip/ledger.db", cfg.DatabasePath)
	assert.Equal(t, "aside.toc a", cfg.Selector)
	assert.True(t, cfg.ExpandShortcodes)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, "./site", cfg.Sites[0].Root)
	assert.Equal(t, 90*time.Second, cfg.Sites[0].RescanInterval)
	assert.Zero(t, cfg.Sites[1].RescanInterval)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5.0, cfg.Server.RateLimit)
	assert.Equal(t, 10, cfg.Server.Burst)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TOCSTRIP_WORKERS", "2")
	t.Setenv("TOCSTRIP_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(writeConfig(t, "workers: 6\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		return AppConfig{Selector: toc.DefaultSelector, Workers: 1, Server: ServerConfig{MaxBodyBytes: 1024}}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Selector = "  "
	require.NoError(t, cfg.Validate())
	assert.Equal(t, toc.DefaultSelector, cfg.Selector, "blank selector falls back to the default")

	tests := map[string]func(*AppConfig){
		"bad selector":       func(c *AppConfig) { c.Selector = "a[href" },
		"zero workers":       func(c *AppConfig) { c.Workers = 0 },
		"site without root":  func(c *AppConfig) { c.Sites = []SiteConfig{{}} },
		"negative rescan":    func(c *AppConfig) { c.Sites = []SiteConfig{{Root: "x", RescanInterval: -time.Second}} },
		"negative rate":      func(c *AppConfig) { c.Server.RateLimit = -1 },
		"rate without burst": func(c *AppConfig) { c.Server.RateLimit = 1; c.Server.Burst = 0 },
		"zero body limit":    func(c *AppConfig) { c.Server.MaxBodyBytes = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
