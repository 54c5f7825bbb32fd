package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cogmap/domain/services"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"COGMAP_HTTP_ADDR", "COGMAP_AUTHORITY_URL", "COGMAP_ROOT_ID", "COGMAP_ROOT_LABEL",
		"COGMAP_FOCUS_POLICY", "COGMAP_SNAPSHOT_PATH", "COGMAP_LAYOUT_FILE", "ENABLE_TRACING",
		"ENVIRONMENT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, "ws://localhost:8001/ws/chat", cfg.AuthorityURL)
	assert.Equal(t, "A", cfg.RootID)
	assert.Equal(t, "ROOT 问题", cfg.RootLabel)
	assert.Equal(t, "follow-child", cfg.FocusPolicy)
	assert.Empty(t, cfg.SnapshotPath)
	assert.False(t, cfg.EnableTracing)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("COGMAP_AUTHORITY_URL", "wss://example.test/ws")
	t.Setenv("COGMAP_ROOT_ID", "root")
	t.Setenv("COGMAP_FOCUS_POLICY", "stay")
	t.Setenv("ENABLE_METRICS", "no")
	t.Setenv("COGMAP_QUEUE_SIZE", "32")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "wss://example.test/ws", cfg.AuthorityURL)
	assert.Equal(t, "root", cfg.RootID)
	assert.Equal(t, "stay", cfg.FocusPolicy)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, 32, cfg.QueueSize)
	assert.True(t, cfg.IsProduction())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AuthorityURL: "ws://localhost:8001/ws/chat",
			RootID:       "A",
			FocusPolicy:  "follow-child",
			QueueSize:    1,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"http scheme", func(c *Config) { c.AuthorityURL = "http://localhost" }},
		{"empty root", func(c *Config) { c.RootID = "" }},
		{"unknown policy", func(c *Config) { c.FocusPolicy = "wander" }},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }},
		{"tracing without endpoint", func(c *Config) { c.EnableTracing = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseLayout(t *testing.T) {
	cfg, err := ParseLayout([]byte("levelHeight: 100\ngap: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, services.LayoutConfig{LevelHeight: 100, NodeWidth: services.DefaultNodeWidth, Gap: 0}, cfg)

	cfg, err = ParseLayout([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, services.DefaultLayoutConfig(), cfg)

	_, err = ParseLayout([]byte("nodeWidth: -5\n"))
	assert.Error(t, err)

	_, err = ParseLayout([]byte("levelHeight: [1, 2]\n"))
	assert.Error(t, err)
}

func TestLayoutWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("levelHeight: 150\n"), 0o644))

	w, err := NewLayoutWatcher(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, services.DefaultLayoutConfig(), w.Current())

	changes := make(chan services.LayoutConfig, 4)
	w.OnChange(func(c services.LayoutConfig) { changes <- c })
	w.Start()
	t.Cleanup(w.Stop)

	// A broken file is ignored.
	require.NoError(t, os.WriteFile(path, []byte("gap: -1\n"), 0o644))
	time.Sleep(3 * debounceDuration)
	assert.Equal(t, services.DefaultLayoutConfig(), w.Current())

	require.NoError(t, os.WriteFile(path, []byte("levelHeight: 80\nnodeWidth: 120\n"), 0o644))

	select {
	case got := <-changes:
		assert.Equal(t, 80.0, got.LevelHeight)
		assert.Equal(t, 120.0, got.NodeWidth)
	case <-time.After(5 * time.Second):
		t.Fatal("layout change not observed")
	}
	assert.Equal(t, 80.0, w.Current().LevelHeight)
}

func TestNewLayoutWatcher_MissingFile(t *testing.T) {
	_, err := NewLayoutWatcher(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())
	assert.Error(t, err)
}
