package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogmap/infrastructure/config"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		HTTPAddress:   ":0",
		Environment:   "development",
		AuthorityURL:  "ws://127.0.0.1:1/ws/chat",
		RootID:        "A",
		RootLabel:     "ROOT 问题",
		FocusPolicy:   "stay",
		QueueSize:     16,
		SnapshotPath:  filepath.Join(t.TempDir(), "snap.db"),
		LogLevel:      "error",
		EnableMetrics: true,
	}
}

func TestInitializeContainer(t *testing.T) {
	c, cleanup, err := InitializeContainer(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.Router.Setup())

	view := c.Session.View()
	assert.Equal(t, "A", view.RootID)
	assert.Equal(t, []string{"ROOT 问题"}, view.Path)
}

func TestInitializeContainer_Failures(t *testing.T) {
	cfg := testConfig(t)
	cfg.FocusPolicy = "wander"
	_, _, err := InitializeContainer(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.LayoutFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = InitializeContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestFrameRelay_Unbound(t *testing.T) {
	// Frames before the session exists are dropped.
	(&FrameRelay{}).Deliver([]byte(`{}`))
}
