package reflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/reflow"
	"github.com/arloliu/reflow/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := reflow.DefaultConfig()

	assert.Equal(t, types.AckClient, cfg.Bind.AckMode)
	assert.Equal(t, types.ReplayBeginning, cfg.Bind.Replay.Mode)
	assert.Equal(t, 10*time.Second, cfg.Bind.BindTimeout)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.DestroyTimeout)
	assert.Zero(t, cfg.MessageTarget)
}

func TestSetDefaults(t *testing.T) {
	cfg := reflow.Config{}
	reflow.SetDefaults(&cfg)

	assert.Equal(t, 10*time.Second, cfg.Bind.BindTimeout)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.DestroyTimeout)

	// Explicit values survive.
	cfg = reflow.Config{PollInterval: 50 * time.Millisecond}
	reflow.SetDefaults(&cfg)
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() reflow.Config {
		cfg := reflow.DefaultConfig()
		cfg.Bind.Queue = "orders"

		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing queue", func(t *testing.T) {
		cfg := valid()
		cfg.Bind.Queue = ""
		require.ErrorIs(t, cfg.Validate(), reflow.ErrQueueRequired)
	})

	t.Run("negative target", func(t *testing.T) {
		cfg := valid()
		cfg.MessageTarget = -1
		require.Error(t, cfg.Validate())
	})

	t.Run("zero poll interval", func(t *testing.T) {
		cfg := valid()
		cfg.PollInterval = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("timestamp replay without time", func(t *testing.T) {
		cfg := valid()
		cfg.Bind.Replay = types.ReplayStart{Mode: types.ReplayFromTime}
		require.Error(t, cfg.Validate())
	})

	t.Run("timestamp replay with time", func(t *testing.T) {
		cfg := valid()
		cfg.Bind.Replay = types.ReplayStartAt(time.Now().Add(-time.Hour))
		require.NoError(t, cfg.Validate())
	})
}

func TestConfig_YAML(t *testing.T) {
	raw := `
bind:
  queue: orders
  ackMode: auto
  nonBlocking: true
  bindTimeout: 3s
messageTarget: 25
pollInterval: 250ms
`
	cfg := reflow.DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))

	assert.Equal(t, "orders", cfg.Bind.Queue)
	assert.Equal(t, types.AckAuto, cfg.Bind.AckMode)
	assert.True(t, cfg.Bind.NonBlocking)
	assert.Equal(t, 3*time.Second, cfg.Bind.BindTimeout)
	assert.Equal(t, int64(25), cfg.MessageTarget)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)

	// Fields absent from the document keep their defaults.
	assert.Equal(t, 5*time.Second, cfg.DestroyTimeout)
	require.NoError(t, cfg.Validate())
}

func TestConfig_YAMLInvalidDuration(t *testing.T) {
	cfg := reflow.DefaultConfig()
	err := yaml.Unmarshal([]byte("pollInterval: fast"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pollInterval")
}
