package reflow

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/reflow/types"
)

// Config is the configuration for the Consumer.
//
// All duration fields accept standard Go duration strings like "500ms",
// "10s" when loaded from YAML.
type Config struct {
	// Bind is the flow binding configuration. Bind.Queue is required.
	Bind types.BindConfig `yaml:"bind"`

	// MessageTarget stops the consumer after this many messages have
	// been delivered (replayed duplicates included). 0 means run until
	// the context is cancelled.
	MessageTarget int64 `yaml:"messageTarget"`

	// PollInterval bounds the idle wait between checks for a pending
	// replay condition. The consumer also wakes immediately when the
	// event monitor signals, so this is a fallback bound, not a latency
	// floor. Recommended: 1 second.
	PollInterval time.Duration `yaml:"pollInterval"`

	// DestroyTimeout bounds the final flow destroy performed on exit.
	// Recommended: 5 seconds.
	DestroyTimeout time.Duration `yaml:"destroyTimeout"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values (Queue left empty)
func DefaultConfig() Config {
	return Config{
		Bind: types.BindConfig{
			AckMode:     types.AckClient,
			BindTimeout: 10 * time.Second,
			Replay:      types.ReplayStartAll(),
		},
		MessageTarget:  0,
		PollInterval:   time.Second,
		DestroyTimeout: 5 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Bind.BindTimeout == 0 {
		cfg.Bind.BindTimeout = defaults.Bind.BindTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.DestroyTimeout == 0 {
		cfg.DestroyTimeout = defaults.DestroyTimeout
	}
}

// UnmarshalYAML implements yaml.Unmarshaler. Only fields present in the
// document are overlaid, so a file can partially override DefaultConfig.
// Durations accept Go duration strings like "500ms" or "10s".
func (cfg *Config) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Bind           *types.BindConfig `yaml:"bind"`
		MessageTarget  *int64            `yaml:"messageTarget"`
		PollInterval   *string           `yaml:"pollInterval"`
		DestroyTimeout *string           `yaml:"destroyTimeout"`
	}{
		// Decode the bind section into the existing value so its own
		// overlay semantics apply.
		Bind: &cfg.Bind,
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.MessageTarget != nil {
		cfg.MessageTarget = *raw.MessageTarget
	}
	if raw.PollInterval != nil {
		d, err := time.ParseDuration(*raw.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid pollInterval: %w", err)
		}
		cfg.PollInterval = d
	}
	if raw.DestroyTimeout != nil {
		d, err := time.ParseDuration(*raw.DestroyTimeout)
		if err != nil {
			return fmt.Errorf("invalid destroyTimeout: %w", err)
		}
		cfg.DestroyTimeout = d
	}

	return nil
}

// Validate checks configuration constraints.
//
// Returns:
//   - error: Validation error with a clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if cfg.Bind.Queue == "" {
		return ErrQueueRequired
	}
	if cfg.MessageTarget < 0 {
		return fmt.Errorf("MessageTarget must be >= 0, got %d", cfg.MessageTarget)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("PollInterval must be > 0, got %v", cfg.PollInterval)
	}
	if cfg.Bind.BindTimeout <= 0 {
		return fmt.Errorf("BindTimeout must be > 0, got %v", cfg.Bind.BindTimeout)
	}
	if cfg.Bind.Replay.Mode == types.ReplayFromTime && cfg.Bind.Replay.Time.IsZero() {
		return fmt.Errorf("replay start time is required when replay mode is %s", types.ReplayFromTime)
	}

	return nil
}
