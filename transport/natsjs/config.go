package natsjs

import (
	"errors"
	"time"
)

// Config holds the JetStream-specific settings of the transport.
//
// Stream and ConsumerPrefix are required; the remaining fields default
// to sensible values when zero.
type Config struct {
	// Stream is the JetStream stream backing the durable queue.
	Stream string `yaml:"stream"`

	// Subjects are the stream subjects used when provisioning. Defaults
	// to ["<stream>.>"] when empty.
	Subjects []string `yaml:"subjects"`

	// ConsumerPrefix namespaces the per-binding consumer names.
	// Defaults to "reflow".
	ConsumerPrefix string `yaml:"consumer_prefix"`

	// BatchSize is the pull batch size. Defaults to 1.
	BatchSize int `yaml:"batch_size"`

	// FetchTimeout bounds a single pull request. Defaults to 5s.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// AckWait is how long the server waits for an acknowledgment before
	// redelivering. Defaults to 30s.
	AckWait time.Duration `yaml:"ack_wait"`

	// InactiveThreshold is how long an abandoned per-binding consumer
	// survives on the server. Defaults to 5m.
	InactiveThreshold time.Duration `yaml:"inactive_threshold"`

	// RetryBackoff is the delay before recreating a failed message
	// iterator. Defaults to 500ms.
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// applyDefaults fills zero-valued optional fields.
func (c *Config) applyDefaults() {
	if len(c.Subjects) == 0 && c.Stream != "" {
		c.Subjects = []string{c.Stream + ".>"}
	}
	if c.ConsumerPrefix == "" {
		c.ConsumerPrefix = "reflow"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 1
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 5 * time.Second
	}
	if c.AckWait <= 0 {
		c.AckWait = 30 * time.Second
	}
	if c.InactiveThreshold <= 0 {
		c.InactiveThreshold = 5 * time.Minute
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
}

// validate checks required fields.
func (c *Config) validate() error {
	if c.Stream == "" {
		return errors.New("stream name is required")
	}

	return nil
}
