package types

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AckMode controls how received messages are acknowledged.
type AckMode int

const (
	// AckClient means the application acknowledges each message
	// explicitly after processing it.
	AckClient AckMode = iota

	// AckAuto means the transport acknowledges messages automatically on
	// delivery.
	AckAuto
)

// String returns the string representation of the ack mode.
func (m AckMode) String() string {
	switch m {
	case AckClient:
		return "Client"
	case AckAuto:
		return "Auto"
	default:
		return "Unknown"
	}
}

// ParseAckMode parses an acknowledgment mode name. Accepted values are
// "client" and "auto", case-insensitive.
func ParseAckMode(s string) (AckMode, error) {
	switch strings.ToLower(s) {
	case "client":
		return AckClient, nil
	case "auto":
		return AckAuto, nil
	default:
		return AckClient, fmt.Errorf("unknown ack mode %q", s)
	}
}

// ReplayMode selects where a replay starts in the broker's retained log.
type ReplayMode int

const (
	// ReplayBeginning requests the full retained log from its beginning.
	ReplayBeginning ReplayMode = iota

	// ReplayFromTime requests the log starting at a specific timestamp.
	ReplayFromTime
)

// String returns the string representation of the replay mode.
func (m ReplayMode) String() string {
	switch m {
	case ReplayBeginning:
		return "Beginning"
	case ReplayFromTime:
		return "FromTime"
	default:
		return "Unknown"
	}
}

// ReplayStart is the replay-start directive of a bind attempt.
//
// The zero value requests replay from the beginning of the log. Use
// ReplayStartAt for a timestamp-based start.
type ReplayStart struct {
	// Mode selects the start location kind.
	Mode ReplayMode

	// Time is the requested start timestamp when Mode is ReplayFromTime.
	Time time.Time
}

// ReplayStartAll returns a directive requesting the full retained log.
func ReplayStartAll() ReplayStart {
	return ReplayStart{Mode: ReplayBeginning}
}

// ReplayStartAt returns a directive requesting replay from t.
func ReplayStartAt(t time.Time) ReplayStart {
	return ReplayStart{Mode: ReplayFromTime, Time: t}
}

// BindConfig describes how a flow attaches to a named queue.
//
// The configuration is treated as immutable for a given bind attempt.
// The Replay directive is the one field the consumption loop overwrites
// between bind attempts, when reacting to a replay-window-exceeded
// condition.
type BindConfig struct {
	// Queue is the name of the durable queue to bind to. Required.
	Queue string `yaml:"queue"`

	// AckMode controls acknowledgment semantics. Defaults to AckClient.
	AckMode AckMode `yaml:"ackMode"`

	// NonBlocking requests non-blocking bind semantics from transports
	// that distinguish the two. Bind calls still return synchronously to
	// the caller either way, bounded by BindTimeout.
	NonBlocking bool `yaml:"nonBlocking"`

	// BindTimeout bounds a single bind attempt. Defaults to 10 seconds.
	BindTimeout time.Duration `yaml:"bindTimeout"`

	// Replay is the replay-start directive for the next bind attempt.
	Replay ReplayStart `yaml:"-"`
}

// Clone returns a copy of the configuration. Transports and test fakes
// use it to capture the exact configuration of each bind attempt.
func (c BindConfig) Clone() BindConfig {
	return c
}

// UnmarshalYAML implements yaml.Unmarshaler. Only fields present in the
// document are overlaid, so decoding into a pre-populated value keeps
// its defaults. Durations accept Go duration strings like "500ms".
func (c *BindConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Queue       *string `yaml:"queue"`
		AckMode     *string `yaml:"ackMode"`
		NonBlocking *bool   `yaml:"nonBlocking"`
		BindTimeout *string `yaml:"bindTimeout"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Queue != nil {
		c.Queue = *raw.Queue
	}
	if raw.AckMode != nil {
		mode, err := ParseAckMode(*raw.AckMode)
		if err != nil {
			return err
		}
		c.AckMode = mode
	}
	if raw.NonBlocking != nil {
		c.NonBlocking = *raw.NonBlocking
	}
	if raw.BindTimeout != nil {
		d, err := time.ParseDuration(*raw.BindTimeout)
		if err != nil {
			return fmt.Errorf("invalid bindTimeout: %w", err)
		}
		c.BindTimeout = d
	}

	return nil
}
