package types

// Condition is the classified sub-condition carried by a binding-down
// event. The consumption loop reacts to the recoverable conditions by
// rebinding; everything else is informational.
type Condition int

const (
	// CondNone means no condition is pending.
	CondNone Condition = iota

	// CondReplayStarted means the broker initiated a replay of the
	// message log. The flow must be destroyed and recreated to receive
	// the replayed messages.
	CondReplayStarted

	// CondReplayStartUnavailable means the requested replay start time is
	// older than what the broker's log retains (replay window exceeded).
	// The flow must be recreated with a from-beginning replay directive.
	CondReplayStartUnavailable
)

// String returns the string representation of the condition.
func (c Condition) String() string {
	switch c {
	case CondNone:
		return "None"
	case CondReplayStarted:
		return "ReplayStarted"
	case CondReplayStartUnavailable:
		return "ReplayStartUnavailable"
	default:
		return "Unknown"
	}
}

// Recoverable reports whether the condition is one the consumption loop
// handles by rebinding rather than aborting.
func (c Condition) Recoverable() bool {
	return c == CondReplayStarted || c == CondReplayStartUnavailable
}
