package types

// FlowState represents the lifecycle state of a flow binding.
//
// States follow a defined progression during normal operation:
//
//	FlowUnbound → FlowBound
//
// When the broker starts a replay:
//
//	FlowBound → FlowRebinding → FlowBound
//
// FlowFailed is terminal: a bind or rebind attempt returned an error and
// the process must abort.
type FlowState int

const (
	// FlowUnbound indicates no live flow handle exists.
	FlowUnbound FlowState = iota

	// FlowBound indicates a live handle, receiving messages normally.
	FlowBound

	// FlowRebinding indicates a destroy-then-recreate cycle is in progress.
	FlowRebinding

	// FlowFailed indicates a bind attempt returned an error. Terminal.
	FlowFailed
)

// String returns the string representation of the state.
func (s FlowState) String() string {
	switch s {
	case FlowUnbound:
		return "Unbound"
	case FlowBound:
		return "Bound"
	case FlowRebinding:
		return "Rebinding"
	case FlowFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
