package types

// EventKind classifies an asynchronous binding event from the transport.
type EventKind int

const (
	// EventUp indicates the binding became active.
	EventUp EventKind = iota

	// EventDown indicates the binding went down with an error. The
	// Condition field of the event carries the classified reason.
	EventDown

	// EventSession indicates a session-level event unrelated to the flow
	// binding. Left to external session-event collaborators.
	EventSession
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventUp:
		return "Up"
	case EventDown:
		return "Down"
	case EventSession:
		return "Session"
	default:
		return "Unknown"
	}
}

// BindingEvent is an asynchronous notification about the state of a flow
// binding, delivered by the transport on its own goroutine.
//
// Handlers must not block and must not call back into Transport.Destroy
// or Transport.Bind; recreating a binding from inside the transport's
// event-delivery context is unsafe.
type BindingEvent struct {
	// Kind is the event classification.
	Kind EventKind

	// Handle identifies the binding the event refers to.
	Handle FlowHandle

	// Condition is the classified sub-condition for EventDown events,
	// CondNone otherwise.
	Condition Condition

	// Code is the transport-level response code, when available.
	Code int

	// Reason is a human-readable description of the event.
	Reason string
}

// EventFunc receives asynchronous binding events.
type EventFunc func(ev BindingEvent)
