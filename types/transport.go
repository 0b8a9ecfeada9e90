package types

import "context"

// FlowHandle is an opaque reference to a live flow binding.
//
// It is a small generation-tagged identifier rather than an owned
// resource: the transport keeps the real binding state and checks both
// ID and Gen on every call, so a stale handle from before a rebind can
// never alias the recreated binding. The zero value means "no handle".
type FlowHandle struct {
	// ID identifies the binding slot inside the transport.
	ID uint64

	// Gen is incremented each time the slot is reused, catching
	// use-after-destroy.
	Gen uint64
}

// Zero reports whether the handle is the zero (no binding) value.
func (h FlowHandle) Zero() bool {
	return h.ID == 0 && h.Gen == 0
}

// Transport is the capability set the consumption core needs from a
// messaging transport. Session establishment, provisioning and
// disconnection are transport-implementation concerns outside this
// contract; see transport/natsjs for the full surface.
//
// Implementations must be safe for concurrent use: Bind/Destroy are
// called from the consumption loop while Acknowledge is called from the
// delivery callback path.
type Transport interface {
	// Bind creates a flow binding for the given configuration. Delivered
	// messages are passed to onMessage and asynchronous binding events to
	// onEvent, both on transport goroutines. A non-success bind result is
	// returned as a *BindError.
	Bind(ctx context.Context, cfg BindConfig, onMessage MessageFunc, onEvent EventFunc) (FlowHandle, error)

	// Destroy releases the binding. Destroying an unknown or stale
	// handle is a no-op, not an error.
	Destroy(ctx context.Context, h FlowHandle) error

	// Acknowledge confirms processing of the message identified by id on
	// the given binding. Returns ErrStaleHandle when the handle no longer
	// refers to a live binding.
	Acknowledge(ctx context.Context, h FlowHandle, id MessageID) error
}
