package types

import "context"

// Hooks defines callbacks for Consumer lifecycle events.
//
// All hooks are optional and called asynchronously in background
// goroutines to avoid blocking the state machine. The context passed to
// hooks is cancelled when the consumer stops. Hook errors are logged but
// never fail consumer operations.
//
// Best practices for hook implementations:
//   - Complete quickly
//   - Respect context cancellation
//   - Make hooks idempotent (may be called multiple times)
type Hooks struct {
	// OnStateChanged is called when the flow state transitions.
	OnStateChanged func(ctx context.Context, from, to FlowState) error

	// OnReplay is called when a recoverable replay condition has been
	// observed by the consumption loop, before the rebind is performed.
	OnReplay func(ctx context.Context, cond Condition) error

	// OnError is called when a bind or rebind attempt fails. The error
	// is still returned from Run; the hook is for observation only.
	OnError func(ctx context.Context, err error) error
}
