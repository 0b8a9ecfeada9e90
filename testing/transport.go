package testing

import (
	"context"
	"sync"

	"github.com/arloliu/reflow/types"
)

// FakeTransport is a scripted in-memory implementation of
// types.Transport for deterministic flow-lifecycle tests.
//
// Bind results can be scripted per call with QueueBindError, each bind's
// configuration is captured for later assertions, and messages and
// binding events are injected with Deliver and EmitDown. At most one
// binding is live at a time, mirroring the single-flow contract.
//
// All methods are safe for concurrent use.
type FakeTransport struct {
	mu sync.Mutex

	nextID  uint64
	nextGen uint64

	scriptedErrs []error
	bindConfigs  []types.BindConfig
	destroyCalls int

	active *fakeBinding
	acked  []types.MessageID
}

type fakeBinding struct {
	handle    types.FlowHandle
	onMessage types.MessageFunc
	onEvent   types.EventFunc
}

var _ types.Transport = (*FakeTransport)(nil)

// NewFakeTransport creates an empty fake transport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// QueueBindError scripts the result of the next unscripted Bind call.
// Queue nil for an explicit success slot. Bind calls beyond the script
// succeed.
func (f *FakeTransport) QueueBindError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scriptedErrs = append(f.scriptedErrs, err)
}

// Bind implements types.Transport. The configuration of every call,
// including failed ones, is captured.
func (f *FakeTransport) Bind(
	_ context.Context,
	cfg types.BindConfig,
	onMessage types.MessageFunc,
	onEvent types.EventFunc,
) (types.FlowHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bindConfigs = append(f.bindConfigs, cfg.Clone())

	if len(f.scriptedErrs) > 0 {
		err := f.scriptedErrs[0]
		f.scriptedErrs = f.scriptedErrs[1:]
		if err != nil {
			return types.FlowHandle{}, err
		}
	}

	f.nextID++
	f.nextGen++
	h := types.FlowHandle{ID: f.nextID, Gen: f.nextGen}
	f.active = &fakeBinding{handle: h, onMessage: onMessage, onEvent: onEvent}

	return h, nil
}

// Destroy implements types.Transport. Unknown or stale handles are a
// no-op.
func (f *FakeTransport) Destroy(_ context.Context, h types.FlowHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.destroyCalls++
	if f.active != nil && f.active.handle == h {
		f.active = nil
	}

	return nil
}

// Acknowledge implements types.Transport, recording the acknowledged
// identifier. Returns types.ErrStaleHandle when h is not the live
// binding.
func (f *FakeTransport) Acknowledge(_ context.Context, h types.FlowHandle, id types.MessageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active == nil || f.active.handle != h {
		return types.ErrStaleHandle
	}
	f.acked = append(f.acked, id)

	return nil
}

// Deliver injects a message through the live binding's delivery
// callback, synchronously on the calling goroutine. Returns false when
// no binding is live.
func (f *FakeTransport) Deliver(ctx context.Context, msg types.Message) bool {
	f.mu.Lock()
	b := f.active
	f.mu.Unlock()

	if b == nil {
		return false
	}
	b.onMessage(ctx, b.handle, msg)

	return true
}

// EmitDown injects a down-with-error binding event through the live
// binding's event callback. Returns false when no binding is live.
func (f *FakeTransport) EmitDown(cond types.Condition, code int, reason string) bool {
	f.mu.Lock()
	b := f.active
	f.mu.Unlock()

	if b == nil {
		return false
	}
	b.onEvent(types.BindingEvent{
		Kind:      types.EventDown,
		Handle:    b.handle,
		Condition: cond,
		Code:      code,
		Reason:    reason,
	})

	return true
}

// BindConfigs returns the captured configuration of every Bind call, in
// order.
func (f *FakeTransport) BindConfigs() []types.BindConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]types.BindConfig, len(f.bindConfigs))
	copy(out, f.bindConfigs)

	return out
}

// BindCount returns the number of Bind calls made so far.
func (f *FakeTransport) BindCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.bindConfigs)
}

// DestroyCount returns the number of Destroy calls made so far.
func (f *FakeTransport) DestroyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.destroyCalls
}

// AckedIDs returns the identifiers acknowledged so far, in order.
func (f *FakeTransport) AckedIDs() []types.MessageID {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]types.MessageID, len(f.acked))
	copy(out, f.acked)

	return out
}

// Bound reports whether a binding is currently live.
func (f *FakeTransport) Bound() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.active != nil
}
