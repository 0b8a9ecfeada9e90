// Package flow owns the lifecycle of a single flow binding: create,
// destroy, recreate, and the flow-level state machine.
package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/reflow/types"
)

// ErrFlowFailed is returned when an operation is attempted on a flow in
// the terminal Failed state.
var ErrFlowFailed = errors.New("flow is in failed state")

// TransitionFunc observes flow state transitions. Invoked synchronously
// from the goroutine performing the transition; implementations should
// hand off heavy work.
type TransitionFunc func(from, to types.FlowState)

// Manager owns exactly one flow binding at a time.
//
// The manager enforces destroy-before-recreate ordering so a handle is
// never leaked or double-destroyed. All methods are intended to be
// called from the consumption loop; the transport's callbacks never
// touch the manager directly.
//
// Destroy-then-recreate is deliberate: every replay cycle redelivers the
// full requested log segment, accepting duplicate delivery across
// repeated replay triggers in exchange for completeness.
type Manager struct {
	transport types.Transport
	logger    types.Logger
	metrics   types.MetricsCollector

	onMessage types.MessageFunc
	onEvent   types.EventFunc

	onTransition TransitionFunc

	state atomic.Int32 // types.FlowState

	mu     sync.Mutex
	cfg    types.BindConfig
	handle types.FlowHandle
	bound  bool
}

// New creates a flow manager in the Unbound state.
//
// Parameters:
//   - transport: Transport providing bind/destroy primitives
//   - cfg: Initial binding configuration
//   - onMessage: Delivery callback passed through to the transport
//   - onEvent: Binding-event callback passed through to the transport
//   - logger: Logger for lifecycle diagnostics
//   - metrics: Collector for transition/rebind metrics
//
// Returns:
//   - *Manager: Initialized manager, no live handle
func New(
	transport types.Transport,
	cfg types.BindConfig,
	onMessage types.MessageFunc,
	onEvent types.EventFunc,
	logger types.Logger,
	metrics types.MetricsCollector,
) *Manager {
	m := &Manager{
		transport: transport,
		logger:    logger,
		metrics:   metrics,
		onMessage: onMessage,
		onEvent:   onEvent,
		cfg:       cfg,
	}
	m.state.Store(int32(types.FlowUnbound))

	return m
}

// SetTransitionFunc registers an observer for state transitions. Must be
// called before the first Bind.
func (m *Manager) SetTransitionFunc(fn TransitionFunc) {
	m.onTransition = fn
}

// State returns the current flow state.
func (m *Manager) State() types.FlowState {
	return types.FlowState(m.state.Load())
}

// Handle returns the current flow handle, zero when unbound.
func (m *Manager) Handle() types.FlowHandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.handle
}

// Config returns a copy of the current binding configuration.
func (m *Manager) Config() types.BindConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cfg.Clone()
}

// SetReplayStart overwrites the replay-start directive used by the next
// bind attempt. The override persists for all subsequent rebinds.
func (m *Manager) SetReplayStart(rs types.ReplayStart) {
	m.mu.Lock()
	m.cfg.Replay = rs
	m.mu.Unlock()

	m.logger.Info("replay-start directive overwritten",
		"mode", rs.Mode.String(),
		"time", rs.Time,
	)
}

// Bind attempts to create a binding with the current configuration.
//
// A non-success result moves the flow to the terminal Failed state and
// is returned as a *types.BindError; the caller decides whether to
// abort the process. No automatic retry is performed at this layer.
//
// Returns:
//   - types.FlowHandle: Live handle on success
//   - error: *types.BindError on bind failure, ErrFlowFailed when the
//     flow already failed
func (m *Manager) Bind(ctx context.Context) (types.FlowHandle, error) {
	if m.State() == types.FlowFailed {
		return types.FlowHandle{}, ErrFlowFailed
	}

	return m.bind(ctx)
}

// Rebind destroys the current handle (no-op when already destroyed) and
// binds again with the current configuration.
//
// Callers reacting to a replay-window-exceeded condition must call
// SetReplayStart before Rebind; the manager itself never rewrites the
// directive.
//
// Returns:
//   - types.FlowHandle: The recreated handle on success
//   - error: *types.BindError on recreate failure (flow moves to Failed)
func (m *Manager) Rebind(ctx context.Context) (types.FlowHandle, error) {
	state := m.State()
	if state == types.FlowFailed {
		return types.FlowHandle{}, ErrFlowFailed
	}

	if state == types.FlowBound {
		m.transitionState(state, types.FlowRebinding)
	}

	start := time.Now()
	m.destroy(ctx)

	h, err := m.bind(ctx)
	m.metrics.RecordRebind(err == nil, time.Since(start).Seconds())

	return h, err
}

// Destroy releases the flow handle. Always safe to call, including when
// no flow is live.
func (m *Manager) Destroy(ctx context.Context) {
	m.destroy(ctx)

	if state := m.State(); state == types.FlowBound {
		m.transitionState(state, types.FlowUnbound)
	}
}

// bind performs a single bind attempt with the current configuration.
func (m *Manager) bind(ctx context.Context) (types.FlowHandle, error) {
	m.mu.Lock()
	cfg := m.cfg.Clone()
	m.mu.Unlock()

	bindCtx := ctx
	if cfg.BindTimeout > 0 {
		var cancel context.CancelFunc
		bindCtx, cancel = context.WithTimeout(ctx, cfg.BindTimeout)
		defer cancel()
	}

	bindID := uuid.NewString()
	m.logger.Debug("binding flow",
		"bind_id", bindID,
		"queue", cfg.Queue,
		"replay_mode", cfg.Replay.Mode.String(),
	)

	h, err := m.transport.Bind(bindCtx, cfg, m.onMessage, m.onEvent)
	if err != nil {
		m.transitionState(m.State(), types.FlowFailed)

		var bindErr *types.BindError
		if errors.As(err, &bindErr) {
			m.logger.Error("bind failed",
				"bind_id", bindID,
				"code", bindErr.Code,
				"condition", bindErr.Condition.String(),
				"reason", bindErr.Reason,
			)

			return types.FlowHandle{}, err
		}

		m.logger.Error("bind failed", "bind_id", bindID, "error", err)

		return types.FlowHandle{}, &types.BindError{Reason: err.Error(), Err: err}
	}

	m.mu.Lock()
	m.handle = h
	m.bound = true
	m.mu.Unlock()

	m.transitionState(m.State(), types.FlowBound)
	m.logger.Info("flow bound",
		"bind_id", bindID,
		"queue", cfg.Queue,
		"handle_id", h.ID,
		"handle_gen", h.Gen,
	)

	return h, nil
}

// destroy releases the current handle if one is live. Idempotent.
func (m *Manager) destroy(ctx context.Context) {
	m.mu.Lock()
	if !m.bound {
		m.mu.Unlock()

		return
	}
	h := m.handle
	m.handle = types.FlowHandle{}
	m.bound = false
	m.mu.Unlock()

	if err := m.transport.Destroy(ctx, h); err != nil {
		// Destroy is best-effort; the handle is already dropped locally.
		m.logger.Warn("flow destroy failed", "handle_id", h.ID, "error", err)

		return
	}

	m.logger.Debug("flow destroyed", "handle_id", h.ID, "handle_gen", h.Gen)
}

// transitionState transitions to a new state and notifies the observer.
func (m *Manager) transitionState(from, to types.FlowState) {
	if from == to {
		return
	}

	if !isValidTransition(from, to) {
		m.logger.Error("invalid flow state transition attempted",
			"from", from.String(),
			"to", to.String(),
		)

		return
	}

	m.state.Store(int32(to))
	m.metrics.RecordStateTransition(from, to)

	m.logger.Info("flow state transition", "from", from.String(), "to", to.String())

	if m.onTransition != nil {
		m.onTransition(from, to)
	}
}

// isValidTransition validates that a flow state transition is allowed.
func isValidTransition(from, to types.FlowState) bool {
	validTransitions := map[types.FlowState][]types.FlowState{
		types.FlowUnbound:   {types.FlowBound, types.FlowFailed},
		types.FlowBound:     {types.FlowRebinding, types.FlowUnbound, types.FlowFailed},
		types.FlowRebinding: {types.FlowBound, types.FlowFailed},
		types.FlowFailed:    {}, // Terminal state - no transitions allowed
	}

	allowed, exists := validTransitions[from]
	if !exists {
		return false
	}

	for _, s := range allowed {
		if s == to {
			return true
		}
	}

	return false
}
