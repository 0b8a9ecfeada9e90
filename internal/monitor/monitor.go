// Package monitor classifies asynchronous binding events and holds the
// pending replay condition for the consumption loop.
//
// The monitor is the producer side of the rebind handshake: the
// transport's event callback writes a single guarded condition cell, and
// the consumption loop is the sole consumer, draining the cell with
// Take() before acting on it. The monitor never touches the flow
// binding itself; destroying or recreating a binding from inside the
// transport's event-delivery context is unsafe.
package monitor

import (
	"sync"

	"github.com/arloliu/reflow/types"
)

// Pending is a snapshot of the binding error state taken by the loop.
type Pending struct {
	// Condition is the classified sub-condition, CondNone when nothing
	// is pending.
	Condition types.Condition

	// Code is the transport response code carried by the event.
	Code int

	// Reason is the event's description.
	Reason string
}

// Monitor consumes binding-state notifications and flags rebinds.
type Monitor struct {
	logger types.Logger

	mu      sync.Mutex
	pending Pending

	// wake is signalled (non-blocking) whenever a recoverable condition
	// is stored, so the loop can react without waiting out its poll
	// interval.
	wake chan struct{}
}

// New creates a monitor.
//
// Parameters:
//   - logger: Logger for informational event classification
//
// Returns:
//   - *Monitor: Initialized monitor with an empty condition cell
func New(logger types.Logger) *Monitor {
	return &Monitor{
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// OnBindingEvent classifies an asynchronous binding event.
//
// Down events carrying a recoverable replay condition are stored in the
// condition cell; everything else is logged and ignored. The method
// never blocks and performs no transport calls, so it is safe to call
// from the transport's event-delivery goroutine.
func (m *Monitor) OnBindingEvent(ev types.BindingEvent) {
	if ev.Kind != types.EventDown || !ev.Condition.Recoverable() {
		m.logger.Debug("ignoring binding event",
			"kind", ev.Kind.String(),
			"condition", ev.Condition.String(),
			"reason", ev.Reason,
		)

		return
	}

	m.mu.Lock()
	// A pending window-exceeded already implies a directive rewrite plus
	// rebind; a later replay-started must not downgrade it. The reverse
	// upgrade is allowed.
	if m.pending.Condition == types.CondReplayStartUnavailable &&
		ev.Condition == types.CondReplayStarted {
		m.mu.Unlock()
		m.logger.Debug("replay-started superseded by pending window-exceeded condition")

		return
	}
	m.pending = Pending{
		Condition: ev.Condition,
		Code:      ev.Code,
		Reason:    ev.Reason,
	}
	m.mu.Unlock()

	m.logger.Info("replay condition detected",
		"condition", ev.Condition.String(),
		"code", ev.Code,
		"reason", ev.Reason,
	)

	// Non-blocking signal; a pending wake already covers this write.
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Take returns the pending condition and clears the cell in one atomic
// step. Clearing before acting guarantees a concurrently arriving
// notification is never lost: it lands in the now-empty cell and is
// observed on the next iteration.
func (m *Monitor) Take() Pending {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.pending
	m.pending = Pending{}

	return p
}

// Wake returns the channel signalled when a condition is stored. The
// channel has capacity one; receivers must still call Take to learn what
// is pending.
func (m *Monitor) Wake() <-chan struct{} {
	return m.wake
}
