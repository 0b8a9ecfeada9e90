// Package tracker counts delivered messages and acknowledges the ones
// whose broker-assigned identifier could be extracted.
package tracker

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/reflow/types"
)

// Tracker records received messages and issues acknowledgments.
//
// The count is monotonic and increments once per delivered message,
// replayed duplicates included. Deduplication across replay cycles is an
// explicit non-goal of the client.
type Tracker struct {
	transport types.Transport
	logger    types.Logger
	metrics   types.MetricsCollector

	count *xsync.Counter
}

// New creates a tracker.
//
// Parameters:
//   - transport: Transport used to issue acknowledgments
//   - logger: Logger for per-message diagnostics
//   - metrics: Collector for message/ack metrics
//
// Returns:
//   - *Tracker: Initialized tracker with a zero count
func New(transport types.Transport, logger types.Logger, metrics types.MetricsCollector) *Tracker {
	return &Tracker{
		transport: transport,
		logger:    logger,
		metrics:   metrics,
		count:     xsync.NewCounter(),
	}
}

// OnMessage handles a single delivered message.
//
// The message is always counted. It is acknowledged over the binding it
// arrived on only when its identifier was extracted; messages without an
// identifier are left for the broker to redeliver or expire. Ack
// failures are a transport concern and are not retried here.
//
// Safe to call from the transport's delivery goroutine.
func (t *Tracker) OnMessage(ctx context.Context, h types.FlowHandle, msg types.Message) {
	t.count.Inc()
	t.metrics.RecordMessage(msg.Redelivered)

	t.logger.Debug("message received",
		"subject", msg.Subject,
		"id", uint64(msg.ID),
		"redelivered", msg.Redelivered,
	)

	if !msg.ID.Valid() {
		t.logger.Debug("message has no extractable id, skipping ack", "subject", msg.Subject)

		return
	}

	if err := t.transport.Acknowledge(ctx, h, msg.ID); err != nil {
		t.metrics.RecordAck(false)
		t.logger.Debug("acknowledge failed", "id", uint64(msg.ID), "error", err)

		return
	}

	t.metrics.RecordAck(true)
}

// Count returns the number of messages delivered so far.
func (t *Tracker) Count() int64 {
	return t.count.Value()
}
