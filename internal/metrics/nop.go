package metrics

import "github.com/arloliu/reflow/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Used when no external collector is
// configured so the consumer never nil-checks its collector.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.FlowState) {
	// No-op
}

// RecordReplayCondition discards the replay condition metric.
func (n *NopMetrics) RecordReplayCondition(_ /* cond */ types.Condition) {
	// No-op
}

// RecordRebind discards the rebind metric.
func (n *NopMetrics) RecordRebind(_ /* success */ bool, _ /* seconds */ float64) {
	// No-op
}

// RecordMessage discards the message metric.
func (n *NopMetrics) RecordMessage(_ /* redelivered */ bool) {
	// No-op
}

// RecordAck discards the acknowledgment metric.
func (n *NopMetrics) RecordAck(_ /* success */ bool) {
	// No-op
}
