package types

// MetricsCollector receives operational metrics from the consumer.
//
// Implementations must be safe for concurrent use; the delivery path and
// the consumption loop record metrics from different goroutines. A no-op
// implementation is used when no collector is configured, so consumer
// code never nil-checks.
type MetricsCollector interface {
	// RecordStateTransition records a flow state transition.
	RecordStateTransition(from, to FlowState)

	// RecordReplayCondition records an observed recoverable replay
	// condition.
	RecordReplayCondition(cond Condition)

	// RecordRebind records a completed rebind attempt and its duration in
	// seconds.
	RecordRebind(success bool, seconds float64)

	// RecordMessage records a delivered message.
	RecordMessage(redelivered bool)

	// RecordAck records an acknowledgment attempt.
	RecordAck(success bool)
}
