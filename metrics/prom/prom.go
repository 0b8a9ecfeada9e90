// Package prom provides a Prometheus implementation of the reflow
// metrics collector.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/reflow/types"
)

// Collector implements types.MetricsCollector using Prometheus
// primitives. All metrics carry the "reflow" namespace.
type Collector struct {
	stateTransitions *prometheus.CounterVec
	replayConditions *prometheus.CounterVec
	rebinds          *prometheus.CounterVec
	rebindDuration   prometheus.Histogram
	messages         *prometheus.CounterVec
	acks             *prometheus.CounterVec
}

var _ types.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with the
// provided registerer. Pass prometheus.DefaultRegisterer for the
// default registry.
//
// Parameters:
//   - reg: Registerer the metrics are registered with
//
// Returns:
//   - *Collector: Collector with all metrics registered
//   - error: Registration error, e.g. duplicate registration
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		stateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "state_transitions_total",
			Help:      "Flow state transitions by source and target state.",
		}, []string{"from", "to"}),
		replayConditions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "replay_conditions_total",
			Help:      "Observed replay conditions by classified sub-condition.",
		}, []string{"condition"}),
		rebinds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "rebinds_total",
			Help:      "Destroy-and-recreate cycles by outcome.",
		}, []string{"outcome"}),
		rebindDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reflow",
			Name:      "rebind_duration_seconds",
			Help:      "Latency of a full destroy-and-recreate cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "messages_total",
			Help:      "Delivered messages, replayed duplicates included.",
		}, []string{"redelivered"}),
		acks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reflow",
			Name:      "acks_total",
			Help:      "Acknowledgment attempts by outcome.",
		}, []string{"outcome"}),
	}

	collectors := []prometheus.Collector{
		c.stateTransitions,
		c.replayConditions,
		c.rebinds,
		c.rebindDuration,
		c.messages,
		c.acks,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// RecordStateTransition implements types.MetricsCollector.
func (c *Collector) RecordStateTransition(from, to types.FlowState) {
	c.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordReplayCondition implements types.MetricsCollector.
func (c *Collector) RecordReplayCondition(cond types.Condition) {
	c.replayConditions.WithLabelValues(cond.String()).Inc()
}

// RecordRebind implements types.MetricsCollector.
func (c *Collector) RecordRebind(success bool, seconds float64) {
	c.rebinds.WithLabelValues(outcome(success)).Inc()
	if success {
		c.rebindDuration.Observe(seconds)
	}
}

// RecordMessage implements types.MetricsCollector.
func (c *Collector) RecordMessage(redelivered bool) {
	label := "false"
	if redelivered {
		label = "true"
	}
	c.messages.WithLabelValues(label).Inc()
}

// RecordAck implements types.MetricsCollector.
func (c *Collector) RecordAck(success bool) {
	c.acks.WithLabelValues(outcome(success)).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}
