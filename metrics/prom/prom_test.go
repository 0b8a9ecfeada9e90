package prom_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/reflow/metrics/prom"
	"github.com/arloliu/reflow/types"
)

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := prom.NewCollector(reg)
	require.NoError(t, err)

	_, err = prom.NewCollector(reg)
	require.Error(t, err, "double registration must fail")
}

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := prom.NewCollector(reg)
	require.NoError(t, err)

	c.RecordStateTransition(types.FlowUnbound, types.FlowBound)
	c.RecordStateTransition(types.FlowBound, types.FlowRebinding)
	c.RecordReplayCondition(types.CondReplayStarted)
	c.RecordRebind(true, 0.05)
	c.RecordRebind(false, 0)
	c.RecordMessage(false)
	c.RecordMessage(true)
	c.RecordAck(true)

	expected := `
		# HELP reflow_replay_conditions_total Observed replay conditions by classified sub-condition.
		# TYPE reflow_replay_conditions_total counter
		reflow_replay_conditions_total{condition="ReplayStarted"} 1
		# HELP reflow_rebinds_total Destroy-and-recreate cycles by outcome.
		# TYPE reflow_rebinds_total counter
		reflow_rebinds_total{outcome="failure"} 1
		reflow_rebinds_total{outcome="success"} 1
		# HELP reflow_messages_total Delivered messages, replayed duplicates included.
		# TYPE reflow_messages_total counter
		reflow_messages_total{redelivered="false"} 1
		reflow_messages_total{redelivered="true"} 1
		# HELP reflow_state_transitions_total Flow state transitions by source and target state.
		# TYPE reflow_state_transitions_total counter
		reflow_state_transitions_total{from="Unbound",to="Bound"} 1
		reflow_state_transitions_total{from="Bound",to="Rebinding"} 1
		# HELP reflow_acks_total Acknowledgment attempts by outcome.
		# TYPE reflow_acks_total counter
		reflow_acks_total{outcome="success"} 1
	`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"reflow_replay_conditions_total",
		"reflow_rebinds_total",
		"reflow_messages_total",
		"reflow_state_transitions_total",
		"reflow_acks_total",
	))

	// Only successful rebinds contribute a duration sample.
	count, err := testutil.GatherAndCount(reg, "reflow_rebind_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
