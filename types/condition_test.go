package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arloliu/reflow/types"
)

func TestCondition_Recoverable(t *testing.T) {
	assert.False(t, types.CondNone.Recoverable())
	assert.True(t, types.CondReplayStarted.Recoverable())
	assert.True(t, types.CondReplayStartUnavailable.Recoverable())
	assert.False(t, types.Condition(99).Recoverable())
}

func TestCondition_String(t *testing.T) {
	assert.Equal(t, "None", types.CondNone.String())
	assert.Equal(t, "ReplayStarted", types.CondReplayStarted.String())
	assert.Equal(t, "ReplayStartUnavailable", types.CondReplayStartUnavailable.String())
	assert.Equal(t, "Unknown", types.Condition(99).String())
}

func TestFlowState_String(t *testing.T) {
	assert.Equal(t, "Unbound", types.FlowUnbound.String())
	assert.Equal(t, "Bound", types.FlowBound.String())
	assert.Equal(t, "Rebinding", types.FlowRebinding.String())
	assert.Equal(t, "Failed", types.FlowFailed.String())
	assert.Equal(t, "Unknown", types.FlowState(99).String())
}

func TestParseAckMode(t *testing.T) {
	mode, err := types.ParseAckMode("client")
	assert.NoError(t, err)
	assert.Equal(t, types.AckClient, mode)

	mode, err = types.ParseAckMode("AUTO")
	assert.NoError(t, err)
	assert.Equal(t, types.AckAuto, mode)

	_, err = types.ParseAckMode("manual")
	assert.Error(t, err)
}
