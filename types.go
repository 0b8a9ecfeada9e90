package reflow

import (
	"time"

	"github.com/arloliu/reflow/types"
)

// Re-export types from the types package.
//
// This file provides a stable public API for the library's core types
// and interfaces using type aliases. Internal packages depend on the
// `types` subpackage directly, which avoids import cycles while still
// offering a convenient `reflow.FlowState`, `reflow.Transport`, etc.
type (
	FlowState    = types.FlowState
	FlowHandle   = types.FlowHandle
	Condition    = types.Condition
	BindConfig   = types.BindConfig
	ReplayStart  = types.ReplayStart
	BindingEvent = types.BindingEvent
	BindError    = types.BindError
	Message      = types.Message
	MessageID    = types.MessageID
)

// Re-export interfaces from the types package for convenience.
type (
	Transport        = types.Transport
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
	Hooks            = types.Hooks
)

// Re-export FlowState constants.
const (
	FlowUnbound   = types.FlowUnbound
	FlowBound     = types.FlowBound
	FlowRebinding = types.FlowRebinding
	FlowFailed    = types.FlowFailed
)

// Re-export Condition constants.
const (
	CondNone                   = types.CondNone
	CondReplayStarted          = types.CondReplayStarted
	CondReplayStartUnavailable = types.CondReplayStartUnavailable
)

// ReplayStartAll returns a directive requesting the full retained log.
func ReplayStartAll() types.ReplayStart { return types.ReplayStartAll() }

// ReplayStartAt returns a directive requesting replay from t.
func ReplayStartAt(t time.Time) types.ReplayStart { return types.ReplayStartAt(t) }
