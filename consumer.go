package reflow

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arloliu/reflow/internal/flow"
	"github.com/arloliu/reflow/internal/logging"
	"github.com/arloliu/reflow/internal/metrics"
	"github.com/arloliu/reflow/internal/monitor"
	"github.com/arloliu/reflow/internal/tracker"
	"github.com/arloliu/reflow/types"
)

// Consumer drives a single replay-aware flow binding.
//
// Consumer is the main entry point of the reflow library. It handles:
//   - Binding a flow to a durable queue with a replay-start directive
//   - Counting and acknowledging delivered messages
//   - Detecting broker-initiated replay from asynchronous binding events
//   - Safely destroying and recreating the binding outside the broker's
//     event-delivery context
//
// Thread safety:
//   - Run owns the flow handle exclusively; transport callbacks only
//     write the guarded condition cell and the message counter
//   - MessageCount and State are safe to call from any goroutine
//
// Lifecycle:
//   - Create with NewConsumer()
//   - Call Run() to bind and consume; it blocks until the stop condition
//     holds, the context is cancelled, or a fatal bind error occurs
//   - A final destroy is always performed on exit, successful or not
type Consumer struct {
	cfg       Config
	transport Transport

	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger

	flow    *flow.Manager
	monitor *monitor.Monitor
	tracker *tracker.Tracker

	running atomic.Bool

	// runCtx is the context of the active Run call, used by async hooks.
	// Wrapped in ctxHolder so atomic.Value always sees one concrete type.
	runCtx atomic.Value
}

// NewConsumer creates a new Consumer instance with the provided
// configuration.
//
// Returns a concrete *Consumer following the "accept interfaces, return
// structs" principle; callers can define their own minimal interfaces
// for mocking.
//
// Parameters:
//   - cfg: Consumer configuration; Bind.Queue is required
//   - transport: Transport providing bind/destroy/acknowledge primitives
//   - opts: Optional configuration (logger, metrics, hooks)
//
// Returns:
//   - *Consumer: Initialized consumer instance
//   - error: Validation error if the configuration is invalid
//
// Example:
//
//	cfg := reflow.DefaultConfig()
//	cfg.Bind.Queue = "orders"
//	cfg.MessageTarget = 10
//	consumer, err := reflow.NewConsumer(&cfg, tr)
func NewConsumer(cfg *Config, transport Transport, opts ...Option) (*Consumer, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if transport == nil {
		return nil, ErrTransportRequired
	}

	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &consumerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Provide safe defaults for optional dependencies to avoid nil
	// checks everywhere.
	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	hooksInstance := options.hooks
	if hooksInstance == nil {
		hooksInstance = &Hooks{}
	}

	c := &Consumer{
		cfg:       *cfg,
		transport: transport,
		hooks:     hooksInstance,
		metrics:   metricsCollector,
		logger:    loggerInstance,
	}

	c.monitor = monitor.New(loggerInstance)
	c.tracker = tracker.New(transport, loggerInstance, metricsCollector)
	c.flow = flow.New(
		transport,
		cfg.Bind,
		c.tracker.OnMessage,
		c.monitor.OnBindingEvent,
		loggerInstance,
		metricsCollector,
	)
	c.flow.SetTransitionFunc(c.onFlowTransition)

	return c, nil
}

// Run binds the flow and consumes messages until a stop condition holds.
//
// Stop conditions:
//   - MessageTarget delivered messages (returns nil)
//   - ctx cancelled (returns ctx.Err())
//   - any fatal bind error (returned as *types.BindError)
//
// Each iteration first drains the pending replay condition (performing
// the destroy-then-recreate cycle synchronously), then idles until the
// monitor wakes it or the poll interval elapses. A final destroy is
// always performed on exit.
//
// Parameters:
//   - ctx: Context for cancellation; doubles as the stop signal
//
// Returns:
//   - error: nil on normal completion, ctx.Err() on cancellation, or a
//     fatal bind error
func (c *Consumer) Run(ctx context.Context) (err error) {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	c.runCtx.Store(ctxHolder{ctx: ctx})

	// Final cleanup must run even when ctx is already cancelled, so it
	// gets its own bounded context.
	defer func() {
		destroyCtx, cancel := context.WithTimeout(context.Background(), c.cfg.DestroyTimeout)
		defer cancel()
		c.flow.Destroy(destroyCtx)
		c.logger.Info("consumer exiting", "messages", c.tracker.Count(), "error", err)
	}()

	if _, err = c.flow.Bind(ctx); err != nil {
		c.reportError(err)

		return err
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// Drain the pending condition before anything else; the cell is
		// cleared before acting so a concurrently arriving notification
		// is never lost.
		if pending := c.monitor.Take(); pending.Condition != types.CondNone {
			if err = c.handleReplay(ctx, pending); err != nil {
				return err
			}
		}

		if c.targetReached() {
			c.logger.Info("message target reached", "target", c.cfg.MessageTarget)

			return nil
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()

			return err
		case <-c.monitor.Wake():
		case <-ticker.C:
		}
	}
}

// MessageCount returns the number of messages delivered so far,
// replayed duplicates included.
func (c *Consumer) MessageCount() int64 {
	return c.tracker.Count()
}

// State returns the current flow state.
func (c *Consumer) State() FlowState {
	return c.flow.State()
}

// handleReplay performs the rebind for an observed replay condition.
//
// For a replay-window-exceeded condition the replay-start directive is
// overwritten to from-beginning first; the override persists for all
// subsequent rebinds. Any bind error is fatal and returned.
func (c *Consumer) handleReplay(ctx context.Context, pending monitor.Pending) error {
	c.logger.Info("handling replay condition",
		"condition", pending.Condition.String(),
		"code", pending.Code,
		"reason", pending.Reason,
	)
	c.metrics.RecordReplayCondition(pending.Condition)

	if c.hooks.OnReplay != nil {
		cond := pending.Condition
		go func() {
			if err := c.hooks.OnReplay(c.hookCtx(), cond); err != nil {
				c.logger.Error("replay hook error", "condition", cond, "error", err)
			}
		}()
	}

	if pending.Condition == types.CondReplayStartUnavailable {
		c.flow.SetReplayStart(types.ReplayStartAll())
	}

	if _, err := c.flow.Rebind(ctx); err != nil {
		c.reportError(err)

		return err
	}

	c.logger.Info("flow rebound after replay", "condition", pending.Condition.String())

	return nil
}

// targetReached reports whether the configured message target has been
// met. A target of zero never stops the loop.
func (c *Consumer) targetReached() bool {
	return c.cfg.MessageTarget > 0 && c.tracker.Count() >= c.cfg.MessageTarget
}

// onFlowTransition fans a flow state transition out to hooks.
func (c *Consumer) onFlowTransition(from, to FlowState) {
	if c.hooks.OnStateChanged == nil {
		return
	}

	// Run hook in background to avoid blocking the state machine.
	go func() {
		if err := c.hooks.OnStateChanged(c.hookCtx(), from, to); err != nil {
			c.logger.Error("state change hook error", "from", from, "to", to, "error", err)
		}
	}()
}

// reportError fans a failed bind attempt out to the OnError hook.
func (c *Consumer) reportError(bindErr error) {
	if c.hooks.OnError == nil {
		return
	}

	go func() {
		if err := c.hooks.OnError(c.hookCtx(), bindErr); err != nil {
			c.logger.Error("error hook error", "error", err)
		}
	}()
}

type ctxHolder struct {
	ctx context.Context
}

// hookCtx returns the context of the active Run call, or a background
// context when the consumer is not running.
func (c *Consumer) hookCtx() context.Context {
	if h, ok := c.runCtx.Load().(ctxHolder); ok {
		return h.ctx
	}

	return context.Background()
}
