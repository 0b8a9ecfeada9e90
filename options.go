package reflow

// Option configures a Consumer with optional dependencies.
type Option func(*consumerOptions)

// consumerOptions holds optional Consumer configuration.
type consumerOptions struct {
	logger  Logger
	metrics MetricsCollector
	hooks   *Hooks
}

// WithLogger sets a logger.
//
// The Logger interface is compatible with zap.SugaredLogger-style
// loggers and log/slog; any implementation with leveled key-value
// methods fits.
//
// Parameters:
//   - logger: Logger implementation
//
// Returns:
//   - Option: Functional option for NewConsumer
func WithLogger(logger Logger) Option {
	return func(o *consumerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation (see metrics/prom for a
//     prometheus-backed collector)
//
// Returns:
//   - Option: Functional option for NewConsumer
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *consumerOptions) {
		o.metrics = metrics
	}
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option for NewConsumer
//
// Example:
//
//	hooks := &reflow.Hooks{
//	    OnReplay: func(ctx context.Context, cond reflow.Condition) error {
//	        return notifyOps(cond)
//	    },
//	}
//	consumer, err := reflow.NewConsumer(&cfg, tr, reflow.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *consumerOptions) {
		o.hooks = hooks
	}
}
