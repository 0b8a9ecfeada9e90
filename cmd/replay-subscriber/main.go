// Command replay-subscriber consumes a fixed number of messages from a
// durable queue, surviving broker-initiated replay along the way.
//
// Usage:
//
//	replay-subscriber <endpoint> <tenant> <user> <password> <queue>
//
// The queue names both the backing stream and the binding. Tuning knobs
// are read from REPLAY_* environment variables and optionally from a
// YAML configuration file:
//
//	REPLAY_MESSAGE_TARGET  messages to receive before exiting (default 10)
//	REPLAY_POLL_INTERVAL   consumption loop poll interval (default 1s)
//	REPLAY_REPLAY_FROM     RFC3339 replay start time (default: beginning)
//	REPLAY_METRICS_ADDR    Prometheus listen address (default: disabled)
//	REPLAY_CONFIG_FILE     YAML file overriding the consumer configuration
//
// The process exits 0 after the message target is reached and 1 on any
// provisioning or binding failure.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/reflow"
	"github.com/arloliu/reflow/internal/logging"
	"github.com/arloliu/reflow/metrics/prom"
	"github.com/arloliu/reflow/transport/natsjs"
	"github.com/arloliu/reflow/types"
)

type tuning struct {
	MessageTarget int64         `envconfig:"MESSAGE_TARGET" default:"10"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	ReplayFrom    string        `envconfig:"REPLAY_FROM"`
	MetricsAddr   string        `envconfig:"METRICS_ADDR"`
	ConfigFile    string        `envconfig:"CONFIG_FILE"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "replay-subscriber: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) != 6 {
		return fmt.Errorf("usage: %s <endpoint> <tenant> <user> <password> <queue>", os.Args[0])
	}
	endpoint, tenant, user, password, queue := os.Args[1], os.Args[2], os.Args[3], os.Args[4], os.Args[5]

	var tune tuning
	if err := envconfig.Process("replay", &tune); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	logger := logging.NewZap(zapLogger)

	cfg := reflow.DefaultConfig()
	cfg.Bind.Queue = queue
	cfg.MessageTarget = tune.MessageTarget
	cfg.PollInterval = tune.PollInterval

	if tune.ConfigFile != "" {
		if err := loadConfigFile(tune.ConfigFile, &cfg); err != nil {
			return err
		}
	}
	if tune.ReplayFrom != "" {
		start, parseErr := time.Parse(time.RFC3339, tune.ReplayFrom)
		if parseErr != nil {
			return fmt.Errorf("invalid REPLAY_REPLAY_FROM value %q: %w", tune.ReplayFrom, parseErr)
		}
		cfg.Bind.Replay = types.ReplayStartAt(start)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transport, err := natsjs.Connect(ctx, endpoint, natsjs.Credentials{
		Tenant:   tenant,
		Username: user,
		Password: password,
	}, natsjs.Config{Stream: queue}, natsjs.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := transport.Disconnect(disconnectCtx); err != nil {
			logger.Warn("disconnect failed", "error", err)
		}
	}()

	if err := transport.Provision(ctx); err != nil {
		return err
	}

	opts := []reflow.Option{reflow.WithLogger(logger)}
	if tune.MetricsAddr != "" {
		collector, metricsErr := prom.NewCollector(prometheus.DefaultRegisterer)
		if metricsErr != nil {
			return fmt.Errorf("failed to register metrics: %w", metricsErr)
		}
		opts = append(opts, reflow.WithMetrics(collector))
		go serveMetrics(tune.MetricsAddr, logger)
	}

	consumer, err := reflow.NewConsumer(&cfg, transport, opts...)
	if err != nil {
		return err
	}

	logger.Info("consuming",
		"endpoint", endpoint,
		"queue", queue,
		"target", cfg.MessageTarget,
		"replayMode", cfg.Bind.Replay.Mode,
	)

	if err := consumer.Run(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted", "messages", consumer.MessageCount())

			return nil
		}

		return fmt.Errorf("consumption failed after %d messages: %w", consumer.MessageCount(), err)
	}

	logger.Info("done", "messages", consumer.MessageCount())

	return nil
}

// loadConfigFile overlays a YAML configuration file onto cfg.
func loadConfigFile(path string, cfg *reflow.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func serveMetrics(addr string, logger types.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", "addr", addr, "error", err)
	}
}
