// Package natsjs implements the reflow transport on NATS JetStream.
//
// The mapping is:
//   - A durable queue is a JetStream stream; the queue name selects the
//     subject filter of the per-binding consumer
//   - A flow binding is an ephemeral pull consumer plus its pull loop
//   - A replay-start directive selects the consumer's DeliverPolicy:
//     from-beginning maps to DeliverAll, from-timestamp maps to
//     DeliverByStartTime
//   - A server-side deletion of the live consumer surfaces as a
//     down-with-error binding event carrying the replay-started
//     condition
//   - A timestamp directive older than the stream's first retained
//     message surfaces as a down-with-error event carrying the
//     replay-start-unavailable condition
package natsjs

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/reflow/internal/logging"
	"github.com/arloliu/reflow/types"
)

// Credentials identifies the client to the broker. Tenant selects the
// JetStream domain and may be empty for the default domain.
type Credentials struct {
	Tenant   string
	Username string
	Password string
}

// Transport is a types.Transport backed by NATS JetStream.
//
// At most one binding is live at a time; Bind replaces nothing and
// fails if called while a binding is live, mirroring the single-flow
// contract of the consumer.
type Transport struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	cfg    Config
	logger types.Logger

	mu      sync.Mutex
	nextID  uint64
	nextGen uint64
	active  *binding
}

var _ types.Transport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(logger types.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// Connect dials the broker and initializes the JetStream context.
//
// Parameters:
//   - ctx: Context bounding the initial connection attempt
//   - url: Broker URL, e.g. "nats://localhost:4222"
//   - creds: Client credentials; Tenant selects the JetStream domain
//   - cfg: Transport configuration; Stream is required
//   - opts: Optional configuration (logger)
//
// Returns:
//   - *Transport: Connected transport
//   - error: Connection, configuration, or JetStream setup error
func Connect(ctx context.Context, url string, creds Credentials, cfg Config, opts ...Option) (*Transport, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid transport configuration: %w", err)
	}

	natsOpts := []nats.Option{
		nats.Name("reflow-" + cfg.Stream),
		nats.MaxReconnects(-1),
	}
	if creds.Username != "" {
		natsOpts = append(natsOpts, nats.UserInfo(creds.Username, creds.Password))
	}

	nc, err := nats.Connect(url, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	var js jetstream.JetStream
	if creds.Tenant != "" {
		js, err = jetstream.NewWithDomain(nc, creds.Tenant)
	} else {
		js, err = jetstream.New(nc)
	}
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	t := &Transport{
		nc:     nc,
		js:     js,
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	// Fail fast when JetStream is unreachable instead of at first bind.
	if _, err := js.AccountInfo(ctx); err != nil {
		nc.Close()

		return nil, fmt.Errorf("JetStream account lookup failed: %w", err)
	}

	return t, nil
}

// Provision creates the backing stream if it does not exist. An already
// existing stream is treated as success so repeated startups are
// idempotent.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - error: Stream creation error other than name-already-in-use
func (t *Transport) Provision(ctx context.Context) error {
	_, err := t.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     t.cfg.Stream,
		Subjects: t.cfg.Subjects,
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		if isAlreadyInUse(err) {
			t.logger.Debug("stream already provisioned", "stream", t.cfg.Stream)

			return nil
		}

		return fmt.Errorf("failed to provision stream %s: %w", t.cfg.Stream, err)
	}

	t.logger.Info("stream provisioned", "stream", t.cfg.Stream, "subjects", t.cfg.Subjects)

	return nil
}

// Disconnect destroys any live binding and drains the connection.
//
// Parameters:
//   - ctx: Context bounding the shutdown
//
// Returns:
//   - error: Drain error
func (t *Transport) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	active := t.active
	t.mu.Unlock()

	if active != nil {
		_ = t.Destroy(ctx, active.handle)
	}

	if err := t.nc.Drain(); err != nil {
		return fmt.Errorf("failed to drain connection: %w", err)
	}

	return nil
}
