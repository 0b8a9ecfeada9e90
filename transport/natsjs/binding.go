package natsjs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/reflow/internal/hash"
	"github.com/arloliu/reflow/types"
)

// binding is one live flow: an ephemeral pull consumer plus a pull loop
// feeding the delivery callback.
type binding struct {
	handle       types.FlowHandle
	consumerName string
	consumer     jetstream.Consumer
	ackMode      types.AckMode

	onMessage types.MessageFunc
	onEvent   types.EventFunc

	cancel context.CancelFunc
	done   chan struct{}

	// pending maps stream sequence to the undelivered-ack message.
	// Only populated in client-acknowledgment mode.
	mu      sync.Mutex
	pending map[types.MessageID]jetstream.Msg
}

// Bind implements types.Transport.
//
// It creates an ephemeral pull consumer whose DeliverPolicy encodes the
// replay-start directive and starts the pull loop. When the directive's
// timestamp predates the stream's first retained message, the binding
// still comes up but a down-with-error event carrying the
// replay-start-unavailable condition is emitted immediately, matching
// broker behavior for an unsatisfiable replay start.
func (t *Transport) Bind(
	ctx context.Context,
	cfg types.BindConfig,
	onMessage types.MessageFunc,
	onEvent types.EventFunc,
) (types.FlowHandle, error) {
	if cfg.Queue == "" {
		return types.FlowHandle{}, &types.BindError{Reason: "queue is required"}
	}

	t.mu.Lock()
	if t.active != nil {
		t.mu.Unlock()

		return types.FlowHandle{}, &types.BindError{Reason: "a binding is already live"}
	}
	t.nextID++
	t.nextGen++
	h := types.FlowHandle{ID: t.nextID, Gen: t.nextGen}
	t.mu.Unlock()

	stream, err := t.js.Stream(ctx, t.cfg.Stream)
	if err != nil {
		return types.FlowHandle{}, bindError(err, "stream lookup failed")
	}

	replayUnavailable := false
	if cfg.Replay.Mode == types.ReplayFromTime {
		info, infoErr := stream.Info(ctx)
		if infoErr != nil {
			return types.FlowHandle{}, bindError(infoErr, "stream info failed")
		}
		// Messages before the requested start have been purged; the
		// requested replay point no longer exists.
		if info.State.Msgs > 0 && cfg.Replay.Time.Before(info.State.FirstTime) {
			replayUnavailable = true
		}
	}

	name := consumerName(t.cfg.ConsumerPrefix, cfg.Queue, h.Gen)
	consumerCfg := jetstream.ConsumerConfig{
		Name:              name,
		AckPolicy:         ackPolicy(cfg.AckMode),
		AckWait:           t.cfg.AckWait,
		InactiveThreshold: t.cfg.InactiveThreshold,
		FilterSubject:     t.filterSubject(cfg.Queue),
	}
	applyReplayStart(&consumerCfg, cfg.Replay)

	bindCtx := ctx
	if cfg.BindTimeout > 0 {
		var cancel context.CancelFunc
		bindCtx, cancel = context.WithTimeout(ctx, cfg.BindTimeout)
		defer cancel()
	}

	consumer, err := stream.CreateConsumer(bindCtx, consumerCfg)
	if err != nil {
		return types.FlowHandle{}, bindError(err, "consumer creation failed")
	}

	pullCtx, cancel := context.WithCancel(context.Background())
	b := &binding{
		handle:       h,
		consumerName: name,
		consumer:     consumer,
		ackMode:      cfg.AckMode,
		onMessage:    onMessage,
		onEvent:      onEvent,
		cancel:       cancel,
		done:         make(chan struct{}),
		pending:      make(map[types.MessageID]jetstream.Msg),
	}

	t.mu.Lock()
	t.active = b
	t.mu.Unlock()

	go t.runPullLoop(pullCtx, b)

	t.logger.Info("flow bound",
		"queue", cfg.Queue,
		"consumer", name,
		"replayMode", cfg.Replay.Mode,
	)

	b.emit(types.BindingEvent{Kind: types.EventUp, Handle: h})

	if replayUnavailable {
		// Deliver asynchronously so the caller observes the bind result
		// before the condition, the same ordering a broker produces.
		go b.emit(types.BindingEvent{
			Kind:      types.EventDown,
			Handle:    h,
			Condition: types.CondReplayStartUnavailable,
			Code:      replayStartUnavailableCode,
			Reason:    "requested replay start predates first retained message",
		})
	}

	return h, nil
}

// Destroy implements types.Transport. Destroying a stale or unknown
// handle is a no-op.
func (t *Transport) Destroy(ctx context.Context, h types.FlowHandle) error {
	t.mu.Lock()
	b := t.active
	if b == nil || b.handle != h {
		t.mu.Unlock()

		return nil
	}
	t.active = nil
	t.mu.Unlock()

	b.cancel()
	select {
	case <-b.done:
	case <-ctx.Done():
		t.logger.Warn("pull loop did not stop before deadline", "consumer", b.consumerName)
	}

	// The consumer may already be gone when the destroy is a reaction
	// to a server-side deletion.
	if err := t.js.DeleteConsumer(ctx, t.cfg.Stream, b.consumerName); err != nil {
		if !errors.Is(err, jetstream.ErrConsumerNotFound) {
			t.logger.Warn("failed to delete consumer", "consumer", b.consumerName, "error", err)
		}
	}

	t.logger.Info("flow destroyed", "consumer", b.consumerName)

	return nil
}

// Acknowledge implements types.Transport. The identifier is the stream
// sequence assigned at delivery. In auto-acknowledgment mode this is a
// no-op.
func (t *Transport) Acknowledge(_ context.Context, h types.FlowHandle, id types.MessageID) error {
	t.mu.Lock()
	b := t.active
	t.mu.Unlock()

	if b == nil || b.handle != h {
		return types.ErrStaleHandle
	}
	if b.ackMode == types.AckAuto {
		return nil
	}

	b.mu.Lock()
	msg, ok := b.pending[id]
	if ok {
		delete(b.pending, id)
	}
	b.mu.Unlock()

	if !ok {
		return fmt.Errorf("no pending message with id %d", id)
	}
	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to acknowledge message %d: %w", id, err)
	}

	return nil
}

// runPullLoop pulls messages until the binding is cancelled or the
// consumer disappears from the server. A vanished consumer is reported
// as a down-with-error event carrying the replay-started condition;
// the loop then exits and leaves the rebind decision to the consumer.
func (t *Transport) runPullLoop(ctx context.Context, b *binding) {
	defer close(b.done)

	for {
		iter, err := b.consumer.Messages(
			jetstream.PullMaxMessages(t.cfg.BatchSize),
			jetstream.PullExpiry(t.cfg.FetchTimeout),
			jetstream.PullHeartbeat(t.cfg.FetchTimeout/2),
		)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if isConsumerGone(err) {
				t.reportConsumerGone(b)

				return
			}
			t.logger.Error("failed to create message iterator", "consumer", b.consumerName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.cfg.RetryBackoff):
				continue
			}
		}

		stop := context.AfterFunc(ctx, iter.Stop)
		recreate := t.drainIterator(ctx, b, iter)
		stop()
		if !recreate {
			return
		}
	}
}

// drainIterator consumes one iterator until it fails. Returns true when
// the caller should recreate the iterator.
func (t *Transport) drainIterator(ctx context.Context, b *binding, iter jetstream.MessagesContext) bool {
	for {
		msg, err := iter.Next()
		if err != nil {
			iter.Stop()
			if ctx.Err() != nil {
				return false
			}
			if isConsumerGone(err) {
				t.reportConsumerGone(b)

				return false
			}
			if errors.Is(err, jetstream.ErrMsgIteratorClosed) {
				return false
			}
			if errors.Is(err, jetstream.ErrNoHeartbeat) {
				t.logger.Warn("pull loop missed heartbeats", "consumer", b.consumerName)

				return true
			}
			t.logger.Warn("pull loop iterator error", "consumer", b.consumerName, "error", err)
			select {
			case <-ctx.Done():
				return false
			case <-time.After(t.cfg.RetryBackoff):
			}

			return true
		}

		t.deliver(ctx, b, msg)
	}
}

// deliver converts a JetStream message and hands it to the delivery
// callback. In client-acknowledgment mode the raw message is parked
// until Acknowledge is called with its stream sequence.
func (t *Transport) deliver(ctx context.Context, b *binding, msg jetstream.Msg) {
	meta, err := msg.Metadata()
	if err != nil {
		t.logger.Error("message without metadata, skipping", "error", err)
		_ = msg.Nak()

		return
	}

	id := types.MessageID(meta.Sequence.Stream)
	if b.ackMode == types.AckClient {
		b.mu.Lock()
		b.pending[id] = msg
		b.mu.Unlock()
	}

	b.onMessage(ctx, b.handle, types.Message{
		ID:          id,
		Subject:     msg.Subject(),
		Data:        msg.Data(),
		Redelivered: meta.NumDelivered > 1,
	})
}

// reportConsumerGone surfaces a server-side consumer deletion as a
// replay-started condition. The server destroying the delivery point
// while the flow is up is how a broker-initiated replay manifests.
func (t *Transport) reportConsumerGone(b *binding) {
	t.logger.Warn("consumer deleted on server", "consumer", b.consumerName)
	b.emit(types.BindingEvent{
		Kind:      types.EventDown,
		Handle:    b.handle,
		Condition: types.CondReplayStarted,
		Code:      replayStartedCode,
		Reason:    "consumer deleted on server",
	})
}

// emit invokes the event callback when one is registered.
func (b *binding) emit(ev types.BindingEvent) {
	if b.onEvent != nil {
		b.onEvent(ev)
	}
}

// filterSubject maps the queue name to a consumer subject filter. A
// queue named after the stream itself consumes every subject.
func (t *Transport) filterSubject(queue string) string {
	if queue == t.cfg.Stream {
		return ""
	}

	return queue
}

// consumerName builds a unique per-binding consumer name; the
// generation suffix guarantees a fresh delivery point on every rebind.
func consumerName(prefix, queue string, gen uint64) string {
	return hash.ConsumerName(prefix, queue) + "-" + strconv.FormatUint(gen, 10)
}

// ackPolicy maps the acknowledgment mode to JetStream's AckPolicy.
func ackPolicy(mode types.AckMode) jetstream.AckPolicy {
	if mode == types.AckAuto {
		return jetstream.AckNonePolicy
	}

	return jetstream.AckExplicitPolicy
}

// applyReplayStart encodes the replay-start directive as the consumer's
// DeliverPolicy.
func applyReplayStart(cfg *jetstream.ConsumerConfig, rs types.ReplayStart) {
	switch rs.Mode {
	case types.ReplayFromTime:
		start := rs.Time
		cfg.DeliverPolicy = jetstream.DeliverByStartTimePolicy
		cfg.OptStartTime = &start
	case types.ReplayBeginning:
		cfg.DeliverPolicy = jetstream.DeliverAllPolicy
	default:
		cfg.DeliverPolicy = jetstream.DeliverAllPolicy
	}
}
