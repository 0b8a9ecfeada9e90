package natsjs_test

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reflowtest "github.com/arloliu/reflow/testing"
	"github.com/arloliu/reflow/transport/natsjs"
	"github.com/arloliu/reflow/types"
)

const testStream = "EVENTS"

func connectTransport(t *testing.T, nc *nats.Conn) *natsjs.Transport {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := natsjs.Connect(ctx, nc.ConnectedUrl(), natsjs.Credentials{}, natsjs.Config{
		Stream:       testStream,
		BatchSize:    10,
		FetchTimeout: time.Second,
	}, natsjs.WithLogger(reflowtest.NewTestLogger(t)))
	require.NoError(t, err)
	require.NoError(t, tr.Provision(ctx))

	t.Cleanup(func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tr.Disconnect(disconnectCtx)
	})

	return tr
}

func publishN(t *testing.T, nc *nats.Conn, n int) {
	t.Helper()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := js.Publish(ctx, testStream+".orders", []byte("payload"))
		require.NoError(t, err)
	}
}

type eventRecorder struct {
	events chan types.BindingEvent
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{events: make(chan types.BindingEvent, 16)}
}

func (r *eventRecorder) onEvent(ev types.BindingEvent) {
	select {
	case r.events <- ev:
	default:
	}
}

// waitDown waits for the next down-with-error event.
func (r *eventRecorder) waitDown(t *testing.T) types.BindingEvent {
	t.Helper()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-r.events:
			if ev.Kind == types.EventDown {
				return ev
			}
		case <-deadline:
			t.Fatal("no down event received in time")

			return types.BindingEvent{}
		}
	}
}

func TestConnect_MissingStream(t *testing.T) {
	_, nc := reflowtest.StartEmbeddedNATS(t)

	_, err := natsjs.Connect(context.Background(), nc.ConnectedUrl(), natsjs.Credentials{}, natsjs.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream name is required")
}

func TestProvision_Idempotent(t *testing.T) {
	_, nc := reflowtest.StartEmbeddedNATS(t)
	tr := connectTransport(t, nc)

	// connectTransport already provisioned once; both repeats succeed.
	require.NoError(t, tr.Provision(context.Background()))
	require.NoError(t, tr.Provision(context.Background()))
}

func TestBind_DeliverAndAcknowledge(t *testing.T) {
	_, nc := reflowtest.StartEmbeddedNATS(t)
	tr := connectTransport(t, nc)
	publishN(t, nc, 3)

	received := make(chan types.Message, 16)
	rec := newEventRecorder()

	cfg := types.BindConfig{
		Queue:   testStream,
		AckMode: types.AckClient,
		Replay:  types.ReplayStartAll(),
	}
	ctx := context.Background()
	h, err := tr.Bind(ctx, cfg, func(_ context.Context, _ types.FlowHandle, msg types.Message) {
		received <- msg
	}, rec.onEvent)
	require.NoError(t, err)
	require.False(t, h.Zero())

	for i := 0; i < 3; i++ {
		select {
		case msg := <-received:
			require.True(t, msg.ID.Valid())
			require.NoError(t, tr.Acknowledge(ctx, h, msg.ID))
		case <-time.After(10 * time.Second):
			t.Fatalf("message %d not delivered in time", i+1)
		}
	}

	require.NoError(t, tr.Destroy(ctx, h))
}

func TestBind_SecondBindingRejected(t *testing.T) {
	_, nc := reflowtest.StartEmbeddedNATS(t)
	tr := connectTransport(t, nc)

	cfg := types.BindConfig{Queue: testStream, Replay: types.ReplayStartAll()}
	ctx := context.Background()

	h, err := tr.Bind(ctx, cfg, func(context.Context, types.FlowHandle, types.Message) {}, nil)
	require.NoError(t, err)
	defer func() { _ = tr.Destroy(ctx, h) }()

	_, err = tr.Bind(ctx, cfg, func(context.Context, types.FlowHandle, types.Message) {}, nil)
	require.Error(t, err)

	var bindErr *types.BindError
	require.ErrorAs(t, err, &bindErr)
}

func TestDestroy_IdempotentAndStaleAck(t *testing.T) {
	_, nc := reflowtest.StartEmbeddedNATS(t)
	tr := connectTransport(t, nc)

	cfg := types.BindConfig{Queue: testStream, Replay: types.ReplayStartAll()}
	ctx := context.Background()

	h, err := tr.Bind(ctx, cfg, func(context.Context, types.FlowHandle, types.Message) {}, nil)
	require.NoError(t, err)

	require.NoError(t, tr.Destroy(ctx, h))
	require.NoError(t, tr.Destroy(ctx, h), "repeated destroy must be a no-op")

	err = tr.Acknowledge(ctx, h, types.MessageID(1))
	require.ErrorIs(t, err, types.ErrStaleHandle)
}

func TestBind_ReplayRestartsDelivery(t *testing.T) {
	// A destroyed and recreated binding with a from-beginning directive
	// redelivers everything, including already acknowledged messages.
	_, nc := reflowtest.StartEmbeddedNATS(t)
	tr := connectTransport(t, nc)
	publishN(t, nc, 2)

	cfg := types.BindConfig{
		Queue:   testStream,
		AckMode: types.AckClient,
		Replay:  types.ReplayStartAll(),
	}
	ctx := context.Background()

	consume := func(h types.FlowHandle, received chan types.Message, n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			select {
			case msg := <-received:
				require.NoError(t, tr.Acknowledge(ctx, h, msg.ID))
			case <-time.After(10 * time.Second):
				t.Fatal("delivery stalled")
			}
		}
	}

	first := make(chan types.Message, 16)
	h1, err := tr.Bind(ctx, cfg, func(_ context.Context, _ types.FlowHandle, msg types.Message) {
		first <- msg
	}, nil)
	require.NoError(t, err)
	consume(h1, first, 2)
	require.NoError(t, tr.Destroy(ctx, h1))

	second := make(chan types.Message, 16)
	h2, err := tr.Bind(ctx, cfg, func(_ context.Context, _ types.FlowHandle, msg types.Message) {
		second <- msg
	}, nil)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2, "rebind must produce a fresh handle")
	consume(h2, second, 2)
	require.NoError(t, tr.Destroy(ctx, h2))
}

func TestBind_ConsumerDeletionRaisesReplayStarted(t *testing.T) {
	_, nc := reflowtest.StartEmbeddedNATS(t)
	tr := connectTransport(t, nc)
	publishN(t, nc, 1)

	rec := newEventRecorder()
	cfg := types.BindConfig{Queue: testStream, AckMode: types.AckClient, Replay: types.ReplayStartAll()}
	ctx := context.Background()

	h, err := tr.Bind(ctx, cfg, func(context.Context, types.FlowHandle, types.Message) {}, rec.onEvent)
	require.NoError(t, err)
	defer func() { _ = tr.Destroy(ctx, h) }()

	// Simulate a broker-initiated replay by deleting the delivery point
	// out from under the binding.
	js, err := jetstream.New(nc)
	require.NoError(t, err)
	stream, err := js.Stream(ctx, testStream)
	require.NoError(t, err)

	deleted := false
	for name := range stream.ConsumerNames(ctx).Name() {
		require.NoError(t, js.DeleteConsumer(ctx, testStream, name))
		deleted = true
	}
	require.True(t, deleted, "expected a live consumer to delete")

	ev := rec.waitDown(t)
	assert.Equal(t, types.CondReplayStarted, ev.Condition)
	assert.Equal(t, h, ev.Handle)
}

func TestBind_ReplayStartBeforeRetention(t *testing.T) {
	_, nc := reflowtest.StartEmbeddedNATS(t)
	tr := connectTransport(t, nc)
	publishN(t, nc, 1)

	rec := newEventRecorder()
	cfg := types.BindConfig{
		Queue:   testStream,
		AckMode: types.AckClient,
		Replay:  types.ReplayStartAt(time.Now().Add(-24 * time.Hour)),
	}
	ctx := context.Background()

	h, err := tr.Bind(ctx, cfg, func(context.Context, types.FlowHandle, types.Message) {}, rec.onEvent)
	require.NoError(t, err, "the bind itself succeeds; the condition arrives as an event")
	defer func() { _ = tr.Destroy(ctx, h) }()

	ev := rec.waitDown(t)
	assert.Equal(t, types.CondReplayStartUnavailable, ev.Condition)
	assert.True(t, ev.Condition.Recoverable())
}

func TestAcknowledge_AutoAckIsNoOp(t *testing.T) {
	_, nc := reflowtest.StartEmbeddedNATS(t)
	tr := connectTransport(t, nc)
	publishN(t, nc, 1)

	received := make(chan types.Message, 16)
	cfg := types.BindConfig{Queue: testStream, AckMode: types.AckAuto, Replay: types.ReplayStartAll()}
	ctx := context.Background()

	h, err := tr.Bind(ctx, cfg, func(_ context.Context, _ types.FlowHandle, msg types.Message) {
		received <- msg
	}, nil)
	require.NoError(t, err)
	defer func() { _ = tr.Destroy(ctx, h) }()

	select {
	case msg := <-received:
		require.NoError(t, tr.Acknowledge(ctx, h, msg.ID))
	case <-time.After(10 * time.Second):
		t.Fatal("message not delivered in time")
	}
}

func TestAcknowledge_UnknownID(t *testing.T) {
	_, nc := reflowtest.StartEmbeddedNATS(t)
	tr := connectTransport(t, nc)

	cfg := types.BindConfig{Queue: testStream, AckMode: types.AckClient, Replay: types.ReplayStartAll()}
	ctx := context.Background()

	h, err := tr.Bind(ctx, cfg, func(context.Context, types.FlowHandle, types.Message) {}, nil)
	require.NoError(t, err)
	defer func() { _ = tr.Destroy(ctx, h) }()

	require.Error(t, tr.Acknowledge(ctx, h, types.MessageID(99999)))
}
