package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/reflow/internal/logging"
	"github.com/arloliu/reflow/internal/metrics"
	"github.com/arloliu/reflow/types"
)

// ackRecorder is a minimal Transport that records Acknowledge calls.
type ackRecorder struct {
	mu     sync.Mutex
	acked  []types.MessageID
	ackErr error
}

func (r *ackRecorder) Bind(_ context.Context, _ types.BindConfig, _ types.MessageFunc, _ types.EventFunc) (types.FlowHandle, error) {
	return types.FlowHandle{}, errors.New("not used")
}

func (r *ackRecorder) Destroy(_ context.Context, _ types.FlowHandle) error { return nil }

func (r *ackRecorder) Acknowledge(_ context.Context, _ types.FlowHandle, id types.MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ackErr != nil {
		return r.ackErr
	}
	r.acked = append(r.acked, id)

	return nil
}

func (r *ackRecorder) ackedIDs() []types.MessageID {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]types.MessageID(nil), r.acked...)
}

func newTestTracker(transport types.Transport) *Tracker {
	return New(transport, logging.NewNop(), metrics.NewNop())
}

func TestOnMessage_CountsAndAcks(t *testing.T) {
	rec := &ackRecorder{}
	tr := newTestTracker(rec)
	h := types.FlowHandle{ID: 1, Gen: 1}

	tr.OnMessage(context.Background(), h, types.Message{ID: 7, Subject: "orders.1"})
	tr.OnMessage(context.Background(), h, types.Message{ID: 8, Subject: "orders.2"})

	require.Equal(t, int64(2), tr.Count())
	require.Equal(t, []types.MessageID{7, 8}, rec.ackedIDs())
}

func TestOnMessage_CountsWithoutAckWhenIDMissing(t *testing.T) {
	rec := &ackRecorder{}
	tr := newTestTracker(rec)

	tr.OnMessage(context.Background(), types.FlowHandle{ID: 1, Gen: 1}, types.Message{ID: 0})

	require.Equal(t, int64(1), tr.Count())
	require.Empty(t, rec.ackedIDs())
}

func TestOnMessage_AckFailureIsNotRetried(t *testing.T) {
	rec := &ackRecorder{ackErr: errors.New("flow gone")}
	tr := newTestTracker(rec)

	tr.OnMessage(context.Background(), types.FlowHandle{ID: 1, Gen: 1}, types.Message{ID: 5})

	// Counted despite the ack failure, and no retry happened.
	require.Equal(t, int64(1), tr.Count())
	require.Empty(t, rec.ackedIDs())
}

func TestOnMessage_DuplicatesCountAgain(t *testing.T) {
	rec := &ackRecorder{}
	tr := newTestTracker(rec)
	h := types.FlowHandle{ID: 1, Gen: 1}

	tr.OnMessage(context.Background(), h, types.Message{ID: 7})
	tr.OnMessage(context.Background(), h, types.Message{ID: 7, Redelivered: true})

	require.Equal(t, int64(2), tr.Count())
	require.Equal(t, []types.MessageID{7, 7}, rec.ackedIDs())
}

func TestCount_ConcurrentDeliveries(t *testing.T) {
	rec := &ackRecorder{}
	tr := newTestTracker(rec)
	h := types.FlowHandle{ID: 1, Gen: 1}

	const goroutines = 8
	const perGoroutine = 250

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := range perGoroutine {
				tr.OnMessage(context.Background(), h, types.Message{ID: types.MessageID(base*perGoroutine + i + 1)})
			}
		}(g)
	}
	wg.Wait()

	require.Equal(t, int64(goroutines*perGoroutine), tr.Count())
}
