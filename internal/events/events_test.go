package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, 8, zerolog.Nop())
	p.Start()

	require.NoError(t, p.Publish(context.Background(), EventOrderCompleted, "txn_1", OrderCompletedPayload{OrderID: "o1", TransactionID: "txn_1"}))
	require.NoError(t, p.Publish(context.Background(), EventOrderRefunded, "txn_1", OrderRefundedPayload{OrderID: "o1"}))
	p.Close()

	require.Len(t, w.msgs, 2)
	assert.True(t, w.closed)
	assert.Equal(t, "txn_1", string(w.msgs[0].Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &env))
	assert.Equal(t, EventOrderCompleted, env.EventType)
	assert.NotEmpty(t, env.EventID)

	payload, err := UnwrapPayload[OrderCompletedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "o1", payload.OrderID)
}

func TestKafkaPublisherBufferFull(t *testing.T) {
	p := newKafkaPublisher(&fakeWriter{}, 1, zerolog.Nop())
	// not started: the single slot fills and the next publish is refused

	require.NoError(t, p.Publish(context.Background(), EventOrderCompleted, "a", struct{}{}))
	assert.ErrorIs(t, p.Publish(context.Background(), EventOrderCompleted, "b", struct{}{}), ErrBufferFull)
}

func TestKafkaPublisherAfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, 8, zerolog.Nop())
	p.Start()
	p.Close()

	assert.NotPanics(t, func() {
		err := p.Publish(context.Background(), EventOrderCompleted, "late", struct{}{})
		assert.ErrorIs(t, err, ErrClosed)
	})
	assert.NotPanics(t, p.Close)
	assert.Empty(t, w.msgs)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), EventOrderOversold, "x", nil))
}
