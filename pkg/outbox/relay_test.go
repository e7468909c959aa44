package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeStore struct {
	batch    []Event
	sent     []int64
	failed   map[int64]string
	extended [][]int64
}

func (s *fakeStore) LockBatch(_ context.Context, _ string, batchSize int, _ time.Duration) ([]Event, error) {
	if len(s.batch) > batchSize {
		out := s.batch[:batchSize]
		s.batch = s.batch[batchSize:]
		return out, nil
	}
	out := s.batch
	s.batch = nil
	return out, nil
}

func (s *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = errMsg
	return nil
}

func (s *fakeStore) ExtendLease(_ context.Context, _ string, ids []int64, _ time.Duration) error {
	s.extended = append(s.extended, ids)
	return nil
}

type fakeProducer struct {
	msgs []kafka.Message
	fail map[string]error
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if err := p.fail[string(m.Key)]; err != nil {
			return err
		}
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func event(id int64, aggregate string) Event {
	return Event{
		ID:          id,
		AggregateID: aggregate,
		Type:        "order.status.changed",
		Payload:     []byte(`{"order_id":"` + aggregate + `"}`),
		Headers:     map[string]string{"content-type": "application/json"},
	}
}

func TestMessage_Headers(t *testing.T) {
	e := event(7, "o-1")
	e.Traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	msg := Message("orders", e)
	assert.Equal(t, "orders", msg.Topic)
	assert.Equal(t, []byte("o-1"), msg.Key)

	got := map[string]string{}
	for _, h := range msg.Headers {
		got[h.Key] = string(h.Value)
	}
	assert.Equal(t, map[string]string{
		"content-type":    "application/json",
		HeaderEventType:   "order.status.changed",
		HeaderEventID:     "7",
		HeaderTraceparent: e.Traceparent,
	}, got)
}

func TestRelay_FlushSendsAndRequeuesFailures(t *testing.T) {
	store := &fakeStore{batch: []Event{event(1, "o-1"), event(2, "o-2"), event(3, "o-3")}}
	producer := &fakeProducer{fail: map[string]error{"o-2": errors.New("broker down")}}
	relay := NewRelay(discard, store, NewDispatcher(discard, producer, "orders"), "relay-1")

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 3}, store.sent)
	assert.Equal(t, map[int64]string{2: "broker down"}, store.failed)
	assert.Len(t, producer.msgs, 2)
}

func TestRelay_EmptyPayloadIsPermanent(t *testing.T) {
	e := event(9, "o-9")
	e.Payload = nil
	store := &fakeStore{batch: []Event{e}}
	relay := NewRelay(discard, store, NewDispatcher(discard, &fakeProducer{}, "orders"), "relay-1")

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, store.failed[9], "permanent")
}

func TestRelay_ExtendsLeaseOnSlowBatches(t *testing.T) {
	store := &fakeStore{batch: []Event{event(1, "o-1"), event(2, "o-2")}}
	relay := NewRelay(discard, store, NewDispatcher(discard, &fakeProducer{}, "orders"), "relay-1", WithLease(time.Second))

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	relay.now = func() time.Time {
		clock = clock.Add(400 * time.Millisecond)
		return clock
	}

	_, err := relay.Flush(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, store.extended)
	assert.Equal(t, []int64{2}, store.extended[0])
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	store := &fakeStore{batch: []Event{event(1, "o-1")}}
	relay := NewRelay(discard, store, NewDispatcher(discard, &fakeProducer{}, "orders"), "relay-1", WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
	assert.Equal(t, []int64{1}, store.sent)
}

func TestEvent_Attempt(t *testing.T) {
	e := event(1, "o-1")
	assert.Equal(t, 1, e.Attempt())
	e.RetryCount = 3
	assert.Equal(t, 4, e.Attempt())
}
