package consumers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/artho-wallet-ledger/internal/config"
	"github.com/artho-wallet-ledger/internal/platform/messaging/producers"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages and then blocks until the context ends
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	fetchErrs []error
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:           "localhost:9092",
		LedgerEventsTopic: "wallet_ledger_events",
		ConsumerGroup:     "ledger-projector-group",
		MinBytes:          1024,
		MaxBytes:          10240,
		MaxWait:           time.Second,
	}

	consumer := NewKafkaConsumer(context.Background(), newTestLogger(), cfg, nil)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	require.NoError(t, consumer.Close())
}

// fakeDeadLetters records parked message keys
type fakeDeadLetters struct {
	mu     sync.Mutex
	keys   []string
	reason string
	err    error
}

func (d *fakeDeadLetters) PublishToDLQ(_ context.Context, key string, _ []byte, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, key)
	d.reason = reason
	return d.err
}

func (d *fakeDeadLetters) Close() error { return nil }

func (d *fakeDeadLetters) published() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.keys...)
}

// handlerLog counts calls per key and fails the keys listed in failures
type handlerLog struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]int // remaining failures per key, -1 fails forever
}

func (h *handlerLog) handle(_ context.Context, key, _ []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	k := string(key)
	h.calls = append(h.calls, k)
	switch left := h.failures[k]; {
	case left < 0:
		return errors.New("statement store unavailable")
	case left > 0:
		h.failures[k] = left - 1
		return errors.New("statement store unavailable")
	}
	return nil
}

func (h *handlerLog) count(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, k := range h.calls {
		if k == key {
			n++
		}
	}
	return n
}

func threeMessages() []kafka.Message {
	return []kafka.Message{
		{Key: []byte("tx-1"), Value: []byte("a"), Offset: 1},
		{Key: []byte("tx-2"), Value: []byte("b"), Offset: 2},
		{Key: []byte("tx-3"), Value: []byte("c"), Offset: 3},
	}
}

func fastConsumer(reader KafkaReader, deadLetters producers.DeadLetterPublisher, maxRetries int) *KafkaConsumer {
	consumer := newKafkaConsumer(newTestLogger(), reader, deadLetters)
	consumer.retryDelay = time.Millisecond
	consumer.maxRetries = maxRetries
	consumer.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return consumer
}

func TestKafkaConsumer_Subscribe(t *testing.T) {
	t.Run("CommitsHandledMessagesInOrder", func(t *testing.T) {
		reader := &fakeReader{queue: threeMessages()}
		consumer := fastConsumer(reader, nil, 3)
		handler := &handlerLog{failures: map[string]int{}}
		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, consumer.Subscribe(ctx, "wallet_ledger_events", "group", handler.handle))
		assert.Eventually(t, func() bool {
			return len(reader.commits()) == 3
		}, time.Second, 5*time.Millisecond)

		cancel()
		<-consumer.Done()
		assert.Equal(t, []int64{1, 2, 3}, reader.commits())
	})

	t.Run("TransientFailureIsRetriedInPlace", func(t *testing.T) {
		reader := &fakeReader{queue: threeMessages()}
		consumer := fastConsumer(reader, nil, 3)
		handler := &handlerLog{failures: map[string]int{"tx-2": 2}}
		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, consumer.Subscribe(ctx, "wallet_ledger_events", "group", handler.handle))
		assert.Eventually(t, func() bool {
			return len(reader.commits()) == 3
		}, time.Second, 5*time.Millisecond)

		cancel()
		<-consumer.Done()
		assert.Equal(t, []int64{1, 2, 3}, reader.commits())
		assert.Equal(t, 3, handler.count("tx-2"))
		assert.Equal(t, []string{"tx-1", "tx-2", "tx-2", "tx-2", "tx-3"}, handler.calls)
	})

	t.Run("UnresolvedMessageBlocksLaterCommits", func(t *testing.T) {
		reader := &fakeReader{queue: threeMessages()}
		consumer := fastConsumer(reader, nil, 2)
		handler := &handlerLog{failures: map[string]int{"tx-2": -1}}
		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, consumer.Subscribe(ctx, "wallet_ledger_events", "group", handler.handle))
		assert.Eventually(t, func() bool {
			return handler.count("tx-2") >= 9
		}, time.Second, time.Millisecond)

		cancel()
		<-consumer.Done()
		assert.Equal(t, []int64{1}, reader.commits())
		assert.Zero(t, handler.count("tx-3"))
	})

	t.Run("ExhaustedMessageIsParkedOnDLQ", func(t *testing.T) {
		reader := &fakeReader{queue: threeMessages()}
		deadLetters := &fakeDeadLetters{}
		consumer := fastConsumer(reader, deadLetters, 2)
		handler := &handlerLog{failures: map[string]int{"tx-2": -1}}
		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, consumer.Subscribe(ctx, "wallet_ledger_events", "group", handler.handle))
		assert.Eventually(t, func() bool {
			return len(reader.commits()) == 3
		}, time.Second, 5*time.Millisecond)

		cancel()
		<-consumer.Done()
		assert.Equal(t, []int64{1, 2, 3}, reader.commits())
		assert.Equal(t, 3, handler.count("tx-2"))
		assert.Equal(t, []string{"tx-2"}, deadLetters.published())
		assert.Contains(t, deadLetters.reason, "after 3 attempts")
	})

	t.Run("DLQFailureKeepsHoldingOffset", func(t *testing.T) {
		reader := &fakeReader{queue: threeMessages()}
		deadLetters := &fakeDeadLetters{err: errors.New("dlq unavailable")}
		consumer := fastConsumer(reader, deadLetters, 1)
		handler := &handlerLog{failures: map[string]int{"tx-2": -1}}
		ctx, cancel := context.WithCancel(context.Background())

		require.NoError(t, consumer.Subscribe(ctx, "wallet_ledger_events", "group", handler.handle))
		assert.Eventually(t, func() bool {
			return len(deadLetters.published()) >= 2
		}, time.Second, time.Millisecond)

		cancel()
		<-consumer.Done()
		assert.Equal(t, []int64{1}, reader.commits())
		assert.Zero(t, handler.count("tx-3"))
	})

	t.Run("FetchErrorIsRetried", func(t *testing.T) {
		reader := &fakeReader{
			fetchErrs: []error{errors.New("rebalance in progress")},
			queue:     []kafka.Message{{Key: []byte("tx-9"), Offset: 9}},
		}
		consumer := newKafkaConsumer(newTestLogger(), reader, nil)
		consumer.retryDelay = time.Millisecond
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, consumer.Subscribe(ctx, "topic", "group", func(context.Context, []byte, []byte) error { return nil }))
		assert.Eventually(t, func() bool {
			return len(reader.commits()) == 1
		}, time.Second, 5*time.Millisecond)
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{logger: newTestLogger()}
		require.NoError(t, consumer.Close())
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := newKafkaConsumer(newTestLogger(), reader, nil)
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
