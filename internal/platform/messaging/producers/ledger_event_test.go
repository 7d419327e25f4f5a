package producers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLedgerEventProducer_Publish(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"event_type":"SEND_COMPLETED","amount":150}`)

	t.Run("WritesKeyPayloadAndTypeHeader", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := newLedgerEventProducer(newTestLogger(), writer, "ledger-events")

		writer.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			return string(msg.Key) == "tx-1" &&
				string(msg.Value) == string(payload) &&
				len(msg.Headers) == 1 &&
				msg.Headers[0].Key == EventTypeHeader &&
				string(msg.Headers[0].Value) == "SEND_COMPLETED"
		})).Return(nil).Once()

		require.NoError(t, producer.PublishWithType(ctx, "tx-1", "SEND_COMPLETED", payload))
		writer.AssertExpectations(t)
	})

	t.Run("PublishOmitsHeaderWithoutType", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := newLedgerEventProducer(newTestLogger(), writer, "ledger-events")

		writer.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			return len(msgs) == 1 && len(msgs[0].Headers) == 0
		})).Return(nil).Once()

		require.NoError(t, producer.Publish(ctx, "tx-2", payload))
		writer.AssertExpectations(t)
	})

	t.Run("WriterErrorIsWrapped", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := newLedgerEventProducer(newTestLogger(), writer, "ledger-events")
		writeErr := errors.New("broker unavailable")

		writer.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writeErr).Once()

		err := producer.Publish(ctx, "tx-3", payload)
		require.Error(t, err)
		assert.ErrorIs(t, err, writeErr)
		writer.AssertExpectations(t)
	})

	t.Run("EmptyPayloadIsRejected", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := newLedgerEventProducer(newTestLogger(), writer, "ledger-events")

		err := producer.Publish(ctx, "tx-4", nil)
		require.Error(t, err)
		writer.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
	})
}

func TestLedgerEventProducer_Close(t *testing.T) {
	t.Run("SuccessfulClose", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := newLedgerEventProducer(newTestLogger(), writer, "ledger-events")
		writer.On("Close").Return(nil).Once()

		require.NoError(t, producer.Close())
		writer.AssertExpectations(t)
	})

	t.Run("CloseErrorIsWrapped", func(t *testing.T) {
		writer := new(MockKafkaWriter)
		producer := newLedgerEventProducer(newTestLogger(), writer, "ledger-events")
		closeErr := errors.New("close failed")
		writer.On("Close").Return(closeErr).Once()

		assert.ErrorIs(t, producer.Close(), closeErr)
	})
}

var _ KafkaWriter = (*MockKafkaWriter)(nil)
var _ EventPublisher = (*LedgerEventProducer)(nil)
