package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/testutil"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/common"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closed    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closed++
	return nil
}

func newTestProducer(w WriterInterface) *Producer {
	return newProducer(w, ProducerConfig{Brokers: []string{"localhost:9092"}, MaxMessageBytes: 64, Source: "listsense-test"}, testutil.NewMockLogger())
}

func msgOf(topic, key, value string) *common.ProducerMessage {
	return &common.ProducerMessage{Topic: topic, Key: []byte(key), Value: []byte(value)}
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, Acks: "some"}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
}

func TestPublish_Success(t *testing.T) {
	var captured []kafka.Message
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(_ context.Context, msgs ...kafka.Message) error {
		captured = msgs
		return nil
	}})

	msg := msgOf("results", "req-1", "{}")
	msg.Headers = map[string]string{"h": "v"}
	require.NoError(t, p.Publish(context.Background(), msg))

	require.Len(t, captured, 1)
	assert.Equal(t, "results", captured[0].Topic)
	assert.Equal(t, "req-1", string(captured[0].Key))
	assert.Equal(t, []kafka.Header{{Key: "h", Value: []byte("v")}}, captured[0].Headers)
	assert.False(t, captured[0].Time.IsZero())
	assert.Equal(t, int64(1), p.Stats().MessagesSent)
	assert.Equal(t, int64(2), p.Stats().BytesSent)
}

func TestPublish_Rejects(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.True(t, errors.IsValidation(p.Publish(ctx, msgOf("", "k", "v"))))
	assert.True(t, errors.IsValidation(p.Publish(ctx, msgOf("t", "k", ""))))
	big := make([]byte, 65)
	assert.True(t, errors.IsValidation(p.Publish(ctx, &common.ProducerMessage{Topic: "t", Value: big})))
	assert.Zero(t, p.Stats().MessagesSent)
}

func TestPublish_WriterFailure(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error {
		return stderrors.New("broker down")
	}})

	err := p.Publish(context.Background(), msgOf("t", "k", "v"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessagingError))
	assert.Equal(t, int64(1), p.Stats().MessagesFailed)
}

func TestPublishBatch_PartialFailure(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(_ context.Context, msgs ...kafka.Message) error {
		errs := make(kafka.WriteErrors, len(msgs))
		errs[1] = stderrors.New("fail")
		return errs
	}})

	res, err := p.PublishBatch(context.Background(), []*common.ProducerMessage{
		msgOf("a", "1", "1"), msgOf("b", "2", "2"), msgOf("a", "3", "3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Equal(t, "b", res.Errors[0].Topic)
}

func TestPublishBatch_TotalFailure(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error {
		return stderrors.New("timeout")
	}})

	res, err := p.PublishBatch(context.Background(), []*common.ProducerMessage{msgOf("a", "1", "1"), msgOf("a", "2", "2")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, -1, res.Errors[0].Index)

	_, err = p.PublishBatch(context.Background(), nil)
	assert.Error(t, err)
}

func TestPublishEvent_WrapsEnvelope(t *testing.T) {
	var captured kafka.Message
	p := newTestProducer(&mockKafkaWriter{writeFunc: func(_ context.Context, msgs ...kafka.Message) error {
		captured = msgs[0]
		return nil
	}})
	ctx := logging.WithRequestID(context.Background(), "trace-42")

	payload := map[string]int{"count": 2}
	require.NoError(t, p.PublishEvent(ctx, "results", "req-7", "extraction.completed", payload))

	assert.Equal(t, "req-7", string(captured.Key))
	var env EventEnvelope
	require.NoError(t, json.Unmarshal(captured.Value, &env))
	assert.Equal(t, "extraction.completed", env.EventType)
	assert.Equal(t, "listsense-test", env.Source)
	assert.Equal(t, "trace-42", env.TraceID)
	assert.JSONEq(t, `{"count":2}`, string(env.Payload))

	headers := map[string]string{}
	for _, h := range captured.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "trace-42", headers[HeaderTraceID])
	assert.Equal(t, SchemaVersion, headers[HeaderSchemaVersion])
}

func TestProducerClose_Idempotent(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), msgOf("t", "k", "v")), ErrProducerClosed)
}

//Personal.AI order the ending
