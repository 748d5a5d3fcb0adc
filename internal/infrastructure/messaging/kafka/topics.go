package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/common"
)

// Default topics used by the extraction worker.
const (
	TopicExtractRequests = "listsense.extract.requests"
	TopicExtractResults  = "listsense.extract.results"
	TopicBatchJobs       = "listsense.batch.jobs"
	TopicDeadLetter      = "listsense.extract.dlq"
)

const SchemaVersion = "v1"

// Envelope headers.
const (
	HeaderEventType     = "event_type"
	HeaderSource        = "source_service"
	HeaderSchemaVersion = "schema_version"
	HeaderTraceID       = "trace_id"
)

// EventEnvelope wraps every event written to a result topic.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	TraceID       string          `json:"trace_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope marshals payload into a fresh envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	if eventType == "" {
		return nil, errors.New(errors.ErrCodeValidation, "event type is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target. An empty payload is
// left untouched.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode payload")
	}
	return nil
}

// ToMessage renders the envelope as a record for topic.
func (e *EventEnvelope) ToMessage(topic string) (*common.ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := map[string]string{
		HeaderEventType:     e.EventType,
		HeaderSource:        e.Source,
		HeaderSchemaVersion: e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers[HeaderTraceID] = e.TraceID
	}
	return &common.ProducerMessage{
		Topic:     topic,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

// MessageToEventEnvelope parses a consumed record back into an envelope.
func MessageToEventEnvelope(msg *common.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	if env.EventType == "" {
		return nil, errors.New(errors.ErrCodeValidation, "envelope has no event type")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic management
// ─────────────────────────────────────────────────────────────────────────────

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates the worker's topics at startup.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers are required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessagingError, "failed to dial kafka")
	}
	return newTopicManager(conn, logger), nil
}

func newTopicManager(conn ConnInterface, logger logging.Logger) *TopicManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger.Named("kafka_topics")}
}

// TopicExists reports whether name has at least one partition.
func (m *TopicManager) TopicExists(_ context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates every missing topic in topics.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, t := range topics {
		if t.Name == "" {
			return errors.New(errors.ErrCodeValidation, "topic name is required")
		}
		if t.NumPartitions <= 0 || t.ReplicationFactor <= 0 {
			return errors.New(errors.ErrCodeValidation, "partitions and replication factor must be > 0").
				WithDetail(t.Name)
		}
		if ok, _ := m.TopicExists(ctx, t.Name); ok {
			continue
		}
		kCfg := kafka.TopicConfig{
			Topic:             t.Name,
			NumPartitions:     t.NumPartitions,
			ReplicationFactor: t.ReplicationFactor,
		}
		if t.RetentionMs > 0 {
			kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{
				ConfigName:  "retention.ms",
				ConfigValue: strconv.FormatInt(t.RetentionMs, 10),
			})
		}
		if err := m.conn.CreateTopics(kCfg); err != nil {
			return errors.Wrap(err, errors.ErrCodeMessagingError, "create topic failed").WithDetail(t.Name)
		}
		m.logger.Info("topic created", logging.String("topic", t.Name))
	}
	return nil
}

// Close closes the broker connection.
func (m *TopicManager) Close() error {
	return m.conn.Close()
}

// DefaultTopics returns the topic layout for the given names.
func DefaultTopics(requests, results, batchJobs, deadLetter string) []TopicConfig {
	const day = int64(24 * time.Hour / time.Millisecond)
	return []TopicConfig{
		{Name: requests, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 3 * day},
		{Name: results, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 3 * day},
		{Name: batchJobs, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 7 * day},
		{Name: deadLetter, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 30 * day},
	}
}

//Personal.AI order the ending
