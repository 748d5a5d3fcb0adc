package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/common"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
)

// Dead-letter headers.
const (
	HeaderOriginalTopic = "original_topic"
	HeaderErrorMessage  = "error_message"
	HeaderErrorCode     = "error_code"
	HeaderAttempts      = "attempts"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topics          []string
	MinBytes        int
	MaxBytes        int
	MaxWait         time.Duration
	StartFromLatest bool
	RetryConfig     RetryConfig
}

// ConsumerStats is a snapshot of consumer counters.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Failed       int64
	Retried      int64
	DeadLettered int64
	Lag          int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is the dead-letter sink. Satisfied by *Producer.
type Publisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// MessageMetrics observes handled messages. Optional.
type MessageMetrics interface {
	RecordMessage(topic string, err error, d time.Duration)
}

// ConsumerOption customises a Consumer.
type ConsumerOption func(*Consumer)

// WithDeadLetterPublisher sets where exhausted messages go.
func WithDeadLetterPublisher(p Publisher) ConsumerOption {
	return func(c *Consumer) { c.deadLetter = p }
}

// WithMessageMetrics reports every handled message.
func WithMessageMetrics(m MessageMetrics) ConsumerOption {
	return func(c *Consumer) { c.metrics = m }
}

// WithRetryPolicy decides whether a handler error is worth retrying.
// Errors it rejects go straight to the dead-letter topic.
func WithRetryPolicy(retryable func(error) bool) ConsumerOption {
	return func(c *Consumer) { c.retryable = retryable }
}

// Consumer reads a consumer group and dispatches to per-topic handlers.
// Offsets are committed once a message is handled or dead-lettered.
type Consumer struct {
	reader ReaderInterface
	config ConsumerConfig
	logger logging.Logger

	handlers map[string]common.MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	deadLetter Publisher
	metrics    MessageMetrics
	retryable  func(error) bool

	consumed, processed, failed, retried, deadLettered, lag atomic.Int64
}

// NewConsumer creates a Consumer for cfg.
func NewConsumer(cfg ConsumerConfig, logger logging.Logger, opts ...ConsumerOption) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 500 * time.Millisecond
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
	}
	if cfg.StartFromLatest {
		readerCfg.StartOffset = kafka.LastOffset
	}
	return newConsumer(kafka.NewReader(readerCfg), cfg, logger, opts...), nil
}

func newConsumer(r ReaderInterface, cfg ConsumerConfig, logger logging.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Consumer{
		reader:    r,
		config:    cfg,
		logger:    logger.Named("kafka_consumer"),
		handlers:  make(map[string]common.MessageHandler),
		retryable: func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe routes messages of topic to handler.
func (c *Consumer) Subscribe(topic string, handler common.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("subscribed to topic", logging.String("topic", topic))
}

// Start runs the consume loop in the background until Close or ctx ends.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("kafka consumer started", logging.String("group", c.config.GroupID), logging.Strings("topics", c.config.Topics))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.consumed.Add(1)
		if m.HighWaterMark > 0 {
			c.lag.Store(m.HighWaterMark - m.Offset - 1)
		}

		msg := &common.Message{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
			Timestamp: m.Time,
			Headers:   make(map[string]string, len(m.Headers)),
		}
		for _, h := range m.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("no handler for topic", logging.String("topic", m.Topic))
		} else if err := c.processMessage(ctx, msg, handler); err != nil {
			// cancelled mid-retry: leave uncommitted for redelivery
			return
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", logging.Err(err), logging.Int64("offset", m.Offset))
		}
	}
}

// processMessage runs handler with retries. It returns an error only when
// ctx ended before the message was settled.
func (c *Consumer) processMessage(ctx context.Context, msg *common.Message, handler common.MessageHandler) error {
	start := time.Now()
	rc := c.config.RetryConfig
	backoff := rc.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := rc.MaxRetryBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	attempts := 1
	err := handler(ctx, msg)
	for err != nil && attempts <= rc.MaxRetries && c.retryable(err) {
		c.retried.Add(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		attempts++
		err = handler(ctx, msg)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	if c.metrics != nil {
		c.metrics.RecordMessage(msg.Topic, err, time.Since(start))
	}
	if err == nil {
		c.processed.Add(1)
		return nil
	}

	c.failed.Add(1)
	c.logger.Error("message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", attempts),
		logging.Err(err))
	c.sendToDeadLetter(ctx, msg, err, attempts)
	return nil
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *common.Message, cause error, attempts int) {
	topic := c.config.RetryConfig.DeadLetterTopic
	if c.deadLetter == nil || topic == "" {
		return
	}
	headers := make(map[string]string, len(msg.Headers)+4)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderErrorMessage] = cause.Error()
	headers[HeaderErrorCode] = string(errors.GetCode(cause))
	headers[HeaderAttempts] = strconv.Itoa(attempts)

	dl := &common.ProducerMessage{Topic: topic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if err := c.deadLetter.Publish(ctx, dl); err != nil {
		c.logger.Error("dead-letter publish failed", logging.Err(err))
		return
	}
	c.deadLettered.Add(1)
}

// Stats returns a snapshot of consumer counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Failed:       c.failed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
		Lag:          c.lag.Load(),
	}
}

// Close stops the loop and closes the reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

// ValidateConsumerConfig validates cfg.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers are required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "group id is required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one topic is required")
	}
	if cfg.RetryConfig.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
