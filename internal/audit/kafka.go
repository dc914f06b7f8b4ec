package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Config holds Kafka producer settings.
type Config struct {
	Brokers    []string
	Topic      string
	MaxRetries uint64
}

// KafkaPublisher publishes events as JSON messages keyed by principal id.
type KafkaPublisher struct {
	producer   sarama.SyncProducer
	topic      string
	maxRetries uint64
	logger     *zap.Logger

	lastErr atomic.Pointer[error]
}

// NewKafkaPublisher connects a synchronous producer to cfg.Brokers.
func NewKafkaPublisher(cfg Config, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("brokers are required")
	}

	sc := sarama.NewConfig()
	sc.ClientID = "scopeq"
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Retry.Max = 0
	sc.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, cfg.MaxRetries, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(
	producer sarama.SyncProducer, topic string, maxRetries uint64, logger *zap.Logger,
) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{producer: producer, topic: topic, maxRetries: maxRetries, logger: logger}
}

// Publish sends ev, retrying transient failures with exponential backoff.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.PrincipalID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(ev.ID)},
		},
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 0

	send := func() error {
		_, _, err := p.producer.SendMessage(msg)
		return err
	}
	notify := func(err error, next time.Duration) {
		p.logger.Warn("audit publish failed, retrying",
			zap.String("event_id", ev.ID),
			zap.Duration("next_retry_in", next),
			zap.Error(err),
		)
	}

	err = backoff.RetryNotify(send, backoff.WithContext(backoff.WithMaxRetries(bo, p.maxRetries), ctx), notify)
	if err != nil {
		err = fmt.Errorf("publish audit event %s: %w", ev.ID, err)
		p.lastErr.Store(&err)
		return err
	}
	p.lastErr.Store(nil)
	return nil
}

// HealthCheck reports the outcome of the most recent publish.
func (p *KafkaPublisher) HealthCheck(context.Context) error {
	if err := p.lastErr.Load(); err != nil {
		return *err
	}
	return nil
}

// Close flushes and closes the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
