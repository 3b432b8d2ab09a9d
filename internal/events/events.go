package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/internal/entity"
)

// ResultEvent is published once per archived ledger.
type ResultEvent struct {
	DocumentID string `json:"documentId"`
	Source     string `json:"source"`
	Institute  string `json:"institute"`
	Programme  string `json:"programme"`
	ResultDate string `json:"resultDate"`
	Students   int    `json:"students"`
	Subjects   int    `json:"subjects"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
}

// NewResultEvent summarizes res for publishing.
func NewResultEvent(documentID uuid.UUID, source string, res *entity.ExtractionResult) ResultEvent {
	students, subjects, passed, failed := res.Totals()
	ev := ResultEvent{
		Source:     source,
		Institute:  res.Institute,
		Programme:  res.Programme,
		ResultDate: res.ResultDate,
		Students:   students,
		Subjects:   subjects,
		Passed:     passed,
		Failed:     failed,
	}
	if documentID != uuid.Nil {
		ev.DocumentID = documentID.String()
	}
	return ev
}

// Publisher announces processed ledgers.
type Publisher interface {
	Publish(ctx context.Context, ev ResultEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ResultEvent) error { return nil }
func (NopPublisher) Close() error                               { return nil }

type KafkaConfig struct {
	Brokers       []string
	Topic         string
	RetryAttempts int
	Timeout       time.Duration
}

// KafkaPublisher sends events through a synchronous producer, keyed by
// document id so events for one document stay ordered.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// New returns a KafkaPublisher when brokers are configured and a
// NopPublisher otherwise.
func New(cfg KafkaConfig, logger *slog.Logger) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return NopPublisher{}, nil
	}
	return NewKafkaPublisher(cfg, logger)
}

func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	sc := sarama.NewConfig()
	sc.ClientID = "results-ledger"
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = cfg.RetryAttempts
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Idempotent = true
	sc.Producer.Timeout = cfg.Timeout
	sc.Net.MaxOpenRequests = 1 // required for idempotence

	sp, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(sp, cfg.Topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(sp sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{producer: sp, topic: topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev ResultEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(ev.DocumentID),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: time.Now(),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("events.publish.failed", "topic", p.topic, "document_id", ev.DocumentID, "error", err)
		return fmt.Errorf("failed to send message: %w", err)
	}
	p.logger.Debug("events.publish.ok",
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"document_id", ev.DocumentID,
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
