package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/internal/entity"
)

func result() *entity.ExtractionResult {
	return &entity.ExtractionResult{
		Institute: "GOVT POLYTECHNIC",
		Students: []entity.Student{
			{RegNo: "1", FinalResult: "PASS"},
			{RegNo: "2", FinalResult: "FAIL"},
			{RegNo: "3", FinalResult: "Unknown"},
		},
	}
}

func TestNewResultEvent(t *testing.T) {
	id := uuid.New()
	ev := NewResultEvent(id, "a.pdf", result())
	if ev.DocumentID != id.String() || ev.Students != 3 || ev.Passed != 1 || ev.Failed != 1 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev := NewResultEvent(uuid.Nil, "a.pdf", result()); ev.DocumentID != "" {
		t.Fatalf("nil id should stay empty, got %q", ev.DocumentID)
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, cfg)

	id := uuid.New()
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev ResultEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.DocumentID != id.String() || ev.Students != 3 {
			return errors.New("unexpected payload")
		}
		return nil
	})
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewKafkaPublisherWithProducer(sp, "ledger.results", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := p.Publish(context.Background(), NewResultEvent(id, "a.pdf", result())); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Publish(context.Background(), NewResultEvent(id, "a.pdf", result())); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("err = %v, want ErrOutOfBrokers", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaPublisher_CancelledContext(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p := NewKafkaPublisherWithProducer(sp, "t", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, ResultEvent{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	_ = p.Close()
}

func TestNew_NoBrokers(t *testing.T) {
	p, err := New(KafkaConfig{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(NopPublisher); !ok {
		t.Fatalf("got %T, want NopPublisher", p)
	}
	if err := p.Publish(context.Background(), ResultEvent{}); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
}
