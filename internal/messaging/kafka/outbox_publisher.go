package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

// EventPublisher публикует outbox-сообщения в Kafka, выбирая топик
// по типу агрегата: события каталога и заказов расходятся по своим топикам.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher создаёт Kafka-паблишер для transactional outbox.
func NewEventPublisher(producer *Producer) domain.OutboxPublisher {
	return &EventPublisher{producer: producer}
}

func (p *EventPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}
	return publishEnvelope(p.producer, TopicForAggregate(event.AggregateType), event)
}

// DLQPublisher публикует сообщения в фиксированный dead-letter топик.
type DLQPublisher struct {
	producer *Producer
	topic    string
}

// NewDLQPublisher создаёт паблишер для DLQ.
func NewDLQPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicDeadLetterQueue
	}
	return &DLQPublisher{producer: producer, topic: topic}
}

func (p *DLQPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dlq publisher is not initialized")
	}
	return publishEnvelope(p.producer, p.topic, event)
}

func publishEnvelope(producer *Producer, topic string, event domain.OutboxMessage) error {
	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	envelope := struct {
		ID            string          `json:"id"`
		AggregateType string          `json:"aggregate_type"`
		AggregateID   string          `json:"aggregate_id"`
		EventType     string          `json:"event_type"`
		Payload       json.RawMessage `json:"payload"`
		PublishedAt   time.Time       `json:"published_at"`
	}{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}

	return producer.PublishEvent(topic, key, envelope)
}

var (
	_ domain.OutboxPublisher = (*EventPublisher)(nil)
	_ domain.OutboxPublisher = (*DLQPublisher)(nil)
)
