package events

import (
	"context"
	"fmt"

	"github.com/paklog/wave-planning-service/internal/domain"
	"github.com/paklog/wave-planning-service/pkg/kafka"
	"github.com/paklog/wave-planning-service/pkg/outbox"
)

const aggregateTypeWave = "Wave"

// WaveEventPublisher stages domain events as outbox records instead of
// publishing them directly. The wave repository calls Stage inside the
// save transaction, so a wave change and its events commit or roll back
// together; the outbox relay delivers them to Kafka afterwards.
type WaveEventPublisher struct {
	outboxRepo outbox.Repository
	topic      string
}

// NewWaveEventPublisher creates a publisher staging to the given outbox
// repository. An empty topic falls back to the wave events topic.
func NewWaveEventPublisher(outboxRepo outbox.Repository, topic string) *WaveEventPublisher {
	if topic == "" {
		topic = kafka.TopicWaveEvents
	}
	return &WaveEventPublisher{
		outboxRepo: outboxRepo,
		topic:      topic,
	}
}

// Stage converts domain events into outbox records and saves them through
// the given context. Pass a mongo session context to join an open
// transaction. A serialization failure aborts the whole batch: losing an
// event silently is worse than failing the save.
func (p *WaveEventPublisher) Stage(ctx context.Context, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]*outbox.Event, 0, len(events))
	for _, event := range events {
		record, err := outbox.NewEvent(aggregateTypeWave, p.topic, event)
		if err != nil {
			return fmt.Errorf("failed to stage %s event: %w", event.EventType(), err)
		}
		records = append(records, record)
	}

	if err := p.outboxRepo.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}
