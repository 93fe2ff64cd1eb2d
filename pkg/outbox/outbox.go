package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/paklog/wave-planning-service/pkg/cloudevents"
)

// Status tracks the delivery state of an outbox record.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPublished Status = "PUBLISHED"
	StatusFailed    Status = "FAILED"
)

// DefaultMaxRetries bounds delivery attempts before a record is
// abandoned as FAILED.
const DefaultMaxRetries = 3

// Event represents an event stored in the outbox for reliable delivery
type Event struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	Status        Status          `bson:"status" json:"status"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int             `bson:"retryCount" json:"retryCount"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
	MaxRetries    int             `bson:"maxRetries" json:"maxRetries"`
}

// DomainEvent is the minimal contract a domain event must satisfy to be
// staged in the outbox.
type DomainEvent interface {
	EventType() string
	AggregateID() string
}

// NewEvent creates a new outbox event from a domain event
func NewEvent(aggregateType, topic string, event DomainEvent) (*Event, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		AggregateID:   event.AggregateID(),
		AggregateType: aggregateType,
		EventType:     event.EventType(),
		Topic:         topic,
		Payload:       payload,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
		RetryCount:    0,
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// NewEventFromCloudEvent creates an outbox event from an already-built CloudEvent
func NewEventFromCloudEvent(aggregateID, aggregateType, topic string, cloudEvent *cloudevents.WaveCloudEvent) (*Event, error) {
	payload, err := json.Marshal(cloudEvent)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            cloudEvent.ID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     cloudEvent.Type,
		Topic:         topic,
		Payload:       payload,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
		RetryCount:    0,
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// MarkPublished flips the record to PUBLISHED and stamps the time
func (e *Event) MarkPublished() {
	now := time.Now().UTC()
	e.Status = StatusPublished
	e.PublishedAt = &now
}

// RecordFailure flips the record to FAILED, increments the retry count
// and stores the error. FAILED records stay eligible for redelivery
// until the retry budget is spent.
func (e *Event) RecordFailure(err error) {
	e.RetryCount++
	e.Status = StatusFailed
	if err != nil {
		e.LastError = err.Error()
	}
}

// IsPublished checks if the event has been published
func (e *Event) IsPublished() bool {
	return e.Status == StatusPublished
}

// ShouldRetry reports whether the event may still be delivered: it has
// not been published and its retry budget is not spent.
func (e *Event) ShouldRetry() bool {
	return e.Status != StatusPublished && e.RetryCount < e.MaxRetries
}
