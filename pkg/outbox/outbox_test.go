package outbox

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDomainEvent struct {
	eventType   string
	aggregateID string
	Payload     string `json:"payload"`
}

func (e *stubDomainEvent) EventType() string   { return e.eventType }
func (e *stubDomainEvent) AggregateID() string { return e.aggregateID }

func TestNewEvent(t *testing.T) {
	domainEvent := &stubDomainEvent{
		eventType:   "com.paklog.wms.wave.planned.v1",
		aggregateID: "WAVE-1A2B3C4D",
		Payload:     "hello",
	}

	event, err := NewEvent("Wave", "wave-planning-events", domainEvent)
	require.NoError(t, err)

	assert.Equal(t, "WAVE-1A2B3C4D", event.AggregateID)
	assert.Equal(t, "Wave", event.AggregateType)
	assert.Equal(t, "com.paklog.wms.wave.planned.v1", event.EventType)
	assert.Equal(t, "wave-planning-events", event.Topic)
	assert.Equal(t, StatusPending, event.Status)
	assert.Equal(t, 0, event.RetryCount)
	assert.Equal(t, DefaultMaxRetries, event.MaxRetries)
	assert.Nil(t, event.PublishedAt)
	assert.JSONEq(t, `{"payload":"hello"}`, string(event.Payload))

	_, err = uuid.Parse(event.ID)
	require.NoError(t, err)
}

func TestEvent_MarkPublished(t *testing.T) {
	event, err := NewEvent("Wave", "wave-planning-events", &stubDomainEvent{
		eventType:   "com.paklog.wms.wave.released.v1",
		aggregateID: "WAVE-1A2B3C4D",
	})
	require.NoError(t, err)

	event.MarkPublished()

	assert.Equal(t, StatusPublished, event.Status)
	assert.True(t, event.IsPublished())
	require.NotNil(t, event.PublishedAt)
	assert.WithinDuration(t, time.Now().UTC(), *event.PublishedAt, time.Second)
	assert.False(t, event.ShouldRetry())
}

func TestEvent_RecordFailure(t *testing.T) {
	event, err := NewEvent("Wave", "wave-planning-events", &stubDomainEvent{
		eventType:   "com.paklog.wms.wave.released.v1",
		aggregateID: "WAVE-1A2B3C4D",
	})
	require.NoError(t, err)

	cause := errors.New("broker unavailable")

	event.RecordFailure(cause)
	assert.Equal(t, StatusFailed, event.Status, "first failure flips the record to FAILED")
	assert.Equal(t, 1, event.RetryCount)
	assert.Equal(t, "broker unavailable", event.LastError)
	assert.True(t, event.ShouldRetry(), "failed within budget stays deliverable")

	event.RecordFailure(cause)
	assert.True(t, event.ShouldRetry())

	event.RecordFailure(cause)
	assert.Equal(t, StatusFailed, event.Status)
	assert.Equal(t, DefaultMaxRetries, event.RetryCount)
	assert.False(t, event.ShouldRetry(), "exhausted retry budget must be terminal")
}
