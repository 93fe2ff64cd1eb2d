package cloudevents

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFactory_CreateEvent(t *testing.T) {
	factory := NewEventFactory(SourceWavePlanning)
	payload := json.RawMessage(`{"waveId":"WAVE-1A2B3C4D"}`)

	event := factory.CreateEvent(context.Background(), "com.paklog.wms.wave.planned.v1", "WAVE-1A2B3C4D", payload)

	assert.Equal(t, SpecVersion, event.SpecVersion)
	assert.Equal(t, "com.paklog.wms.wave.planned.v1", event.Type)
	assert.Equal(t, SourceWavePlanning, event.Source)
	assert.Equal(t, "WAVE-1A2B3C4D", event.Subject)
	assert.Equal(t, "application/json", event.DataContentType)
	assert.JSONEq(t, string(payload), string(event.Data))
	assert.WithinDuration(t, time.Now().UTC(), event.Time, time.Second)

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	require.NoError(t, event.Validate())
}

func TestEventFactory_CreateEvent_UniqueIDs(t *testing.T) {
	factory := NewEventFactory(SourceWavePlanning)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		event := factory.CreateEvent(context.Background(), "com.paklog.wms.wave.planned.v1", "WAVE-1A2B3C4D", nil)
		_, dup := seen[event.ID]
		require.False(t, dup, "duplicate event id %s", event.ID)
		seen[event.ID] = struct{}{}
	}
}

func TestEventFactory_CorrelationExtension(t *testing.T) {
	factory := NewEventFactory(SourceWavePlanning)
	ctx := ContextWithCorrelation(context.Background(), "corr-123")

	event := factory.CreateEvent(ctx, "com.paklog.wms.wave.released.v1", "WAVE-1A2B3C4D", nil)

	value, ok := event.GetExtension(ExtCorrelationID)
	require.True(t, ok)
	assert.Equal(t, "corr-123", value)

	plain := factory.CreateEvent(context.Background(), "com.paklog.wms.wave.released.v1", "WAVE-1A2B3C4D", nil)
	_, ok = plain.GetExtension(ExtCorrelationID)
	assert.False(t, ok)
}

func TestEventFactory_CreateEventFromValue(t *testing.T) {
	factory := NewEventFactory(SourceWavePlanning)

	event, err := factory.CreateEventFromValue(context.Background(), "com.paklog.wms.wave.completed.v1", "WAVE-1A2B3C4D", map[string]string{"waveId": "WAVE-1A2B3C4D"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"waveId":"WAVE-1A2B3C4D"}`, string(event.Data))

	_, err = factory.CreateEventFromValue(context.Background(), "com.paklog.wms.wave.completed.v1", "WAVE-1A2B3C4D", make(chan int))
	require.Error(t, err)
}
