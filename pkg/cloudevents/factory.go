package cloudevents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventFactory builds CloudEvents envelopes for a fixed source.
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source.
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent builds an envelope around an already-serialized payload.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data json.RawMessage) *WaveCloudEvent {
	event := &WaveCloudEvent{
		SpecVersion:     SpecVersion,
		ID:              uuid.NewString(),
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}
	if correlationID, ok := correlationFromContext(ctx); ok {
		event.SetExtension(ExtCorrelationID, correlationID)
	}
	return event
}

// CreateEventFromValue marshals data and wraps it in an envelope.
func (f *EventFactory) CreateEventFromValue(ctx context.Context, eventType, subject string, data any) (*WaveCloudEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data for %s: %w", eventType, err)
	}
	return f.CreateEvent(ctx, eventType, subject, payload), nil
}

type correlationKey struct{}

// ContextWithCorrelation stamps a correlation id onto the context so
// events created downstream carry it as an extension.
func ContextWithCorrelation(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationKey{}, correlationID)
}

func correlationFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(correlationKey{}).(string)
	return value, ok && value != ""
}
