package cloudevents

import (
	"encoding/json"
	"errors"
	"time"
)

// SpecVersion is the CloudEvents specification version this service emits.
const SpecVersion = "1.0"

// SourceWavePlanning identifies this service as the event producer.
const SourceWavePlanning = "paklog://wave-planning-service"

// Extension attribute names carried on every relayed event.
const (
	ExtAggregateID   = "aggregateid"
	ExtOutboxID      = "outboxid"
	ExtCorrelationID = "correlationid"
)

var (
	errInvalidSpecVersion = errors.New("cloudevent specversion must be " + SpecVersion)
	errMissingAttributes  = errors.New("cloudevent id, type and source are required")
)

// WaveCloudEvent is a CloudEvents v1.0 structured-mode envelope. Data is
// kept raw so the relay can forward payloads without re-encoding them.
type WaveCloudEvent struct {
	SpecVersion     string            `json:"specversion"`
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	Source          string            `json:"source"`
	Subject         string            `json:"subject,omitempty"`
	Time            time.Time         `json:"time"`
	DataContentType string            `json:"datacontenttype"`
	Data            json.RawMessage   `json:"data"`
	Extensions      map[string]string `json:"extensions,omitempty"`
}

// SetExtension sets a named extension attribute.
func (e *WaveCloudEvent) SetExtension(name, value string) {
	if e.Extensions == nil {
		e.Extensions = make(map[string]string)
	}
	e.Extensions[name] = value
}

// GetExtension returns a named extension attribute.
func (e *WaveCloudEvent) GetExtension(name string) (string, bool) {
	value, ok := e.Extensions[name]
	return value, ok
}

// AggregateID returns the aggregateid extension, if set.
func (e *WaveCloudEvent) AggregateID() string {
	return e.Extensions[ExtAggregateID]
}

// Validate checks the required CloudEvents attributes.
func (e *WaveCloudEvent) Validate() error {
	if e.SpecVersion != SpecVersion {
		return errInvalidSpecVersion
	}
	if e.ID == "" || e.Type == "" || e.Source == "" {
		return errMissingAttributes
	}
	return nil
}
