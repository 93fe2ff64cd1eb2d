package domain

import "time"

// Event type identifiers published by this service. Versioned so consumers
// can evolve independently.
const (
	EventTypeWavePlanned         = "com.paklog.wms.wave.planned.v1"
	EventTypeWaveReleased        = "com.paklog.wms.wave.released.v1"
	EventTypeWaveCompleted       = "com.paklog.wms.wave.completed.v1"
	EventTypeWaveCancelled       = "com.paklog.wms.wave.cancelled.v1"
	EventTypeAllocationRequested = "com.paklog.wms.wave.inventory.allocation.requested.v1"
)

// DomainEvent is implemented by every event a wave emits. AggregateID
// identifies the owning wave so the outbox can key and route the event
// without inspecting the payload.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// WavePlannedEvent signals that a new wave entered the PLANNED state.
type WavePlannedEvent struct {
	WaveID             string           `json:"wave_id"`
	OrderIDs           []string         `json:"order_ids"`
	WarehouseID        string           `json:"warehouse_id"`
	StrategyType       WaveStrategyType `json:"strategy_type"`
	Priority           WavePriority     `json:"priority"`
	PlannedReleaseTime *time.Time       `json:"planned_release_time,omitempty"`
	OccurredOn         time.Time        `json:"occurred_on"`
}

func (e *WavePlannedEvent) EventType() string     { return EventTypeWavePlanned }
func (e *WavePlannedEvent) AggregateID() string   { return e.WaveID }
func (e *WavePlannedEvent) OccurredAt() time.Time { return e.OccurredOn }

// WaveReleasedEvent signals that a wave was released to picking.
type WaveReleasedEvent struct {
	WaveID       string       `json:"wave_id"`
	OrderIDs     []string     `json:"order_ids"`
	WarehouseID  string       `json:"warehouse_id"`
	AssignedZone string       `json:"assigned_zone"`
	Priority     WavePriority `json:"priority"`
	ReleasedAt   time.Time    `json:"released_at"`
	OccurredOn   time.Time    `json:"occurred_on"`
}

func (e *WaveReleasedEvent) EventType() string     { return EventTypeWaveReleased }
func (e *WaveReleasedEvent) AggregateID() string   { return e.WaveID }
func (e *WaveReleasedEvent) OccurredAt() time.Time { return e.OccurredOn }

// WaveCompletedEvent signals that every order in a wave finished picking.
type WaveCompletedEvent struct {
	WaveID          string    `json:"wave_id"`
	CompletedAt     time.Time `json:"completed_at"`
	TotalOrders     int       `json:"total_orders"`
	CompletedOrders int       `json:"completed_orders"`
	PickAccuracy    float64   `json:"pick_accuracy"`
	OccurredOn      time.Time `json:"occurred_on"`
}

func (e *WaveCompletedEvent) EventType() string     { return EventTypeWaveCompleted }
func (e *WaveCompletedEvent) AggregateID() string   { return e.WaveID }
func (e *WaveCompletedEvent) OccurredAt() time.Time { return e.OccurredOn }

// WaveCancelledEvent signals that a wave was abandoned before completion.
type WaveCancelledEvent struct {
	WaveID      string    `json:"wave_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
	OccurredOn  time.Time `json:"occurred_on"`
}

func (e *WaveCancelledEvent) EventType() string     { return EventTypeWaveCancelled }
func (e *WaveCancelledEvent) AggregateID() string   { return e.WaveID }
func (e *WaveCancelledEvent) OccurredAt() time.Time { return e.OccurredOn }

// AllocationType distinguishes hard reservations from soft holds.
type AllocationType string

const (
	AllocationHard AllocationType = "HARD"
	AllocationSoft AllocationType = "SOFT"
)

// InventoryAllocationRequestedEvent asks inventory management to reserve
// stock for a released wave.
type InventoryAllocationRequestedEvent struct {
	WaveID         string         `json:"wave_id"`
	OrderIDs       []string       `json:"order_ids"`
	WarehouseID    string         `json:"warehouse_id"`
	SKUQuantities  map[string]int `json:"sku_quantities"`
	AllocationType AllocationType `json:"allocation_type"`
	RequestedAt    time.Time      `json:"requested_at"`
	OccurredOn     time.Time      `json:"occurred_on"`
}

func (e *InventoryAllocationRequestedEvent) EventType() string {
	return EventTypeAllocationRequested
}
func (e *InventoryAllocationRequestedEvent) AggregateID() string   { return e.WaveID }
func (e *InventoryAllocationRequestedEvent) OccurredAt() time.Time { return e.OccurredOn }
