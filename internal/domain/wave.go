package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrWaveEmpty             = errors.New("wave must contain at least one order")
	ErrStrategyRequired      = errors.New("wave strategy is required")
	ErrWarehouseRequired     = errors.New("warehouse id is required")
	ErrZoneRequired          = errors.New("zone is required")
	ErrReasonRequired        = errors.New("cancellation reason is required")
	ErrNotPlanned            = errors.New("wave can only be modified while planned")
	ErrZoneNotAssigned       = errors.New("wave has no assigned zone")
	ErrInventoryNotAllocated = errors.New("wave inventory has not been allocated")
	ErrWaveTerminal          = errors.New("wave is in a terminal state")
	ErrMaxOrdersExceeded     = errors.New("strategy max orders exceeded")
	ErrNotPermutation        = errors.New("reordered ids must be a permutation of the wave's orders")
)

// InvalidTransitionError reports a disallowed status change.
type InvalidTransitionError struct {
	From WaveStatus
	To   WaveStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition wave from %s to %s", e.From, e.To)
}

// Wave is the aggregate root of the wave-planning bounded context: an
// ordered batch of fulfillment orders that moves through the picking
// lifecycle as one unit.
type Wave struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	WaveID             string             `bson:"waveId"`
	WarehouseID        string             `bson:"warehouseId"`
	OrderIDs           []string           `bson:"orderIds"`
	Strategy           WaveStrategy       `bson:"strategy"`
	Status             WaveStatus         `bson:"status"`
	Priority           WavePriority       `bson:"priority"`
	AssignedZone       string             `bson:"assignedZone,omitempty"`
	InventoryAllocated bool               `bson:"inventoryAllocated"`
	CarrierCutoff      *time.Time         `bson:"carrierCutoff,omitempty"`
	PlannedReleaseTime *time.Time         `bson:"plannedReleaseTime,omitempty"`
	ActualReleaseTime  *time.Time         `bson:"actualReleaseTime,omitempty"`
	PlannedCompletion  *time.Time         `bson:"plannedCompletion,omitempty"`
	ActualCompletion   *time.Time         `bson:"actualCompletion,omitempty"`
	Metrics            WaveMetrics        `bson:"metrics"`
	Version            int64              `bson:"version"`
	CreatedAt          time.Time          `bson:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt"`
	DomainEvents       []DomainEvent      `bson:"-"` // Transient
}

// NewWaveID generates a wave identifier of the form WAVE-1A2B3C4D.
func NewWaveID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "WAVE-" + strings.ToUpper(raw[:8])
}

// NewWave plans a new wave over the given orders. The wave starts in
// PLANNED status and records a WavePlannedEvent.
func NewWave(orderIDs []string, strategy WaveStrategy, warehouseID string, priority WavePriority) (*Wave, error) {
	if len(orderIDs) == 0 {
		return nil, ErrWaveEmpty
	}
	if strategy.IsZero() {
		return nil, ErrStrategyRequired
	}
	if warehouseID == "" {
		return nil, ErrWarehouseRequired
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("unknown priority: %s", priority)
	}

	now := time.Now()
	metrics := NewWaveMetrics()
	metrics.TotalOrders = len(orderIDs)

	wave := &Wave{
		WaveID:       NewWaveID(),
		WarehouseID:  warehouseID,
		OrderIDs:     append([]string(nil), orderIDs...),
		Strategy:     strategy,
		Status:       WaveStatusPlanned,
		Priority:     priority,
		Metrics:      metrics,
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}

	wave.AddDomainEvent(&WavePlannedEvent{
		WaveID:             wave.WaveID,
		OrderIDs:           append([]string(nil), wave.OrderIDs...),
		WarehouseID:        warehouseID,
		StrategyType:       strategy.Type,
		Priority:           priority,
		PlannedReleaseTime: wave.PlannedReleaseTime,
		OccurredOn:         now,
	})

	return wave, nil
}

// AssignZone assigns the picking zone. Only allowed while planned.
func (w *Wave) AssignZone(zone string) error {
	if zone == "" {
		return ErrZoneRequired
	}
	if w.Status != WaveStatusPlanned {
		return ErrNotPlanned
	}
	w.AssignedZone = zone
	w.touch()
	return nil
}

// MarkInventoryAllocated records that stock has been reserved for the wave.
func (w *Wave) MarkInventoryAllocated() error {
	if w.Status != WaveStatusPlanned {
		return ErrNotPlanned
	}
	w.InventoryAllocated = true
	w.touch()
	return nil
}

// Release moves the wave to RELEASED. The wave must be planned, have a
// zone assigned, and have inventory allocated. The aggregated SKU demand
// travels on the allocation request; a nil map is treated as empty.
func (w *Wave) Release(skuQuantities map[string]int) error {
	if w.Status != WaveStatusPlanned {
		return &InvalidTransitionError{From: w.Status, To: WaveStatusReleased}
	}
	if !w.InventoryAllocated {
		return ErrInventoryNotAllocated
	}
	if w.AssignedZone == "" {
		return ErrZoneNotAssigned
	}
	if skuQuantities == nil {
		skuQuantities = map[string]int{}
	}

	now := time.Now()
	w.Status = WaveStatusReleased
	w.ActualReleaseTime = &now
	w.Metrics.RecordPickStart()
	w.touch()

	w.AddDomainEvent(&WaveReleasedEvent{
		WaveID:       w.WaveID,
		OrderIDs:     append([]string(nil), w.OrderIDs...),
		WarehouseID:  w.WarehouseID,
		AssignedZone: w.AssignedZone,
		Priority:     w.Priority,
		ReleasedAt:   now,
		OccurredOn:   now,
	})
	w.AddDomainEvent(&InventoryAllocationRequestedEvent{
		WaveID:         w.WaveID,
		OrderIDs:       append([]string(nil), w.OrderIDs...),
		WarehouseID:    w.WarehouseID,
		SKUQuantities:  skuQuantities,
		AllocationType: AllocationHard,
		RequestedAt:    now,
		OccurredOn:     now,
	})

	return nil
}

// StartExecution moves a released wave into active picking.
func (w *Wave) StartExecution() error {
	if !w.Status.CanTransitionTo(WaveStatusInProgress) {
		return &InvalidTransitionError{From: w.Status, To: WaveStatusInProgress}
	}
	w.Status = WaveStatusInProgress
	w.touch()
	return nil
}

// Complete finishes the wave and records completion metrics.
func (w *Wave) Complete() error {
	if !w.Status.CanTransitionTo(WaveStatusCompleted) {
		return &InvalidTransitionError{From: w.Status, To: WaveStatusCompleted}
	}

	now := time.Now()
	w.Status = WaveStatusCompleted
	w.ActualCompletion = &now
	w.Metrics.RecordPickCompletion()
	w.Metrics.CalculateEfficiency()
	w.touch()

	w.AddDomainEvent(&WaveCompletedEvent{
		WaveID:          w.WaveID,
		CompletedAt:     now,
		TotalOrders:     w.Metrics.TotalOrders,
		CompletedOrders: w.Metrics.CompletedOrders,
		PickAccuracy:    w.Metrics.PickAccuracy,
		OccurredOn:      now,
	})

	return nil
}

// Cancel abandons the wave. Terminal waves cannot be cancelled, and a
// reason is always required.
func (w *Wave) Cancel(reason string) error {
	if w.Status.IsTerminal() {
		return ErrWaveTerminal
	}
	if !w.Status.CanTransitionTo(WaveStatusCancelled) {
		return &InvalidTransitionError{From: w.Status, To: WaveStatusCancelled}
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	now := time.Now()
	w.Status = WaveStatusCancelled
	w.touch()

	w.AddDomainEvent(&WaveCancelledEvent{
		WaveID:      w.WaveID,
		Reason:      reason,
		CancelledAt: now,
		OccurredOn:  now,
	})

	return nil
}

// AddOrders appends orders to a planned wave, honoring the strategy's
// max-orders cap when one is set.
func (w *Wave) AddOrders(orderIDs []string) error {
	if w.Status != WaveStatusPlanned {
		return ErrNotPlanned
	}
	if len(orderIDs) == 0 {
		return nil
	}
	total := len(w.OrderIDs) + len(orderIDs)
	if w.Strategy.MaxOrders > 0 && total > w.Strategy.MaxOrders {
		return ErrMaxOrdersExceeded
	}
	w.OrderIDs = append(w.OrderIDs, orderIDs...)
	w.Metrics.TotalOrders = len(w.OrderIDs)
	w.touch()
	return nil
}

// RemoveOrders drops orders from a planned wave. The wave may not end up
// empty.
func (w *Wave) RemoveOrders(orderIDs []string) error {
	if w.Status != WaveStatusPlanned {
		return ErrNotPlanned
	}
	remove := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		remove[id] = true
	}
	remaining := make([]string, 0, len(w.OrderIDs))
	for _, id := range w.OrderIDs {
		if !remove[id] {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		return ErrWaveEmpty
	}
	w.OrderIDs = remaining
	w.Metrics.TotalOrders = len(w.OrderIDs)
	w.touch()
	return nil
}

// ReorderOrders replaces the pick sequence. The new sequence must be an
// exact permutation of the wave's current orders.
func (w *Wave) ReorderOrders(orderIDs []string) error {
	if w.Status != WaveStatusPlanned {
		return ErrNotPlanned
	}
	if len(orderIDs) != len(w.OrderIDs) {
		return ErrNotPermutation
	}
	current := make(map[string]int, len(w.OrderIDs))
	for _, id := range w.OrderIDs {
		current[id]++
	}
	for _, id := range orderIDs {
		current[id]--
		if current[id] < 0 {
			return ErrNotPermutation
		}
	}
	w.OrderIDs = append([]string(nil), orderIDs...)
	w.touch()
	return nil
}

// SetPlannedReleaseTime records when the wave should be released.
func (w *Wave) SetPlannedReleaseTime(t time.Time) {
	w.PlannedReleaseTime = &t
	w.touch()
}

// SetCarrierCutoff records the carrier departure this wave targets.
func (w *Wave) SetCarrierCutoff(t time.Time) {
	w.CarrierCutoff = &t
	w.touch()
}

// UpdateMetrics replaces the wave's planning metrics.
func (w *Wave) UpdateMetrics(metrics WaveMetrics) {
	w.Metrics = metrics
	w.Metrics.TotalOrders = len(w.OrderIDs)
	w.touch()
}

// OrderCount returns the number of orders in the wave.
func (w *Wave) OrderCount() int {
	return len(w.OrderIDs)
}

// ContainsOrder reports whether the wave holds the given order.
func (w *Wave) ContainsOrder(orderID string) bool {
	for _, id := range w.OrderIDs {
		if id == orderID {
			return true
		}
	}
	return false
}

// AddDomainEvent appends a pending domain event.
func (w *Wave) AddDomainEvent(event DomainEvent) {
	w.DomainEvents = append(w.DomainEvents, event)
}

// ClearDomainEvents drops all pending events. Called after a successful
// transactional save.
func (w *Wave) ClearDomainEvents() {
	w.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all pending domain events.
func (w *Wave) GetDomainEvents() []DomainEvent {
	return w.DomainEvents
}

func (w *Wave) touch() {
	w.UpdatedAt = time.Now()
}
