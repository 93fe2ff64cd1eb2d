package application

import (
	"time"

	"github.com/paklog/wave-planning-service/internal/domain"
)

// PlanWaveCommand represents the command to plan a new wave over an
// explicit set of orders
type PlanWaveCommand struct {
	WarehouseID        string
	OrderIDs           []string
	StrategyType       string
	MaxWaveSize        int
	MaxOrders          int
	MaxLines           int
	TimeInterval       time.Duration
	Priority           string
	PlannedReleaseTime *time.Time
	CarrierCutoff      *time.Time
}

// AssignZoneCommand represents the command to assign a picking zone
type AssignZoneCommand struct {
	WaveID string
	Zone   string
}

// ReleaseWaveCommand represents the command to release a wave to the floor
type ReleaseWaveCommand struct {
	WaveID string
}

// StartWaveCommand represents the command to start wave execution
type StartWaveCommand struct {
	WaveID string
}

// CompleteWaveCommand represents the command to complete a wave
type CompleteWaveCommand struct {
	WaveID string
}

// CancelWaveCommand represents the command to cancel a wave
type CancelWaveCommand struct {
	WaveID string
	Reason string
}

// AddOrdersCommand represents the command to add orders to a planned wave
type AddOrdersCommand struct {
	WaveID   string
	OrderIDs []string
}

// RemoveOrdersCommand represents the command to remove orders from a planned wave
type RemoveOrdersCommand struct {
	WaveID   string
	OrderIDs []string
}

// ReorderOrdersCommand represents the command to resequence a wave's orders
type ReorderOrdersCommand struct {
	WaveID   string
	OrderIDs []string
}

// PlanCapacityWavesCommand batches a pool of orders into capacity-bounded waves
type PlanCapacityWavesCommand struct {
	WarehouseID string
	Orders      []domain.Order
}

// PlanZoneWavesCommand batches a pool of orders into per-zone waves
type PlanZoneWavesCommand struct {
	WarehouseID string
	Orders      []domain.Order
}

// PlanCarrierWavesCommand batches a pool of orders by carrier cutoff
type PlanCarrierWavesCommand struct {
	WarehouseID string
	Orders      []domain.Order
	Cutoffs     map[string]time.Time
}

// PlanTimeWavesCommand batches a pool of orders into fixed time windows
type PlanTimeWavesCommand struct {
	WarehouseID string
	Orders      []domain.Order
	Window      time.Duration
}

// OptimizeWaveCommand resequences a wave's pick order
type OptimizeWaveCommand struct {
	WaveID   string
	Orders   []domain.Order
	Criteria OptimizationCriteria
}

// GetWaveQuery represents the query to get a wave by ID
type GetWaveQuery struct {
	WaveID string
}

// ListWavesQuery filters waves by warehouse and/or status. Empty fields
// are not filtered on.
type ListWavesQuery struct {
	WarehouseID string
	Status      string
}

// GetWavesByZoneQuery represents the query to get waves by assigned zone
type GetWavesByZoneQuery struct {
	Zone string
}

// GetWavesByOrderQuery represents the query to find the waves holding an order
type GetWavesByOrderQuery struct {
	OrderID string
}
