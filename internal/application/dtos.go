package application

import "time"

// WaveDTO represents a wave in responses
type WaveDTO struct {
	WaveID             string         `json:"waveId"`
	WarehouseID        string         `json:"warehouseId"`
	OrderIDs           []string       `json:"orderIds"`
	Strategy           StrategyDTO    `json:"strategy"`
	Status             string         `json:"status"`
	Priority           string         `json:"priority"`
	AssignedZone       string         `json:"assignedZone,omitempty"`
	InventoryAllocated bool           `json:"inventoryAllocated"`
	CarrierCutoff      *time.Time     `json:"carrierCutoff,omitempty"`
	PlannedReleaseTime *time.Time     `json:"plannedReleaseTime,omitempty"`
	ActualReleaseTime  *time.Time     `json:"actualReleaseTime,omitempty"`
	PlannedCompletion  *time.Time     `json:"plannedCompletion,omitempty"`
	ActualCompletion   *time.Time     `json:"actualCompletion,omitempty"`
	Metrics            WaveMetricsDTO `json:"metrics"`
	OrderCount         int            `json:"orderCount"`
	Version            int64          `json:"version"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// StrategyDTO describes how a wave was assembled
type StrategyDTO struct {
	Type         string `json:"type"`
	MaxWaveSize  int    `json:"maxWaveSize,omitempty"`
	MaxOrders    int    `json:"maxOrders,omitempty"`
	MaxLines     int    `json:"maxLines,omitempty"`
	TimeInterval string `json:"timeInterval,omitempty"`
}

// WaveMetricsDTO carries a wave's planning and execution figures
type WaveMetricsDTO struct {
	PlannedPickTime  float64 `json:"plannedPickTime"`
	ActualPickTime   float64 `json:"actualPickTime"`
	PickAccuracy     float64 `json:"pickAccuracy"`
	LaborEfficiency  float64 `json:"laborEfficiency"`
	OrderFillRate    float64 `json:"orderFillRate"`
	TotalOrders      int     `json:"totalOrders"`
	CompletedOrders  int     `json:"completedOrders"`
	TotalLines       int     `json:"totalLines"`
	TotalUnits       int     `json:"totalUnits"`
	TotalVolume      float64 `json:"totalVolume"`
	TotalWeight      float64 `json:"totalWeight"`
	EstimatedPickers int     `json:"estimatedPickers"`
}

// PlanResultDTO is the outcome of a batching run
type PlanResultDTO struct {
	Waves         []WaveDTO `json:"waves"`
	UnwavedOrders []string  `json:"unwavedOrders"`
}

// WaveCountsDTO is the per-status wave census
type WaveCountsDTO struct {
	Counts map[string]int64 `json:"counts"`
}

// OutboxStatsDTO reports the outbox backlog by status
type OutboxStatsDTO struct {
	Pending   int64 `json:"pending"`
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
}
