package domain

import "time"

// WaveMetrics tracks planned versus actual execution figures for a wave.
// Pick times are in minutes; accuracy, efficiency and fill rate are percentages.
type WaveMetrics struct {
	PlannedPickTime     float64    `bson:"plannedPickTime" json:"planned_pick_time"`
	ActualPickTime      float64    `bson:"actualPickTime" json:"actual_pick_time"`
	PickAccuracy        float64    `bson:"pickAccuracy" json:"pick_accuracy"`
	LaborEfficiency     float64    `bson:"laborEfficiency" json:"labor_efficiency"`
	OrderFillRate       float64    `bson:"orderFillRate" json:"order_fill_rate"`
	TotalOrders         int        `bson:"totalOrders" json:"total_orders"`
	CompletedOrders     int        `bson:"completedOrders" json:"completed_orders"`
	TotalLines          int        `bson:"totalLines" json:"total_lines"`
	CompletedLines      int        `bson:"completedLines" json:"completed_lines"`
	TotalUnits          int        `bson:"totalUnits" json:"total_units"`
	TotalVolume         float64    `bson:"totalVolume" json:"total_volume"`
	TotalWeight         float64    `bson:"totalWeight" json:"total_weight"`
	EstimatedPickers    int        `bson:"estimatedPickers" json:"estimated_pickers"`
	EstimatedCompletion *time.Time `bson:"estimatedCompletion,omitempty" json:"estimated_completion,omitempty"`
	StartTime           *time.Time `bson:"startTime,omitempty" json:"start_time,omitempty"`
	EndTime             *time.Time `bson:"endTime,omitempty" json:"end_time,omitempty"`
}

// NewWaveMetrics returns metrics with a perfect starting accuracy.
func NewWaveMetrics() WaveMetrics {
	return WaveMetrics{PickAccuracy: 100.0}
}

// RecordPickStart stamps the moment picking began.
func (m *WaveMetrics) RecordPickStart() {
	now := time.Now()
	m.StartTime = &now
}

// RecordPickCompletion stamps the end of picking and derives the actual
// pick time in minutes when a start was recorded.
func (m *WaveMetrics) RecordPickCompletion() {
	now := time.Now()
	m.EndTime = &now
	if m.StartTime != nil {
		m.ActualPickTime = now.Sub(*m.StartTime).Minutes()
	}
}

// UpdateOrderCompletion records progress and recomputes the fill rate.
func (m *WaveMetrics) UpdateOrderCompletion(completedOrders, completedLines int) {
	m.CompletedOrders = completedOrders
	m.CompletedLines = completedLines
	if m.TotalOrders > 0 {
		m.OrderFillRate = float64(completedOrders) / float64(m.TotalOrders) * 100
	}
}

// CalculateEfficiency derives labor efficiency from planned versus actual
// pick time. No-op until both figures exist.
func (m *WaveMetrics) CalculateEfficiency() {
	if m.PlannedPickTime > 0 && m.ActualPickTime > 0 {
		m.LaborEfficiency = m.PlannedPickTime / m.ActualPickTime * 100
	}
}
