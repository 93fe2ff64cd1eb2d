package domain

import (
	"errors"
	"fmt"
	"time"
)

// WaveStrategyType represents how orders are grouped into waves
type WaveStrategyType string

const (
	StrategyTimeBased     WaveStrategyType = "TIME_BASED"     // Waves created at fixed intervals
	StrategyCarrierBased  WaveStrategyType = "CARRIER_BASED"  // Waves grouped by carrier cutoff
	StrategyZoneBased     WaveStrategyType = "ZONE_BASED"     // Waves grouped by warehouse zone
	StrategyCapacityBased WaveStrategyType = "CAPACITY_BASED" // Waves filled to capacity ceilings
	StrategyPriorityBased WaveStrategyType = "PRIORITY_BASED" // Waves grouped by order priority
	StrategyCustom        WaveStrategyType = "CUSTOM"         // Externally defined grouping
)

// IsValid reports whether t is one of the known strategy types.
func (t WaveStrategyType) IsValid() bool {
	switch t {
	case StrategyTimeBased, StrategyCarrierBased, StrategyZoneBased,
		StrategyCapacityBased, StrategyPriorityBased, StrategyCustom:
		return true
	}
	return false
}

// WaveStrategy is an immutable value describing how a wave was assembled
// and what it may grow to. Zero caps mean unbounded.
type WaveStrategy struct {
	Type         WaveStrategyType `bson:"type" json:"type"`
	MaxWaveSize  int              `bson:"maxWaveSize,omitempty" json:"max_wave_size,omitempty"`
	MaxOrders    int              `bson:"maxOrders,omitempty" json:"max_orders,omitempty"`
	MaxLines     int              `bson:"maxLines,omitempty" json:"max_lines,omitempty"`
	TimeInterval time.Duration    `bson:"timeInterval,omitempty" json:"time_interval,omitempty"`
}

// NewWaveStrategy validates and builds a strategy value.
func NewWaveStrategy(strategyType WaveStrategyType, maxWaveSize, maxOrders, maxLines int, interval time.Duration) (WaveStrategy, error) {
	if strategyType == "" {
		return WaveStrategy{}, errors.New("strategy type is required")
	}
	if !strategyType.IsValid() {
		return WaveStrategy{}, fmt.Errorf("unknown strategy type: %s", strategyType)
	}
	if maxWaveSize < 0 || maxOrders < 0 || maxLines < 0 {
		return WaveStrategy{}, errors.New("strategy capacity limits must be positive")
	}
	if strategyType == StrategyTimeBased && interval <= 0 {
		return WaveStrategy{}, errors.New("time-based strategy requires a positive interval")
	}
	return WaveStrategy{
		Type:         strategyType,
		MaxWaveSize:  maxWaveSize,
		MaxOrders:    maxOrders,
		MaxLines:     maxLines,
		TimeInterval: interval,
	}, nil
}

// DefaultStrategy returns the fallback strategy: hourly time-based waves
// capped at 100 orders and 500 lines.
func DefaultStrategy() WaveStrategy {
	return WaveStrategy{
		Type:         StrategyTimeBased,
		MaxWaveSize:  100,
		MaxLines:     500,
		TimeInterval: time.Hour,
	}
}

// HasCapacityFor reports whether a wave built under this strategy could
// hold the given order and line counts.
func (s WaveStrategy) HasCapacityFor(orderCount, lineCount int) bool {
	if s.MaxOrders > 0 && orderCount > s.MaxOrders {
		return false
	}
	if s.MaxWaveSize > 0 && orderCount > s.MaxWaveSize {
		return false
	}
	if s.MaxLines > 0 && lineCount > s.MaxLines {
		return false
	}
	return true
}

// IsZero reports whether the strategy carries no type at all.
func (s WaveStrategy) IsZero() bool {
	return s.Type == ""
}
