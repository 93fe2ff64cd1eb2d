package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWaveStrategy(t *testing.T) {
	tests := []struct {
		name         string
		strategyType WaveStrategyType
		maxWaveSize  int
		maxOrders    int
		maxLines     int
		interval     time.Duration
		expectError  bool
	}{
		{
			name:         "capacity based",
			strategyType: StrategyCapacityBased,
			maxWaveSize:  50,
			maxOrders:    50,
			maxLines:     200,
		},
		{
			name:         "time based with interval",
			strategyType: StrategyTimeBased,
			interval:     30 * time.Minute,
		},
		{
			name:         "time based without interval",
			strategyType: StrategyTimeBased,
			expectError:  true,
		},
		{
			name:        "missing type",
			expectError: true,
		},
		{
			name:         "unknown type",
			strategyType: "ROUND_ROBIN",
			expectError:  true,
		},
		{
			name:         "negative cap",
			strategyType: StrategyZoneBased,
			maxOrders:    -1,
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := NewWaveStrategy(tt.strategyType, tt.maxWaveSize, tt.maxOrders, tt.maxLines, tt.interval)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, strategy.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.strategyType, strategy.Type)
		})
	}
}

func TestWaveStrategy_HasCapacityFor(t *testing.T) {
	strategy, err := NewWaveStrategy(StrategyCapacityBased, 10, 10, 40, 0)
	require.NoError(t, err)

	assert.True(t, strategy.HasCapacityFor(10, 40))
	assert.False(t, strategy.HasCapacityFor(11, 10))
	assert.False(t, strategy.HasCapacityFor(5, 41))

	// Unbounded strategy accepts anything.
	open, err := NewWaveStrategy(StrategyCustom, 0, 0, 0, 0)
	require.NoError(t, err)
	assert.True(t, open.HasCapacityFor(100000, 100000))
}

func TestDefaultStrategy(t *testing.T) {
	strategy := DefaultStrategy()
	assert.Equal(t, StrategyTimeBased, strategy.Type)
	assert.Equal(t, 100, strategy.MaxWaveSize)
	assert.Equal(t, 500, strategy.MaxLines)
	assert.Equal(t, time.Hour, strategy.TimeInterval)
}
