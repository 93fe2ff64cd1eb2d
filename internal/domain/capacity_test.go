package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaveCapacity_CanAccommodate(t *testing.T) {
	capacity := WaveCapacity{MaxOrders: 10, MaxLines: 50, MaxVolume: 100.0, MaxWeight: 200.0}

	tests := []struct {
		name   string
		orders int
		lines  int
		volume float64
		weight float64
		fits   bool
	}{
		{name: "well within", orders: 5, lines: 20, volume: 50.0, weight: 100.0, fits: true},
		{name: "exactly at every ceiling", orders: 10, lines: 50, volume: 100.0, weight: 200.0, fits: true},
		{name: "one order too many", orders: 11, lines: 20, volume: 50.0, weight: 100.0, fits: false},
		{name: "too many lines", orders: 5, lines: 51, volume: 50.0, weight: 100.0, fits: false},
		{name: "too much volume", orders: 5, lines: 20, volume: 100.1, weight: 100.0, fits: false},
		{name: "too heavy", orders: 5, lines: 20, volume: 50.0, weight: 200.1, fits: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fits, capacity.CanAccommodate(tt.orders, tt.lines, tt.volume, tt.weight))
		})
	}
}

func TestDefaultCapacity(t *testing.T) {
	capacity := DefaultCapacity()
	assert.Equal(t, DefaultMaxOrders, capacity.MaxOrders)
	assert.Equal(t, DefaultMaxLines, capacity.MaxLines)
	assert.Equal(t, DefaultMaxVolume, capacity.MaxVolume)
	assert.Equal(t, DefaultMaxWeight, capacity.MaxWeight)
	assert.Equal(t, DefaultMaxPickers, capacity.MaxPickers)
}
