package domain

// Default physical ceilings for a single wave.
const (
	DefaultMaxOrders  = 100
	DefaultMaxLines   = 500
	DefaultMaxVolume  = 1000.0
	DefaultMaxWeight  = 5000.0
	DefaultMaxPickers = 10
)

// WaveCapacity bounds the physical size of a wave.
type WaveCapacity struct {
	MaxOrders  int     `bson:"maxOrders" json:"max_orders"`
	MaxLines   int     `bson:"maxLines" json:"max_lines"`
	MaxVolume  float64 `bson:"maxVolume" json:"max_volume"`
	MaxWeight  float64 `bson:"maxWeight" json:"max_weight"`
	MaxPickers int     `bson:"maxPickers" json:"max_pickers"`
}

// DefaultCapacity returns the standard wave ceilings.
func DefaultCapacity() WaveCapacity {
	return WaveCapacity{
		MaxOrders:  DefaultMaxOrders,
		MaxLines:   DefaultMaxLines,
		MaxVolume:  DefaultMaxVolume,
		MaxWeight:  DefaultMaxWeight,
		MaxPickers: DefaultMaxPickers,
	}
}

// CanAccommodate reports whether the given totals fit inside every ceiling.
func (c WaveCapacity) CanAccommodate(orders, lines int, volume, weight float64) bool {
	return orders <= c.MaxOrders &&
		lines <= c.MaxLines &&
		volume <= c.MaxVolume &&
		weight <= c.MaxWeight
}
