package application

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/paklog/wave-planning-service/internal/domain"
)

// Planner defaults. The minimum keeps pickers from walking a zone for a
// handful of orders; the physical ceilings come from the domain's wave
// capacity.
const (
	DefaultMinOrdersPerWave = 5
	DefaultZoneTargetLines  = 250
	DefaultCarrierWindow    = 2 * time.Hour

	linesPerPickerBlock = 50
	linesPerPickerHour  = 10
)

// PlannerConfig bounds the batching algorithms. Zero ceilings fall back
// to the corresponding domain.DefaultCapacity value.
type PlannerConfig struct {
	MaxOrdersPerWave int
	MaxLinesPerWave  int
	MaxVolumePerWave float64
	MaxWeightPerWave float64
	MinOrdersPerWave int
	ZoneTargetLines  int
	CarrierWindow    time.Duration
}

// DefaultPlannerConfig returns the standard planner ceilings.
func DefaultPlannerConfig() PlannerConfig {
	capacity := domain.DefaultCapacity()
	return PlannerConfig{
		MaxOrdersPerWave: capacity.MaxOrders,
		MaxLinesPerWave:  capacity.MaxLines,
		MaxVolumePerWave: capacity.MaxVolume,
		MaxWeightPerWave: capacity.MaxWeight,
		MinOrdersPerWave: DefaultMinOrdersPerWave,
		ZoneTargetLines:  DefaultZoneTargetLines,
		CarrierWindow:    DefaultCarrierWindow,
	}
}

// OptimizationCriteria selects which sequencing passes OptimizeWave runs.
// Passes apply in declaration order; a later pass overrides the ordering
// of an earlier one.
type OptimizationCriteria struct {
	MinimizeTravelDistance bool
	BalanceWorkload        bool
	PrioritizeSLA          bool
}

// PlanResult is the outcome of a batching run: the waves that were formed
// and the orders that did not make it into any wave.
type PlanResult struct {
	Waves         []*domain.Wave
	UnwavedOrders []string
}

// WavePlanner groups pools of orders into waves and sequences orders
// within a wave. It is pure computation; persistence belongs to the
// caller.
type WavePlanner struct {
	config   PlannerConfig
	capacity domain.WaveCapacity
}

// NewWavePlanner creates a planner with the given ceilings, filling in
// defaults for zero values.
func NewWavePlanner(config PlannerConfig) *WavePlanner {
	capacity := domain.DefaultCapacity()
	if config.MaxOrdersPerWave > 0 {
		capacity.MaxOrders = config.MaxOrdersPerWave
	}
	if config.MaxLinesPerWave > 0 {
		capacity.MaxLines = config.MaxLinesPerWave
	}
	if config.MaxVolumePerWave > 0 {
		capacity.MaxVolume = config.MaxVolumePerWave
	}
	if config.MaxWeightPerWave > 0 {
		capacity.MaxWeight = config.MaxWeightPerWave
	}
	if config.MinOrdersPerWave <= 0 {
		config.MinOrdersPerWave = DefaultMinOrdersPerWave
	}
	if config.ZoneTargetLines <= 0 {
		config.ZoneTargetLines = DefaultZoneTargetLines
	}
	if config.CarrierWindow <= 0 {
		config.CarrierWindow = DefaultCarrierWindow
	}
	return &WavePlanner{config: config, capacity: capacity}
}

// PlanCapacityWaves greedily fills waves up to the capacity ceilings.
// Orders are taken most urgent first (priority, then required date); an
// order that would overflow the current batch closes it and seeds the
// next one. Batches below the minimum size are discarded and their
// orders reported as unwaved.
func (p *WavePlanner) PlanCapacityWaves(warehouseID string, orders []domain.Order) (*PlanResult, error) {
	if len(orders) == 0 {
		return &PlanResult{}, nil
	}

	sorted := make([]domain.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority.Rank() != sorted[j].Priority.Rank() {
			return sorted[i].Priority.Rank() < sorted[j].Priority.Rank()
		}
		return sorted[i].RequiredDate.Before(sorted[j].RequiredDate)
	})

	result := &PlanResult{}
	var batch []domain.Order

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if len(batch) < p.config.MinOrdersPerWave {
			for _, order := range batch {
				result.UnwavedOrders = append(result.UnwavedOrders, order.OrderID)
			}
			batch = nil
			return nil
		}
		wave, err := p.CreateWaveFromOrders(warehouseID, batch, capacityStrategy(p.capacity), highestPriority(batch))
		if err != nil {
			return err
		}
		result.Waves = append(result.Waves, wave)
		batch = nil
		return nil
	}

	for _, order := range sorted {
		if p.wouldExceedCapacity(batch, order) {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, order)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return result, nil
}

// PlanZoneWaves groups orders by primary zone and splits each group into
// contiguous waves of an optimal size derived from the zone's average
// lines per order.
func (p *WavePlanner) PlanZoneWaves(warehouseID string, orders []domain.Order) (*PlanResult, error) {
	if len(orders) == 0 {
		return &PlanResult{}, nil
	}

	byZone := make(map[string][]domain.Order)
	for _, order := range orders {
		zone := order.Zone()
		byZone[zone] = append(byZone[zone], order)
	}

	zones := make([]string, 0, len(byZone))
	for zone := range byZone {
		zones = append(zones, zone)
	}
	sort.Strings(zones)

	result := &PlanResult{}
	for _, zone := range zones {
		zoneOrders := byZone[zone]
		size := p.optimalZoneWaveSize(zoneOrders)
		for start := 0; start < len(zoneOrders); start += size {
			end := start + size
			if end > len(zoneOrders) {
				end = len(zoneOrders)
			}
			slice := zoneOrders[start:end]
			if len(slice) < p.config.MinOrdersPerWave {
				for _, order := range slice {
					result.UnwavedOrders = append(result.UnwavedOrders, order.OrderID)
				}
				continue
			}
			strategy, err := domain.NewWaveStrategy(domain.StrategyZoneBased, size, size, p.capacity.MaxLines, 0)
			if err != nil {
				return nil, err
			}
			wave, err := p.CreateWaveFromOrders(warehouseID, slice, strategy, highestPriority(slice))
			if err != nil {
				return nil, err
			}
			if err := wave.AssignZone(zone); err != nil {
				return nil, err
			}
			result.Waves = append(result.Waves, wave)
		}
	}

	return result, nil
}

// PlanCarrierWaves groups orders by carrier and batches each group into
// fixed windows counting back from the carrier's cutoff. Orders for
// carriers without a cutoff are left unwaved.
func (p *WavePlanner) PlanCarrierWaves(warehouseID string, orders []domain.Order, cutoffs map[string]time.Time) (*PlanResult, error) {
	if len(orders) == 0 {
		return &PlanResult{}, nil
	}

	byCarrier := make(map[string][]domain.Order)
	for _, order := range orders {
		byCarrier[order.Carrier] = append(byCarrier[order.Carrier], order)
	}

	carriers := make([]string, 0, len(byCarrier))
	for carrier := range byCarrier {
		carriers = append(carriers, carrier)
	}
	sort.Strings(carriers)

	result := &PlanResult{}
	for _, carrier := range carriers {
		carrierOrders := byCarrier[carrier]
		cutoff, ok := cutoffs[carrier]
		if !ok {
			for _, order := range carrierOrders {
				result.UnwavedOrders = append(result.UnwavedOrders, order.OrderID)
			}
			continue
		}

		batches := make(map[int][]domain.Order)
		for _, order := range carrierOrders {
			if !order.RequiredDate.Before(cutoff) {
				result.UnwavedOrders = append(result.UnwavedOrders, order.OrderID)
				continue
			}
			window := int(cutoff.Sub(order.RequiredDate) / p.config.CarrierWindow)
			batches[window] = append(batches[window], order)
		}

		windows := make([]int, 0, len(batches))
		for window := range batches {
			windows = append(windows, window)
		}
		sort.Ints(windows)

		for _, window := range windows {
			batch := batches[window]
			if len(batch) < p.config.MinOrdersPerWave {
				for _, order := range batch {
					result.UnwavedOrders = append(result.UnwavedOrders, order.OrderID)
				}
				continue
			}
			strategy, err := domain.NewWaveStrategy(domain.StrategyCarrierBased, p.capacity.MaxOrders, p.capacity.MaxOrders, p.capacity.MaxLines, 0)
			if err != nil {
				return nil, err
			}
			wave, err := p.CreateWaveFromOrders(warehouseID, batch, strategy, highestPriority(batch))
			if err != nil {
				return nil, err
			}
			wave.SetCarrierCutoff(cutoff)
			windowStart := cutoff.Add(-time.Duration(window+1) * p.config.CarrierWindow)
			wave.SetPlannedReleaseTime(windowStart)
			result.Waves = append(result.Waves, wave)
		}
	}

	return result, nil
}

// PlanTimeWaves buckets orders by their order date rounded down to the
// window and forms one wave per bucket. Each wave's planned release is
// the window start.
func (p *WavePlanner) PlanTimeWaves(warehouseID string, orders []domain.Order, window time.Duration) (*PlanResult, error) {
	if window <= 0 {
		return nil, fmt.Errorf("time window must be positive, got %s", window)
	}
	if len(orders) == 0 {
		return &PlanResult{}, nil
	}

	buckets := make(map[time.Time][]domain.Order)
	for _, order := range orders {
		start := order.OrderDate.Truncate(window)
		buckets[start] = append(buckets[start], order)
	}

	starts := make([]time.Time, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	result := &PlanResult{}
	for _, start := range starts {
		batch := buckets[start]
		if len(batch) < p.config.MinOrdersPerWave {
			for _, order := range batch {
				result.UnwavedOrders = append(result.UnwavedOrders, order.OrderID)
			}
			continue
		}
		strategy, err := domain.NewWaveStrategy(domain.StrategyTimeBased, p.capacity.MaxOrders, p.capacity.MaxOrders, p.capacity.MaxLines, window)
		if err != nil {
			return nil, err
		}
		wave, err := p.CreateWaveFromOrders(warehouseID, batch, strategy, highestPriority(batch))
		if err != nil {
			return nil, err
		}
		wave.SetPlannedReleaseTime(start)
		result.Waves = append(result.Waves, wave)
	}

	return result, nil
}

// OptimizeWave resequences a planned wave's orders according to the
// criteria and applies the result through ReorderOrders, so the
// permutation invariant holds. Orders not found in the pool keep their
// relative position at the end.
func (p *WavePlanner) OptimizeWave(wave *domain.Wave, pool []domain.Order, criteria OptimizationCriteria) error {
	orders := ordersForWave(wave, pool)
	if len(orders) <= 1 {
		return nil
	}

	if criteria.MinimizeTravelDistance {
		orders = sequenceByTravelDistance(orders)
	}
	if criteria.BalanceWorkload {
		sort.SliceStable(orders, func(i, j int) bool {
			return orders[i].LineCount() < orders[j].LineCount()
		})
	}
	if criteria.PrioritizeSLA {
		sort.SliceStable(orders, func(i, j int) bool {
			if !orders[i].RequiredDate.Equal(orders[j].RequiredDate) {
				return orders[i].RequiredDate.Before(orders[j].RequiredDate)
			}
			return orders[i].Priority.Rank() < orders[j].Priority.Rank()
		})
	}

	sequenced := make([]string, 0, len(wave.OrderIDs))
	seen := make(map[string]bool, len(orders))
	for _, order := range orders {
		sequenced = append(sequenced, order.OrderID)
		seen[order.OrderID] = true
	}
	for _, id := range wave.OrderIDs {
		if !seen[id] {
			sequenced = append(sequenced, id)
		}
	}

	return wave.ReorderOrders(sequenced)
}

// CalculateWaveMetrics derives planning metrics from the orders that will
// make up a wave.
func (p *WavePlanner) CalculateWaveMetrics(orders []domain.Order) domain.WaveMetrics {
	metrics := domain.NewWaveMetrics()
	metrics.TotalOrders = len(orders)
	for _, order := range orders {
		metrics.TotalLines += order.LineCount()
		metrics.TotalUnits += order.UnitCount()
		metrics.TotalVolume += order.TotalVolume
		metrics.TotalWeight += order.TotalWeight
	}

	metrics.EstimatedPickers = metrics.TotalLines/linesPerPickerBlock + 1
	if metrics.EstimatedPickers < 1 {
		metrics.EstimatedPickers = 1
	}

	hours := float64(metrics.TotalLines) / float64(linesPerPickerHour*metrics.EstimatedPickers)
	completion := time.Now().Add(time.Duration(hours * float64(time.Hour)))
	metrics.EstimatedCompletion = &completion
	metrics.PlannedPickTime = hours * 60

	return metrics
}

// EstimateTravelDistance scores a pick sequence: consecutive orders in
// the same zone cost 1, a zone change costs 10.
func (p *WavePlanner) EstimateTravelDistance(orders []domain.Order) float64 {
	if len(orders) < 2 {
		return 0
	}
	distance := 0.0
	for i := 1; i < len(orders); i++ {
		distance += zoneDistance(orders[i-1], orders[i])
	}
	return distance
}

// CreateWaveFromOrders builds a planned wave over the given orders with
// metrics precomputed and release planned an hour out.
func (p *WavePlanner) CreateWaveFromOrders(warehouseID string, orders []domain.Order, strategy domain.WaveStrategy, priority domain.WavePriority) (*domain.Wave, error) {
	orderIDs := make([]string, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.OrderID
	}

	wave, err := domain.NewWave(orderIDs, strategy, warehouseID, priority)
	if err != nil {
		return nil, err
	}

	wave.SetPlannedReleaseTime(time.Now().Add(time.Hour))
	wave.UpdateMetrics(p.CalculateWaveMetrics(orders))
	return wave, nil
}

func (p *WavePlanner) wouldExceedCapacity(batch []domain.Order, candidate domain.Order) bool {
	orders := len(batch) + 1
	lines := candidate.LineCount()
	volume := candidate.TotalVolume
	weight := candidate.TotalWeight
	for _, order := range batch {
		lines += order.LineCount()
		volume += order.TotalVolume
		weight += order.TotalWeight
	}
	return !p.capacity.CanAccommodate(orders, lines, volume, weight)
}

func (p *WavePlanner) optimalZoneWaveSize(orders []domain.Order) int {
	totalLines := 0
	for _, order := range orders {
		totalLines += order.LineCount()
	}
	avgLines := float64(totalLines) / float64(len(orders))
	if avgLines < 1 {
		avgLines = 1
	}
	size := int(math.Floor(float64(p.config.ZoneTargetLines) / avgLines))
	if size < p.config.MinOrdersPerWave {
		size = p.config.MinOrdersPerWave
	}
	if size > p.capacity.MaxOrders {
		size = p.capacity.MaxOrders
	}
	return size
}

func capacityStrategy(capacity domain.WaveCapacity) domain.WaveStrategy {
	strategy, err := domain.NewWaveStrategy(domain.StrategyCapacityBased, capacity.MaxOrders, capacity.MaxOrders, capacity.MaxLines, 0)
	if err != nil {
		// Capacity was normalized in NewWavePlanner; this cannot happen.
		panic(err)
	}
	return strategy
}

func highestPriority(orders []domain.Order) domain.WavePriority {
	highest := domain.PriorityLow
	for _, order := range orders {
		if order.Priority.HigherThan(highest) {
			highest = order.Priority
		}
	}
	return highest
}

// sequenceByTravelDistance orders picks nearest-neighbour style: start at
// the most urgent order, then repeatedly take the closest remaining one.
func sequenceByTravelDistance(orders []domain.Order) []domain.Order {
	remaining := make([]domain.Order, len(orders))
	copy(remaining, orders)

	startIdx := 0
	for i, order := range remaining {
		if order.Priority.HigherThan(remaining[startIdx].Priority) {
			startIdx = i
		}
	}

	sequenced := make([]domain.Order, 0, len(remaining))
	current := remaining[startIdx]
	sequenced = append(sequenced, current)
	remaining = append(remaining[:startIdx], remaining[startIdx+1:]...)

	for len(remaining) > 0 {
		nearest := 0
		nearestDist := zoneDistance(current, remaining[0])
		for i := 1; i < len(remaining); i++ {
			if d := zoneDistance(current, remaining[i]); d < nearestDist {
				nearest = i
				nearestDist = d
			}
		}
		current = remaining[nearest]
		sequenced = append(sequenced, current)
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)
	}

	return sequenced
}

func zoneDistance(a, b domain.Order) float64 {
	if a.Zone() == b.Zone() {
		return 1.0
	}
	return 10.0
}

func ordersForWave(wave *domain.Wave, pool []domain.Order) []domain.Order {
	index := make(map[string]domain.Order, len(pool))
	for _, order := range pool {
		index[order.OrderID] = order
	}
	orders := make([]domain.Order, 0, len(wave.OrderIDs))
	for _, id := range wave.OrderIDs {
		if order, ok := index[id]; ok {
			orders = append(orders, order)
		}
	}
	return orders
}
