package application

import (
	"github.com/paklog/wave-planning-service/internal/domain"
)

// ToWaveDTO converts a wave aggregate to its response representation.
func ToWaveDTO(wave *domain.Wave) *WaveDTO {
	if wave == nil {
		return nil
	}
	return &WaveDTO{
		WaveID:             wave.WaveID,
		WarehouseID:        wave.WarehouseID,
		OrderIDs:           append([]string(nil), wave.OrderIDs...),
		Strategy:           toStrategyDTO(wave.Strategy),
		Status:             string(wave.Status),
		Priority:           string(wave.Priority),
		AssignedZone:       wave.AssignedZone,
		InventoryAllocated: wave.InventoryAllocated,
		CarrierCutoff:      wave.CarrierCutoff,
		PlannedReleaseTime: wave.PlannedReleaseTime,
		ActualReleaseTime:  wave.ActualReleaseTime,
		PlannedCompletion:  wave.PlannedCompletion,
		ActualCompletion:   wave.ActualCompletion,
		Metrics:            toWaveMetricsDTO(wave.Metrics),
		OrderCount:         wave.OrderCount(),
		Version:            wave.Version,
		CreatedAt:          wave.CreatedAt,
		UpdatedAt:          wave.UpdatedAt,
	}
}

// ToWaveDTOs converts a slice of waves.
func ToWaveDTOs(waves []*domain.Wave) []WaveDTO {
	dtos := make([]WaveDTO, 0, len(waves))
	for _, wave := range waves {
		dtos = append(dtos, *ToWaveDTO(wave))
	}
	return dtos
}

// ToPlanResultDTO converts a batching outcome.
func ToPlanResultDTO(result *PlanResult) *PlanResultDTO {
	if result == nil {
		return &PlanResultDTO{Waves: []WaveDTO{}, UnwavedOrders: []string{}}
	}
	unwaved := result.UnwavedOrders
	if unwaved == nil {
		unwaved = []string{}
	}
	return &PlanResultDTO{
		Waves:         ToWaveDTOs(result.Waves),
		UnwavedOrders: unwaved,
	}
}

func toStrategyDTO(strategy domain.WaveStrategy) StrategyDTO {
	dto := StrategyDTO{
		Type:        string(strategy.Type),
		MaxWaveSize: strategy.MaxWaveSize,
		MaxOrders:   strategy.MaxOrders,
		MaxLines:    strategy.MaxLines,
	}
	if strategy.TimeInterval > 0 {
		dto.TimeInterval = strategy.TimeInterval.String()
	}
	return dto
}

func toWaveMetricsDTO(metrics domain.WaveMetrics) WaveMetricsDTO {
	return WaveMetricsDTO{
		PlannedPickTime:  metrics.PlannedPickTime,
		ActualPickTime:   metrics.ActualPickTime,
		PickAccuracy:     metrics.PickAccuracy,
		LaborEfficiency:  metrics.LaborEfficiency,
		OrderFillRate:    metrics.OrderFillRate,
		TotalOrders:      metrics.TotalOrders,
		CompletedOrders:  metrics.CompletedOrders,
		TotalLines:       metrics.TotalLines,
		TotalUnits:       metrics.TotalUnits,
		TotalVolume:      metrics.TotalVolume,
		TotalWeight:      metrics.TotalWeight,
		EstimatedPickers: metrics.EstimatedPickers,
	}
}
