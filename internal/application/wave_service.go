package application

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/paklog/wave-planning-service/pkg/errors"
	"github.com/paklog/wave-planning-service/pkg/logging"
	"github.com/paklog/wave-planning-service/pkg/metrics"
	"github.com/paklog/wave-planning-service/pkg/outbox"

	"github.com/paklog/wave-planning-service/internal/domain"
)

// WavePlanningService handles wave-related use cases
type WavePlanningService struct {
	repo       domain.WaveRepository
	planner    *WavePlanner
	skuCalc    *SKUCalculator
	outboxRepo outbox.Repository
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewWavePlanningService creates a new WavePlanningService
func NewWavePlanningService(
	repo domain.WaveRepository,
	planner *WavePlanner,
	skuCalc *SKUCalculator,
	outboxRepo outbox.Repository,
	logger *logging.Logger,
	m *metrics.Metrics,
) *WavePlanningService {
	return &WavePlanningService{
		repo:       repo,
		planner:    planner,
		skuCalc:    skuCalc,
		outboxRepo: outboxRepo,
		logger:     logger,
		metrics:    m,
	}
}

// PlanWave plans a new wave over an explicit set of orders
func (s *WavePlanningService) PlanWave(ctx context.Context, cmd PlanWaveCommand) (*WaveDTO, error) {
	strategy, err := domain.NewWaveStrategy(
		domain.WaveStrategyType(cmd.StrategyType),
		cmd.MaxWaveSize, cmd.MaxOrders, cmd.MaxLines, cmd.TimeInterval,
	)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	wave, err := domain.NewWave(cmd.OrderIDs, strategy, cmd.WarehouseID, domain.WavePriority(cmd.Priority))
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if cmd.PlannedReleaseTime != nil {
		wave.SetPlannedReleaseTime(*cmd.PlannedReleaseTime)
	}
	if cmd.CarrierCutoff != nil {
		wave.SetCarrierCutoff(*cmd.CarrierCutoff)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to plan wave", "waveId", wave.WaveID)
		return nil, s.mapRepositoryError(err, "failed to plan wave")
	}

	// Events are saved to outbox by repository in transaction

	s.metrics.RecordWavePlanned(string(strategy.Type), wave.OrderCount())
	s.logger.Info("Planned wave", "waveId", wave.WaveID, "warehouseId", cmd.WarehouseID,
		"strategy", cmd.StrategyType, "orderCount", wave.OrderCount())
	return ToWaveDTO(wave), nil
}

// GetWave retrieves a wave by ID
func (s *WavePlanningService) GetWave(ctx context.Context, query GetWaveQuery) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, query.WaveID)
	if err != nil {
		return nil, err
	}
	return ToWaveDTO(wave), nil
}

// ListWaves retrieves waves filtered by warehouse and/or status
func (s *WavePlanningService) ListWaves(ctx context.Context, query ListWavesQuery) ([]WaveDTO, error) {
	var status domain.WaveStatus
	if query.Status != "" {
		status = domain.WaveStatus(query.Status)
		if !status.IsValid() {
			return nil, errors.ErrValidation(fmt.Sprintf("unknown wave status: %s", query.Status))
		}
	}

	var (
		waves []*domain.Wave
		err   error
	)
	switch {
	case query.WarehouseID != "" && query.Status != "":
		waves, err = s.repo.FindByWarehouseAndStatus(ctx, query.WarehouseID, status)
	case query.WarehouseID != "":
		waves, err = s.repo.FindByWarehouseID(ctx, query.WarehouseID)
	case query.Status != "":
		waves, err = s.repo.FindByStatus(ctx, status)
	default:
		waves, err = s.repo.FindActiveWaves(ctx)
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to list waves",
			"warehouseId", query.WarehouseID, "status", query.Status)
		return nil, fmt.Errorf("failed to list waves: %w", err)
	}

	return ToWaveDTOs(waves), nil
}

// GetWavesByZone retrieves waves by assigned zone
func (s *WavePlanningService) GetWavesByZone(ctx context.Context, query GetWavesByZoneQuery) ([]WaveDTO, error) {
	waves, err := s.repo.FindByAssignedZone(ctx, query.Zone)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get waves by zone", "zone", query.Zone)
		return nil, fmt.Errorf("failed to get waves by zone: %w", err)
	}
	return ToWaveDTOs(waves), nil
}

// GetWavesByOrder retrieves the waves holding a given order
func (s *WavePlanningService) GetWavesByOrder(ctx context.Context, query GetWavesByOrderQuery) ([]WaveDTO, error) {
	waves, err := s.repo.FindByOrderID(ctx, query.OrderID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get waves by order", "orderId", query.OrderID)
		return nil, fmt.Errorf("failed to get waves by order: %w", err)
	}
	return ToWaveDTOs(waves), nil
}

// GetWaveCounts returns the per-status wave census
func (s *WavePlanningService) GetWaveCounts(ctx context.Context) (*WaveCountsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count waves")
		return nil, fmt.Errorf("failed to count waves: %w", err)
	}
	dto := &WaveCountsDTO{Counts: make(map[string]int64, len(counts))}
	for status, count := range counts {
		dto.Counts[string(status)] = count
	}
	return dto, nil
}

// AssignZone assigns the picking zone of a planned wave
func (s *WavePlanningService) AssignZone(ctx context.Context, cmd AssignZoneCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	if err := wave.AssignZone(cmd.Zone); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to assign zone", "waveId", cmd.WaveID)
		return nil, s.mapRepositoryError(err, "failed to assign zone")
	}

	s.logger.Info("Assigned zone", "waveId", cmd.WaveID, "zone", cmd.Zone)
	return ToWaveDTO(wave), nil
}

// MarkInventoryAllocated records that stock has been reserved for a wave
func (s *WavePlanningService) MarkInventoryAllocated(ctx context.Context, waveID string) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, waveID)
	if err != nil {
		return nil, err
	}

	if err := wave.MarkInventoryAllocated(); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to mark inventory allocated", "waveId", waveID)
		return nil, s.mapRepositoryError(err, "failed to mark inventory allocated")
	}

	s.logger.Info("Marked inventory allocated", "waveId", waveID)
	return ToWaveDTO(wave), nil
}

// ReleaseWave releases a wave to the warehouse floor. SKU demand is
// aggregated first so the allocation request travels with the release.
func (s *WavePlanningService) ReleaseWave(ctx context.Context, cmd ReleaseWaveCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	skuQuantities := s.skuCalc.Calculate(ctx, wave)

	if err := wave.Release(skuQuantities); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to release wave", "waveId", cmd.WaveID)
		return nil, s.mapRepositoryError(err, "failed to release wave")
	}

	// Events are saved to outbox by repository in transaction

	s.metrics.RecordWaveReleased(string(wave.Priority))
	s.logger.Info("Released wave", "waveId", cmd.WaveID,
		"orderCount", wave.OrderCount(), "skuCount", len(skuQuantities))
	return ToWaveDTO(wave), nil
}

// StartWave moves a released wave into active picking
func (s *WavePlanningService) StartWave(ctx context.Context, cmd StartWaveCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	if err := wave.StartExecution(); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to start wave", "waveId", cmd.WaveID)
		return nil, s.mapRepositoryError(err, "failed to start wave")
	}

	s.logger.Info("Started wave", "waveId", cmd.WaveID)
	return ToWaveDTO(wave), nil
}

// CompleteWave finishes a wave
func (s *WavePlanningService) CompleteWave(ctx context.Context, cmd CompleteWaveCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	if err := wave.Complete(); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to complete wave", "waveId", cmd.WaveID)
		return nil, s.mapRepositoryError(err, "failed to complete wave")
	}

	// Events are saved to outbox by repository in transaction

	s.metrics.RecordWaveCompleted()
	s.logger.Info("Completed wave", "waveId", cmd.WaveID,
		"actualPickTime", wave.Metrics.ActualPickTime)
	return ToWaveDTO(wave), nil
}

// CancelWave abandons a wave with a reason
func (s *WavePlanningService) CancelWave(ctx context.Context, cmd CancelWaveCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	if err := wave.Cancel(cmd.Reason); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to cancel wave", "waveId", cmd.WaveID)
		return nil, s.mapRepositoryError(err, "failed to cancel wave")
	}

	// Events are saved to outbox by repository in transaction

	s.metrics.RecordWaveCancelled()
	s.logger.Info("Cancelled wave", "waveId", cmd.WaveID, "reason", cmd.Reason)
	return ToWaveDTO(wave), nil
}

// AddOrders adds orders to a planned wave
func (s *WavePlanningService) AddOrders(ctx context.Context, cmd AddOrdersCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	if err := wave.AddOrders(cmd.OrderIDs); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to add orders to wave", "waveId", cmd.WaveID)
		return nil, s.mapRepositoryError(err, "failed to add orders to wave")
	}

	s.logger.Info("Added orders to wave", "waveId", cmd.WaveID, "added", len(cmd.OrderIDs))
	return ToWaveDTO(wave), nil
}

// RemoveOrders removes orders from a planned wave
func (s *WavePlanningService) RemoveOrders(ctx context.Context, cmd RemoveOrdersCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	if err := wave.RemoveOrders(cmd.OrderIDs); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to remove orders from wave", "waveId", cmd.WaveID)
		return nil, s.mapRepositoryError(err, "failed to remove orders from wave")
	}

	s.logger.Info("Removed orders from wave", "waveId", cmd.WaveID, "removed", len(cmd.OrderIDs))
	return ToWaveDTO(wave), nil
}

// ReorderOrders replaces the pick sequence of a planned wave
func (s *WavePlanningService) ReorderOrders(ctx context.Context, cmd ReorderOrdersCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	if err := wave.ReorderOrders(cmd.OrderIDs); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to reorder wave", "waveId", cmd.WaveID)
		return nil, s.mapRepositoryError(err, "failed to reorder wave")
	}

	s.logger.Info("Reordered wave", "waveId", cmd.WaveID)
	return ToWaveDTO(wave), nil
}

// PlanCapacityWaves batches a pool of orders into capacity-bounded waves
// and persists each one
func (s *WavePlanningService) PlanCapacityWaves(ctx context.Context, cmd PlanCapacityWavesCommand) (*PlanResultDTO, error) {
	result, err := s.planner.PlanCapacityWaves(cmd.WarehouseID, cmd.Orders)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	return s.persistPlan(ctx, cmd.WarehouseID, string(domain.StrategyCapacityBased), result)
}

// PlanZoneWaves batches a pool of orders into per-zone waves and persists
// each one
func (s *WavePlanningService) PlanZoneWaves(ctx context.Context, cmd PlanZoneWavesCommand) (*PlanResultDTO, error) {
	result, err := s.planner.PlanZoneWaves(cmd.WarehouseID, cmd.Orders)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	return s.persistPlan(ctx, cmd.WarehouseID, string(domain.StrategyZoneBased), result)
}

// PlanCarrierWaves batches a pool of orders by carrier cutoff and persists
// each one
func (s *WavePlanningService) PlanCarrierWaves(ctx context.Context, cmd PlanCarrierWavesCommand) (*PlanResultDTO, error) {
	result, err := s.planner.PlanCarrierWaves(cmd.WarehouseID, cmd.Orders, cmd.Cutoffs)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	return s.persistPlan(ctx, cmd.WarehouseID, string(domain.StrategyCarrierBased), result)
}

// PlanTimeWaves batches a pool of orders into fixed time windows and
// persists each one
func (s *WavePlanningService) PlanTimeWaves(ctx context.Context, cmd PlanTimeWavesCommand) (*PlanResultDTO, error) {
	result, err := s.planner.PlanTimeWaves(cmd.WarehouseID, cmd.Orders, cmd.Window)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	return s.persistPlan(ctx, cmd.WarehouseID, string(domain.StrategyTimeBased), result)
}

// OptimizeWave resequences a planned wave's pick order
func (s *WavePlanningService) OptimizeWave(ctx context.Context, cmd OptimizeWaveCommand) (*WaveDTO, error) {
	wave, err := s.findWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	if err := s.planner.OptimizeWave(wave, cmd.Orders, cmd.Criteria); err != nil {
		return nil, mapDomainError(err)
	}

	if err := s.repo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to optimize wave", "waveId", cmd.WaveID)
		return nil, s.mapRepositoryError(err, "failed to optimize wave")
	}

	s.logger.Info("Optimized wave", "waveId", cmd.WaveID,
		"estimatedPickers", wave.Metrics.EstimatedPickers)
	return ToWaveDTO(wave), nil
}

// GetOutboxStats reports the outbox backlog by status
func (s *WavePlanningService) GetOutboxStats(ctx context.Context) (*OutboxStatsDTO, error) {
	stats := &OutboxStatsDTO{}
	for _, entry := range []struct {
		status outbox.Status
		target *int64
	}{
		{outbox.StatusPending, &stats.Pending},
		{outbox.StatusPublished, &stats.Published},
		{outbox.StatusFailed, &stats.Failed},
	} {
		count, err := s.outboxRepo.CountByStatus(ctx, entry.status)
		if err != nil {
			s.logger.WithError(err).Error("Failed to count outbox events", "status", string(entry.status))
			return nil, fmt.Errorf("failed to count outbox events: %w", err)
		}
		*entry.target = count
	}
	return stats, nil
}

// persistPlan saves every wave a batching run produced and records the
// planning metrics. Waves that fail to save are reported as unwaved
// rather than failing the whole run.
func (s *WavePlanningService) persistPlan(ctx context.Context, warehouseID, strategy string, result *PlanResult) (*PlanResultDTO, error) {
	saved := make([]*domain.Wave, 0, len(result.Waves))
	unwaved := append([]string(nil), result.UnwavedOrders...)

	for _, wave := range result.Waves {
		if err := s.repo.Save(ctx, wave); err != nil {
			s.logger.WithError(err).Error("Failed to save planned wave",
				"waveId", wave.WaveID, "warehouseId", warehouseID)
			unwaved = append(unwaved, wave.OrderIDs...)
			continue
		}
		s.metrics.RecordWavePlanned(strategy, wave.OrderCount())
		saved = append(saved, wave)
	}

	if len(unwaved) > 0 {
		s.metrics.RecordOrdersUnwaved(strategy, len(unwaved))
	}

	s.logger.Info("Planned waves", "warehouseId", warehouseID, "strategy", strategy,
		"waves", len(saved), "unwavedOrders", len(unwaved))

	return ToPlanResultDTO(&PlanResult{Waves: saved, UnwavedOrders: unwaved}), nil
}

// findWave loads a wave, translating a miss into a not-found error.
func (s *WavePlanningService) findWave(ctx context.Context, waveID string) (*domain.Wave, error) {
	wave, err := s.repo.FindByID(ctx, waveID)
	if err != nil {
		if stderrors.Is(err, domain.ErrWaveNotFound) {
			return nil, errors.ErrNotFoundWithID("wave", waveID)
		}
		s.logger.WithError(err).Error("Failed to get wave", "waveId", waveID)
		return nil, fmt.Errorf("failed to get wave: %w", err)
	}
	if wave == nil {
		return nil, errors.ErrNotFoundWithID("wave", waveID)
	}
	return wave, nil
}

// mapRepositoryError translates persistence failures, surfacing
// optimistic-concurrency losses as conflicts.
func (s *WavePlanningService) mapRepositoryError(err error, message string) error {
	if stderrors.Is(err, domain.ErrVersionConflict) {
		return errors.ErrConflict("wave was modified concurrently, retry the operation")
	}
	return fmt.Errorf("%s: %w", message, err)
}

// mapDomainError translates domain rule violations into API errors:
// illegal lifecycle moves are state conflicts, everything else is a
// validation failure.
func mapDomainError(err error) error {
	var transition *domain.InvalidTransitionError
	if stderrors.As(err, &transition) {
		return errors.ErrStateConflict(transition.Error())
	}
	switch {
	case stderrors.Is(err, domain.ErrNotPlanned),
		stderrors.Is(err, domain.ErrWaveTerminal),
		stderrors.Is(err, domain.ErrInventoryNotAllocated),
		stderrors.Is(err, domain.ErrZoneNotAssigned):
		return errors.ErrStateConflict(err.Error())
	}
	return errors.ErrValidation(err.Error())
}
