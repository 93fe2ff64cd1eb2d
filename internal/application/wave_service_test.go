package application

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paklog/wave-planning-service/pkg/errors"
	"github.com/paklog/wave-planning-service/pkg/logging"
	"github.com/paklog/wave-planning-service/pkg/metrics"
	"github.com/paklog/wave-planning-service/pkg/outbox"

	"github.com/paklog/wave-planning-service/internal/domain"
)

type MockWaveRepository struct {
	mock.Mock
}

func (m *MockWaveRepository) Save(ctx context.Context, wave *domain.Wave) error {
	args := m.Called(ctx, wave)
	return args.Error(0)
}

func (m *MockWaveRepository) FindByID(ctx context.Context, waveID string) (*domain.Wave, error) {
	args := m.Called(ctx, waveID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wave), args.Error(1)
}

func (m *MockWaveRepository) FindByStatus(ctx context.Context, status domain.WaveStatus) ([]*domain.Wave, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wave), args.Error(1)
}

func (m *MockWaveRepository) FindByWarehouseID(ctx context.Context, warehouseID string) ([]*domain.Wave, error) {
	args := m.Called(ctx, warehouseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wave), args.Error(1)
}

func (m *MockWaveRepository) FindByWarehouseAndStatus(ctx context.Context, warehouseID string, status domain.WaveStatus) ([]*domain.Wave, error) {
	args := m.Called(ctx, warehouseID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wave), args.Error(1)
}

func (m *MockWaveRepository) FindReadyToRelease(ctx context.Context, now time.Time) ([]*domain.Wave, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wave), args.Error(1)
}

func (m *MockWaveRepository) FindByAssignedZone(ctx context.Context, zone string) ([]*domain.Wave, error) {
	args := m.Called(ctx, zone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wave), args.Error(1)
}

func (m *MockWaveRepository) FindActiveWaves(ctx context.Context) ([]*domain.Wave, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wave), args.Error(1)
}

func (m *MockWaveRepository) FindByOrderID(ctx context.Context, orderID string) ([]*domain.Wave, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wave), args.Error(1)
}

func (m *MockWaveRepository) FindCreatedAfter(ctx context.Context, after time.Time) ([]*domain.Wave, error) {
	args := m.Called(ctx, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Wave), args.Error(1)
}

func (m *MockWaveRepository) CountByStatus(ctx context.Context) (map[domain.WaveStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.WaveStatus]int64), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrderDetails(ctx context.Context, orderID string) (*domain.OrderDetails, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderDetails), args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Save(ctx context.Context, event *outbox.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxRepository) SaveAll(ctx context.Context, events []*outbox.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockOutboxRepository) FindPending(ctx context.Context, limit int) ([]*outbox.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Event), args.Error(1)
}

func (m *MockOutboxRepository) FindFailedForRetry(ctx context.Context, maxRetries, limit int) ([]*outbox.Event, error) {
	args := m.Called(ctx, maxRetries, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Event), args.Error(1)
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, eventID string, errorMsg string) error {
	args := m.Called(ctx, eventID, errorMsg)
	return args.Error(0)
}

func (m *MockOutboxRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) CountByStatus(ctx context.Context, status outbox.Status) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) FindByAggregateID(ctx context.Context, aggregateID string) ([]*outbox.Event, error) {
	args := m.Called(ctx, aggregateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Event), args.Error(1)
}

func (m *MockOutboxRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestService(repo *MockWaveRepository, outboxRepo *MockOutboxRepository, orders *MockOrderService) *WavePlanningService {
	logger := logging.New(&logging.Config{
		Level:       logging.LevelError,
		ServiceName: "wave-planning-test",
		Output:      io.Discard,
	})
	m := metrics.New(metrics.DefaultConfig("wave-planning-test"))
	planner := NewWavePlanner(DefaultPlannerConfig())
	skuCalc := NewSKUCalculator(orders, logger)
	return NewWavePlanningService(repo, planner, skuCalc, outboxRepo, logger, m)
}

func plannedWave(t *testing.T, orderIDs ...string) *domain.Wave {
	t.Helper()
	if len(orderIDs) == 0 {
		orderIDs = []string{"ORD-001", "ORD-002"}
	}
	wave, err := domain.NewWave(orderIDs, domain.DefaultStrategy(), "WH-001", domain.PriorityNormal)
	require.NoError(t, err)
	wave.ClearDomainEvents()
	return wave
}

func releasableWave(t *testing.T, orderIDs ...string) *domain.Wave {
	t.Helper()
	wave := plannedWave(t, orderIDs...)
	require.NoError(t, wave.AssignZone("ZONE-A"))
	require.NoError(t, wave.MarkInventoryAllocated())
	return wave
}

func TestWavePlanningService_PlanWave(t *testing.T) {
	t.Run("plans and persists a wave", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Wave")).Return(nil)

		releaseAt := time.Now().Add(time.Hour)
		dto, err := service.PlanWave(context.Background(), PlanWaveCommand{
			WarehouseID:        "WH-001",
			OrderIDs:           []string{"ORD-001", "ORD-002", "ORD-003"},
			StrategyType:       string(domain.StrategyCapacityBased),
			MaxOrders:          50,
			Priority:           string(domain.PriorityHigh),
			PlannedReleaseTime: &releaseAt,
		})

		require.NoError(t, err)
		assert.Equal(t, string(domain.WaveStatusPlanned), dto.Status)
		assert.Equal(t, "WH-001", dto.WarehouseID)
		assert.Equal(t, 3, dto.OrderCount)
		assert.NotNil(t, dto.PlannedReleaseTime)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects an unknown strategy type", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		_, err := service.PlanWave(context.Background(), PlanWaveCommand{
			WarehouseID:  "WH-001",
			OrderIDs:     []string{"ORD-001"},
			StrategyType: "GUESSWORK",
		})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
		mockRepo.AssertNotCalled(t, "Save")
	})

	t.Run("rejects an empty order list", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		_, err := service.PlanWave(context.Background(), PlanWaveCommand{
			WarehouseID:  "WH-001",
			StrategyType: string(domain.StrategyCapacityBased),
		})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	})
}

func TestWavePlanningService_GetWave(t *testing.T) {
	t.Run("returns the wave", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		wave := plannedWave(t)
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)

		dto, err := service.GetWave(context.Background(), GetWaveQuery{WaveID: wave.WaveID})

		require.NoError(t, err)
		assert.Equal(t, wave.WaveID, dto.WaveID)
	})

	t.Run("translates a miss into not found", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		mockRepo.On("FindByID", mock.Anything, "WAVE-MISSING").Return(nil, domain.ErrWaveNotFound)

		_, err := service.GetWave(context.Background(), GetWaveQuery{WaveID: "WAVE-MISSING"})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
	})
}

func TestWavePlanningService_ListWaves(t *testing.T) {
	t.Run("filters by warehouse and status", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		waves := []*domain.Wave{plannedWave(t)}
		mockRepo.On("FindByWarehouseAndStatus", mock.Anything, "WH-001", domain.WaveStatusPlanned).Return(waves, nil)

		dtos, err := service.ListWaves(context.Background(), ListWavesQuery{
			WarehouseID: "WH-001",
			Status:      string(domain.WaveStatusPlanned),
		})

		require.NoError(t, err)
		assert.Len(t, dtos, 1)
	})

	t.Run("defaults to active waves", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		mockRepo.On("FindActiveWaves", mock.Anything).Return([]*domain.Wave{}, nil)

		dtos, err := service.ListWaves(context.Background(), ListWavesQuery{})

		require.NoError(t, err)
		assert.Empty(t, dtos)
		mockRepo.AssertCalled(t, "FindActiveWaves", mock.Anything)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		_, err := service.ListWaves(context.Background(), ListWavesQuery{Status: "DAYDREAMING"})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	})
}

func TestWavePlanningService_ReleaseWave(t *testing.T) {
	t.Run("aggregates SKUs and releases", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		mockOrders := new(MockOrderService)
		service := newTestService(mockRepo, new(MockOutboxRepository), mockOrders)

		wave := releasableWave(t, "ORD-001", "ORD-002")
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)
		mockRepo.On("Save", mock.Anything, wave).Return(nil)
		mockOrders.On("GetOrderDetails", mock.Anything, "ORD-001").Return(&domain.OrderDetails{
			OrderID: "ORD-001",
			Items:   []domain.OrderItem{{SellerSKU: "SKU-A", Quantity: 2}},
		}, nil)
		mockOrders.On("GetOrderDetails", mock.Anything, "ORD-002").Return(&domain.OrderDetails{
			OrderID: "ORD-002",
			Items:   []domain.OrderItem{{SellerSKU: "SKU-A", Quantity: 1}, {SellerSKU: "SKU-B", Quantity: 4}},
		}, nil)

		dto, err := service.ReleaseWave(context.Background(), ReleaseWaveCommand{WaveID: wave.WaveID})

		require.NoError(t, err)
		assert.Equal(t, string(domain.WaveStatusReleased), dto.Status)
		assert.NotNil(t, dto.ActualReleaseTime)

		var allocation *domain.InventoryAllocationRequestedEvent
		for _, event := range wave.GetDomainEvents() {
			if e, ok := event.(*domain.InventoryAllocationRequestedEvent); ok {
				allocation = e
			}
		}
		require.NotNil(t, allocation)
		assert.Equal(t, map[string]int{"SKU-A": 3, "SKU-B": 4}, allocation.SKUQuantities)
	})

	t.Run("releases with empty demand when order lookup fails", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		mockOrders := new(MockOrderService)
		service := newTestService(mockRepo, new(MockOutboxRepository), mockOrders)

		wave := releasableWave(t, "ORD-001")
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)
		mockRepo.On("Save", mock.Anything, wave).Return(nil)
		mockOrders.On("GetOrderDetails", mock.Anything, "ORD-001").Return(nil, errors.New("order management is down"))

		dto, err := service.ReleaseWave(context.Background(), ReleaseWaveCommand{WaveID: wave.WaveID})

		require.NoError(t, err)
		assert.Equal(t, string(domain.WaveStatusReleased), dto.Status)
	})

	t.Run("refuses to release without allocated inventory", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		wave := plannedWave(t)
		require.NoError(t, wave.AssignZone("ZONE-A"))
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)

		_, err := service.ReleaseWave(context.Background(), ReleaseWaveCommand{WaveID: wave.WaveID})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeStateConflict, appErr.Code)
		mockRepo.AssertNotCalled(t, "Save")
	})

	t.Run("surfaces a concurrent modification as a conflict", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		mockOrders := new(MockOrderService)
		service := newTestService(mockRepo, new(MockOutboxRepository), mockOrders)

		wave := releasableWave(t, "ORD-001")
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)
		mockRepo.On("Save", mock.Anything, wave).Return(domain.ErrVersionConflict)
		mockOrders.On("GetOrderDetails", mock.Anything, "ORD-001").Return(&domain.OrderDetails{
			OrderID: "ORD-001",
			Items:   []domain.OrderItem{{SellerSKU: "SKU-A", Quantity: 1}},
		}, nil)

		_, err := service.ReleaseWave(context.Background(), ReleaseWaveCommand{WaveID: wave.WaveID})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	})
}

func TestWavePlanningService_Lifecycle(t *testing.T) {
	t.Run("start complete flow", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		mockOrders := new(MockOrderService)
		service := newTestService(mockRepo, new(MockOutboxRepository), mockOrders)

		wave := releasableWave(t, "ORD-001")
		require.NoError(t, wave.Release(map[string]int{"SKU-A": 1}))
		wave.ClearDomainEvents()

		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)
		mockRepo.On("Save", mock.Anything, wave).Return(nil)

		started, err := service.StartWave(context.Background(), StartWaveCommand{WaveID: wave.WaveID})
		require.NoError(t, err)
		assert.Equal(t, string(domain.WaveStatusInProgress), started.Status)

		completed, err := service.CompleteWave(context.Background(), CompleteWaveCommand{WaveID: wave.WaveID})
		require.NoError(t, err)
		assert.Equal(t, string(domain.WaveStatusCompleted), completed.Status)
		assert.NotNil(t, completed.ActualCompletion)
	})

	t.Run("cannot complete a planned wave", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		wave := plannedWave(t)
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)

		_, err := service.CompleteWave(context.Background(), CompleteWaveCommand{WaveID: wave.WaveID})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeStateConflict, appErr.Code)
	})

	t.Run("cancel requires a reason", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		wave := plannedWave(t)
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)

		_, err := service.CancelWave(context.Background(), CancelWaveCommand{WaveID: wave.WaveID})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	})

	t.Run("cancel records the reason", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		wave := plannedWave(t)
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)
		mockRepo.On("Save", mock.Anything, wave).Return(nil)

		dto, err := service.CancelWave(context.Background(), CancelWaveCommand{
			WaveID: wave.WaveID,
			Reason: "carrier cutoff missed",
		})

		require.NoError(t, err)
		assert.Equal(t, string(domain.WaveStatusCancelled), dto.Status)
	})
}

func TestWavePlanningService_OrderMembership(t *testing.T) {
	t.Run("add and remove orders", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		wave := plannedWave(t, "ORD-001", "ORD-002")
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)
		mockRepo.On("Save", mock.Anything, wave).Return(nil)

		dto, err := service.AddOrders(context.Background(), AddOrdersCommand{
			WaveID:   wave.WaveID,
			OrderIDs: []string{"ORD-003"},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, dto.OrderCount)

		dto, err = service.RemoveOrders(context.Background(), RemoveOrdersCommand{
			WaveID:   wave.WaveID,
			OrderIDs: []string{"ORD-001"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, dto.OrderCount)
		assert.NotContains(t, dto.OrderIDs, "ORD-001")
	})

	t.Run("reorder must be a permutation", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		wave := plannedWave(t, "ORD-001", "ORD-002")
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)

		_, err := service.ReorderOrders(context.Background(), ReorderOrdersCommand{
			WaveID:   wave.WaveID,
			OrderIDs: []string{"ORD-001", "ORD-999"},
		})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	})

	t.Run("membership changes are rejected after release", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		wave := releasableWave(t, "ORD-001")
		require.NoError(t, wave.Release(nil))
		mockRepo.On("FindByID", mock.Anything, wave.WaveID).Return(wave, nil)

		_, err := service.AddOrders(context.Background(), AddOrdersCommand{
			WaveID:   wave.WaveID,
			OrderIDs: []string{"ORD-002"},
		})

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeStateConflict, appErr.Code)
	})
}

func TestWavePlanningService_PlanCapacityWaves(t *testing.T) {
	t.Run("persists every planned wave", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Wave")).Return(nil)

		orders := make([]domain.Order, 0, 10)
		for i := 0; i < 10; i++ {
			orders = append(orders, domain.Order{
				OrderID:      newOrderID(i),
				Priority:     domain.PriorityNormal,
				RequiredDate: time.Now().Add(24 * time.Hour),
				Lines:        []domain.OrderLine{{SKU: "SKU-A", Quantity: 1}},
			})
		}

		result, err := service.PlanCapacityWaves(context.Background(), PlanCapacityWavesCommand{
			WarehouseID: "WH-001",
			Orders:      orders,
		})

		require.NoError(t, err)
		require.Len(t, result.Waves, 1)
		assert.Equal(t, 10, result.Waves[0].OrderCount)
		assert.Empty(t, result.UnwavedOrders)
		mockRepo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("reports orders from unsaveable waves as unwaved", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		service := newTestService(mockRepo, new(MockOutboxRepository), new(MockOrderService))

		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Wave")).Return(errors.New("mongo is down"))

		orders := make([]domain.Order, 0, 10)
		for i := 0; i < 10; i++ {
			orders = append(orders, domain.Order{
				OrderID:      newOrderID(i),
				Priority:     domain.PriorityNormal,
				RequiredDate: time.Now().Add(24 * time.Hour),
				Lines:        []domain.OrderLine{{SKU: "SKU-A", Quantity: 1}},
			})
		}

		result, err := service.PlanCapacityWaves(context.Background(), PlanCapacityWavesCommand{
			WarehouseID: "WH-001",
			Orders:      orders,
		})

		require.NoError(t, err)
		assert.Empty(t, result.Waves)
		assert.Len(t, result.UnwavedOrders, 10)
	})
}

func TestWavePlanningService_GetOutboxStats(t *testing.T) {
	mockOutbox := new(MockOutboxRepository)
	service := newTestService(new(MockWaveRepository), mockOutbox, new(MockOrderService))

	mockOutbox.On("CountByStatus", mock.Anything, outbox.StatusPending).Return(int64(7), nil)
	mockOutbox.On("CountByStatus", mock.Anything, outbox.StatusPublished).Return(int64(420), nil)
	mockOutbox.On("CountByStatus", mock.Anything, outbox.StatusFailed).Return(int64(2), nil)

	stats, err := service.GetOutboxStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.Pending)
	assert.Equal(t, int64(420), stats.Published)
	assert.Equal(t, int64(2), stats.Failed)
}

func newOrderID(i int) string {
	return "ORD-" + string(rune('A'+i))
}
