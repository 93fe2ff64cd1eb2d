package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paklog/wave-planning-service/internal/domain"
)

func TestReleaseScheduler_StartStop(t *testing.T) {
	t.Run("start and stop", func(t *testing.T) {
		service := newTestService(new(MockWaveRepository), new(MockOutboxRepository), new(MockOrderService))
		scheduler := NewReleaseScheduler(service, ReleaseSchedulerConfig{CheckInterval: time.Hour}, service.logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, scheduler.Start(ctx))
		assert.True(t, scheduler.IsRunning())

		scheduler.Stop()
		assert.False(t, scheduler.IsRunning())
	})

	t.Run("double start is rejected", func(t *testing.T) {
		service := newTestService(new(MockWaveRepository), new(MockOutboxRepository), new(MockOrderService))
		scheduler := NewReleaseScheduler(service, ReleaseSchedulerConfig{CheckInterval: time.Hour}, service.logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		require.NoError(t, scheduler.Start(ctx))
		defer scheduler.Stop()

		err := scheduler.Start(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already running")
	})

	t.Run("stop when not running is a no-op", func(t *testing.T) {
		service := newTestService(new(MockWaveRepository), new(MockOutboxRepository), new(MockOrderService))
		scheduler := NewReleaseScheduler(service, DefaultReleaseSchedulerConfig(), service.logger)

		scheduler.Stop()
		assert.False(t, scheduler.IsRunning())
	})
}

func TestReleaseScheduler_ReleasesDueWaves(t *testing.T) {
	t.Run("releases every due wave", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		mockOrders := new(MockOrderService)
		service := newTestService(mockRepo, new(MockOutboxRepository), mockOrders)
		scheduler := NewReleaseScheduler(service, DefaultReleaseSchedulerConfig(), service.logger)

		due := releasableWave(t, "ORD-001")
		mockRepo.On("FindReadyToRelease", mock.Anything, mock.AnythingOfType("time.Time")).Return([]*domain.Wave{due}, nil)
		mockRepo.On("FindByID", mock.Anything, due.WaveID).Return(due, nil)
		mockRepo.On("Save", mock.Anything, due).Return(nil)
		mockOrders.On("GetOrderDetails", mock.Anything, "ORD-001").Return(&domain.OrderDetails{
			OrderID: "ORD-001",
			Items:   []domain.OrderItem{{SellerSKU: "SKU-A", Quantity: 1}},
		}, nil)

		scheduler.releaseDueWaves(context.Background())

		assert.Equal(t, domain.WaveStatusReleased, due.Status)
		mockRepo.AssertCalled(t, "Save", mock.Anything, due)
	})

	t.Run("one failing wave does not block the rest", func(t *testing.T) {
		mockRepo := new(MockWaveRepository)
		mockOrders := new(MockOrderService)
		service := newTestService(mockRepo, new(MockOutboxRepository), mockOrders)
		scheduler := NewReleaseScheduler(service, DefaultReleaseSchedulerConfig(), service.logger)

		// First wave lost its inventory allocation since it was queried.
		stuck := plannedWave(t, "ORD-001")
		require.NoError(t, stuck.AssignZone("ZONE-A"))
		healthy := releasableWave(t, "ORD-002")

		mockRepo.On("FindReadyToRelease", mock.Anything, mock.AnythingOfType("time.Time")).
			Return([]*domain.Wave{stuck, healthy}, nil)
		mockRepo.On("FindByID", mock.Anything, stuck.WaveID).Return(stuck, nil)
		mockRepo.On("FindByID", mock.Anything, healthy.WaveID).Return(healthy, nil)
		mockRepo.On("Save", mock.Anything, healthy).Return(nil)
		mockOrders.On("GetOrderDetails", mock.Anything, mock.AnythingOfType("string")).Return(&domain.OrderDetails{
			Items: []domain.OrderItem{{SellerSKU: "SKU-A", Quantity: 1}},
		}, nil)

		scheduler.releaseDueWaves(context.Background())

		assert.Equal(t, domain.WaveStatusPlanned, stuck.Status)
		assert.Equal(t, domain.WaveStatusReleased, healthy.Status)
	})
}
