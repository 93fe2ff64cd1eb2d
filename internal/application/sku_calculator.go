package application

import (
	"context"

	"github.com/paklog/wave-planning-service/internal/domain"
	"github.com/paklog/wave-planning-service/pkg/logging"
)

// SKUCalculator aggregates SKU demand across a wave's orders by looking
// each order up in order management.
type SKUCalculator struct {
	orders domain.OrderService
	logger *logging.Logger
}

// NewSKUCalculator creates a SKUCalculator.
func NewSKUCalculator(orders domain.OrderService, logger *logging.Logger) *SKUCalculator {
	return &SKUCalculator{
		orders: orders,
		logger: logger,
	}
}

// Calculate returns the total quantity per SKU across the wave's orders.
// A lookup failure does not block the release: the calculator logs a
// warning and returns an empty map, and allocation reconciles downstream.
func (c *SKUCalculator) Calculate(ctx context.Context, wave *domain.Wave) map[string]int {
	quantities := make(map[string]int)
	for _, orderID := range wave.OrderIDs {
		details, err := c.orders.GetOrderDetails(ctx, orderID)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to fetch order details for SKU aggregation",
				"waveId", wave.WaveID, "orderId", orderID)
			return map[string]int{}
		}
		for _, item := range details.Items {
			quantities[item.SellerSKU] += item.Quantity
		}
	}
	return quantities
}
