package domain

import (
	"context"
	"errors"
	"time"
)

// ErrWaveNotFound is returned when a wave id resolves to nothing.
var ErrWaveNotFound = errors.New("wave not found")

// ErrVersionConflict is returned when a save loses an optimistic
// concurrency race.
var ErrVersionConflict = errors.New("wave was modified concurrently")

// WaveRepository persists wave aggregates. Save is transactional: the
// wave document and its pending domain events are written atomically,
// and the events are cleared only on success.
type WaveRepository interface {
	Save(ctx context.Context, wave *Wave) error
	FindByID(ctx context.Context, waveID string) (*Wave, error)
	FindByStatus(ctx context.Context, status WaveStatus) ([]*Wave, error)
	FindByWarehouseID(ctx context.Context, warehouseID string) ([]*Wave, error)
	FindByWarehouseAndStatus(ctx context.Context, warehouseID string, status WaveStatus) ([]*Wave, error)
	FindReadyToRelease(ctx context.Context, now time.Time) ([]*Wave, error)
	FindByAssignedZone(ctx context.Context, zone string) ([]*Wave, error)
	FindActiveWaves(ctx context.Context) ([]*Wave, error)
	FindByOrderID(ctx context.Context, orderID string) ([]*Wave, error)
	FindCreatedAfter(ctx context.Context, after time.Time) ([]*Wave, error)
	CountByStatus(ctx context.Context) (map[WaveStatus]int64, error)
}

// OrderDetails is what order management exposes about a single order.
type OrderDetails struct {
	OrderID string
	Items   []OrderItem
}

// OrderItem is one line of an order as reported by order management.
type OrderItem struct {
	SellerSKU string `json:"sellerSku"`
	Quantity  int    `json:"quantity"`
}

// OrderService looks up order details from order management.
type OrderService interface {
	GetOrderDetails(ctx context.Context, orderID string) (*OrderDetails, error)
}
