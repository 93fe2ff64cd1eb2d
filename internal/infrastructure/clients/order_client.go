package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/paklog/wave-planning-service/internal/domain"
	"github.com/paklog/wave-planning-service/pkg/logging"
	"github.com/paklog/wave-planning-service/pkg/metrics"
	"github.com/paklog/wave-planning-service/pkg/resilience"
)

// ErrOrderNotFound is returned when order management does not know the order.
var ErrOrderNotFound = errors.New("order not found")

type orderDetailsResponse struct {
	OrderID string             `json:"orderId"`
	Items   []domain.OrderItem `json:"items"`
}

// OrderManagementClient fetches order details from the order-management
// service. Calls go through a circuit breaker and bounded retries so a
// struggling upstream does not stall wave releases. Implements
// domain.OrderService.
type OrderManagementClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.RetryConfig
	logger     *logging.Logger
}

// NewOrderManagementClient creates a new OrderManagementClient
func NewOrderManagementClient(baseURL string, logger *logging.Logger, m *metrics.Metrics) *OrderManagementClient {
	breaker := resilience.NewCircuitBreaker(
		resilience.DefaultCircuitBreakerConfig("order-management"),
		logger,
		m,
	)

	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = isRetryable

	return &OrderManagementClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: breaker,
		retry:   retry,
		logger:  logger,
	}
}

// GetOrderDetails fetches a single order's items from order management.
func (c *OrderManagementClient) GetOrderDetails(ctx context.Context, orderID string) (*domain.OrderDetails, error) {
	details, err := resilience.RetryWithResult(ctx, c.retry, func() (*domain.OrderDetails, error) {
		result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
			return c.fetchOrder(ctx, orderID)
		})
		if err != nil {
			return nil, err
		}
		return result.(*domain.OrderDetails), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return details, nil
}

// BreakerStatus exposes the circuit breaker state for readiness reporting.
func (c *OrderManagementClient) BreakerStatus() resilience.CircuitBreakerStatus {
	return c.breaker.Status()
}

func (c *OrderManagementClient) fetchOrder(ctx context.Context, orderID string) (*domain.OrderDetails, error) {
	url := fmt.Sprintf("%s/api/v1/fulfillment-orders/%s", c.baseURL, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	case resp.StatusCode != http.StatusOK:
		return nil, &upstreamError{status: resp.StatusCode}
	}

	var body orderDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	return &domain.OrderDetails{
		OrderID: body.OrderID,
		Items:   body.Items,
	}, nil
}

// upstreamError marks a non-2xx response so the retry helper can tell
// transient server errors from permanent client errors.
type upstreamError struct {
	status int
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("order management returned status %d", e.status)
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrOrderNotFound) || errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	var upstream *upstreamError
	if errors.As(err, &upstream) {
		return upstream.status >= http.StatusInternalServerError
	}
	// Transport-level failures (refused connections, timeouts) are
	// worth another attempt.
	return true
}
