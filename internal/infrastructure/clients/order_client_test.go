package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paklog/wave-planning-service/pkg/logging"
	"github.com/paklog/wave-planning-service/pkg/metrics"
	"github.com/paklog/wave-planning-service/pkg/resilience"
)

func newTestClient(baseURL string) *OrderManagementClient {
	logger := logging.New(&logging.Config{
		Level:       logging.LevelError,
		ServiceName: "order-client-test",
		Output:      io.Discard,
	})
	client := NewOrderManagementClient(baseURL, logger, metrics.New(metrics.DefaultConfig("order-client-test")))
	client.retry.InitialDelay = 0
	return client
}

func TestOrderManagementClient_GetOrderDetails(t *testing.T) {
	t.Run("successfully fetches order details", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/v1/fulfillment-orders/ORD-001", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"orderId": "ORD-001",
				"items": [
					{"sellerSku": "SKU-A", "quantity": 2},
					{"sellerSku": "SKU-B", "quantity": 1}
				]
			}`))
		}))
		defer server.Close()

		details, err := newTestClient(server.URL).GetOrderDetails(context.Background(), "ORD-001")

		require.NoError(t, err)
		assert.Equal(t, "ORD-001", details.OrderID)
		require.Len(t, details.Items, 2)
		assert.Equal(t, "SKU-A", details.Items[0].SellerSKU)
		assert.Equal(t, 2, details.Items[0].Quantity)
	})

	t.Run("missing order is not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetOrderDetails(context.Background(), "ORD-404")

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("server errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"orderId": "ORD-001", "items": []}`))
		}))
		defer server.Close()

		details, err := newTestClient(server.URL).GetOrderDetails(context.Background(), "ORD-001")

		require.NoError(t, err)
		assert.Equal(t, "ORD-001", details.OrderID)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetOrderDetails(context.Background(), "ORD-001")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries")
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("breaker opens after repeated failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		// Five consecutive failures trip the breaker.
		for i := 0; i < 2; i++ {
			_, err := client.GetOrderDetails(context.Background(), "ORD-001")
			require.Error(t, err)
		}

		_, err := client.GetOrderDetails(context.Background(), "ORD-001")
		require.Error(t, err)
		assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	})
}
