package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"grocery-planner/internal/infrastructure/config"
	"grocery-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.KassalConfig{
		Enabled: true,
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

func TestSearchPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "melk", r.URL.Query().Get("search"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": 1, "name": "Tine Helmelk", "current_price": 21.9, "url": "https://example.test/1", "store": {"name": "Meny"}},
				{"id": 2, "name": "Melk uten pris", "current_price": 0}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	prices, err := client.SearchPrices(context.Background(), "melk", 5)
	require.NoError(t, err)

	// 沒有價格的商品要被濾掉
	require.Len(t, prices, 1)
	assert.Equal(t, "melk", prices[0].ProductKey)
	assert.Equal(t, "Tine Helmelk", prices[0].Name)
	assert.Equal(t, "Meny", prices[0].Store)
	assert.Equal(t, 21.9, prices[0].CurrentPrice)
}

func TestSearchPricesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SearchPrices(context.Background(), "melk", 5)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodePriceLookupFailed, common.ErrorCode(err))
}

func TestSearchPricesDisabled(t *testing.T) {
	client := NewClient(config.KassalConfig{Enabled: false})
	assert.False(t, client.Enabled())

	_, err := client.SearchPrices(context.Background(), "melk", 5)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodePriceLookupFailed, common.ErrorCode(err))
}

func TestPricesByEAN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/ean/7038010001642", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": 1, "name": "Tine Helmelk", "current_price": 21.9, "store": {"name": "Meny"}},
				{"id": 1, "name": "Tine Helmelk", "current_price": 23.4, "store": {"name": "Joker"}}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	prices, err := client.PricesByEAN(context.Background(), "7038010001642")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "Meny", prices[0].Store)
	assert.Equal(t, "Joker", prices[1].Store)
}
