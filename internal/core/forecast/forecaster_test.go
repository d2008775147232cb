package forecast

import (
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

func newTestForecaster(t *testing.T) *Forecaster {
	t.Helper()
	return NewForecaster(config.ForecastConfig{
		MinEvents:           3,
		LowStockHorizonDays: 3,
		Categories:          config.DefaultCategoryRules(),
	})
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(common.DateLayout, s)
	require.NoError(t, err)
	return d
}

func timeline(t *testing.T, key string, dates ...string) common.ProductTimeline {
	t.Helper()
	events := make([]common.PurchaseEvent, len(dates))
	for i, ds := range dates {
		events[i] = common.PurchaseEvent{
			ProductKey: key,
			OccurredOn: mustDate(t, ds),
			Quantity:   1,
		}
	}
	return common.ProductTimeline{ProductKey: key, Events: events}
}

func TestForecastWeeklyFreshItem(t *testing.T) {
	f := newTestForecaster(t)
	timelines := []common.ProductTimeline{
		timeline(t, "melk", "2025-12-01", "2025-12-08", "2025-12-15"),
	}

	forecasts := f.Forecast(timelines, mustDate(t, "2025-12-21"))
	require.Len(t, forecasts, 1)

	fc := forecasts[0]
	assert.Equal(t, "melk", fc.ProductKey)
	assert.Equal(t, 3, fc.PurchaseCount)
	assert.Equal(t, 7.0, fc.AvgIntervalDays)
	assert.Equal(t, 7, fc.EstimatedSupplyDays, "生鮮供應天數以 7 為上限")
	assert.Equal(t, mustDate(t, "2025-12-15"), fc.LastPurchasedOn)
	assert.Equal(t, mustDate(t, "2025-12-22"), fc.PredictedNextPurchaseOn)
	assert.True(t, fc.LowStock, "預測日在 horizon 內要標記低庫存")
}

func TestForecastNotLowStockOutsideHorizon(t *testing.T) {
	f := newTestForecaster(t)
	timelines := []common.ProductTimeline{
		timeline(t, "melk", "2025-12-01", "2025-12-08", "2025-12-15"),
	}

	forecasts := f.Forecast(timelines, mustDate(t, "2025-12-10"))
	require.Len(t, forecasts, 1)
	assert.False(t, forecasts[0].LowStock)
}

func TestForecastOverdueIsLowStock(t *testing.T) {
	f := newTestForecaster(t)
	timelines := []common.ProductTimeline{
		timeline(t, "kaffe", "2025-10-18", "2025-10-25", "2025-11-01"),
	}

	// 預測日 2025-11-08 早已過去：過期待購也是缺貨訊號
	forecasts := f.Forecast(timelines, mustDate(t, "2025-12-01"))
	require.Len(t, forecasts, 1)
	assert.True(t, forecasts[0].LowStock)
}

func TestForecastSkipsSparseTimelines(t *testing.T) {
	f := newTestForecaster(t)
	timelines := []common.ProductTimeline{
		timeline(t, "melk", "2025-12-01", "2025-12-08", "2025-12-15"),
		timeline(t, "vaniljesaus", "2025-12-01", "2025-12-20"),
		timeline(t, "safran", "2025-12-05"),
	}

	forecasts := f.Forecast(timelines, mustDate(t, "2025-12-21"))
	require.Len(t, forecasts, 1, "事件數不足的商品不產生預測")
	assert.Equal(t, "melk", forecasts[0].ProductKey)
}

func TestEstimateSupplyDaysByCategory(t *testing.T) {
	f := newTestForecaster(t)

	tests := []struct {
		name  string
		key   string
		dates []string
		want  int
	}{
		// 乳製品間隔 20 天，上限 14
		{"dairy capped", "yoghurt naturell", []string{"2025-10-01", "2025-10-21", "2025-11-10"}, 14},
		// 日用品間隔 30 天，打 0.9 折
		{"household discounted", "sape", []string{"2025-09-01", "2025-10-01", "2025-10-31"}, 27},
		// 未分類商品直接用平均間隔
		{"uncategorized", "kaffe", []string{"2025-10-01", "2025-10-11", "2025-10-21"}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecasts := f.Forecast(
				[]common.ProductTimeline{timeline(t, tt.key, tt.dates...)},
				mustDate(t, "2025-12-01"),
			)
			require.Len(t, forecasts, 1)
			assert.Equal(t, tt.want, forecasts[0].EstimatedSupplyDays)
		})
	}
}

func TestForecastDeterministic(t *testing.T) {
	f := newTestForecaster(t)
	timelines := []common.ProductTimeline{
		timeline(t, "melk", "2025-12-01", "2025-12-08", "2025-12-15"),
		timeline(t, "brod", "2025-12-02", "2025-12-06", "2025-12-10"),
		timeline(t, "sape", "2025-09-01", "2025-10-01", "2025-10-31"),
	}
	asOf := mustDate(t, "2025-12-21")

	first := f.Forecast(timelines, asOf)
	second := f.Forecast(timelines, asOf)
	assert.Equal(t, first, second)

	// 輸出依 product_key 排序
	require.Len(t, first, 3)
	assert.Equal(t, "brod", first[0].ProductKey)
	assert.Equal(t, "melk", first[1].ProductKey)
	assert.Equal(t, "sape", first[2].ProductKey)
}

func TestLowStockFilter(t *testing.T) {
	f := newTestForecaster(t)
	timelines := []common.ProductTimeline{
		timeline(t, "melk", "2025-12-01", "2025-12-08", "2025-12-15"),
		timeline(t, "sape", "2025-09-01", "2025-10-01", "2025-10-31"),
	}

	// melk 預測日 12-22 還有 12 天，sape 早已過期
	all := f.Forecast(timelines, mustDate(t, "2025-12-10"))
	low := f.LowStock(all)

	require.Len(t, all, 2)
	require.Len(t, low, 1)
	assert.Equal(t, "sape", low[0].ProductKey)
	assert.True(t, low[0].LowStock)
}
