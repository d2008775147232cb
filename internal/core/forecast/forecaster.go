package forecast

import (
	"math"
	"sort"
	"strings"
	"time"

	"grocery-planner/internal/core/normalize"
	"grocery-planner/internal/infrastructure/config"
	"grocery-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Forecaster 回購預測器
// 從各商品的購買時間線推算購買週期、估算剩餘供應天數並預測下次購買日。
// 純計算、無 I/O；相同輸入與 asOf 日期必得相同輸出
type Forecaster struct {
	minEvents   int
	horizonDays int
	rules       []categoryRule
}

// categoryRule 保存期限規則，關鍵字已先經過 Fold 處理
type categoryRule struct {
	name          string
	keywords      []string
	maxSupplyDays int
	supplyFactor  float64
}

// NewForecaster 創建回購預測器
// 分類規則依設定順序比對，第一個命中為準（fresh > dairy > household > 其他）
func NewForecaster(cfg config.ForecastConfig) *Forecaster {
	rules := make([]categoryRule, 0, len(cfg.Categories))
	for _, rc := range cfg.Categories {
		kws := make([]string, 0, len(rc.Keywords))
		for _, kw := range rc.Keywords {
			if folded := normalize.Fold(kw); folded != "" {
				kws = append(kws, folded)
			}
		}
		rules = append(rules, categoryRule{
			name:          rc.Name,
			keywords:      kws,
			maxSupplyDays: rc.MaxSupplyDays,
			supplyFactor:  rc.SupplyFactor,
		})
	}

	minEvents := cfg.MinEvents
	if minEvents < 2 {
		minEvents = 3
	}

	return &Forecaster{
		minEvents:   minEvents,
		horizonDays: cfg.LowStockHorizonDays,
		rules:       rules,
	}
}

// Forecast 對每條合格的時間線產生一筆預測
// 事件數不足 minEvents 的商品直接略過（新商品的常態，不是錯誤）。
// 平均間隔採等權算術平均：這個引擎不做漂移偵測，新舊間隔一視同仁
func (f *Forecaster) Forecast(timelines []common.ProductTimeline, asOf time.Time) []common.RecurringItemForecast {
	asOf = asOf.Truncate(24 * time.Hour)
	forecasts := make([]common.RecurringItemForecast, 0, len(timelines))

	for _, tl := range timelines {
		if len(tl.Events) < f.minEvents {
			continue
		}

		avgInterval := meanIntervalDays(tl.Events)
		typicalQty := meanQuantity(tl.Events)
		last := tl.Events[len(tl.Events)-1].OccurredOn

		supplyDays := f.estimateSupplyDays(tl.ProductKey, avgInterval)
		predicted := last.AddDate(0, 0, int(math.Round(avgInterval)))

		// 預測日已過（差值為負）一樣算低庫存：過期待購本身就是缺貨訊號
		daysUntil := wholeDaysBetween(asOf, predicted)
		lowStock := daysUntil <= f.horizonDays

		forecasts = append(forecasts, common.RecurringItemForecast{
			ProductKey:              tl.ProductKey,
			PurchaseCount:           len(tl.Events),
			AvgIntervalDays:         avgInterval,
			TypicalQuantity:         typicalQty,
			EstimatedSupplyDays:     supplyDays,
			LastPurchasedOn:         last,
			PredictedNextPurchaseOn: predicted,
			LowStock:                lowStock,
		})
	}

	// 輸出依 product_key 排序，確保重跑結果逐位元相同
	sort.Slice(forecasts, func(i, j int) bool {
		return forecasts[i].ProductKey < forecasts[j].ProductKey
	})

	common.LogDebug("回購預測完成",
		zap.Int("timelines", len(timelines)),
		zap.Int("forecasts", len(forecasts)),
	)

	return forecasts
}

// LowStock 過濾出低庫存的預測結果，順序維持不變
func (f *Forecaster) LowStock(forecasts []common.RecurringItemForecast) []common.RecurringItemForecast {
	out := make([]common.RecurringItemForecast, 0, len(forecasts))
	for _, fc := range forecasts {
		if fc.LowStock {
			out = append(out, fc)
		}
	}
	return out
}

// estimateSupplyDays 依商品分類估算供應天數
// 生鮮壓在 7 天內、乳製品 14 天內；日用品打 0.9 折，寧可早補也不要斷貨
func (f *Forecaster) estimateSupplyDays(productKey string, avgInterval float64) int {
	folded := normalize.Fold(productKey)
	for _, rule := range f.rules {
		if !matchesAny(folded, rule.keywords) {
			continue
		}
		if rule.maxSupplyDays > 0 {
			return int(math.Min(float64(rule.maxSupplyDays), avgInterval))
		}
		if rule.supplyFactor > 0 {
			return int(avgInterval * rule.supplyFactor)
		}
		return int(avgInterval)
	}
	return int(avgInterval)
}

func matchesAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// meanIntervalDays 相鄰購買日間隔的算術平均
// 同日事件在時間線建立階段已合併，間隔不會出現 0
func meanIntervalDays(events []common.PurchaseEvent) float64 {
	total := 0.0
	for i := 1; i < len(events); i++ {
		total += events[i].OccurredOn.Sub(events[i-1].OccurredOn).Hours() / 24
	}
	return total / float64(len(events)-1)
}

func meanQuantity(events []common.PurchaseEvent) float64 {
	total := 0.0
	for _, ev := range events {
		total += ev.Quantity
	}
	return total / float64(len(events))
}

// wholeDaysBetween 兩個日期之間的整天數（to 在 from 之前時為負數）
func wholeDaysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}
