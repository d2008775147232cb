package forecast

import (
	"net/http"
	"time"

	"grocery-planner/internal/core/cache"
	forecastCore "grocery-planner/internal/core/forecast"
	"grocery-planner/internal/core/normalize"
	"grocery-planner/internal/core/pricing"
	"grocery-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// purchaseRecord 請求中的單筆購買紀錄
// 欄位不做 binding 驗證：單筆不合法要跳過並計數，不能讓整批失敗
type purchaseRecord struct {
	ProductName string  `json:"product_name"`
	OccurredOn  string  `json:"occurred_on"` // YYYY-MM-DD
	Quantity    float64 `json:"quantity"`
}

// forecastRequest 回購預測請求
// as_of_date 一律由呼叫端提供，引擎不讀系統時鐘，預測才可重現
type forecastRequest struct {
	AsOfDate      string           `json:"as_of_date" binding:"required"`
	Records       []purchaseRecord `json:"records" binding:"required"`
	IncludePrices bool             `json:"include_prices,omitempty"` // 僅 restock 端點使用
}

// forecastItem 回應中的單筆預測（日期轉成 YYYY-MM-DD）
type forecastItem struct {
	ProductKey              string                `json:"product_key"`
	PurchaseCount           int                   `json:"purchase_count"`
	AvgIntervalDays         float64               `json:"avg_interval_days"`
	TypicalQuantity         float64               `json:"typical_quantity"`
	EstimatedSupplyDays     int                   `json:"estimated_supply_days"`
	LastPurchasedOn         string                `json:"last_purchased_on"`
	PredictedNextPurchaseOn string                `json:"predicted_next_purchase_on"`
	LowStock                bool                  `json:"low_stock"`
	Prices                  []common.ProductPrice `json:"prices,omitempty"`
}

type forecastResponse struct {
	AsOfDate      string         `json:"as_of_date"`
	Forecasts     []forecastItem `json:"forecasts"`
	ForecastCount int            `json:"forecast_count"`
	RejectedCount int            `json:"rejected_count"`
}

// Handler 回購預測處理程序
type Handler struct {
	normalizer *normalize.Normalizer
	forecaster *forecastCore.Forecaster
	cache      *cache.Manager
	prices     *pricing.Client
}

// NewHandler 創建回購預測處理程序
func NewHandler(normalizer *normalize.Normalizer, forecaster *forecastCore.Forecaster, cacheManager *cache.Manager, prices *pricing.Client) *Handler {
	return &Handler{
		normalizer: normalizer,
		forecaster: forecaster,
		cache:      cacheManager,
		prices:     prices,
	}
}

// HandleRecurring 分析訂單歷史，產生各商品的回購預測
func (h *Handler) HandleRecurring(c *gin.Context) {
	requestID := requestIDFrom(c)

	common.LogInfo("開始處理回購預測請求",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	req, asOf, ok := h.bindRequest(c, requestID)
	if !ok {
		return
	}

	cacheKey := h.cache.Key("forecast", req.AsOfDate, mustJSON(req.Records))
	if cached, hit := h.cache.Get(c.Request.Context(), cacheKey); hit {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	resp := h.analyze(req, asOf, false, c)

	if body, err := common.ToJSON(resp); err == nil {
		h.cache.Set(c.Request.Context(), cacheKey, body)
	}

	common.LogInfo("回購預測完成",
		zap.String("request_id", requestID),
		zap.Int("forecast_count", resp.ForecastCount),
		zap.Int("rejected_count", resp.RejectedCount),
	)

	c.JSON(http.StatusOK, resp)
}

// HandleRestock 取得低庫存商品（補貨清單），可選擇附上目前價格
func (h *Handler) HandleRestock(c *gin.Context) {
	requestID := requestIDFrom(c)

	common.LogInfo("開始處理補貨清單請求",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	req, asOf, ok := h.bindRequest(c, requestID)
	if !ok {
		return
	}

	resp := h.analyze(req, asOf, true, c)

	common.LogInfo("補貨清單完成",
		zap.String("request_id", requestID),
		zap.Int("low_stock_count", resp.ForecastCount),
	)

	c.JSON(http.StatusOK, resp)
}

// bindRequest 解析並驗證請求；失敗時已寫入錯誤回應
func (h *Handler) bindRequest(c *gin.Context, requestID string) (*forecastRequest, time.Time, bool) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return nil, time.Time{}, false
	}

	asOf, err := time.Parse(common.DateLayout, req.AsOfDate)
	if err != nil {
		common.LogError("as_of_date 格式無效",
			zap.String("as_of_date", req.AsOfDate),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "as_of_date must be YYYY-MM-DD",
			"code":  common.ErrCodeInvalidRequest,
		})
		return nil, time.Time{}, false
	}

	return &req, asOf, true
}

// analyze 正規化 → 建時間線 → 預測；lowStockOnly 時只留低庫存項目
func (h *Handler) analyze(req *forecastRequest, asOf time.Time, lowStockOnly bool, c *gin.Context) *forecastResponse {
	records := make([]common.RawPurchaseRecord, 0, len(req.Records))
	for _, r := range req.Records {
		occurred, err := time.Parse(common.DateLayout, r.OccurredOn)
		if err != nil {
			// 日期壞掉的紀錄交給正規化器以零值日期剔除並計數
			occurred = time.Time{}
		}
		records = append(records, common.RawPurchaseRecord{
			ProductName: r.ProductName,
			OccurredOn:  occurred,
			Quantity:    r.Quantity,
		})
	}

	timelines, rejected := h.normalizer.BuildTimelines(records)
	forecasts := h.forecaster.Forecast(timelines, asOf)
	if lowStockOnly {
		forecasts = h.forecaster.LowStock(forecasts)
	}

	items := make([]forecastItem, len(forecasts))
	for i, fc := range forecasts {
		items[i] = forecastItem{
			ProductKey:              fc.ProductKey,
			PurchaseCount:           fc.PurchaseCount,
			AvgIntervalDays:         fc.AvgIntervalDays,
			TypicalQuantity:         fc.TypicalQuantity,
			EstimatedSupplyDays:     fc.EstimatedSupplyDays,
			LastPurchasedOn:         fc.LastPurchasedOn.Format(common.DateLayout),
			PredictedNextPurchaseOn: fc.PredictedNextPurchaseOn.Format(common.DateLayout),
			LowStock:                fc.LowStock,
		}
	}

	if lowStockOnly && req.IncludePrices && h.prices.Enabled() {
		for i := range items {
			prices, err := h.prices.SearchPrices(c.Request.Context(), items[i].ProductKey, 3)
			if err != nil {
				// 查價失敗不影響補貨清單本身，記 warn 後繼續
				common.LogWarn("附加價格失敗",
					zap.String("product_key", items[i].ProductKey),
					zap.Error(err),
				)
				continue
			}
			items[i].Prices = prices
		}
	}

	return &forecastResponse{
		AsOfDate:      req.AsOfDate,
		Forecasts:     items,
		ForecastCount: len(items),
		RejectedCount: rejected,
	}
}

func requestIDFrom(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}

func mustJSON(v interface{}) string {
	s, err := common.ToJSON(v)
	if err != nil {
		return ""
	}
	return s
}
