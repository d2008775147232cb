package pricing

import (
	"context"
	"fmt"

	"grocery-planner/internal/infrastructure/config"
	"grocery-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client Kassal.app 比價 API 客戶端
// 只負責查價；補貨清單要不要附價格由呼叫端決定
type Client struct {
	cfg    config.KassalConfig
	client *resty.Client
}

// NewClient 創建比價 API 客戶端
func NewClient(cfg config.KassalConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Accept", "application/json")

	return &Client{
		cfg:    cfg,
		client: client,
	}
}

// Enabled 是否啟用比價查詢
func (c *Client) Enabled() bool {
	return c.cfg.Enabled
}

// productPayload Kassal API 的商品欄位（只取需要的部分）
type productPayload struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	EAN          string  `json:"ean"`
	URL          string  `json:"url"`
	CurrentPrice float64 `json:"current_price"`
	Store        struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"store"`
}

type searchResponse struct {
	Data []productPayload `json:"data"`
}

// SearchPrices 以關鍵字搜尋商品目前價格
func (c *Client) SearchPrices(ctx context.Context, query string, size int) ([]common.ProductPrice, error) {
	if !c.cfg.Enabled {
		return nil, common.ErrPriceLookupFailed
	}
	if size <= 0 {
		size = 5
	}

	var result searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search": query,
			"size":   fmt.Sprintf("%d", size),
		}).
		SetResult(&result).
		Get("/products")
	if err != nil {
		common.LogWarn("比價 API 請求失敗",
			zap.String("code", common.ErrCodePriceLookupFailed),
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, common.NewError(common.ErrCodePriceLookupFailed, "比價 API 查詢失敗", common.ErrPriceLookupFailed.Status, err)
	}
	if resp.IsError() {
		common.LogWarn("比價 API 回應錯誤",
			zap.String("code", common.ErrCodePriceLookupFailed),
			zap.String("query", query),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, common.NewError(common.ErrCodePriceLookupFailed,
			fmt.Sprintf("比價 API 回應 %d", resp.StatusCode()),
			common.ErrPriceLookupFailed.Status, nil)
	}

	return toPrices(query, result.Data), nil
}

// PricesByEAN 以 EAN 條碼查詢跨商店價格
func (c *Client) PricesByEAN(ctx context.Context, ean string) ([]common.ProductPrice, error) {
	if !c.cfg.Enabled {
		return nil, common.ErrPriceLookupFailed
	}

	var result searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("/products/ean/%s", ean))
	if err != nil {
		return nil, common.NewError(common.ErrCodePriceLookupFailed, "比價 API 查詢失敗", common.ErrPriceLookupFailed.Status, err)
	}
	if resp.IsError() {
		return nil, common.NewError(common.ErrCodePriceLookupFailed,
			fmt.Sprintf("比價 API 回應 %d", resp.StatusCode()),
			common.ErrPriceLookupFailed.Status, nil)
	}

	return toPrices(ean, result.Data), nil
}

func toPrices(productKey string, payloads []productPayload) []common.ProductPrice {
	prices := make([]common.ProductPrice, 0, len(payloads))
	for _, p := range payloads {
		if p.CurrentPrice <= 0 {
			continue
		}
		prices = append(prices, common.ProductPrice{
			ProductKey:   productKey,
			Name:         p.Name,
			Store:        p.Store.Name,
			CurrentPrice: p.CurrentPrice,
			URL:          p.URL,
		})
	}
	return prices
}
