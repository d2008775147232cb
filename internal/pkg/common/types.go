package common

import (
	"time"
)

// DateLayout 日期欄位統一使用的格式（僅日期，不含時間）
const DateLayout = "2006-01-02"

// RawPurchaseRecord 來自訂單歷史來源的原始購買紀錄
// 商品名稱尚未正規化，數量可能不合法，須經過 Event Normalizer 清洗
type RawPurchaseRecord struct {
	ProductName string    `json:"product_name"`
	OccurredOn  time.Time `json:"occurred_on"`
	Quantity    float64   `json:"quantity"`
}

// PurchaseEvent 正規化後的購買事件（不可變）
type PurchaseEvent struct {
	ProductKey string    `json:"product_key"`
	OccurredOn time.Time `json:"occurred_on"`
	Quantity   float64   `json:"quantity"`
}

// ProductTimeline 單一商品的購買時間線
// 事件依 OccurredOn 遞增排序，同日事件已合併（數量加總）
type ProductTimeline struct {
	ProductKey string          `json:"product_key"`
	Events     []PurchaseEvent `json:"events"`
}

// RecurringItemForecast 單一商品的回購預測結果
// 每次分析整批重算，不做增量更新
type RecurringItemForecast struct {
	ProductKey              string    `json:"product_key"`
	PurchaseCount           int       `json:"purchase_count"`
	AvgIntervalDays         float64   `json:"avg_interval_days"`
	TypicalQuantity         float64   `json:"typical_quantity"`
	EstimatedSupplyDays     int       `json:"estimated_supply_days"`
	LastPurchasedOn         time.Time `json:"last_purchased_on"`
	PredictedNextPurchaseOn time.Time `json:"predicted_next_purchase_on"`
	LowStock                bool      `json:"low_stock"`
}

// Recipe 候選食譜
// PerishableIngredients 以蔬菜等易腐食材為主，是重複利用計算的依據
type Recipe struct {
	ID                    string   `json:"id"`
	PerishableIngredients []string `json:"perishable_ingredients"`
	Tags                  []string `json:"tags,omitempty"`
	ProteinPerServing     float64  `json:"protein_per_serving,omitempty"`
	PrepMinutes           int      `json:"prep_minutes,omitempty"`
}

// HasTag 檢查食譜是否帶有指定標籤
func (r Recipe) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// OverlapEntry 一對食譜的共用食材
// 對稱：(a,b) 與 (b,a) 分數相同；完全不重疊的配對不會產生條目
type OverlapEntry struct {
	RecipeA           string   `json:"recipe_a"`
	RecipeB           string   `json:"recipe_b"`
	SharedIngredients []string `json:"shared_ingredients"`
	OverlapScore      int      `json:"overlap_score"`
}

// PlanDay 餐點計畫中的一天
type PlanDay struct {
	DayIndex int    `json:"day_index"`
	RecipeID string `json:"recipe_id"`
}

// MealPlan 最佳化後的餐點計畫
// 指標可由 Days 對應的食譜重新計算驗證，不依賴最佳化器內部狀態
type MealPlan struct {
	Days                []PlanDay `json:"days"`
	TotalVegetableItems int       `json:"total_vegetable_items"`
	UniqueVegetables    int       `json:"unique_vegetables"`
	VegetableReuseRatio float64   `json:"vegetable_reuse_ratio"`
}

// ShoppingListItem 彙整後的採買清單項目
type ShoppingListItem struct {
	Name        string `json:"name"`
	RecipeCount int    `json:"recipe_count"` // 有幾道食譜用到這項食材
}

// ShoppingList 依分類分組的採買清單
type ShoppingList map[string][]ShoppingListItem

// ProductPrice 外部比價 API 回傳的商品價格
type ProductPrice struct {
	ProductKey   string  `json:"product_key"`
	Name         string  `json:"name"`
	Store        string  `json:"store,omitempty"`
	CurrentPrice float64 `json:"current_price"`
	URL          string  `json:"url,omitempty"`
}
