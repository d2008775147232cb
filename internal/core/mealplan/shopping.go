package mealplan

import (
	"sort"
	"strings"

	"grocery-planner/internal/infrastructure/config"
	"grocery-planner/internal/pkg/common"
)

// ShoppingBuilder 把一份餐點計畫的食材彙整成分類採買清單
type ShoppingBuilder struct {
	categories []config.ShoppingCategory
	fallback   string
}

// NewShoppingBuilder 創建採買清單產生器
func NewShoppingBuilder(cfg config.ShoppingConfig) *ShoppingBuilder {
	fallback := cfg.FallbackGroup
	if fallback == "" {
		fallback = "Annet"
	}
	return &ShoppingBuilder{
		categories: cfg.Categories,
		fallback:   fallback,
	}
}

// Build 彙整選定食譜的食材
// 同一食材跨食譜只出現一次，RecipeCount 記錄有幾道食譜用到它
func (b *ShoppingBuilder) Build(recipes []common.Recipe) common.ShoppingList {
	counts := make(map[string]int)
	for _, r := range recipes {
		for ing := range ingredientSet(r) {
			counts[ing]++
		}
	}

	list := make(common.ShoppingList)
	for name, count := range counts {
		group := b.categorize(name)
		list[group] = append(list[group], common.ShoppingListItem{
			Name:        name,
			RecipeCount: count,
		})
	}

	// 分類內依名稱排序，輸出穩定
	for group := range list {
		items := list[group]
		sort.Slice(items, func(i, j int) bool {
			return items[i].Name < items[j].Name
		})
		list[group] = items
	}

	return list
}

// categorize 依序比對分類關鍵字，第一個命中為準
func (b *ShoppingBuilder) categorize(ingredient string) string {
	for _, cat := range b.categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(ingredient, kw) {
				return cat.Name
			}
		}
	}
	return b.fallback
}
