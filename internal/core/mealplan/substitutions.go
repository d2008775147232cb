package mealplan

import (
	"sort"
	"strings"

	"grocery-planner/internal/pkg/common"
)

// SuggestSubstitutions 依替換對照表建議食譜食材的替代品
// 只回傳計畫中其他食譜已經用到的替代品，換了才真的省食材
func SuggestSubstitutions(recipe common.Recipe, availableIngredients []string, table map[string][]string) map[string][]string {
	available := make(map[string]struct{}, len(availableIngredients))
	for _, ing := range availableIngredients {
		ing = strings.ToLower(strings.TrimSpace(ing))
		if ing != "" {
			available[ing] = struct{}{}
		}
	}

	suggestions := make(map[string][]string)
	for ing := range ingredientSet(recipe) {
		for original, subs := range table {
			if !strings.Contains(ing, original) {
				continue
			}
			usable := make([]string, 0, len(subs))
			for _, sub := range subs {
				if containsIngredient(available, sub) {
					usable = append(usable, sub)
				}
			}
			if len(usable) > 0 {
				sort.Strings(usable)
				suggestions[ing] = usable
			}
		}
	}
	return suggestions
}

// containsIngredient 檢查替代品是否已出現在現有食材中（子字串比對，容忍修飾詞）
func containsIngredient(available map[string]struct{}, sub string) bool {
	for ing := range available {
		if strings.Contains(ing, sub) {
			return true
		}
	}
	return false
}
