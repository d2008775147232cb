package mealplan

import (
	"sort"
	"strings"

	"grocery-planner/internal/pkg/common"
)

// PairKey 無序的食譜配對鍵，A 恆小於 B
type PairKey struct {
	A string
	B string
}

// NewPairKey 建立無序配對鍵
func NewPairKey(a, b string) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// OverlapIndex 食材重疊索引
// 稀疏表示：沒有條目的配對代表重疊為 0
type OverlapIndex map[PairKey]common.OverlapEntry

// BuildOverlapIndex 對候選池中每對食譜計算共用食材
// O(R²·I)，候選池只有幾十道食譜，可以接受；輸出與輸入順序無關
func BuildOverlapIndex(recipes []common.Recipe) OverlapIndex {
	sets := make([]map[string]struct{}, len(recipes))
	for i, r := range recipes {
		sets[i] = ingredientSet(r)
	}

	idx := make(OverlapIndex)
	for i := 0; i < len(recipes); i++ {
		for j := i + 1; j < len(recipes); j++ {
			shared := intersect(sets[i], sets[j])
			if len(shared) == 0 {
				continue
			}
			key := NewPairKey(recipes[i].ID, recipes[j].ID)
			idx[key] = common.OverlapEntry{
				RecipeA:           key.A,
				RecipeB:           key.B,
				SharedIngredients: shared,
				OverlapScore:      len(shared),
			}
		}
	}
	return idx
}

// Score 查詢兩道食譜的重疊分數，缺條目即為 0；對稱
func (idx OverlapIndex) Score(a, b string) int {
	if entry, ok := idx[NewPairKey(a, b)]; ok {
		return entry.OverlapScore
	}
	return 0
}

// Entries 以穩定順序取出全部條目（給 API 回應用）
func (idx OverlapIndex) Entries() []common.OverlapEntry {
	entries := make([]common.OverlapEntry, 0, len(idx))
	for _, e := range idx {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RecipeA != entries[j].RecipeA {
			return entries[i].RecipeA < entries[j].RecipeA
		}
		return entries[i].RecipeB < entries[j].RecipeB
	})
	return entries
}

// ingredientSet 食譜的易腐食材集合（小寫、去空白，重複只算一次）
func ingredientSet(r common.Recipe) map[string]struct{} {
	set := make(map[string]struct{}, len(r.PerishableIngredients))
	for _, ing := range r.PerishableIngredients {
		ing = strings.ToLower(strings.TrimSpace(ing))
		if ing != "" {
			set[ing] = struct{}{}
		}
	}
	return set
}

func intersect(a, b map[string]struct{}) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	shared := make([]string, 0)
	for ing := range a {
		if _, ok := b[ing]; ok {
			shared = append(shared, ing)
		}
	}
	sort.Strings(shared)
	return shared
}
