package mealplan

import (
	"grocery-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Constraints 餐點計畫的篩選條件
type Constraints struct {
	RequiredTags         []string `json:"required_tags,omitempty"`           // 食譜必須帶有全部標籤
	MinProteinPerServing float64  `json:"min_protein_per_serving,omitempty"` // 每份蛋白質下限
	ExcludeRecipeIDs     []string `json:"exclude_recipe_ids,omitempty"`      // 直接排除的食譜
}

// Optimize 從候選池中挑出 dayCount 道食譜，最大化食材重複利用
//
// 貪婪法而非窮舉：C(R, dayCount) 的子集枚舉對互動式使用不切實際，
// 貪婪加上固定的平手規則（取 id 較小者）已足夠且結果可重現。
// 候選不足時整批失敗，絕不回傳短計畫
func Optimize(recipes []common.Recipe, dayCount int, cons Constraints) (*common.MealPlan, error) {
	if dayCount <= 0 {
		return nil, common.ErrInvalidConstraint
	}

	pool := filterPool(recipes, cons)
	if len(pool) < dayCount {
		common.LogWarn("候選食譜不足",
			zap.Int("requested", dayCount),
			zap.Int("available", len(pool)),
		)
		return nil, &common.InsufficientCandidatesError{
			Requested: dayCount,
			Available: len(pool),
		}
	}

	idx := BuildOverlapIndex(pool)

	// 種子：易腐食材最多的食譜，平手取 id 較小者
	seed := pool[0]
	for _, r := range pool[1:] {
		seedSize := len(ingredientSet(seed))
		size := len(ingredientSet(r))
		if size > seedSize || (size == seedSize && r.ID < seed.ID) {
			seed = r
		}
	}

	chosen := []common.Recipe{seed}
	remaining := withoutRecipe(pool, seed.ID)

	// 每輪挑出對已選食譜總重疊分數最高者
	for len(chosen) < dayCount {
		best := remaining[0]
		bestScore := totalOverlap(idx, chosen, best.ID)
		for _, cand := range remaining[1:] {
			score := totalOverlap(idx, chosen, cand.ID)
			if score > bestScore || (score == bestScore && cand.ID < best.ID) {
				best = cand
				bestScore = score
			}
		}
		chosen = append(chosen, best)
		remaining = withoutRecipe(remaining, best.ID)
	}

	plan := &common.MealPlan{
		Days: make([]common.PlanDay, len(chosen)),
	}
	for i, r := range chosen {
		plan.Days[i] = common.PlanDay{DayIndex: i, RecipeID: r.ID}
	}

	total, unique, ratio := ComputeReuseMetrics(chosen)
	plan.TotalVegetableItems = total
	plan.UniqueVegetables = unique
	plan.VegetableReuseRatio = ratio

	return plan, nil
}

// ComputeReuseMetrics 計算計畫的重複利用指標
// 獨立成公開函數，讓呼叫端（與測試）能由計畫本身重算驗證
func ComputeReuseMetrics(recipes []common.Recipe) (totalItems, uniqueItems int, reuseRatio float64) {
	union := make(map[string]struct{})
	for _, r := range recipes {
		set := ingredientSet(r)
		totalItems += len(set)
		for ing := range set {
			union[ing] = struct{}{}
		}
	}
	uniqueItems = len(union)
	if totalItems == 0 {
		return 0, 0, 0
	}
	reuseRatio = float64(totalItems-uniqueItems) / float64(totalItems)
	return totalItems, uniqueItems, reuseRatio
}

// filterPool 套用條件過濾候選池，順序維持輸入順序
func filterPool(recipes []common.Recipe, cons Constraints) []common.Recipe {
	excluded := make(map[string]struct{}, len(cons.ExcludeRecipeIDs))
	for _, id := range cons.ExcludeRecipeIDs {
		excluded[id] = struct{}{}
	}

	pool := make([]common.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if _, skip := excluded[r.ID]; skip {
			continue
		}
		if r.ProteinPerServing < cons.MinProteinPerServing {
			continue
		}
		if !hasAllTags(r, cons.RequiredTags) {
			continue
		}
		pool = append(pool, r)
	}
	return pool
}

func hasAllTags(r common.Recipe, tags []string) bool {
	for _, tag := range tags {
		if !r.HasTag(tag) {
			return false
		}
	}
	return true
}

func totalOverlap(idx OverlapIndex, chosen []common.Recipe, candidateID string) int {
	total := 0
	for _, c := range chosen {
		total += idx.Score(c.ID, candidateID)
	}
	return total
}

func withoutRecipe(recipes []common.Recipe, id string) []common.Recipe {
	out := make([]common.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
