package mealplan

import (
	"errors"
	"os"
	"testing"

	"grocery-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func testRecipes() []common.Recipe {
	return []common.Recipe{
		{ID: "r1", PerishableIngredients: []string{"gulrot", "løk"}},
		{ID: "r2", PerishableIngredients: []string{"løk", "selleri"}},
		{ID: "r3", PerishableIngredients: []string{"potet"}},
	}
}

func TestOptimizePrefersOverlap(t *testing.T) {
	plan, err := Optimize(testRecipes(), 2, Constraints{})
	require.NoError(t, err)
	require.Len(t, plan.Days, 2)

	// 種子為食材最多者（r1 與 r2 平手，取 id 較小的 r1），
	// 第二天挑與已選重疊最高的 r2
	assert.Equal(t, "r1", plan.Days[0].RecipeID)
	assert.Equal(t, "r2", plan.Days[1].RecipeID)
	assert.Equal(t, 0, plan.Days[0].DayIndex)
	assert.Equal(t, 1, plan.Days[1].DayIndex)

	assert.Equal(t, 4, plan.TotalVegetableItems)
	assert.Equal(t, 3, plan.UniqueVegetables)
	assert.InDelta(t, 0.25, plan.VegetableReuseRatio, 1e-9)
}

func TestOptimizeDeterministicTieBreak(t *testing.T) {
	// 全部食譜兩兩零重疊：每輪平手，必須固定取 id 較小者
	recipes := []common.Recipe{
		{ID: "b", PerishableIngredients: []string{"paprika"}},
		{ID: "c", PerishableIngredients: []string{"tomat"}},
		{ID: "a", PerishableIngredients: []string{"agurk"}},
	}

	plan, err := Optimize(recipes, 3, Constraints{})
	require.NoError(t, err)
	require.Len(t, plan.Days, 3)
	assert.Equal(t, "a", plan.Days[0].RecipeID)
	assert.Equal(t, "b", plan.Days[1].RecipeID)
	assert.Equal(t, "c", plan.Days[2].RecipeID)
	assert.Equal(t, 0.0, plan.VegetableReuseRatio)
}

func TestOptimizeInvalidDayCount(t *testing.T) {
	for _, dayCount := range []int{0, -1} {
		_, err := Optimize(testRecipes(), dayCount, Constraints{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInvalidConstraint))
		assert.Equal(t, common.ErrCodeInvalidConstraint, common.ErrorCode(err))
	}
}

func TestOptimizeInsufficientCandidates(t *testing.T) {
	_, err := Optimize(testRecipes(), 5, Constraints{})
	require.Error(t, err)
	assert.True(t, common.IsInsufficientCandidates(err))

	var insufficient *common.InsufficientCandidatesError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, 2, insufficient.Shortfall())
}

func TestOptimizeConstraintFiltering(t *testing.T) {
	recipes := []common.Recipe{
		{ID: "r1", PerishableIngredients: []string{"gulrot"}, Tags: []string{"vegetar"}, ProteinPerServing: 10},
		{ID: "r2", PerishableIngredients: []string{"løk"}, Tags: []string{"vegetar"}, ProteinPerServing: 25},
		{ID: "r3", PerishableIngredients: []string{"kylling"}, Tags: []string{"rask"}, ProteinPerServing: 30},
	}

	t.Run("required tags", func(t *testing.T) {
		plan, err := Optimize(recipes, 2, Constraints{RequiredTags: []string{"vegetar"}})
		require.NoError(t, err)
		ids := planIDs(plan)
		assert.ElementsMatch(t, []string{"r1", "r2"}, ids)
	})

	t.Run("min protein", func(t *testing.T) {
		plan, err := Optimize(recipes, 2, Constraints{MinProteinPerServing: 20})
		require.NoError(t, err)
		ids := planIDs(plan)
		assert.ElementsMatch(t, []string{"r2", "r3"}, ids)
	})

	t.Run("exclusion", func(t *testing.T) {
		plan, err := Optimize(recipes, 2, Constraints{ExcludeRecipeIDs: []string{"r3"}})
		require.NoError(t, err)
		ids := planIDs(plan)
		assert.ElementsMatch(t, []string{"r1", "r2"}, ids)
	})

	t.Run("filtering causes shortfall", func(t *testing.T) {
		_, err := Optimize(recipes, 2, Constraints{RequiredTags: []string{"rask"}})
		require.Error(t, err)
		assert.True(t, common.IsInsufficientCandidates(err))
	})
}

func TestComputeReuseMetrics(t *testing.T) {
	recipes := testRecipes()[:2]
	total, unique, ratio := ComputeReuseMetrics(recipes)
	assert.Equal(t, 4, total)
	assert.Equal(t, 3, unique)
	assert.InDelta(t, 0.25, ratio, 1e-9)

	// 空計畫不能除以零
	total, unique, ratio = ComputeReuseMetrics(nil)
	assert.Equal(t, 0, total)
	assert.Equal(t, 0, unique)
	assert.Equal(t, 0.0, ratio)
}

func planIDs(plan *common.MealPlan) []string {
	ids := make([]string, len(plan.Days))
	for i, day := range plan.Days {
		ids[i] = day.RecipeID
	}
	return ids
}
