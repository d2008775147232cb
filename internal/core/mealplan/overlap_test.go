package mealplan

import (
	"testing"

	"grocery-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOverlapIndexSparse(t *testing.T) {
	recipes := []common.Recipe{
		{ID: "r1", PerishableIngredients: []string{"tomat", "løk"}},
		{ID: "r2", PerishableIngredients: []string{"løk", "paprika"}},
		{ID: "r3", PerishableIngredients: []string{"ris"}},
	}

	idx := BuildOverlapIndex(recipes)

	// 只有 (r1, r2) 有共用食材，零重疊的配對不產生條目
	require.Len(t, idx, 1)
	entry, ok := idx[NewPairKey("r1", "r2")]
	require.True(t, ok)
	assert.Equal(t, []string{"løk"}, entry.SharedIngredients)
	assert.Equal(t, 1, entry.OverlapScore)
}

func TestOverlapScoreSymmetric(t *testing.T) {
	recipes := []common.Recipe{
		{ID: "r1", PerishableIngredients: []string{"tomat", "løk", "agurk"}},
		{ID: "r2", PerishableIngredients: []string{"løk", "agurk"}},
	}

	idx := BuildOverlapIndex(recipes)
	assert.Equal(t, 2, idx.Score("r1", "r2"))
	assert.Equal(t, 2, idx.Score("r2", "r1"), "分數必須對稱")
	assert.Equal(t, 0, idx.Score("r1", "finnes-ikke"))
}

func TestOverlapIgnoresCaseAndDuplicates(t *testing.T) {
	recipes := []common.Recipe{
		{ID: "r1", PerishableIngredients: []string{"Tomat", "tomat ", "løk"}},
		{ID: "r2", PerishableIngredients: []string{"TOMAT"}},
	}

	idx := BuildOverlapIndex(recipes)
	require.Len(t, idx, 1)
	assert.Equal(t, 1, idx.Score("r1", "r2"), "大小寫與重複食材只算一次")
}

func TestOverlapEntriesStableOrder(t *testing.T) {
	recipes := []common.Recipe{
		{ID: "r3", PerishableIngredients: []string{"løk"}},
		{ID: "r1", PerishableIngredients: []string{"løk"}},
		{ID: "r2", PerishableIngredients: []string{"løk"}},
	}

	entries := BuildOverlapIndex(recipes).Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "r1", entries[0].RecipeA)
	assert.Equal(t, "r2", entries[0].RecipeB)
	assert.Equal(t, "r1", entries[1].RecipeA)
	assert.Equal(t, "r3", entries[1].RecipeB)
	assert.Equal(t, "r2", entries[2].RecipeA)
	assert.Equal(t, "r3", entries[2].RecipeB)

	// 條目內的配對鍵恆為 A < B
	for _, e := range entries {
		assert.Less(t, e.RecipeA, e.RecipeB)
	}
}
