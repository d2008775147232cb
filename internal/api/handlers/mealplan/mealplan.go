package mealplan

import (
	"errors"
	"net/http"

	"grocery-planner/internal/core/cache"
	mealplanCore "grocery-planner/internal/core/mealplan"
	"grocery-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// optimizeRequest 菜單優化請求
// day_count 為 0 時使用配置中的預設天數
type optimizeRequest struct {
	Recipes     []common.Recipe          `json:"recipes" binding:"required"`
	DayCount    int                      `json:"day_count"`
	Constraints mealplanCore.Constraints `json:"constraints"`
}

type optimizeResponse struct {
	Plan          *common.MealPlan               `json:"plan"`
	ShoppingList  common.ShoppingList            `json:"shopping_list"`
	Substitutions map[string]map[string][]string `json:"substitutions,omitempty"`
}

type overlapRequest struct {
	Recipes []common.Recipe `json:"recipes" binding:"required"`
}

type overlapResponse struct {
	Entries   []common.OverlapEntry `json:"entries"`
	PairCount int                   `json:"pair_count"`
}

// Handler 菜單優化處理程序
type Handler struct {
	shopping        *mealplanCore.ShoppingBuilder
	substitutions   map[string][]string
	cache           *cache.Manager
	defaultDayCount int
}

// NewHandler 創建菜單優化處理程序
func NewHandler(shopping *mealplanCore.ShoppingBuilder, substitutions map[string][]string, cacheManager *cache.Manager, defaultDayCount int) *Handler {
	return &Handler{
		shopping:        shopping,
		substitutions:   substitutions,
		cache:           cacheManager,
		defaultDayCount: defaultDayCount,
	}
}

// HandleOptimize 依食材重疊度挑選菜單，並附上合併採購清單與替代建議
func (h *Handler) HandleOptimize(c *gin.Context) {
	requestID := requestIDFrom(c)

	common.LogInfo("開始處理菜單優化請求",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	dayCount := req.DayCount
	if dayCount == 0 {
		dayCount = h.defaultDayCount
	}

	cacheKey := h.cache.Key("mealplan", mustJSON(req.Recipes), mustJSON(req.Constraints), mustJSON(dayCount))
	if cached, hit := h.cache.Get(c.Request.Context(), cacheKey); hit {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	plan, err := mealplanCore.Optimize(req.Recipes, dayCount, req.Constraints)
	if err != nil {
		h.writePlanError(c, requestID, err)
		return
	}

	byID := make(map[string]common.Recipe, len(req.Recipes))
	for _, r := range req.Recipes {
		byID[r.ID] = r
	}
	selected := make([]common.Recipe, len(plan.Days))
	for i, day := range plan.Days {
		selected[i] = byID[day.RecipeID]
	}

	resp := &optimizeResponse{
		Plan:          plan,
		ShoppingList:  h.shopping.Build(selected),
		Substitutions: h.suggestForPlan(selected),
	}

	if body, err := common.ToJSON(resp); err == nil {
		h.cache.Set(c.Request.Context(), cacheKey, body)
	}

	common.LogInfo("菜單優化完成",
		zap.String("request_id", requestID),
		zap.Int("day_count", dayCount),
		zap.Float64("reuse_ratio", plan.VegetableReuseRatio),
	)

	c.JSON(http.StatusOK, resp)
}

// HandleOverlap 計算食譜兩兩之間的食材重疊索引
func (h *Handler) HandleOverlap(c *gin.Context) {
	requestID := requestIDFrom(c)

	var req overlapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	entries := mealplanCore.BuildOverlapIndex(req.Recipes).Entries()

	common.LogInfo("重疊索引計算完成",
		zap.String("request_id", requestID),
		zap.Int("recipe_count", len(req.Recipes)),
		zap.Int("pair_count", len(entries)),
	)

	c.JSON(http.StatusOK, &overlapResponse{
		Entries:   entries,
		PairCount: len(entries),
	})
}

// writePlanError 將優化錯誤映射成對應的 HTTP 回應
func (h *Handler) writePlanError(c *gin.Context, requestID string, err error) {
	var insufficient *common.InsufficientCandidatesError
	switch {
	case errors.Is(err, common.ErrInvalidConstraint):
		common.LogWarn("無效的優化約束",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeInvalidConstraint,
		})
	case errors.As(err, &insufficient):
		common.LogWarn("候選食譜不足",
			zap.Int("requested", insufficient.Requested),
			zap.Int("available", insufficient.Available),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeInsufficientCandidates,
			"details": gin.H{
				"requested": insufficient.Requested,
				"available": insufficient.Available,
				"shortfall": insufficient.Shortfall(),
			},
		})
	default:
		common.LogError("菜單優化失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  common.ErrCodeInternalError,
		})
	}
}

// suggestForPlan 為計劃內每道食譜提供替代食材建議
// 可用食材 = 計劃中所有食譜的食材聯集（買回來的東西能互相頂替）
func (h *Handler) suggestForPlan(selected []common.Recipe) map[string]map[string][]string {
	available := make([]string, 0)
	seen := make(map[string]bool)
	for _, recipe := range selected {
		for _, ing := range recipe.PerishableIngredients {
			if !seen[ing] {
				seen[ing] = true
				available = append(available, ing)
			}
		}
	}

	result := make(map[string]map[string][]string)
	for _, recipe := range selected {
		suggestions := mealplanCore.SuggestSubstitutions(recipe, available, h.substitutions)
		if len(suggestions) > 0 {
			result[recipe.ID] = suggestions
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
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
