package api

import (
	"context"
	"net/http"
	"time"

	forecastHandler "grocery-planner/internal/api/handlers/forecast"
	"grocery-planner/internal/api/handlers/health"
	mealplanHandler "grocery-planner/internal/api/handlers/mealplan"
	"grocery-planner/internal/api/middleware"
	"grocery-planner/internal/core/cache"
	forecastCore "grocery-planner/internal/core/forecast"
	mealplanCore "grocery-planner/internal/core/mealplan"
	"grocery-planner/internal/core/normalize"
	"grocery-planner/internal/core/pricing"
	"grocery-planner/internal/infrastructure/config"
	"grocery-planner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 30 * time.Second
	// 請求體大小限制 (10MB)：一年份的訂單歷史批次也遠小於此
	maxBodySize = 10 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheManager *cache.Manager) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 限流
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("kassal_enabled", cfg.Kassal.Enabled),
		zap.Int("forecast_min_events", cfg.Forecast.MinEvents),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化核心服務
	normalizer := normalize.NewNormalizer(cfg.Forecast.StopTokens)
	forecaster := forecastCore.NewForecaster(cfg.Forecast)
	shoppingBuilder := mealplanCore.NewShoppingBuilder(cfg.Shopping)
	priceClient := pricing.NewClient(cfg.Kassal)

	// 全局中間件：設置超時和配置
	router.Use(func(c *gin.Context) {
		// 設置請求超時
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		// 設置配置
		c.Set("config", cfg)

		// 處理請求
		c.Next()

		// 檢查是否超時
		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		forecastInstance := forecastHandler.NewHandler(normalizer, forecaster, cacheManager, priceClient)
		mealplanInstance := mealplanHandler.NewHandler(
			shoppingBuilder,
			cfg.Shopping.Substitutions,
			cacheManager,
			cfg.Optimizer.DefaultDayCount,
		)

		// 回購預測相關路由
		forecastGroup := api.Group("/forecast")
		{
			// 分析訂單歷史，回傳各商品的回購預測
			forecastGroup.POST("/recurring", forecastInstance.HandleRecurring)

			// 低庫存補貨清單，可附上比價結果
			forecastGroup.POST("/restock", forecastInstance.HandleRestock)
		}

		// 菜單優化相關路由
		mealplanGroup := api.Group("/mealplan")
		{
			// 依食材重疊度挑選菜單
			mealplanGroup.POST("/optimize", mealplanInstance.HandleOptimize)

			// 食譜兩兩重疊索引
			mealplanGroup.POST("/overlap", mealplanInstance.HandleOverlap)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("cache_manager_initialized", cacheManager != nil),
		zap.Bool("kassal_enabled", priceClient.Enabled()),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
