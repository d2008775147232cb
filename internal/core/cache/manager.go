package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"grocery-planner/internal/infrastructure/config"
	"grocery-planner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Manager 計算結果緩存
// 核心引擎本身是純函數、每次整批重算；緩存只疊在 API 層之外，
// 以請求內容的哈希為鍵存放整份回應 JSON
type Manager struct {
	cfg    config.CacheConfig
	client *redis.Client
}

// NewManager 創建緩存管理器；未啟用時回傳可安全呼叫的空實例
func NewManager(cfg config.CacheConfig) (*Manager, error) {
	if !cfg.Enabled {
		common.LogInfo("結果緩存未啟用")
		return &Manager{cfg: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("結果緩存已初始化",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", cfg.TTL),
	)

	return &Manager{cfg: cfg, client: client}, nil
}

// Key 由請求內容生成穩定的緩存鍵
func (m *Manager) Key(kind string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s:%s", kind, hex.EncodeToString(hash[:]))
}

// Get 讀取緩存的回應 JSON
func (m *Manager) Get(ctx context.Context, key string) (string, bool) {
	if m.client == nil {
		return "", false
	}

	value, err := m.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			common.LogWarn("緩存讀取失敗", zap.Error(err))
		}
		common.LogCacheMiss("result")
		return "", false
	}

	common.LogCacheHit("result")
	return value, true
}

// Set 寫入回應 JSON，帶 TTL；寫失敗只記 log，不影響請求
func (m *Manager) Set(ctx context.Context, key, value string) {
	if m.client == nil {
		return
	}

	if err := m.client.Set(ctx, key, value, m.cfg.TTL).Err(); err != nil {
		common.LogWarn("緩存寫入失敗", zap.Error(err))
	}
}

// Close 關閉緩存連接
func (m *Manager) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}
