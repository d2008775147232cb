package cache

import (
	"context"
	"os"
	"testing"

	"grocery-planner/internal/infrastructure/config"
	"grocery-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func TestDisabledManagerIsNoop(t *testing.T) {
	m, err := NewManager(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	key := m.Key("forecast", "2025-12-21", "payload")

	// 未啟用時 Get 一律未命中，Set 不報錯
	_, hit := m.Get(ctx, key)
	assert.False(t, hit)
	m.Set(ctx, key, `{"ok":true}`)
	_, hit = m.Get(ctx, key)
	assert.False(t, hit)

	assert.NoError(t, m.Close())
}

func TestKeyStable(t *testing.T) {
	m, err := NewManager(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	a := m.Key("forecast", "2025-12-21", "payload")
	b := m.Key("forecast", "2025-12-21", "payload")
	c := m.Key("forecast", "2025-12-22", "payload")
	d := m.Key("mealplan", "2025-12-21", "payload")

	assert.Equal(t, a, b, "相同輸入要得到相同的鍵")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d, "不同類型的請求不能共用鍵")
	assert.Contains(t, a, "forecast:")
}
