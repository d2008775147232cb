package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Shopping  ShoppingConfig  `mapstructure:"shopping"`
	Kassal    KassalConfig    `mapstructure:"kassal"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	LogLevel  string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// CategoryRule 保存期限分類規則
// 依序比對，第一個命中的規則決定供應天數的估算方式
type CategoryRule struct {
	Name          string   `mapstructure:"name"`
	Keywords      []string `mapstructure:"keywords"`
	MaxSupplyDays int      `mapstructure:"max_supply_days"` // 0 表示不設上限
	SupplyFactor  float64  `mapstructure:"supply_factor"`   // 0 表示不打折
}

// ForecastConfig 回購預測設定
type ForecastConfig struct {
	MinEvents           int            `mapstructure:"min_events"`
	LowStockHorizonDays int            `mapstructure:"low_stock_horizon_days"`
	StopTokens          []string       `mapstructure:"stop_tokens"`
	Categories          []CategoryRule `mapstructure:"categories"`
}

// OptimizerConfig 餐點最佳化設定
type OptimizerConfig struct {
	DefaultDayCount int `mapstructure:"default_day_count"`
}

// ShoppingCategory 採買清單分類
type ShoppingCategory struct {
	Name     string   `mapstructure:"name"`
	Keywords []string `mapstructure:"keywords"`
}

// ShoppingConfig 採買清單設定
type ShoppingConfig struct {
	Categories    []ShoppingCategory  `mapstructure:"categories"`
	FallbackGroup string              `mapstructure:"fallback_group"`
	Substitutions map[string][]string `mapstructure:"substitutions"`
}

// KassalConfig Kassal.app 比價 API 配置
type KassalConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Addr    string        `mapstructure:"addr"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（允許不存在，在部署環境用環境變數）
	_ = godotenv.Load()

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("kassal.api_key", "KASSAL_API_KEY")
	viper.BindEnv("kassal.enabled", "KASSAL_ENABLED")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.addr", "REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "grocery-planner")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// 回購預測設定
	viper.SetDefault("forecast.min_events", 3)
	viper.SetDefault("forecast.low_stock_horizon_days", 3)
	viper.SetDefault("forecast.stop_tokens", DefaultStopTokens())
	viper.SetDefault("forecast.categories", DefaultCategoryRules())

	// 餐點最佳化設定
	viper.SetDefault("optimizer.default_day_count", 5)

	// 採買清單設定
	viper.SetDefault("shopping.categories", DefaultShoppingCategories())
	viper.SetDefault("shopping.fallback_group", "Annet")
	viper.SetDefault("shopping.substitutions", DefaultSubstitutions())

	// Kassal 比價 API 設定
	viper.SetDefault("kassal.enabled", false)
	viper.SetDefault("kassal.base_url", "https://kassal.app/api/v1")
	viper.SetDefault("kassal.timeout", "30s")

	// 快取設定
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.ttl", "10m")

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")
}

// DefaultStopTokens 商品名稱正規化時要剔除的修飾詞
// 包裝單位與品質修飾詞不影響商品身份，挪威文與英文都要涵蓋
func DefaultStopTokens() []string {
	return []string{
		"økologisk", "organic", "fersk", "fresh", "frossen", "frozen",
		"ferdigkuttet", "pre-cut", "precut", "grovhakket",
		"stk", "pk", "pakke", "pose", "boks", "beger", "flaske",
		"kg", "g", "gr", "l", "dl", "ml", "liter",
	}
}

// DefaultCategoryRules 保存期限分類預設規則
// 常數 7 / 14 / 0.9 是經驗值而非物理定律，可由設定覆寫
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{
			Name:          "fresh",
			Keywords:      []string{"melk", "milk", "brød", "bread", "salat", "lettuce"},
			MaxSupplyDays: 7,
		},
		{
			Name:          "dairy",
			Keywords:      []string{"yoghurt", "ost", "cheese", "smør", "butter"},
			MaxSupplyDays: 14,
		},
		{
			Name:         "household",
			Keywords:     []string{"såpe", "soap", "shampo", "tannkrem", "toothpaste", "papir", "paper"},
			SupplyFactor: 0.9,
		},
	}
}

// DefaultShoppingCategories 採買清單預設分類（依序比對，第一個命中為準）
func DefaultShoppingCategories() []ShoppingCategory {
	return []ShoppingCategory{
		{
			Name:     "Grønnsaker",
			Keywords: []string{"brokkoli", "gulrot", "paprika", "løk", "tomat", "agurk", "salat", "squash"},
		},
		{
			Name:     "Kjøtt & Fisk",
			Keywords: []string{"kylling", "laks", "kjøttdeig", "bacon", "svin", "kalv", "kalkun"},
		},
		{
			Name:     "Meieri",
			Keywords: []string{"melk", "ost", "yoghurt", "smør", "fløte", "rømme"},
		},
		{
			Name:     "Tørrvarer",
			Keywords: []string{"pasta", "ris", "mel", "havre", "brød"},
		},
	}
}

// DefaultSubstitutions 食材替換預設對照表
func DefaultSubstitutions() map[string][]string {
	return map[string][]string{
		"brokkoli": {"blomkål", "grønnkål"},
		"gulrot":   {"søtpotet", "pastinakk"},
		"paprika":  {"tomat", "squash"},
		"kylling":  {"kalkun", "svin"},
		"laks":     {"torsk", "sei"},
		"pasta":    {"ris", "quinoa"},
		"melk":     {"havremelk", "fløte"},
	}
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證回購預測設定
	if config.Forecast.MinEvents < 2 {
		return fmt.Errorf("forecast min_events must be at least 2")
	}
	if config.Forecast.LowStockHorizonDays < 0 {
		return fmt.Errorf("invalid low stock horizon")
	}
	for _, rule := range config.Forecast.Categories {
		if rule.Name == "" || len(rule.Keywords) == 0 {
			return fmt.Errorf("forecast category rule requires name and keywords")
		}
		if rule.MaxSupplyDays < 0 || rule.SupplyFactor < 0 {
			return fmt.Errorf("invalid forecast category rule %q", rule.Name)
		}
	}

	// 驗證最佳化設定
	if config.Optimizer.DefaultDayCount <= 0 {
		return fmt.Errorf("optimizer default_day_count must be positive")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.Addr == "" {
			return fmt.Errorf("cache addr is required when cache is enabled")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	// 驗證 Kassal 設定
	if config.Kassal.Enabled && config.Kassal.APIKey == "" {
		return fmt.Errorf("kassal api key is required when kassal is enabled")
	}

	return nil
}
