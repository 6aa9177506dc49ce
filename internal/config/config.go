package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// GameConfig 游戏事件引擎配置
// 奖励常量历史上出现过多个版本（速度档 1.2/1.0/0.8 与 1.4/1.0/0.7 等），
// 因此全部常量走配置，默认值取最终上线的版本。
type GameConfig struct {
	Reward    RewardConfig    `mapstructure:"reward"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	AntiCheat AntiCheatConfig `mapstructure:"anti_cheat"`
}

// RewardConfig 奖励计算配置
type RewardConfig struct {
	DifficultyEasyMultiplier   float64 `mapstructure:"difficulty_easy_multiplier"`
	DifficultyMediumMultiplier float64 `mapstructure:"difficulty_medium_multiplier"`
	DifficultyHardMultiplier   float64 `mapstructure:"difficulty_hard_multiplier"`

	// 连续登录奖励档位，取满足条件的最高档
	StreakTier1Days       int     `mapstructure:"streak_tier1_days"`
	StreakTier1Multiplier float64 `mapstructure:"streak_tier1_multiplier"`
	StreakTier2Days       int     `mapstructure:"streak_tier2_days"`
	StreakTier2Multiplier float64 `mapstructure:"streak_tier2_multiplier"`
	StreakTier3Days       int     `mapstructure:"streak_tier3_days"`
	StreakTier3Multiplier float64 `mapstructure:"streak_tier3_multiplier"`

	BonusEventMultiplier     float64 `mapstructure:"bonus_event_multiplier"`
	VIPMultiplier            float64 `mapstructure:"vip_multiplier"`
	EarlySupporterMultiplier float64 `mapstructure:"early_supporter_multiplier"` // 仅与VIP叠加
	BetaTesterMultiplier     float64 `mapstructure:"beta_tester_multiplier"`

	MultiplierMin float64 `mapstructure:"multiplier_min"`
	MultiplierMax float64 `mapstructure:"multiplier_max"`

	// 升级经验曲线: floor(xp_base * xp_growth^n + n * xp_per_level)
	XPBase     float64 `mapstructure:"xp_base"`
	XPGrowth   float64 `mapstructure:"xp_growth"`
	XPPerLevel float64 `mapstructure:"xp_per_level"`

	SpeedFastMultiplier   float64 `mapstructure:"speed_fast_multiplier"`   // 用时 <= 期望用时
	SpeedNormalMultiplier float64 `mapstructure:"speed_normal_multiplier"` // 用时 <= 2x 期望用时
	SpeedSlowMultiplier   float64 `mapstructure:"speed_slow_multiplier"`
	HintPenaltyStep       float64 `mapstructure:"hint_penalty_step"` // 每个提示的惩罚系数
	HintPenaltyMax        float64 `mapstructure:"hint_penalty_max"`
	RepeatRewardRate      float64 `mapstructure:"repeat_reward_rate"` // 重复通关奖励比例
	LegacyBonusRate       float64 `mapstructure:"legacy_bonus_rate"`  // 回头重做已过关卡的奖励比例
	SkipBonusRate         float64 `mapstructure:"skip_bonus_rate"`    // 跳关奖励比例
	ComboStreakThreshold  int     `mapstructure:"combo_streak_threshold"`
	ComboStreakBonus      float64 `mapstructure:"combo_streak_bonus"`
	ComboRareBonus        float64 `mapstructure:"combo_rare_bonus"`
	BonusItemChance       float64 `mapstructure:"bonus_item_chance"` // 通关掉落道具的概率
	BonusItemName         string  `mapstructure:"bonus_item_name"`
	SeasonedXPThreshold   int64   `mapstructure:"seasoned_xp_threshold"`
	VIPJackpotChance      float64 `mapstructure:"vip_jackpot_chance"`
	VIPJackpotCoins       int64   `mapstructure:"vip_jackpot_coins"`
	VIPDailyCoins         int64   `mapstructure:"vip_daily_coins"`

	// 普通玩家每日签到奖励，按连续登录档位取值
	DailyBaseCoins  int64 `mapstructure:"daily_base_coins"`
	DailyTier1Coins int64 `mapstructure:"daily_tier1_coins"` // 连续 >= streak_tier1_days
	DailyTier2Coins int64 `mapstructure:"daily_tier2_coins"` // 连续 >= streak_tier2_days

	FestivalXPThreshold int64 `mapstructure:"festival_xp_threshold"` // 高级奖池的经验门槛
}

// RateLimitConfig 按用户滑动窗口限流配置
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Window    time.Duration `mapstructure:"window"`
	MaxEvents int           `mapstructure:"max_events"`
}

// AntiCheatConfig 反作弊配置
type AntiCheatConfig struct {
	MinCompletionSeconds float64 `mapstructure:"min_completion_seconds"`
	CoinCeiling          int64   `mapstructure:"coin_ceiling"`
}

// LLMConfig 大模型代理配置
type LLMConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	ExpireHours  int    `mapstructure:"expire_hours"`
	RefreshHours int    `mapstructure:"refresh_hours"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()

		// 设置配置文件路径
		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		// 设置环境变量前缀
		v.SetEnvPrefix("PHYSICS_GAME")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		// 设置默认值
		setDefaults(v)

		// 读取配置文件
		if err = v.ReadInConfig(); err != nil {
			// 如果配置文件不存在，使用默认配置
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return
			}
			err = nil
		}

		// 解析配置到结构体
		cfg = &Config{}
		err = v.Unmarshal(cfg)
	})

	return err
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/physics-game.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "info")
	v.SetDefault("database.auto_migrate", true)

	// 奖励引擎默认配置
	v.SetDefault("game.reward.difficulty_easy_multiplier", 1.0)
	v.SetDefault("game.reward.difficulty_medium_multiplier", 1.2)
	v.SetDefault("game.reward.difficulty_hard_multiplier", 1.5)
	v.SetDefault("game.reward.streak_tier1_days", 3)
	v.SetDefault("game.reward.streak_tier1_multiplier", 1.1)
	v.SetDefault("game.reward.streak_tier2_days", 7)
	v.SetDefault("game.reward.streak_tier2_multiplier", 1.3)
	v.SetDefault("game.reward.streak_tier3_days", 30)
	v.SetDefault("game.reward.streak_tier3_multiplier", 2.0)
	v.SetDefault("game.reward.bonus_event_multiplier", 1.25)
	v.SetDefault("game.reward.vip_multiplier", 1.5)
	v.SetDefault("game.reward.early_supporter_multiplier", 1.2)
	v.SetDefault("game.reward.beta_tester_multiplier", 1.15)
	v.SetDefault("game.reward.multiplier_min", 0.5)
	v.SetDefault("game.reward.multiplier_max", 5.0)
	v.SetDefault("game.reward.xp_base", 50)
	v.SetDefault("game.reward.xp_growth", 1.18)
	v.SetDefault("game.reward.xp_per_level", 10)
	v.SetDefault("game.reward.speed_fast_multiplier", 1.4)
	v.SetDefault("game.reward.speed_normal_multiplier", 1.0)
	v.SetDefault("game.reward.speed_slow_multiplier", 0.7)
	v.SetDefault("game.reward.hint_penalty_step", 0.12)
	v.SetDefault("game.reward.hint_penalty_max", 0.9)
	v.SetDefault("game.reward.repeat_reward_rate", 0.05)
	v.SetDefault("game.reward.legacy_bonus_rate", 0.15)
	v.SetDefault("game.reward.skip_bonus_rate", 0.4)
	v.SetDefault("game.reward.combo_streak_threshold", 5)
	v.SetDefault("game.reward.combo_streak_bonus", 0.1)
	v.SetDefault("game.reward.combo_rare_bonus", 0.2)
	v.SetDefault("game.reward.bonus_item_chance", 0.1)
	v.SetDefault("game.reward.bonus_item_name", "Lucky Charm")
	v.SetDefault("game.reward.seasoned_xp_threshold", 2000)
	v.SetDefault("game.reward.vip_jackpot_chance", 0.3)
	v.SetDefault("game.reward.vip_jackpot_coins", 50)
	v.SetDefault("game.reward.vip_daily_coins", 20)
	v.SetDefault("game.reward.daily_base_coins", 5)
	v.SetDefault("game.reward.daily_tier1_coins", 10)
	v.SetDefault("game.reward.daily_tier2_coins", 20)
	v.SetDefault("game.reward.festival_xp_threshold", 600)

	// 限流默认配置
	v.SetDefault("game.rate_limit.enabled", true)
	v.SetDefault("game.rate_limit.window", "60s")
	v.SetDefault("game.rate_limit.max_events", 60)

	// 反作弊默认配置
	v.SetDefault("game.anti_cheat.min_completion_seconds", 1.0)
	v.SetDefault("game.anti_cheat.coin_ceiling", 1000000)

	// LLM代理默认配置
	v.SetDefault("llm.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.requests_per_minute", 12)

	// 安全默认配置
	v.SetDefault("security.jwt.secret", "change-me-in-production")
	v.SetDefault("security.jwt.expire_hours", 1)
	v.SetDefault("security.jwt.refresh_hours", 168)

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "physics-game.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)
}

// DefaultGameConfig 返回默认的游戏引擎配置（测试和未初始化场景使用）
func DefaultGameConfig() GameConfig {
	dv := viper.New()
	setDefaults(dv)
	var c Config
	if err := dv.Unmarshal(&c); err != nil {
		panic(fmt.Sprintf("默认配置解析失败: %v", err))
	}
	return c.Game
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		cfg = newCfg

		if callback != nil {
			callback(cfg)
		}
	})
}

// GetString 获取字符串配置
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt 获取整数配置
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetBool 获取布尔配置
func GetBool(key string) bool {
	return v.GetBool(key)
}

// GetDuration 获取时间间隔配置
func GetDuration(key string) time.Duration {
	return v.GetDuration(key)
}

// IsSet 检查配置项是否存在
func IsSet(key string) bool {
	return v.IsSet(key)
}

// Set 动态设置配置值
func Set(key string, value interface{}) {
	v.Set(key, value)
}
