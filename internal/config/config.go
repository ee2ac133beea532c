package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 1790
	defaultMaxConnections   = 2000
	defaultRedisAddr        = "localhost:6379"
	defaultMaxPlayers       = 8
	defaultSelectionTimeout = 60
	defaultGameTimeout      = 600
	defaultReconnectGrace   = 30
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Game     GameConfig     `yaml:"game"`
	Words    WordsConfig    `yaml:"words"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	Codec          string `yaml:"codec"` // json | protobuf
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// 存储驱动
const (
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
	StorageNone   = "none"
)

// StorageConfig 对局结果存储配置
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
}

// GameConfig 游戏配置
type GameConfig struct {
	MaxPlayers            int    `yaml:"max_players"`
	CodeLength            int    `yaml:"code_length"`
	CodeAttempts          int    `yaml:"code_attempts"`
	CodeSeed              uint64 `yaml:"code_seed"`               // 0 表示使用当前时间
	SelectionTimeout      int    `yaml:"selection_timeout"`       // 选词阶段超时（秒）
	GameTimeout           int    `yaml:"game_timeout"`            // 对局超时（秒）
	ReconnectGrace        int    `yaml:"reconnect_grace"`         // 断线保留时间（秒）
	RoomIdleTimeout       int    `yaml:"room_idle_timeout"`       // 无人在线时房间保留时间（秒）
	ShutdownTimeout       int    `yaml:"shutdown_timeout"`        // 优雅关闭等待时间（秒）
	ShutdownCheckInterval int    `yaml:"shutdown_check_interval"` // 关闭检查间隔（秒）
}

// WordsConfig 词库配置，文件为空时使用内置词库
type WordsConfig struct {
	AnswersFile     string `yaml:"answers_file"`
	AllowedFile     string `yaml:"allowed_file"`
	ChallengingFile string `yaml:"challenging_file"`
	DailySalt       string `yaml:"daily_salt"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string    `yaml:"allowed_origins"`
	RateLimit      LimitConfig `yaml:"rate_limit"`    // 新连接（按 IP）
	MessageLimit   LimitConfig `yaml:"message_limit"` // 消息（按连接）
}

// LimitConfig 令牌桶参数
type LimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// SelectionTimeoutDuration 返回选词超时时长
func (c *GameConfig) SelectionTimeoutDuration() time.Duration {
	return time.Duration(c.SelectionTimeout) * time.Second
}

// GameTimeoutDuration 返回对局超时时长
func (c *GameConfig) GameTimeoutDuration() time.Duration {
	return time.Duration(c.GameTimeout) * time.Second
}

// ReconnectGraceDuration 返回断线保留时长
func (c *GameConfig) ReconnectGraceDuration() time.Duration {
	return time.Duration(c.ReconnectGrace) * time.Second
}

// RoomIdleTimeoutDuration 返回空闲房间保留时长
func (c *GameConfig) RoomIdleTimeoutDuration() time.Duration {
	return time.Duration(c.RoomIdleTimeout) * time.Second
}

// ShutdownTimeoutDuration 返回优雅关闭等待时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// ShutdownCheckIntervalDuration 返回关闭检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// ApplyEnv 使用 WORDLE_* 环境变量覆盖配置
func (c *Config) ApplyEnv() {
	if v := os.Getenv("WORDLE_HOST"); v != "" {
		c.Server.Host = v
	}
	if v, err := strconv.Atoi(os.Getenv("WORDLE_PORT")); err == nil && v > 0 {
		c.Server.Port = v
	}
	if v := os.Getenv("WORDLE_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("WORDLE_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("WORDLE_STORAGE"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("WORDLE_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("WORDLE_DAILY_SALT"); v != "" {
		c.Words.DailySalt = v
	}
	if v := os.Getenv("WORDLE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = defaultMaxConnections
	}
	if cfg.Server.Codec == "" {
		cfg.Server.Codec = "json"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageRedis
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/wordle.db"
	}
	if cfg.Game.MaxPlayers == 0 {
		cfg.Game.MaxPlayers = defaultMaxPlayers
	}
	if cfg.Game.CodeLength == 0 {
		cfg.Game.CodeLength = 4
	}
	if cfg.Game.CodeAttempts == 0 {
		cfg.Game.CodeAttempts = 16
	}
	if cfg.Game.SelectionTimeout == 0 {
		cfg.Game.SelectionTimeout = defaultSelectionTimeout
	}
	if cfg.Game.GameTimeout == 0 {
		cfg.Game.GameTimeout = defaultGameTimeout
	}
	if cfg.Game.ReconnectGrace == 0 {
		cfg.Game.ReconnectGrace = defaultReconnectGrace
	}
	if cfg.Game.RoomIdleTimeout == 0 {
		cfg.Game.RoomIdleTimeout = 120
	}
	if cfg.Game.ShutdownTimeout == 0 {
		cfg.Game.ShutdownTimeout = 600
	}
	if cfg.Game.ShutdownCheckInterval == 0 {
		cfg.Game.ShutdownCheckInterval = 10
	}
	if cfg.Words.DailySalt == "" {
		cfg.Words.DailySalt = "wordle-party"
	}
	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}
	if cfg.Security.RateLimit.PerSecond == 0 {
		cfg.Security.RateLimit.PerSecond = 5
	}
	if cfg.Security.RateLimit.Burst == 0 {
		cfg.Security.RateLimit.Burst = 20
	}
	if cfg.Security.MessageLimit.PerSecond == 0 {
		cfg.Security.MessageLimit.PerSecond = 10
	}
	if cfg.Security.MessageLimit.Burst == 0 {
		cfg.Security.MessageLimit.Burst = 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
