// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	App         AppConfig         `yaml:"app"`
	Database    DatabaseConfig    `yaml:"database"`
	API         APIConfig         `yaml:"api"`
	Engine      EngineConfig      `yaml:"engine"`
	Fairness    FairnessConfig    `yaml:"fairness"`
	Pattern     PatternConfig     `yaml:"pattern"`
	Replacement ReplacementConfig `yaml:"replacement"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
}

// EngineConfig 排班引擎配置
type EngineConfig struct {
	DefaultTimeout      time.Duration `yaml:"default_timeout"`
	MinRestHours        float64       `yaml:"min_rest_hours"`
	MaxConsecutiveNight int           `yaml:"max_consecutive_night"`
	MaxWeeklyHours      float64       `yaml:"max_weekly_hours"`
}

// FairnessConfig 公平性分析配置
type FairnessConfig struct {
	GiniThreshold float64 `yaml:"gini_threshold"` // 归一化基尼的问题区域阈值 0-100
}

// PatternConfig 模式风险分析配置
type PatternConfig struct {
	MinRestHours        float64 `yaml:"min_rest_hours"`
	FatigueHoursCeiling float64 `yaml:"fatigue_hours_ceiling"` // 14 天累计工时上限
}

// ReplacementConfig 替班规划配置
type ReplacementConfig struct {
	ScoreCutoff         float64 `yaml:"score_cutoff"`
	SameLevelExperience float64 `yaml:"same_level_experience"`
	CrossTraining       float64 `yaml:"cross_training"`
	Availability        float64 `yaml:"availability"`
	RecentPerformance   float64 `yaml:"recent_performance"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "shiftlink"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7012),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "shiftlink"),
			User:            getEnv("DB_USER", "shiftlink"),
			Password:        getEnv("DB_PASSWORD", "shiftlink123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 100),
			Timeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
		},
		Engine: EngineConfig{
			DefaultTimeout:      getEnvDuration("ENGINE_TIMEOUT", 30*time.Second),
			MinRestHours:        getEnvFloat("ENGINE_MIN_REST_HOURS", 11),
			MaxConsecutiveNight: getEnvInt("ENGINE_MAX_CONSECUTIVE_NIGHT", 5),
			MaxWeeklyHours:      getEnvFloat("ENGINE_MAX_WEEKLY_HOURS", 52),
		},
		Fairness: FairnessConfig{
			GiniThreshold: getEnvFloat("FAIRNESS_GINI_THRESHOLD", 50),
		},
		Pattern: PatternConfig{
			MinRestHours:        getEnvFloat("PATTERN_MIN_REST_HOURS", 11),
			FatigueHoursCeiling: getEnvFloat("PATTERN_FATIGUE_HOURS_CEILING", 100),
		},
		Replacement: ReplacementConfig{
			ScoreCutoff:         getEnvFloat("REPLACEMENT_SCORE_CUTOFF", 0.3),
			SameLevelExperience: getEnvFloat("REPLACEMENT_WEIGHT_SAME_LEVEL", 0.4),
			CrossTraining:       getEnvFloat("REPLACEMENT_WEIGHT_CROSS_TRAINING", 0.3),
			Availability:        getEnvFloat("REPLACEMENT_WEIGHT_AVAILABILITY", 0.2),
			RecentPerformance:   getEnvFloat("REPLACEMENT_WEIGHT_PERFORMANCE", 0.1),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
