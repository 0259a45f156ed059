// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level 日志级别
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器
func Init(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		zerolog.SetGlobalLevel(level)

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if cfg.FilePath != "" {
				f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err == nil {
					output = f
				} else {
					output = os.Stdout
				}
			} else {
				output = os.Stdout
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		Init(DefaultConfig())
	}
	return &logger
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()

	if reqID, ok := ctx.Value("request_id").(string); ok {
		l = l.With().Str("request_id", reqID).Logger()
	}

	if tenantID, ok := ctx.Value("tenant_id").(string); ok {
		l = l.With().Str("tenant_id", tenantID).Logger()
	}

	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// WithError 添加错误信息
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// EngineLogger 核心引擎专用日志器
type EngineLogger struct {
	base *zerolog.Logger
}

// NewEngineLogger 创建核心引擎日志器
func NewEngineLogger(component string) *EngineLogger {
	l := Get().With().Str("component", component).Logger()
	return &EngineLogger{base: &l}
}

// GenerationStart 记录排班生成开始
func (l *EngineLogger) GenerationStart(tenantID string, employees, days int) {
	l.base.Info().
		Str("tenant_id", tenantID).
		Int("employees", employees).
		Int("days", days).
		Msg("开始生成排班")
}

// GenerationComplete 记录排班生成完成
func (l *EngineLogger) GenerationComplete(tenantID string, duration time.Duration, compliance, balance float64) {
	l.base.Info().
		Str("tenant_id", tenantID).
		Dur("duration", duration).
		Float64("compliance_score", compliance).
		Float64("hierarchy_balance_score", balance).
		Msg("排班生成完成")
}

// StaffingShortfall 记录人力缺口
func (l *EngineLogger) StaffingShortfall(date string, shift string, level, assigned, required int) {
	l.base.Warn().
		Str("date", date).
		Str("shift", shift).
		Int("level", level).
		Int("assigned", assigned).
		Int("required", required).
		Msg("最低人力未满足")
}

// SupervisionGap 记录监督缺口
func (l *EngineLogger) SupervisionGap(date string, shift string, level int) {
	l.base.Warn().
		Str("date", date).
		Str("shift", shift).
		Int("level", level).
		Msg("监督缺口")
}

// FairnessAnalyzed 记录公平性分析完成
func (l *EngineLogger) FairnessAnalyzed(employees int, score float64, grade string) {
	l.base.Info().
		Int("employees", employees).
		Float64("fairness_score", score).
		Str("grade", grade).
		Msg("公平性分析完成")
}

// RiskDetected 记录检出的危险班次模式
func (l *EngineLogger) RiskDetected(employeeID string, issueType string, severity string) {
	l.base.Warn().
		Str("employee_id", employeeID).
		Str("issue", issueType).
		Str("severity", severity).
		Msg("检出危险班次模式")
}

// ReplacementPlanned 记录替班方案生成
func (l *EngineLogger) ReplacementPlanned(requestID string, coverage float64, uncovered int) {
	l.base.Info().
		Str("request_id", requestID).
		Float64("coverage", coverage).
		Int("uncovered", uncovered).
		Msg("替班方案生成完成")
}
