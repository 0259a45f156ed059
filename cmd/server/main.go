// ShiftLink 排班核心引擎服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KNOCKYONG/shiftlink-sub002/internal/config"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/database"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/handler"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/metrics"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/middleware"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/repository"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/tenant"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/fairness"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/logger"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/pattern"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/replacement"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	fmt.Printf("ShiftLink 排班核心引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库连接可选：连接失败时退化为纯内存计算模式
	// 按处理器数据源接口声明，避免携带具体类型的nil指针
	var roster handler.RosterSource
	var history handler.HistorySource
	var plans handler.PlanStore
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库不可用，以纯内存计算模式启动")
	} else {
		defer db.Close()
		roster = repository.NewRosterRepository(db)
		history = repository.NewHistoryRepository(db)
		plans = repository.NewPlanRepository(db)
	}

	// 租户管理
	tenantManager := tenant.NewTenantManager()
	tenantManager.Register(tenant.CreateDefaultTenant())

	// 创建处理器
	scheduleHandler := handler.NewScheduleHandler(&cfg.Engine, roster, history, plans)
	analysisHandler := handler.NewAnalysisHandler(
		fairness.NewAnalyzerWithThreshold(cfg.Fairness.GiniThreshold),
		pattern.NewAnalyzerWithLimits(cfg.Pattern.MinRestHours, cfg.Pattern.FatigueHoursCeiling),
		history,
	)
	replacementHandler := handler.NewReplacementHandler(
		replacement.NewPlannerWithWeights(replacement.Weights{
			SameLevelExperience: cfg.Replacement.SameLevelExperience,
			CrossTraining:       cfg.Replacement.CrossTraining,
			Availability:        cfg.Replacement.Availability,
			RecentPerformance:   cfg.Replacement.RecentPerformance,
		}, cfg.Replacement.ScoreCutoff),
		plans,
	)
	policyHandler := handler.NewPolicyHandler()

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"shiftlink"}`))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "ShiftLink 排班核心引擎 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate"
				},
				"policies": {
					"library": "GET /api/v1/policies/library",
					"constraints": "GET /api/v1/policies/constraints"
				},
				"analysis": {
					"fairness": "POST /api/v1/analysis/fairness",
					"pattern": "POST /api/v1/analysis/pattern"
				},
				"replacement": {
					"plan": "POST /api/v1/replacement/plan"
				}
			}
		}`))
	})

	// 排班生成 API
	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)

	// 策略库 API
	mux.HandleFunc("/api/v1/policies/library", policyHandler.Library)
	mux.HandleFunc("/api/v1/policies/constraints", policyHandler.Constraints)

	// 分析 API
	mux.HandleFunc("/api/v1/analysis/fairness", analysisHandler.Fairness)
	mux.HandleFunc("/api/v1/analysis/pattern", analysisHandler.Pattern)

	// 替班规划 API
	mux.HandleFunc("/api/v1/replacement/plan", replacementHandler.Plan)

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// 中间件执行顺序：requestID -> tenant -> ratelimit -> logging -> recovery -> handler
	tenantMiddleware := middleware.TenantResolver(&middleware.TenantConfig{
		Manager:   tenantManager,
		SkipPaths: []string{"/health", "/version", cfg.Metrics.Path},
	})
	rateLimit := middleware.RateLimit(
		middleware.NewRateLimiter(cfg.API.RateLimit, time.Minute),
		[]string{"/health", "/version", cfg.Metrics.Path},
	)
	root := middleware.RequestID(tenantMiddleware(rateLimit(middleware.Logging(middleware.Recovery(mux)))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  cfg.API.Timeout,
		WriteTimeout: 2 * cfg.API.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}
