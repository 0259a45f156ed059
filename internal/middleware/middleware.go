// Package middleware 提供HTTP中间件
package middleware

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KNOCKYONG/shiftlink-sub002/internal/metrics"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/tenant"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/logger"
)

// statusRecorder 捕获响应状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging 请求日志中间件（含延迟与指标上报）
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		tenantCode := "anonymous"
		if t, ok := tenant.FromContext(r.Context()); ok {
			tenantCode = t.Code
		}

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Str("tenant", tenantCode).
			Dur("duration", duration).
			Msg("HTTP请求")

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration.Seconds())
	})
}

// Recovery 恢复中间件（捕获panic）
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error().
					Interface("panic", err).
					Str("path", r.URL.Path).
					Msg("请求处理发生panic")
				http.Error(w, `{"error":"internal_error","message":"服务器内部错误"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestID 请求ID中间件
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

// TenantConfig 租户解析配置
type TenantConfig struct {
	Manager   *tenant.TenantManager
	SkipPaths []string // 跳过租户解析的路径
}

// TenantResolver 租户解析中间件
// 从 X-Tenant-Code 请求头解析租户并注入上下文
func TenantResolver(cfg *TenantConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range cfg.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			code := r.Header.Get("X-Tenant-Code")
			if code == "" {
				code = "default"
			}

			t, err := cfg.Manager.Get(code)
			if err != nil {
				http.Error(w, `{"error":"tenant_error","message":"租户不可用"}`, http.StatusForbidden)
				return
			}

			ctx := tenant.WithTenant(r.Context(), t)
			w.Header().Set("X-Tenant-ID", t.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("req_%x", b[:8])
}
