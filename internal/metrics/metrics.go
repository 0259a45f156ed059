// Package metrics 提供Prometheus监控指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 应用专用的指标注册表
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// HTTPRequestsTotal HTTP请求总数
var HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shiftlink",
	Name:      "http_requests_total",
	Help:      "HTTP请求总数",
}, []string{"method", "path", "status"})

// HTTPRequestDuration HTTP请求延迟
var HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "shiftlink",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP请求延迟",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
}, []string{"method", "path"})

// GenerationTotal 排班生成次数
var GenerationTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shiftlink",
	Name:      "generation_total",
	Help:      "排班生成次数（按结果状态）",
}, []string{"status"}) // completed/partial/failed

// GenerationDuration 排班生成延迟
var GenerationDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "shiftlink",
	Name:      "generation_duration_seconds",
	Help:      "排班生成延迟",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
})

// GenerationWarnings 生成过程中的软性警告数
var GenerationWarnings = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shiftlink",
	Name:      "generation_warnings_total",
	Help:      "排班生成软性警告数（按警告类型）",
}, []string{"code"}) // min_staffing/supervision_gap

// ComplianceScore 最近一次生成的合规分
var ComplianceScore = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "shiftlink",
	Name:      "compliance_score",
	Help:      "最近一次排班生成的合规分",
}, []string{"team"})

// HierarchyBalanceScore 最近一次生成的层级均衡分
var HierarchyBalanceScore = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "shiftlink",
	Name:      "hierarchy_balance_score",
	Help:      "最近一次排班生成的层级均衡分",
}, []string{"team"})

// FairnessGini 公平性基尼系数
var FairnessGini = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "shiftlink",
	Name:      "fairness_gini",
	Help:      "团队公平性基尼系数（按负担类别）",
}, []string{"team", "category"}) // night/weekend/hours

// PatternRiskDetected 检出的危险班次模式数
var PatternRiskDetected = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shiftlink",
	Name:      "pattern_risk_detected_total",
	Help:      "检出的危险班次模式数（按类型与严重度）",
}, []string{"issue_type", "severity"})

// ReplacementCoverageRate 替班方案的完全覆盖率
var ReplacementCoverageRate = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "shiftlink",
	Name:      "replacement_coverage_rate",
	Help:      "最近一次替班方案的完全覆盖率（百分比）",
})

// ReplacementUncovered 替班方案中无人可用的班次数
var ReplacementUncovered = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "shiftlink",
	Name:      "replacement_uncovered_total",
	Help:      "替班方案中无人可用的班次数（按紧急程度）",
}, []string{"urgency"})

// DBConnections 数据库连接数
var DBConnections = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "shiftlink",
	Name:      "db_connections",
	Help:      "数据库连接数",
}, []string{"state"}) // open/idle/in_use

// Handler 返回指标暴露端点
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
