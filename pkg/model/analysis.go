// Package model 定义排班核心引擎的数据模型
package model

import (
	"github.com/google/uuid"
)

// FairnessGrade 团队公平性等级（有序）
type FairnessGrade string

const (
	GradeExcellent    FairnessGrade = "excellent"
	GradeGood         FairnessGrade = "good"
	GradeFair         FairnessGrade = "fair"
	GradePoor         FairnessGrade = "poor"
	GradeUnacceptable FairnessGrade = "unacceptable"
)

// GradeFromScore 由公平性总分映射等级（分数的单调函数）
func GradeFromScore(score float64) FairnessGrade {
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 80:
		return GradeGood
	case score >= 60:
		return GradeFair
	case score >= 40:
		return GradePoor
	default:
		return GradeUnacceptable
	}
}

// FairnessMetrics 员工公平性快照
type FairnessMetrics struct {
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`

	// 负担分布
	NightShifts   int     `json:"night_shifts"`
	WeekendShifts int     `json:"weekend_shifts"`
	TotalHours    float64 `json:"total_hours"`

	// 机会分布
	PreferredShifts int     `json:"preferred_shifts"`
	WorkedDays      int     `json:"worked_days"`
	PreferredRatio  float64 `json:"preferred_ratio"`

	// 三项子分（均为 0-100）
	BurdenScore      float64 `json:"burden_score"`
	OpportunityScore float64 `json:"opportunity_score"`
	HealthScore      float64 `json:"health_score"`

	// 三项子分的固定权重组合
	OverallFairness float64 `json:"overall_fairness"`
}

// ProblemArea 公平性问题区域
type ProblemArea struct {
	Category          string      `json:"category"` // night_shift_inequality/weekend_inequality/hours_inequality
	Severity          Severity    `json:"severity"`
	NormalizedGini    float64     `json:"normalized_gini"` // 0-100
	AffectedEmployees []uuid.UUID `json:"affected_employees"`
	Recommendations   []string    `json:"recommendations"`
}

// ImprovementPriority 改进优先级（按严重度和预期影响排序）
type ImprovementPriority struct {
	Rank            int     `json:"rank"`
	Category        string  `json:"category"`
	EstimatedImpact float64 `json:"estimated_impact"` // 0-100
	Action          string  `json:"action"`
}

// TeamFairnessAnalysis 团队公平性分析
type TeamFairnessAnalysis struct {
	FairnessScore         float64               `json:"fairness_score"` // 0-100
	FairnessGrade         FairnessGrade         `json:"fairness_grade"`
	NightShiftGini        float64               `json:"night_shift_gini"`   // 0-1
	WeekendShiftGini      float64               `json:"weekend_shift_gini"` // 0-1
	HoursGini             float64               `json:"hours_gini"`         // 0-1
	ProblemAreas          []ProblemArea         `json:"problem_areas"`
	ImprovementPriorities []ImprovementPriority `json:"improvement_priorities"`
}

// RiskLevel 班次模式风险等级（风险分的单调分桶）
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevelFromScore 由风险分映射风险等级
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskIssueType 危险班次模式类型（封闭枚举）
type RiskIssueType string

const (
	IssueConsecutiveTriple   RiskIssueType = "consecutive_triple_shift"
	IssueAlternatingChaos    RiskIssueType = "alternating_chaos"
	IssueDoubleWithoutRest   RiskIssueType = "double_without_rest"
	IssueExcessiveNights     RiskIssueType = "excessive_nights"
	IssueWeekendHeavy        RiskIssueType = "weekend_heavy"
	IssueFatigueAccumulation RiskIssueType = "fatigue_accumulation"
)

// RiskIssue 检出的危险模式
type RiskIssue struct {
	Type          RiskIssueType `json:"type"`
	Severity      Severity      `json:"severity"`
	AffectedDates []string      `json:"affected_dates"`
	Description   string        `json:"description"`
	Weight        float64       `json:"weight"` // 对风险分的加权贡献
}

// PatternRiskAnalysis 员工班次模式风险快照
type PatternRiskAnalysis struct {
	EmployeeID      uuid.UUID   `json:"employee_id"`
	RiskScore       float64     `json:"risk_score"` // 0-100
	RiskLevel       RiskLevel   `json:"risk_level"`
	DetectedIssues  []RiskIssue `json:"detected_issues"`
	Recommendations []string    `json:"recommendations"`
}

// TeamRiskSummary 团队风险汇总
type TeamRiskSummary struct {
	TeamRiskScore         float64           `json:"team_risk_score"` // 个体风险分均值
	LevelDistribution     map[RiskLevel]int `json:"level_distribution"`
	UrgentRecommendations []string          `json:"urgent_recommendations"` // 来自 critical/high 问题
}

// ReplacementType 替班候选类型
type ReplacementType string

const (
	ReplacementSameLevelSenior   ReplacementType = "same_level_senior"
	ReplacementUpperLevel        ReplacementType = "upper_level_available"
	ReplacementCrossTrainedLower ReplacementType = "cross_trained_lower_level"
	ReplacementExternalFloat     ReplacementType = "external_float_pool"
)

// AvailabilityStatus 候选人可用状态
type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityPartial     AvailabilityStatus = "partial"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
)

// AffectedShift 缺勤影响到的班次
type AffectedShift struct {
	Date                     string    `json:"date"`
	ShiftType                ShiftType `json:"shift_type"`
	Team                     string    `json:"team"`
	RequiredSupervisionLevel int       `json:"required_supervision_level"`
}

// ReplacementRequest 替班请求（由缺勤事件触发）
type ReplacementRequest struct {
	ID                   uuid.UUID       `json:"id"`
	OriginalSupervisorID uuid.UUID       `json:"original_supervisor_id"`
	AbsenceStart         string          `json:"absence_start"` // YYYY-MM-DD
	AbsenceEnd           string          `json:"absence_end"`   // YYYY-MM-DD
	AffectedShifts       []AffectedShift `json:"affected_shifts"`
	Urgency              Urgency         `json:"urgency"`
}

// Validate 检查替班请求的完整性
func (r *ReplacementRequest) Validate() error {
	if r.OriginalSupervisorID == uuid.Nil {
		return errEmptyField("original_supervisor_id")
	}
	if len(r.AffectedShifts) == 0 {
		return errEmptyField("affected_shifts")
	}
	if !r.Urgency.Valid() {
		return errEmptyField("urgency")
	}
	for _, s := range r.AffectedShifts {
		if !s.ShiftType.IsWorking() {
			return errEmptyField("affected_shifts.shift_type")
		}
	}
	return nil
}

// ReplacementCandidate 替班候选人评分
type ReplacementCandidate struct {
	EmployeeID         uuid.UUID          `json:"employee_id"`
	EmployeeName       string             `json:"employee_name"`
	HierarchyLevel     int                `json:"hierarchy_level"`
	ReplacementType    ReplacementType    `json:"replacement_type"`
	ReplacementScore   float64            `json:"replacement_score"` // 0-1
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
	QualificationMatch float64            `json:"qualification_match"` // 0-100
	Conflicts          []string           `json:"conflicts,omitempty"`
}

// ShiftCoverage 单个受影响班次的覆盖安排
type ShiftCoverage struct {
	Shift      AffectedShift          `json:"shift"`
	Primary    *ReplacementCandidate  `json:"primary,omitempty"` // 无人可用时为空，置零信心
	Backups    []*ReplacementCandidate `json:"backups,omitempty"` // 最多 2 名
	Confidence float64                `json:"confidence"` // 0-1
}

// CoverageAnalysis 替班覆盖情况
type CoverageAnalysis struct {
	FullCoverage           int     `json:"full_coverage"`
	PartialCoverage        int     `json:"partial_coverage"`
	Uncovered              int     `json:"uncovered"`
	FullCoveragePercentage float64 `json:"full_coverage_percentage"` // 0-100
}

// ReplacementPlan 替班方案
type ReplacementPlan struct {
	RequestID        uuid.UUID        `json:"request_id"`
	ShiftCoverages   []ShiftCoverage  `json:"shift_coverages"`
	Coverage         CoverageAnalysis `json:"coverage_analysis"`
	ApprovalRequired bool             `json:"approval_required"`
	EstimatedCost    float64          `json:"estimated_cost"`
}

func errEmptyField(field string) error {
	return &FieldError{Field: field}
}

// FieldError 字段缺失或无效
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return "字段缺失或无效: " + e.Field
}
