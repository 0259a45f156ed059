// Package model 定义排班核心引擎的数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// ShiftAssignment 排班分配：一名员工在一个日期上的班次
// 每个 (员工, 日期) 恰好一条记录，off 也是合法的最终分配
type ShiftAssignment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	EmployeeID     uuid.UUID `json:"employee_id" db:"employee_id"`
	Date           string    `json:"date" db:"date"` // YYYY-MM-DD
	ShiftType      ShiftType `json:"shift_type" db:"shift_type"`
	HierarchyLevel int       `json:"hierarchy_level" db:"hierarchy_level"` // 冗余存储，便于独立消费
	IsSupervisor   bool      `json:"is_supervisor" db:"is_supervisor"`

	// 历史分析用的可选标记
	Preferred bool   `json:"preferred,omitempty" db:"preferred"`   // 是否命中员工偏好
	LeaveType string `json:"leave_type,omitempty" db:"leave_type"` // 请假类型（off 时可选）
}

// IsWorking 检查是否为工作班次分配
func (a *ShiftAssignment) IsWorking() bool {
	return a.ShiftType.IsWorking()
}

// Window 返回分配的起止时间（off 返回零值）
func (a *ShiftAssignment) Window() (time.Time, time.Time) {
	return a.ShiftType.WindowOn(a.Date)
}

// WorkingHours 返回分配的工作时长（小时）
func (a *ShiftAssignment) WorkingHours() float64 {
	return a.ShiftType.Hours()
}

// GenerationOptions 排班生成选项
type GenerationOptions struct {
	PrioritizePreferences bool `json:"prioritize_preferences"` // 提高偏好命中的权重
	AllowFatigueOverride  bool `json:"allow_fatigue_override"` // 允许高疲劳员工参与（仅扣分）
	EmergencyMode         bool `json:"emergency_mode"`         // 紧急模式：放开疲劳门槛
}

// Warning 排班过程中的软性问题（不中断生成）
type Warning struct {
	Code      string    `json:"code"` // min_staffing/supervision_gap
	Date      string    `json:"date"`
	ShiftType ShiftType `json:"shift_type"`
	Level     int       `json:"level"`
	Message   string    `json:"message"`
}

// GenerationResult 排班生成结果
type GenerationResult struct {
	Assignments           []*ShiftAssignment `json:"assignments"`
	ComplianceScore       float64            `json:"compliance_score"`        // 0-100
	HierarchyBalanceScore float64            `json:"hierarchy_balance_score"` // 0-100
	Warnings              []Warning          `json:"warnings"`
	ViolationCount        int                `json:"violation_count"`
	Partial               bool               `json:"partial"` // 被取消时为部分结果，不得当作最终方案
	Metadata              GenerationMetadata `json:"metadata"`
}

// GenerationMetadata 生成元信息
type GenerationMetadata struct {
	TenantID      uuid.UUID     `json:"tenant_id"`
	Team          string        `json:"team"`
	Range         DateRange     `json:"range"`
	EmployeeCount int           `json:"employee_count"`
	DayCount      int           `json:"day_count"`
	Duration      time.Duration `json:"duration"`
	GeneratedAt   time.Time     `json:"generated_at"`
}
