// Package model 定义排班核心引擎的数据模型
package model

import (
	"github.com/google/uuid"
)

// Employee 员工
// 疲劳度和负载比在每次排班前由调用方根据近期历史重算后传入
type Employee struct {
	BaseModel
	TenantID uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name     string    `json:"name" db:"name"`
	Team     string    `json:"team" db:"team"`
	Status   string    `json:"status" db:"status"` // active/inactive/leave

	// 层级与资质
	HierarchyLevel  int      `json:"hierarchy_level" db:"hierarchy_level"` // 层级（>=1，数字越小越资深）
	ExperienceYears float64  `json:"experience_years" db:"experience_years"`
	Certifications  []string `json:"certifications,omitempty" db:"certifications"`
	CrossTrained    bool     `json:"cross_trained" db:"cross_trained"` // 是否接受过跨级培训

	// 排班状态输入
	FatigueScore  float64 `json:"fatigue_score" db:"fatigue_score"`   // 疲劳度 0-10
	WorkloadRatio float64 `json:"workload_ratio" db:"workload_ratio"` // 当前负载比（1.0=标准）
	Performance   float64 `json:"performance" db:"performance"`       // 近期绩效 0-1
	Available     bool    `json:"available" db:"available"`

	// 轮转偏好模式：按天循环的期望班次序列（含 off）
	PreferencePattern []ShiftType `json:"preference_pattern,omitempty" db:"preference_pattern"`
	HourlyRate        float64     `json:"hourly_rate,omitempty" db:"hourly_rate"`
}

// IsActive 检查员工是否在职
func (e *Employee) IsActive() bool {
	return e.Status == "active"
}

// IsSchedulable 检查员工是否可参与排班
func (e *Employee) IsSchedulable() bool {
	return e.IsActive() && e.Available
}

// HasCertification 检查员工是否具备某证书
func (e *Employee) HasCertification(cert string) bool {
	for _, c := range e.Certifications {
		if c == cert {
			return true
		}
	}
	return false
}

// PreferredShiftOn 返回员工在横跨排班期第 dayIndex 天的偏好班次
// 偏好模式按长度循环；无模式时返回空
func (e *Employee) PreferredShiftOn(dayIndex int) (ShiftType, bool) {
	if len(e.PreferencePattern) == 0 || dayIndex < 0 {
		return "", false
	}
	return e.PreferencePattern[dayIndex%len(e.PreferencePattern)], true
}

// ClampedFatigue 返回截断到 [0,10] 的疲劳度
func (e *Employee) ClampedFatigue() float64 {
	return Clamp(e.FatigueScore, 0, 10)
}

// ClampedWorkload 返回截断到 [0,3] 的负载比
func (e *Employee) ClampedWorkload() float64 {
	return Clamp(e.WorkloadRatio, 0, 3)
}
