// Package policy 排班策略库
//
// 描述引擎支持的约束与评分策略，供前端配置页和API消费；
// 预设（preset）可直接映射为引擎的约束参数。
package policy

import (
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/engine/constraint"
)

// PolicyParam 策略参数定义
type PolicyParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, bool
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// PolicyDefinition 策略定义
type PolicyDefinition struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Type        string        `json:"type"`     // hard 硬约束, soft 软倾向
	Category    string        `json:"category"` // 分类
	Description string        `json:"description"`
	Params      []PolicyParam `json:"params"`
}

// LibraryResponse 策略库响应
type LibraryResponse struct {
	Library []PolicyDefinition `json:"library"`
	Presets []Preset           `json:"presets"`
}

// GetLibrary 获取完整的策略库
func GetLibrary() []PolicyDefinition {
	return []PolicyDefinition{
		{
			Name:        "min_rest_between_shifts",
			DisplayName: "班次间最小休息时间",
			Type:        "hard",
			Category:    "休息保障",
			Description: "确保员工在两个班次之间有足够的休息时间，违反则该候选分配被拒绝。",
			Params: []PolicyParam{
				{Name: "min_hours", Type: "int", Description: "最小休息时间(小时)", Default: "11", Min: "8", Max: "14"},
			},
		},
		{
			Name:        "max_consecutive_nights",
			DisplayName: "最大连续夜班",
			Type:        "hard",
			Category:    "休息保障",
			Description: "限制员工连续上夜班的天数，保护员工健康。",
			Params: []PolicyParam{
				{Name: "max_nights", Type: "int", Description: "最大连续夜班天数", Default: "5", Min: "2", Max: "7"},
			},
		},
		{
			Name:        "max_hours_per_week",
			DisplayName: "每周最大工时",
			Type:        "hard",
			Category:    "工时限制",
			Description: "限制员工每周（ISO周）的累计工作时长，确保符合劳动法规定。",
			Params: []PolicyParam{
				{Name: "max_hours", Type: "int", Description: "最大工时(小时)", Default: "52", Min: "36", Max: "60"},
			},
		},
		{
			Name:        "employee_preference",
			DisplayName: "员工偏好考虑",
			Type:        "soft",
			Category:    "偏好",
			Description: "按员工的轮转偏好模式加分，偏好休息日被排班则扣分。",
			Params: []PolicyParam{
				{Name: "prioritize", Type: "bool", Description: "提高偏好权重", Default: "false"},
			},
		},
		{
			Name:        "fatigue_guard",
			DisplayName: "疲劳门槛",
			Type:        "soft",
			Category:    "健康保障",
			Description: "疲劳度过高的员工默认不参与排班；紧急模式下放开门槛仅扣分。",
			Params: []PolicyParam{
				{Name: "allow_override", Type: "bool", Description: "允许高疲劳员工参与", Default: "false"},
			},
		},
		{
			Name:        "workload_balance",
			DisplayName: "工作量均衡",
			Type:        "soft",
			Category:    "公平性",
			Description: "按负载比调整评分，使各员工的工作量分布均匀。",
			Params: []PolicyParam{
				{Name: "low_threshold", Type: "float", Description: "低负载加分阈值", Default: "0.8"},
				{Name: "high_threshold", Type: "float", Description: "高负载扣分阈值", Default: "1.2"},
			},
		},
	}
}

// Preset 策略预设：一组可直接生效的约束参数
type Preset struct {
	Name                string  `json:"name"`
	DisplayName         string  `json:"display_name"`
	Description         string  `json:"description"`
	MinRestHours        float64 `json:"min_rest_hours"`
	MaxConsecutiveNight int     `json:"max_consecutive_nights"`
	MaxWeeklyHours      float64 `json:"max_weekly_hours"`
}

// GetPresets 获取内置预设
func GetPresets() []Preset {
	return []Preset{
		{
			Name:                "standard",
			DisplayName:         "标准",
			Description:         "默认的法定约束参数，适用于常规排班周期。",
			MinRestHours:        constraint.DefaultMinRestHours,
			MaxConsecutiveNight: constraint.DefaultMaxConsecutiveNight,
			MaxWeeklyHours:      constraint.DefaultMaxWeeklyHours,
		},
		{
			Name:                "strict",
			DisplayName:         "严格",
			Description:         "在法定下限之上加码的保守参数，夜班与工时更收紧。",
			MinRestHours:        12,
			MaxConsecutiveNight: 3,
			MaxWeeklyHours:      48,
		},
	}
}

// FindPreset 按名称查找预设
func FindPreset(name string) (Preset, bool) {
	for _, p := range GetPresets() {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Apply 将预设注册到约束管理器
func (p Preset) Apply(cm *constraint.Manager) {
	cm.Register(constraint.NewMinRestConstraint(p.MinRestHours))
	cm.Register(constraint.NewMaxConsecutiveNightsConstraint(p.MaxConsecutiveNight))
	cm.Register(constraint.NewMaxWeeklyHoursConstraint(p.MaxWeeklyHours))
}
