// Package model 定义排班核心引擎的数据模型
package model

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// CoverageRule 某层级在某班次类型上的人力配置要求
type CoverageRule struct {
	MinRequired int `json:"min_required"` // 最低人数（硬性下限）
	Preferred   int `json:"preferred"`    // 期望人数
	MaxAllowed  int `json:"max_allowed"`  // 最多人数
}

// Valid 检查配置要求是否满足 min <= preferred <= max
func (r CoverageRule) Valid() bool {
	return r.MinRequired >= 0 && r.MinRequired <= r.Preferred && r.Preferred <= r.MaxAllowed
}

// StaffingRequirement 层级人力需求
// 每个层级携带自己的分班配置、监督能力和分配优先级
type StaffingRequirement struct {
	Level               int                        `json:"level" db:"level"`                 // 层级编号（>=1）
	Name                string                     `json:"name" db:"name"`                   // 层级名称（如：责任护士）
	PriorityOrder       int                        `json:"priority_order" db:"priority_order"` // 分配顺序，小者先分配
	PriorityWeight      float64                    `json:"priority_weight" db:"priority_weight"`
	CanWorkAlone        bool                       `json:"can_work_alone" db:"can_work_alone"`
	RequiresSupervision bool                       `json:"requires_supervision" db:"requires_supervision"`
	CanSupervise        []int                      `json:"can_supervise,omitempty" db:"can_supervise"` // 可监督的层级列表
	Coverage            map[ShiftType]CoverageRule `json:"coverage" db:"coverage"`
}

// CoverageFor 返回某班次类型的配置要求
func (s *StaffingRequirement) CoverageFor(shift ShiftType) CoverageRule {
	return s.Coverage[shift]
}

// CanSuperviseLevel 检查本层级是否可监督指定层级
func (s *StaffingRequirement) CanSuperviseLevel(level int) bool {
	for _, l := range s.CanSupervise {
		if l == level {
			return true
		}
	}
	return false
}

// IsSupervisorLevel 检查本层级是否具备监督能力
func (s *StaffingRequirement) IsSupervisorLevel() bool {
	return len(s.CanSupervise) > 0
}

// Validate 检查层级需求的完整性
func (s *StaffingRequirement) Validate() error {
	if s.Level < 1 {
		return fmt.Errorf("层级编号必须 >= 1，当前为 %d", s.Level)
	}
	for shift, rule := range s.Coverage {
		if !shift.IsWorking() {
			return fmt.Errorf("层级 %d 配置了非工作班次 %q 的人力要求", s.Level, shift)
		}
		if !rule.Valid() {
			return fmt.Errorf("层级 %d 班次 %s 的人力配置不满足 min<=preferred<=max", s.Level, shift)
		}
	}
	return nil
}

// RosterSnapshot 排班输入快照
// 由调用方一次性构建，引擎计算期间不被修改；每次调用独立持有自己的快照
type RosterSnapshot struct {
	TenantID     uuid.UUID              `json:"tenant_id"`
	Team         string                 `json:"team"`
	Range        DateRange              `json:"range"`
	Employees    []*Employee            `json:"employees"`
	Requirements []*StaffingRequirement `json:"requirements"`

	// 排班期开始前的既有排班（用于期初的休息间隔/连班检查）
	PriorAssignments []*ShiftAssignment `json:"prior_assignments,omitempty"`
}

// Validate 检查快照是否可用于排班
// 空员工表和缺失层级需求属于致命配置错误
func (s *RosterSnapshot) Validate() error {
	if len(s.Employees) == 0 {
		return fmt.Errorf("员工列表为空")
	}
	if len(s.Requirements) == 0 {
		return fmt.Errorf("缺少层级人力需求")
	}
	if _, err := s.Range.Days(); err != nil {
		return err
	}
	seen := make(map[int]bool)
	for _, req := range s.Requirements {
		if err := req.Validate(); err != nil {
			return err
		}
		if seen[req.Level] {
			return fmt.Errorf("层级 %d 的人力需求重复定义", req.Level)
		}
		seen[req.Level] = true
	}
	for _, emp := range s.Employees {
		if emp.HierarchyLevel < 1 {
			return fmt.Errorf("员工 %s 的层级编号无效", emp.Name)
		}
		for _, p := range emp.PreferencePattern {
			if !p.Valid() {
				return fmt.Errorf("员工 %s 的偏好模式含无效班次 %q", emp.Name, p)
			}
		}
	}
	return nil
}

// RequirementFor 返回指定层级的人力需求
func (s *RosterSnapshot) RequirementFor(level int) *StaffingRequirement {
	for _, req := range s.Requirements {
		if req.Level == level {
			return req
		}
	}
	return nil
}

// RequirementsByPriority 按 PriorityOrder 升序返回层级需求（稳定排序）
func (s *RosterSnapshot) RequirementsByPriority() []*StaffingRequirement {
	sorted := make([]*StaffingRequirement, len(s.Requirements))
	copy(sorted, s.Requirements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriorityOrder < sorted[j].PriorityOrder
	})
	return sorted
}

// EmployeesAtLevel 返回指定层级的员工（保持输入顺序，评分同分时按此顺序决胜）
func (s *RosterSnapshot) EmployeesAtLevel(level int) []*Employee {
	var result []*Employee
	for _, emp := range s.Employees {
		if emp.HierarchyLevel == level {
			result = append(result, emp)
		}
	}
	return result
}
