// Package constraint 定义排班硬约束接口、管理器与排班工作状态
package constraint

import (
	"fmt"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// 法定默认值
const (
	DefaultMinRestHours        = 11 // 班次间最小休息时间
	DefaultMaxConsecutiveNight = 5  // 最大连续夜班数
	DefaultMaxWeeklyHours      = 52 // 每周最大累计工时
)

// RegisterDefaults 注册法定默认硬约束
func RegisterDefaults(m *Manager) {
	m.Register(NewMinRestConstraint(DefaultMinRestHours))
	m.Register(NewMaxConsecutiveNightsConstraint(DefaultMaxConsecutiveNight))
	m.Register(NewMaxWeeklyHoursConstraint(DefaultMaxWeeklyHours))
}

// MinRestConstraint 班次间最小休息时间约束
type MinRestConstraint struct {
	minHours float64
}

// NewMinRestConstraint 创建班次间最小休息约束
func NewMinRestConstraint(minHours float64) *MinRestConstraint {
	return &MinRestConstraint{minHours: minHours}
}

// Name 返回约束名称
func (c *MinRestConstraint) Name() string { return "班次间最小休息" }

// Type 返回约束类型
func (c *MinRestConstraint) Type() Type { return TypeMinRestBetweenShifts }

// Category 返回约束类别
func (c *MinRestConstraint) Category() Category { return CategoryHard }

// Check 检查候选分配与上一班次的间隔
func (c *MinRestConstraint) Check(state *State, candidate *model.ShiftAssignment) (bool, string) {
	if !candidate.IsWorking() {
		return true, ""
	}
	start, _ := candidate.Window()
	lastEnd, ok := state.LastShiftEnd(candidate.EmployeeID, start)
	if !ok {
		return true, ""
	}
	rest := start.Sub(lastEnd).Hours()
	if rest < c.minHours {
		return false, fmt.Sprintf("距上一班次结束仅 %.1f 小时，少于要求的 %.0f 小时", rest, c.minHours)
	}
	return true, ""
}

// Evaluate 审计整个排班的休息间隔
func (c *MinRestConstraint) Evaluate(state *State) []Violation {
	var violations []Violation
	for _, emp := range state.Snapshot.Employees {
		working := state.sortedWorking(emp.ID)
		for i := 0; i < len(working)-1; i++ {
			_, end := working[i].Window()
			start, _ := working[i+1].Window()
			rest := start.Sub(end).Hours()
			if rest < c.minHours {
				violations = append(violations, Violation{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					EmployeeID:     emp.ID,
					Date:           working[i+1].Date,
					Message: fmt.Sprintf("员工 %s 班次间隔仅 %.1f 小时，少于要求的 %.0f 小时",
						emp.Name, rest, c.minHours),
				})
			}
		}
	}
	return violations
}

// MaxConsecutiveNightsConstraint 最大连续夜班约束
type MaxConsecutiveNightsConstraint struct {
	maxNights int
}

// NewMaxConsecutiveNightsConstraint 创建最大连续夜班约束
func NewMaxConsecutiveNightsConstraint(maxNights int) *MaxConsecutiveNightsConstraint {
	return &MaxConsecutiveNightsConstraint{maxNights: maxNights}
}

// Name 返回约束名称
func (c *MaxConsecutiveNightsConstraint) Name() string { return "最大连续夜班" }

// Type 返回约束类型
func (c *MaxConsecutiveNightsConstraint) Type() Type { return TypeMaxConsecutiveNights }

// Category 返回约束类别
func (c *MaxConsecutiveNightsConstraint) Category() Category { return CategoryHard }

// Check 检查加入候选夜班后是否超过连续夜班上限
func (c *MaxConsecutiveNightsConstraint) Check(state *State, candidate *model.ShiftAssignment) (bool, string) {
	if candidate.ShiftType != model.ShiftNight {
		return true, ""
	}
	consecutive := state.ConsecutiveNightsBefore(candidate.EmployeeID, candidate.Date) + 1
	if consecutive > c.maxNights {
		return false, fmt.Sprintf("将形成 %d 个连续夜班，超过上限 %d", consecutive, c.maxNights)
	}
	return true, ""
}

// Evaluate 审计整个排班的连续夜班
func (c *MaxConsecutiveNightsConstraint) Evaluate(state *State) []Violation {
	var violations []Violation
	for _, emp := range state.Snapshot.Employees {
		nights := make(map[string]bool)
		for _, a := range state.EmployeeAssignments(emp.ID) {
			if a.ShiftType == model.ShiftNight {
				nights[a.Date] = true
			}
		}
		for date := range nights {
			// 只在连续段起点统计一次
			if nights[model.PreviousDate(date)] {
				continue
			}
			run := 0
			cur := date
			for nights[cur] {
				run++
				cur = model.NextDate(cur)
			}
			if run > c.maxNights {
				violations = append(violations, Violation{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					EmployeeID:     emp.ID,
					Date:           date,
					Message: fmt.Sprintf("员工 %s 自 %s 起连续 %d 个夜班，超过上限 %d",
						emp.Name, date, run, c.maxNights),
				})
			}
		}
	}
	return violations
}

// MaxWeeklyHoursConstraint 每周最大累计工时约束
type MaxWeeklyHoursConstraint struct {
	maxHours float64
}

// NewMaxWeeklyHoursConstraint 创建每周最大工时约束
func NewMaxWeeklyHoursConstraint(maxHours float64) *MaxWeeklyHoursConstraint {
	return &MaxWeeklyHoursConstraint{maxHours: maxHours}
}

// Name 返回约束名称
func (c *MaxWeeklyHoursConstraint) Name() string { return "每周最大工时" }

// Type 返回约束类型
func (c *MaxWeeklyHoursConstraint) Type() Type { return TypeMaxWeeklyHours }

// Category 返回约束类别
func (c *MaxWeeklyHoursConstraint) Category() Category { return CategoryHard }

// Check 检查加入候选分配后周工时是否仍在上限内
func (c *MaxWeeklyHoursConstraint) Check(state *State, candidate *model.ShiftAssignment) (bool, string) {
	if !candidate.IsWorking() {
		return true, ""
	}
	projected := state.WeeklyHours(candidate.EmployeeID, candidate.Date) + candidate.WorkingHours()
	if projected > c.maxHours {
		return false, fmt.Sprintf("本周累计工时将达 %.0f 小时，超过上限 %.0f", projected, c.maxHours)
	}
	return true, ""
}

// Evaluate 审计整个排班的周工时
func (c *MaxWeeklyHoursConstraint) Evaluate(state *State) []Violation {
	var violations []Violation
	for _, emp := range state.Snapshot.Employees {
		weekly := make(map[string]float64)
		for _, a := range state.EmployeeAssignments(emp.ID) {
			if a.IsWorking() {
				weekly[model.WeekKey(a.Date)] += a.WorkingHours()
			}
		}
		for week, hours := range weekly {
			if hours > c.maxHours {
				violations = append(violations, Violation{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					EmployeeID:     emp.ID,
					Date:           week,
					Message: fmt.Sprintf("员工 %s 在 %s 累计工时 %.0f 小时，超过上限 %.0f",
						emp.Name, week, hours, c.maxHours),
				})
			}
		}
	}
	return violations
}
