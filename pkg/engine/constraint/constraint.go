// Package constraint 定义排班硬约束接口、管理器与排班工作状态
package constraint

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	TypeMinRestBetweenShifts Type = "min_rest_between_shifts"
	TypeMaxConsecutiveNights Type = "max_consecutive_night_shifts"
	TypeMaxWeeklyHours       Type = "max_weekly_hours"
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（违反即不可分配）
	CategorySoft Category = "soft" // 软约束（进入评分项）
)

// Violation 约束违反详情
type Violation struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	EmployeeID     uuid.UUID `json:"employee_id"`
	Date           string    `json:"date"`
	Message        string    `json:"message"`
}

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Check 检查在当前状态下能否加入候选分配
	// 返回：是否允许、拒绝原因
	Check(state *State, candidate *model.ShiftAssignment) (bool, string)

	// Evaluate 对完整排班做事后审计
	Evaluate(state *State) []Violation
}

// State 排班工作状态
// 持有不可变快照与逐步累积的分配结果；单次调用内使用，不跨调用共享
type State struct {
	Snapshot *model.RosterSnapshot

	assignments []*model.ShiftAssignment
	byEmployee  map[uuid.UUID][]*model.ShiftAssignment
	byDateShift map[string][]*model.ShiftAssignment
	byEmpDate   map[string]bool
}

// NewState 基于快照创建工作状态，期初既有排班一并纳入
func NewState(snapshot *model.RosterSnapshot) *State {
	s := &State{
		Snapshot:    snapshot,
		byEmployee:  make(map[uuid.UUID][]*model.ShiftAssignment),
		byDateShift: make(map[string][]*model.ShiftAssignment),
		byEmpDate:   make(map[string]bool),
	}
	for _, a := range snapshot.PriorAssignments {
		s.index(a)
	}
	return s
}

// Add 加入一条新分配
func (s *State) Add(a *model.ShiftAssignment) {
	s.assignments = append(s.assignments, a)
	s.index(a)
}

func (s *State) index(a *model.ShiftAssignment) {
	s.byEmployee[a.EmployeeID] = append(s.byEmployee[a.EmployeeID], a)
	s.byDateShift[a.Date+"|"+string(a.ShiftType)] = append(s.byDateShift[a.Date+"|"+string(a.ShiftType)], a)
	s.byEmpDate[a.EmployeeID.String()+"|"+a.Date] = true
}

// Assignments 返回本次调用产生的分配（不含期初既有排班）
func (s *State) Assignments() []*model.ShiftAssignment {
	return s.assignments
}

// EmployeeAssignments 返回员工的全部分配（含期初既有排班）
func (s *State) EmployeeAssignments(empID uuid.UUID) []*model.ShiftAssignment {
	return s.byEmployee[empID]
}

// For 返回某日期某班次的全部分配
func (s *State) For(date string, shift model.ShiftType) []*model.ShiftAssignment {
	return s.byDateShift[date+"|"+string(shift)]
}

// AssignedOn 检查员工在某日期是否已有分配
func (s *State) AssignedOn(empID uuid.UUID, date string) bool {
	return s.byEmpDate[empID.String()+"|"+date]
}

// WeeklyHours 统计员工在某日期所在 ISO 周内已分配的工作时长
func (s *State) WeeklyHours(empID uuid.UUID, date string) float64 {
	week := model.WeekKey(date)
	var hours float64
	for _, a := range s.byEmployee[empID] {
		if a.IsWorking() && model.WeekKey(a.Date) == week {
			hours += a.WorkingHours()
		}
	}
	return hours
}

// ConsecutiveNightsBefore 统计紧邻某日期之前的连续夜班数
func (s *State) ConsecutiveNightsBefore(empID uuid.UUID, date string) int {
	byDate := make(map[string]model.ShiftType)
	for _, a := range s.byEmployee[empID] {
		byDate[a.Date] = a.ShiftType
	}
	count := 0
	cur := model.PreviousDate(date)
	for count <= 30 {
		if byDate[cur] != model.ShiftNight {
			break
		}
		count++
		cur = model.PreviousDate(cur)
	}
	return count
}

// ConsecutiveWorkingDaysBefore 统计紧邻某日期之前的连续工作天数
func (s *State) ConsecutiveWorkingDaysBefore(empID uuid.UUID, date string) int {
	working := make(map[string]bool)
	for _, a := range s.byEmployee[empID] {
		if a.IsWorking() {
			working[a.Date] = true
		}
	}
	count := 0
	cur := model.PreviousDate(date)
	for count <= 30 {
		if !working[cur] {
			break
		}
		count++
		cur = model.PreviousDate(cur)
	}
	return count
}

// LastShiftEnd 返回员工在某时刻之前最近一次班次的结束时间
func (s *State) LastShiftEnd(empID uuid.UUID, before time.Time) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, a := range s.byEmployee[empID] {
		if !a.IsWorking() {
			continue
		}
		_, end := a.Window()
		if end.After(before) {
			continue
		}
		if !found || end.After(latest) {
			latest = end
			found = true
		}
	}
	return latest, found
}

// sortedWorking 返回员工按开始时间升序的工作班次
func (s *State) sortedWorking(empID uuid.UUID) []*model.ShiftAssignment {
	var working []*model.ShiftAssignment
	for _, a := range s.byEmployee[empID] {
		if a.IsWorking() {
			working = append(working, a)
		}
	}
	sort.Slice(working, func(i, j int) bool {
		si, _ := working[i].Window()
		sj, _ := working[j].Window()
		return si.Before(sj)
	})
	return working
}

// Manager 约束管理器
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
}

// NewManager 创建约束管理器
func NewManager() *Manager {
	return &Manager{constraints: make([]Constraint, 0)}
}

// Register 注册约束（同类型约束被替换）
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}
	m.constraints = append(m.constraints, c)
}

// GetAll 获取所有约束
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// Count 返回约束数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}

// CanAssign 检查候选分配是否通过全部硬约束
func (m *Manager) CanAssign(state *State, candidate *model.ShiftAssignment) (bool, string) {
	for _, c := range m.GetAll() {
		if c.Category() != CategoryHard {
			continue
		}
		if ok, reason := c.Check(state, candidate); !ok {
			return false, reason
		}
	}
	return true, ""
}

// Evaluate 对完整排班做事后审计，汇总所有违反
func (m *Manager) Evaluate(state *State) []Violation {
	var all []Violation
	for _, c := range m.GetAll() {
		all = append(all, c.Evaluate(state)...)
	}
	return all
}
