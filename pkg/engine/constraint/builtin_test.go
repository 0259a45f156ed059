package constraint

import (
	"testing"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

func testSnapshot(employees ...*model.Employee) *model.RosterSnapshot {
	return &model.RosterSnapshot{
		TenantID:  uuid.New(),
		Team:      "A病区",
		Range:     model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"},
		Employees: employees,
	}
}

func testEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel:      model.NewBaseModel(),
		Name:           name,
		HierarchyLevel: 1,
		Status:         "active",
		Available:      true,
	}
}

func assignment(empID uuid.UUID, date string, shift model.ShiftType) *model.ShiftAssignment {
	return &model.ShiftAssignment{
		ID:         uuid.New(),
		EmployeeID: empID,
		Date:       date,
		ShiftType:  shift,
	}
}

func TestMinRestConstraint_Check(t *testing.T) {
	emp := testEmployee("张护士")
	c := NewMinRestConstraint(11)

	tests := []struct {
		name     string
		existing *model.ShiftAssignment
		probe    *model.ShiftAssignment
		allowed  bool
	}{
		{
			// 夜班 23:00-次日07:00 后接次日白班 07:00 间隔 0 小时
			name:     "夜班后接次日白班",
			existing: assignment(emp.ID, "2026-03-02", model.ShiftNight),
			probe:    assignment(emp.ID, "2026-03-03", model.ShiftDay),
			allowed:  false,
		},
		{
			// 小夜班 23:00 结束，次日白班 07:00 开始，间隔仅 8 小时
			name:     "小夜班后接次日白班",
			existing: assignment(emp.ID, "2026-03-02", model.ShiftEvening),
			probe:    assignment(emp.ID, "2026-03-03", model.ShiftDay),
			allowed:  false,
		},
		{
			// 白班 15:00 结束，次日白班 07:00 开始，间隔 16 小时
			name:     "白班后接次日白班",
			existing: assignment(emp.ID, "2026-03-02", model.ShiftDay),
			probe:    assignment(emp.ID, "2026-03-03", model.ShiftDay),
			allowed:  true,
		},
		{
			// 小夜班 23:00 结束，次日小夜班 15:00 开始，间隔 16 小时
			name:     "连续小夜班",
			existing: assignment(emp.ID, "2026-03-02", model.ShiftEvening),
			probe:    assignment(emp.ID, "2026-03-03", model.ShiftEvening),
			allowed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState(testSnapshot(emp))
			state.Add(tt.existing)
			ok, reason := c.Check(state, tt.probe)
			if ok != tt.allowed {
				t.Errorf("Check() = %v (%s), expected %v", ok, reason, tt.allowed)
			}
		})
	}
}

func TestMinRestConstraint_Check_Off(t *testing.T) {
	emp := testEmployee("张护士")
	c := NewMinRestConstraint(11)
	state := NewState(testSnapshot(emp))
	state.Add(assignment(emp.ID, "2026-03-02", model.ShiftNight))

	ok, _ := c.Check(state, assignment(emp.ID, "2026-03-03", model.ShiftOff))
	if !ok {
		t.Error("off assignment should never violate rest constraint")
	}
}

func TestMinRestConstraint_Evaluate(t *testing.T) {
	emp := testEmployee("张护士")
	snapshot := testSnapshot(emp)
	state := NewState(snapshot)
	state.Add(assignment(emp.ID, "2026-03-02", model.ShiftEvening))
	state.Add(assignment(emp.ID, "2026-03-03", model.ShiftDay))

	c := NewMinRestConstraint(11)
	violations := c.Evaluate(state)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].ConstraintType != TypeMinRestBetweenShifts {
		t.Errorf("unexpected type %s", violations[0].ConstraintType)
	}
}

func TestMaxConsecutiveNightsConstraint_Check(t *testing.T) {
	emp := testEmployee("李护士")
	c := NewMaxConsecutiveNightsConstraint(5)
	state := NewState(testSnapshot(emp))

	// 连排 5 个夜班
	for _, date := range []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"} {
		probe := assignment(emp.ID, date, model.ShiftNight)
		if ok, reason := c.Check(state, probe); !ok {
			t.Fatalf("night %s should be allowed: %s", date, reason)
		}
		state.Add(probe)
	}

	// 第 6 个连续夜班被拒
	if ok, _ := c.Check(state, assignment(emp.ID, "2026-03-07", model.ShiftNight)); ok {
		t.Error("6th consecutive night should be rejected")
	}

	// 隔一天后重新开始计数
	if ok, _ := c.Check(state, assignment(emp.ID, "2026-03-08", model.ShiftNight)); !ok {
		t.Error("night after a gap should be allowed")
	}
}

func TestMaxConsecutiveNightsConstraint_PriorAssignments(t *testing.T) {
	emp := testEmployee("李护士")
	snapshot := testSnapshot(emp)
	// 期初已有 4 个连续夜班
	for _, date := range []string{"2026-02-26", "2026-02-27", "2026-02-28", "2026-03-01"} {
		snapshot.PriorAssignments = append(snapshot.PriorAssignments, assignment(emp.ID, date, model.ShiftNight))
	}
	state := NewState(snapshot)

	c := NewMaxConsecutiveNightsConstraint(5)
	if ok, _ := c.Check(state, assignment(emp.ID, "2026-03-02", model.ShiftNight)); !ok {
		t.Error("5th night counting prior history should be allowed")
	}
	state.Add(assignment(emp.ID, "2026-03-02", model.ShiftNight))
	if ok, _ := c.Check(state, assignment(emp.ID, "2026-03-03", model.ShiftNight)); ok {
		t.Error("6th night counting prior history should be rejected")
	}
}

func TestMaxWeeklyHoursConstraint_Check(t *testing.T) {
	emp := testEmployee("王护士")
	c := NewMaxWeeklyHoursConstraint(52)
	state := NewState(testSnapshot(emp))

	// 同一 ISO 周内排 6 个白班（48 小时）
	for _, date := range []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06", "2026-03-07"} {
		state.Add(assignment(emp.ID, date, model.ShiftDay))
	}

	// 第 7 班将到 56 小时，超过 52
	if ok, _ := c.Check(state, assignment(emp.ID, "2026-03-08", model.ShiftDay)); ok {
		t.Error("7th shift in the same week should exceed weekly hours")
	}

	// 下一 ISO 周不受影响
	if ok, _ := c.Check(state, assignment(emp.ID, "2026-03-09", model.ShiftDay)); !ok {
		t.Error("shift in the next week should be allowed")
	}
}

func TestMaxWeeklyHoursConstraint_Evaluate(t *testing.T) {
	emp := testEmployee("王护士")
	snapshot := testSnapshot(emp)
	state := NewState(snapshot)
	// 同周 7 班 = 56 小时
	for _, date := range []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06", "2026-03-07", "2026-03-08"} {
		state.Add(assignment(emp.ID, date, model.ShiftDay))
	}

	c := NewMaxWeeklyHoursConstraint(52)
	violations := c.Evaluate(state)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
}
