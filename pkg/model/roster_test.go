package model

import (
	"testing"

	"github.com/google/uuid"
)

func validSnapshot() *RosterSnapshot {
	return &RosterSnapshot{
		TenantID: uuid.New(),
		Team:     "A病区",
		Range:    DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"},
		Employees: []*Employee{
			{BaseModel: NewBaseModel(), Name: "张护士", HierarchyLevel: 1, Status: "active", Available: true},
			{BaseModel: NewBaseModel(), Name: "李护士", HierarchyLevel: 2, Status: "active", Available: true},
		},
		Requirements: []*StaffingRequirement{
			{
				Level:         1,
				Name:          "责任护士",
				PriorityOrder: 1,
				CanSupervise:  []int{2},
				Coverage: map[ShiftType]CoverageRule{
					ShiftDay: {MinRequired: 1, Preferred: 1, MaxAllowed: 2},
				},
			},
			{
				Level:               2,
				Name:                "普通护士",
				PriorityOrder:       2,
				RequiresSupervision: true,
				Coverage: map[ShiftType]CoverageRule{
					ShiftDay: {MinRequired: 1, Preferred: 2, MaxAllowed: 3},
				},
			},
		},
	}
}

func TestRosterSnapshot_Validate(t *testing.T) {
	if err := validSnapshot().Validate(); err != nil {
		t.Fatalf("valid snapshot should pass: %v", err)
	}
}

func TestRosterSnapshot_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RosterSnapshot)
	}{
		{"空员工表", func(s *RosterSnapshot) { s.Employees = nil }},
		{"缺少层级需求", func(s *RosterSnapshot) { s.Requirements = nil }},
		{"日期范围无效", func(s *RosterSnapshot) { s.Range.EndDate = "2026-03-01" }},
		{"层级需求重复", func(s *RosterSnapshot) {
			s.Requirements = append(s.Requirements, &StaffingRequirement{Level: 1})
		}},
		{"层级编号无效", func(s *RosterSnapshot) { s.Requirements[0].Level = 0 }},
		{"配置倒挂", func(s *RosterSnapshot) {
			s.Requirements[0].Coverage[ShiftDay] = CoverageRule{MinRequired: 3, Preferred: 1, MaxAllowed: 2}
		}},
		{"非工作班次配置", func(s *RosterSnapshot) {
			s.Requirements[0].Coverage[ShiftOff] = CoverageRule{MinRequired: 1, Preferred: 1, MaxAllowed: 1}
		}},
		{"员工层级无效", func(s *RosterSnapshot) { s.Employees[0].HierarchyLevel = 0 }},
		{"偏好模式含无效班次", func(s *RosterSnapshot) {
			s.Employees[0].PreferencePattern = []ShiftType{ShiftDay, "double"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRosterSnapshot_RequirementsByPriority(t *testing.T) {
	s := validSnapshot()
	// 反转优先级
	s.Requirements[0].PriorityOrder = 5
	s.Requirements[1].PriorityOrder = 1

	sorted := s.RequirementsByPriority()
	if sorted[0].Level != 2 || sorted[1].Level != 1 {
		t.Errorf("expected priority order [2 1], got [%d %d]", sorted[0].Level, sorted[1].Level)
	}
	// 原切片不被修改
	if s.Requirements[0].Level != 1 {
		t.Error("original slice should be untouched")
	}
}

func TestRosterSnapshot_EmployeesAtLevel(t *testing.T) {
	s := validSnapshot()
	if got := len(s.EmployeesAtLevel(1)); got != 1 {
		t.Errorf("level 1 count = %d, expected 1", got)
	}
	if got := len(s.EmployeesAtLevel(9)); got != 0 {
		t.Errorf("level 9 count = %d, expected 0", got)
	}
}

func TestStaffingRequirement_CanSuperviseLevel(t *testing.T) {
	req := &StaffingRequirement{Level: 1, CanSupervise: []int{2, 3}}

	if !req.CanSuperviseLevel(2) {
		t.Error("should supervise level 2")
	}
	if req.CanSuperviseLevel(1) {
		t.Error("should not supervise own level unless listed")
	}
	if !req.IsSupervisorLevel() {
		t.Error("requirement with supervise list should be supervisor level")
	}
}

func TestReplacementRequest_Validate(t *testing.T) {
	valid := &ReplacementRequest{
		ID:                   uuid.New(),
		OriginalSupervisorID: uuid.New(),
		AbsenceStart:         "2026-03-02",
		AbsenceEnd:           "2026-03-04",
		Urgency:              UrgencyHigh,
		AffectedShifts: []AffectedShift{
			{Date: "2026-03-02", ShiftType: ShiftDay, RequiredSupervisionLevel: 2},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request should pass: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ReplacementRequest)
	}{
		{"缺少缺勤人", func(r *ReplacementRequest) { r.OriginalSupervisorID = uuid.Nil }},
		{"无受影响班次", func(r *ReplacementRequest) { r.AffectedShifts = nil }},
		{"紧急程度无效", func(r *ReplacementRequest) { r.Urgency = "urgent" }},
		{"受影响班次为休息", func(r *ReplacementRequest) { r.AffectedShifts[0].ShiftType = ShiftOff }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := *valid
			r.AffectedShifts = append([]AffectedShift(nil), valid.AffectedShifts...)
			tt.mutate(&r)
			if err := r.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGradeFromScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected FairnessGrade
	}{
		{95, GradeExcellent},
		{85, GradeGood},
		{70, GradeFair},
		{50, GradePoor},
		{20, GradeUnacceptable},
	}
	for _, tt := range tests {
		if got := GradeFromScore(tt.score); got != tt.expected {
			t.Errorf("GradeFromScore(%f) = %s, expected %s", tt.score, got, tt.expected)
		}
	}
}

func TestRiskLevelFromScore(t *testing.T) {
	tests := []struct {
		score    float64
		expected RiskLevel
	}{
		{10, RiskLow},
		{45, RiskMedium},
		{60, RiskHigh},
		{85, RiskCritical},
	}
	for _, tt := range tests {
		if got := RiskLevelFromScore(tt.score); got != tt.expected {
			t.Errorf("RiskLevelFromScore(%f) = %s, expected %s", tt.score, got, tt.expected)
		}
	}
}
