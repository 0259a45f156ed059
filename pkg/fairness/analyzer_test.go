package fairness

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

func fairnessEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Status:    "active",
		Available: true,
	}
}

func workingAsg(empID uuid.UUID, date string, shift model.ShiftType) *model.ShiftAssignment {
	return &model.ShiftAssignment{
		ID:         uuid.New(),
		EmployeeID: empID,
		Date:       date,
		ShiftType:  shift,
	}
}

func TestAnalyzer_Analyze_EmptyInput(t *testing.T) {
	analyzer := NewAnalyzer()

	metrics, analysis := analyzer.Analyze(nil, nil)
	if len(metrics) != 0 {
		t.Errorf("expected no metrics, got %d", len(metrics))
	}
	if analysis.FairnessScore != 100 || analysis.FairnessGrade != model.GradeExcellent {
		t.Errorf("empty team should grade excellent, got %f %s", analysis.FairnessScore, analysis.FairnessGrade)
	}
}

func TestAnalyzer_Analyze_PerfectBalance(t *testing.T) {
	analyzer := NewAnalyzer()
	a := fairnessEmployee("张护士")
	b := fairnessEmployee("李护士")

	assignments := []*model.ShiftAssignment{
		workingAsg(a.ID, "2026-03-02", model.ShiftDay),
		workingAsg(a.ID, "2026-03-04", model.ShiftNight),
		workingAsg(b.ID, "2026-03-02", model.ShiftDay),
		workingAsg(b.ID, "2026-03-04", model.ShiftNight),
	}

	metrics, analysis := analyzer.Analyze([]*model.Employee{a, b}, assignments)
	if len(metrics) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(metrics))
	}
	for _, m := range metrics {
		if m.BurdenScore != 100 {
			t.Errorf("%s burden = %f, expected 100", m.EmployeeName, m.BurdenScore)
		}
	}
	if analysis.NightShiftGini > 0.001 {
		t.Errorf("equal nights should have gini 0, got %f", analysis.NightShiftGini)
	}
	if len(analysis.ProblemAreas) != 0 {
		t.Errorf("balanced team should have no problem areas: %v", analysis.ProblemAreas)
	}
}

func TestAnalyzer_Analyze_NightConcentration(t *testing.T) {
	analyzer := NewAnalyzer()
	a := fairnessEmployee("张护士")
	b := fairnessEmployee("李护士")
	c := fairnessEmployee("王护士")

	// 张护士 9 个夜班，其余各 0.5 个均值之下
	var assignments []*model.ShiftAssignment
	for _, date := range []string{
		"2026-03-02", "2026-03-04", "2026-03-06", "2026-03-09", "2026-03-11",
		"2026-03-13", "2026-03-16", "2026-03-18", "2026-03-20",
	} {
		assignments = append(assignments, workingAsg(a.ID, date, model.ShiftNight))
	}
	assignments = append(assignments,
		workingAsg(b.ID, "2026-03-03", model.ShiftDay),
		workingAsg(c.ID, "2026-03-05", model.ShiftDay),
	)

	_, analysis := analyzer.Analyze([]*model.Employee{a, b, c}, assignments)

	var nightArea *model.ProblemArea
	for i := range analysis.ProblemAreas {
		if analysis.ProblemAreas[i].Category == CategoryNightInequality {
			nightArea = &analysis.ProblemAreas[i]
		}
	}
	if nightArea == nil {
		t.Fatal("expected night_shift_inequality problem area")
	}
	if len(nightArea.AffectedEmployees) != 1 || nightArea.AffectedEmployees[0] != a.ID {
		t.Errorf("affected employees = %v, expected just the concentrated one", nightArea.AffectedEmployees)
	}
	if nightArea.Severity != model.SeverityHigh {
		t.Errorf("full concentration severity = %s, expected high", nightArea.Severity)
	}
	if len(analysis.ImprovementPriorities) == 0 {
		t.Error("problem areas should produce improvement priorities")
	}
}

func TestAnalyzer_Analyze_HealthPenalty(t *testing.T) {
	analyzer := NewAnalyzer()
	a := fairnessEmployee("张护士")
	b := fairnessEmployee("李护士")

	// 张护士小夜班后接次日白班，休息仅 8 小时
	assignments := []*model.ShiftAssignment{
		workingAsg(a.ID, "2026-03-02", model.ShiftEvening),
		workingAsg(a.ID, "2026-03-03", model.ShiftDay),
		workingAsg(b.ID, "2026-03-02", model.ShiftDay),
		workingAsg(b.ID, "2026-03-04", model.ShiftDay),
	}

	metrics, _ := analyzer.Analyze([]*model.Employee{a, b}, assignments)

	var ma, mb *model.FairnessMetrics
	for _, m := range metrics {
		switch m.EmployeeID {
		case a.ID:
			ma = m
		case b.ID:
			mb = m
		}
	}
	if ma.HealthScore >= mb.HealthScore {
		t.Errorf("short rest should lower health score: %f vs %f", ma.HealthScore, mb.HealthScore)
	}
}

func TestAnalyzer_Analyze_IgnoresUnknownEmployees(t *testing.T) {
	analyzer := NewAnalyzer()
	a := fairnessEmployee("张护士")

	assignments := []*model.ShiftAssignment{
		workingAsg(a.ID, "2026-03-02", model.ShiftDay),
		workingAsg(uuid.New(), "2026-03-02", model.ShiftNight), // 不在员工表
	}

	metrics, _ := analyzer.Analyze([]*model.Employee{a}, assignments)
	if len(metrics) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(metrics))
	}
	if metrics[0].NightShifts != 0 {
		t.Error("unknown employee assignments should be ignored")
	}
}

func TestGini(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
		delta    float64
	}{
		{"空", nil, 0, 0.0001},
		{"全等", []float64{4, 4, 4, 4}, 0, 0.0001},
		{"全零", []float64{0, 0, 0}, 0, 0.0001},
		{"完全集中", []float64{0, 0, 0, 12}, 0.75, 0.0001},
		{"温和不均", []float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 10}, 0.2571, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Gini(tt.values)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("Gini(%v) = %f, expected %f", tt.values, got, tt.expected)
			}
		})
	}
}

func TestDeviationScore(t *testing.T) {
	// 与均值一致得满分
	if got := deviationScore(5, 5); got != 100 {
		t.Errorf("deviationScore(5,5) = %f, expected 100", got)
	}
	// 两倍于均值：相对偏离 1.0，得 50 分
	if got := deviationScore(10, 5); math.Abs(got-50) > 0.001 {
		t.Errorf("deviationScore(10,5) = %f, expected 50", got)
	}
	// 均值为零
	if got := deviationScore(0, 0); got != 100 {
		t.Errorf("deviationScore(0,0) = %f, expected 100", got)
	}
	if got := deviationScore(3, 0); math.Abs(got-25) > 0.001 {
		t.Errorf("deviationScore(3,0) = %f, expected 25", got)
	}
}
