// Package scenario 提供场景测试
package scenario

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/internal/policy"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/engine"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/fairness"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/pattern"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/replacement"
)

// buildNursingWard 构建两周病区快照：2 名责任护士 + 6 名普通护士
func buildNursingWard() *model.RosterSnapshot {
	snapshot := &model.RosterSnapshot{
		TenantID: uuid.New(),
		Team:     "内科病区",
		Range:    model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-15"},
		Requirements: []*model.StaffingRequirement{
			{
				Level:         1,
				Name:          "责任护士",
				PriorityOrder: 1,
				CanWorkAlone:  true,
				CanSupervise:  []int{2},
				Coverage: map[model.ShiftType]model.CoverageRule{
					model.ShiftDay:     {MinRequired: 1, Preferred: 1, MaxAllowed: 1},
					model.ShiftEvening: {MinRequired: 0, Preferred: 1, MaxAllowed: 1},
					model.ShiftNight:   {MinRequired: 0, Preferred: 0, MaxAllowed: 1},
				},
			},
			{
				Level:         2,
				Name:          "普通护士",
				PriorityOrder: 2,
				Coverage: map[model.ShiftType]model.CoverageRule{
					model.ShiftDay:     {MinRequired: 2, Preferred: 2, MaxAllowed: 3},
					model.ShiftEvening: {MinRequired: 1, Preferred: 2, MaxAllowed: 2},
					model.ShiftNight:   {MinRequired: 1, Preferred: 1, MaxAllowed: 2},
				},
			},
		},
	}

	for i := 0; i < 2; i++ {
		snapshot.Employees = append(snapshot.Employees, &model.Employee{
			BaseModel:       model.NewBaseModel(),
			Name:            fmt.Sprintf("责任护士%d", i+1),
			Team:            "内科病区",
			Status:          "active",
			Available:       true,
			HierarchyLevel:  1,
			ExperienceYears: 8,
			Certifications:  []string{"RN", "ACLS"},
			FatigueScore:    2,
			WorkloadRatio:   1.0,
			Performance:     0.9,
			HourlyRate:      60,
		})
	}
	for i := 0; i < 6; i++ {
		snapshot.Employees = append(snapshot.Employees, &model.Employee{
			BaseModel:       model.NewBaseModel(),
			Name:            fmt.Sprintf("普通护士%d", i+1),
			Team:            "内科病区",
			Status:          "active",
			Available:       true,
			HierarchyLevel:  2,
			ExperienceYears: 3,
			Certifications:  []string{"RN"},
			FatigueScore:    3,
			WorkloadRatio:   1.0,
			Performance:     0.8,
			HourlyRate:      45,
		})
	}
	return snapshot
}

// TestNursingWardFullCycle 测试病区排班全流程：生成→公平性→模式风险→替班
func TestNursingWardFullCycle(t *testing.T) {
	snapshot := buildNursingWard()

	// 第一步：生成两周排班
	eng := engine.New()
	result, err := eng.Generate(context.Background(), snapshot, model.GenerationOptions{})
	if err != nil {
		t.Fatalf("排班生成失败: %v", err)
	}
	if result.Partial {
		t.Fatal("完整生成不应返回部分结果")
	}

	days, _ := snapshot.Range.Days()
	expected := len(snapshot.Employees) * len(days)
	if len(result.Assignments) != expected {
		t.Fatalf("分配条数错误: 期望%d, 实际%d", expected, len(result.Assignments))
	}
	t.Logf("排班完成: %d条分配, 合规分=%.1f, 层级均衡分=%.1f, 预警数=%d",
		len(result.Assignments), result.ComplianceScore, result.HierarchyBalanceScore, len(result.Warnings))

	// 第二步：公平性分析
	fa := fairness.NewAnalyzer()
	perEmployee, team := fa.Analyze(snapshot.Employees, result.Assignments)
	if len(perEmployee) != len(snapshot.Employees) {
		t.Errorf("应为每名员工产出公平性指标: 期望%d, 实际%d", len(snapshot.Employees), len(perEmployee))
	}
	if team.FairnessScore < 0 || team.FairnessScore > 100 {
		t.Errorf("团队公平分越界: %f", team.FairnessScore)
	}
	if team.FairnessGrade == "" {
		t.Error("团队公平等级不应为空")
	}
	for _, gini := range []float64{team.NightShiftGini, team.WeekendShiftGini, team.HoursGini} {
		if gini < 0 || gini > 1 {
			t.Errorf("基尼系数越界: %f", gini)
		}
	}
	t.Logf("公平性: 分数=%.1f, 等级=%s, 夜班基尼=%.3f, 周末基尼=%.3f",
		team.FairnessScore, team.FairnessGrade, team.NightShiftGini, team.WeekendShiftGini)

	// 第三步：模式风险分析
	byEmployee := make(map[uuid.UUID][]*model.ShiftAssignment)
	for _, a := range result.Assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}
	pa := pattern.NewAnalyzer()
	analyses, summary := pa.AnalyzeTeam(byEmployee)
	if len(analyses) != len(snapshot.Employees) {
		t.Errorf("应为每名员工产出风险分析: 期望%d, 实际%d", len(snapshot.Employees), len(analyses))
	}
	total := 0
	for _, count := range summary.LevelDistribution {
		total += count
	}
	if total != len(snapshot.Employees) {
		t.Errorf("风险等级分布总数错误: 期望%d, 实际%d", len(snapshot.Employees), total)
	}
	// 引擎产出经过硬约束过滤，不应出现危重风险
	for _, analysis := range analyses {
		if analysis.RiskLevel == model.RiskCritical {
			t.Errorf("引擎产出不应出现危重风险员工: %s (分数%.1f)", analysis.EmployeeID, analysis.RiskScore)
		}
	}
	t.Logf("模式风险: 团队均分=%.1f, 分布=%v", summary.TeamRiskScore, summary.LevelDistribution)

	// 第四步：责任护士突发缺勤，生成替班方案
	absent := snapshot.Employees[0]
	var pool []*model.Employee
	for _, emp := range snapshot.Employees[1:] {
		pool = append(pool, emp)
	}
	request := &model.ReplacementRequest{
		ID:                   uuid.New(),
		OriginalSupervisorID: absent.ID,
		AbsenceStart:         "2026-03-09",
		AbsenceEnd:           "2026-03-10",
		Urgency:              model.UrgencyHigh,
		AffectedShifts: []model.AffectedShift{
			{Date: "2026-03-09", ShiftType: model.ShiftDay, Team: "内科病区", RequiredSupervisionLevel: 1},
			{Date: "2026-03-10", ShiftType: model.ShiftDay, Team: "内科病区", RequiredSupervisionLevel: 1},
		},
	}

	planner := replacement.NewPlanner()
	plan, err := planner.Plan(context.Background(), request, pool, result.Assignments)
	if err != nil {
		t.Fatalf("替班规划失败: %v", err)
	}
	if len(plan.ShiftCoverages) != len(request.AffectedShifts) {
		t.Errorf("每个受影响班次应有覆盖项: 期望%d, 实际%d", len(request.AffectedShifts), len(plan.ShiftCoverages))
	}
	covered := plan.Coverage.FullCoverage + plan.Coverage.PartialCoverage + plan.Coverage.Uncovered
	if covered != len(request.AffectedShifts) {
		t.Errorf("覆盖统计总数错误: 期望%d, 实际%d", len(request.AffectedShifts), covered)
	}
	t.Logf("替班方案: 全覆盖=%d, 部分=%d, 未覆盖=%d, 预估成本=%.0f, 需审批=%v",
		plan.Coverage.FullCoverage, plan.Coverage.PartialCoverage, plan.Coverage.Uncovered,
		plan.EstimatedCost, plan.ApprovalRequired)
}

// TestNursingWardStrictPolicy 测试严格策略下的排班合规
func TestNursingWardStrictPolicy(t *testing.T) {
	snapshot := buildNursingWard()
	snapshot.Range = model.DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}

	eng := engine.New()
	preset, ok := policy.FindPreset("strict")
	if !ok {
		t.Fatal("未找到严格策略预设")
	}
	preset.Apply(eng.ConstraintManager())

	result, err := eng.Generate(context.Background(), snapshot, model.GenerationOptions{})
	if err != nil {
		t.Fatalf("排班生成失败: %v", err)
	}

	// 严格策略：连续夜班不超过3天，周工时不超过48小时
	byEmployee := make(map[uuid.UUID][]*model.ShiftAssignment)
	for _, a := range result.Assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}
	for id, assignments := range byEmployee {
		consecutive := 0
		var weeklyHours float64
		for _, a := range assignments {
			if a.ShiftType == model.ShiftNight {
				consecutive++
				if consecutive > 3 {
					t.Errorf("员工%s连续夜班超过严格上限", id)
				}
			} else {
				consecutive = 0
			}
			weeklyHours += a.ShiftType.Hours()
		}
		if weeklyHours > 48 {
			t.Errorf("员工%s周工时%.0f超过严格上限48", id, weeklyHours)
		}
	}
	t.Logf("严格策略排班完成: 合规分=%.1f, 违规数=%d", result.ComplianceScore, result.ViolationCount)
}
