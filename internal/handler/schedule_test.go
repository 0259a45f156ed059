package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/internal/config"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

type fakeRoster struct {
	employees    []*model.Employee
	requirements []*model.StaffingRequirement
}

func (f *fakeRoster) ListSchedulable(ctx context.Context, tenantID uuid.UUID, team string) ([]*model.Employee, error) {
	return f.employees, nil
}

func (f *fakeRoster) ListRequirements(ctx context.Context, tenantID uuid.UUID, team string) ([]*model.StaffingRequirement, error) {
	return f.requirements, nil
}

type fakeHistory struct {
	assignments []*model.ShiftAssignment
	listedRange model.DateRange
	saveErr     error
	saves       int
}

func (f *fakeHistory) SaveAssignments(ctx context.Context, tenantID uuid.UUID, team string, assignments []*model.ShiftAssignment) error {
	f.saves++
	return f.saveErr
}

func (f *fakeHistory) ListByRange(ctx context.Context, tenantID uuid.UUID, team string, dateRange model.DateRange) ([]*model.ShiftAssignment, error) {
	f.listedRange = dateRange
	return f.assignments, nil
}

type fakePlans struct {
	saveErr error
	saves   int
}

func (f *fakePlans) SaveGenerationResult(ctx context.Context, tenantID uuid.UUID, team string, result *model.GenerationResult) (uuid.UUID, error) {
	f.saves++
	if f.saveErr != nil {
		return uuid.Nil, f.saveErr
	}
	return uuid.New(), nil
}

func (f *fakePlans) SaveReplacementPlan(ctx context.Context, tenantID uuid.UUID, plan *model.ReplacementPlan) error {
	f.saves++
	return f.saveErr
}

func storedEmployee(name string, level int, fatigue float64) *model.Employee {
	return &model.Employee{
		BaseModel:      model.NewBaseModel(),
		Name:           name,
		Status:         "active",
		Available:      true,
		HierarchyLevel: level,
		FatigueScore:   fatigue,
		WorkloadRatio:  2.5,
	}
}

func storedRequirement(level, min int) *model.StaffingRequirement {
	return &model.StaffingRequirement{
		Level:         level,
		PriorityOrder: level,
		CanWorkAlone:  true,
		Coverage: map[model.ShiftType]model.CoverageRule{
			model.ShiftDay: {MinRequired: min, Preferred: min, MaxAllowed: min + 1},
		},
	}
}

func postGenerate(t *testing.T, h *ScheduleHandler, body GenerateRequest) (*httptest.ResponseRecorder, *GenerateResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/generate", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	var resp GenerateResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	}
	return rec, &resp
}

func TestBuildSnapshot_RefreshesStoredFatigue(t *testing.T) {
	rested := storedEmployee("张护士", 1, 9.5)
	strained := storedEmployee("李护士", 1, 0)
	roster := &fakeRoster{
		employees:    []*model.Employee{rested, strained},
		requirements: []*model.StaffingRequirement{storedRequirement(1, 1)},
	}

	// 李护士近 14 天全部夜班，张护士无记录
	history := &fakeHistory{}
	for day := 16; day <= 29; day++ {
		history.assignments = append(history.assignments, &model.ShiftAssignment{
			ID:         uuid.New(),
			EmployeeID: strained.ID,
			Date:       time.Date(2026, 2, day, 0, 0, 0, 0, time.UTC).Format(model.DateLayout),
			ShiftType:  model.ShiftNight,
		})
	}

	h := NewScheduleHandler(nil, roster, history, nil)
	snapshot, err := h.buildSnapshot(context.Background(), &GenerateRequest{
		Team:      "A病区",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-03",
	})
	if err != nil {
		t.Fatalf("buildSnapshot failed: %v", err)
	}

	// 回看窗口为起始日前 14 天
	if history.listedRange.StartDate != "2026-02-16" || history.listedRange.EndDate != "2026-03-01" {
		t.Errorf("history range = %+v, expected 2026-02-16..2026-03-01", history.listedRange)
	}

	byName := make(map[string]*model.Employee)
	for _, emp := range snapshot.Employees {
		byName[emp.Name] = emp
	}

	// 存量 9.5 无历史支撑，应重算归零
	if got := byName["张护士"].FatigueScore; got != 0 {
		t.Errorf("张护士 fatigue = %f, expected recomputed 0", got)
	}
	if got := byName["张护士"].WorkloadRatio; got != 0 {
		t.Errorf("张护士 workload = %f, expected recomputed 0", got)
	}
	// 14 连夜：工时项 5 + 夜班项 6，截断到 10
	if got := byName["李护士"].FatigueScore; got != 10 {
		t.Errorf("李护士 fatigue = %f, expected recomputed 10", got)
	}
}

func TestGenerate_RepositoryFallbackSchedulesRefreshedEmployees(t *testing.T) {
	roster := &fakeRoster{employees: []*model.Employee{
		storedEmployee("张护士", 1, 9.5),
		storedEmployee("李护士", 1, 9.5),
	}}
	history := &fakeHistory{}
	plans := &fakePlans{}
	h := NewScheduleHandler(nil, roster, history, plans)

	// 员工不内联，按团队从仓储加载；存量疲劳度高于阈值，但无近期历史
	rec, resp := postGenerate(t, h, GenerateRequest{
		Team:      "A病区",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-03",
		Requirements: []RequirementInput{{
			Level:         1,
			PriorityOrder: 1,
			CanWorkAlone:  true,
			Coverage: map[string]CoverageInput{
				"day": {MinRequired: 1, Preferred: 1, MaxAllowed: 2},
			},
		}},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if resp.Partial {
		t.Fatal("refreshed employees should produce a full schedule")
	}

	working := 0
	for _, a := range resp.Result.Assignments {
		if a.ShiftType.IsWorking() {
			working++
		}
	}
	if working == 0 {
		t.Error("stale fatigue should be recomputed before generation, got no working shifts")
	}
	if history.saves != 1 {
		t.Errorf("history saves = %d, expected 1", history.saves)
	}
}

func TestGenerate_PersistFailureStillResponds(t *testing.T) {
	plans := &fakePlans{saveErr: errors.New("连接中断")}
	history := &fakeHistory{saveErr: errors.New("连接中断")}
	h := NewScheduleHandler(nil, nil, history, plans)

	empID := uuid.New().String()
	rec, resp := postGenerate(t, h, GenerateRequest{
		Team:      "A病区",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-03",
		Employees: []EmployeeInput{
			{ID: empID, Name: "张护士", HierarchyLevel: 1},
			{ID: uuid.New().String(), Name: "李护士", HierarchyLevel: 1},
		},
		Requirements: []RequirementInput{{
			Level:         1,
			PriorityOrder: 1,
			CanWorkAlone:  true,
			Coverage: map[string]CoverageInput{
				"day": {MinRequired: 1, Preferred: 1, MaxAllowed: 2},
			},
		}},
	})

	// 落库失败只留日志，不影响排班响应
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if !resp.Success {
		t.Error("response should still report success")
	}
	if resp.ResultID != "" {
		t.Errorf("result_id = %q, expected empty on save failure", resp.ResultID)
	}
	if plans.saves != 1 || history.saves != 1 {
		t.Errorf("saves = %d/%d, both stores should have been attempted", plans.saves, history.saves)
	}
}

func TestGenerate_EngineConfigLimits(t *testing.T) {
	cfg := &config.EngineConfig{
		DefaultTimeout:      10 * time.Second,
		MinRestHours:        11,
		MaxConsecutiveNight: 2,
		MaxWeeklyHours:      52,
	}
	h := NewScheduleHandler(cfg, nil, nil, nil)

	first := uuid.New().String()
	second := uuid.New().String()
	rec, resp := postGenerate(t, h, GenerateRequest{
		Team:      "A病区",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-09",
		Employees: []EmployeeInput{
			{ID: first, Name: "张护士", HierarchyLevel: 1},
			{ID: second, Name: "李护士", HierarchyLevel: 1},
		},
		Requirements: []RequirementInput{{
			Level:         1,
			PriorityOrder: 1,
			CanWorkAlone:  true,
			Coverage: map[string]CoverageInput{
				"night": {MinRequired: 1, Preferred: 1, MaxAllowed: 1},
			},
		}},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	nightByDate := make(map[string]map[string]bool)
	for _, a := range resp.Result.Assignments {
		if a.ShiftType != model.ShiftNight {
			continue
		}
		if nightByDate[a.EmployeeID.String()] == nil {
			nightByDate[a.EmployeeID.String()] = make(map[string]bool)
		}
		nightByDate[a.EmployeeID.String()][a.Date] = true
	}

	// 配置上限 2 应覆盖默认的 5
	for empID, nights := range nightByDate {
		run, maxRun := 0, 0
		for date := "2026-03-02"; date <= "2026-03-09"; date = model.NextDate(date) {
			if nights[date] {
				run++
				if run > maxRun {
					maxRun = run
				}
			} else {
				run = 0
			}
		}
		if maxRun > 2 {
			t.Errorf("employee %s worked %d consecutive nights, config limit is 2", empID, maxRun)
		}
	}
}
