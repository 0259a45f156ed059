// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/internal/metrics"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/tenant"
	apperrors "github.com/KNOCKYONG/shiftlink-sub002/pkg/errors"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/fairness"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/pattern"
)

// AnalysisHandler 公平性与模式风险分析处理器
type AnalysisHandler struct {
	fairness *fairness.Analyzer
	pattern  *pattern.Analyzer
	history  HistorySource
}

// NewAnalysisHandler 创建分析处理器
func NewAnalysisHandler(fa *fairness.Analyzer, pa *pattern.Analyzer, history HistorySource) *AnalysisHandler {
	return &AnalysisHandler{fairness: fa, pattern: pa, history: history}
}

// AnalysisRequest 分析请求
// 优先使用内联排班记录；未提供且配置了仓储时按团队与日期范围查库
type AnalysisRequest struct {
	Team        string               `json:"team,omitempty"`
	StartDate   string               `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string               `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Employees   []AnalysisEmployee   `json:"employees" validate:"required,min=1,dive"`
	Assignments []AnalysisAssignment `json:"assignments,omitempty" validate:"dive"`
}

// AnalysisEmployee 分析用员工输入
type AnalysisEmployee struct {
	ID   string `json:"id" validate:"required,uuid"`
	Name string `json:"name,omitempty"`
}

// AnalysisAssignment 分析用排班输入
type AnalysisAssignment struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftType  string `json:"shift_type" validate:"required"`
	Preferred  bool   `json:"preferred,omitempty"`
	LeaveType  string `json:"leave_type,omitempty"`
}

// FairnessResponse 公平性分析响应
type FairnessResponse struct {
	Metrics []*model.FairnessMetrics    `json:"metrics"`
	Team    *model.TeamFairnessAnalysis `json:"team_analysis"`
}

// Fairness 团队公平性分析
func (h *AnalysisHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req AnalysisRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	employees, assignments, err := h.resolveInput(r, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	perEmployee, team := h.fairness.Analyze(employees, assignments)

	metrics.FairnessGini.WithLabelValues(req.Team, "night").Set(team.NightShiftGini)
	metrics.FairnessGini.WithLabelValues(req.Team, "weekend").Set(team.WeekendShiftGini)
	metrics.FairnessGini.WithLabelValues(req.Team, "hours").Set(team.HoursGini)

	respondJSON(w, http.StatusOK, FairnessResponse{Metrics: perEmployee, Team: team})
}

// PatternResponse 模式风险分析响应
type PatternResponse struct {
	Analyses []*model.PatternRiskAnalysis `json:"analyses"`
	Summary  *model.TeamRiskSummary       `json:"team_summary"`
}

// Pattern 团队班次模式风险分析
func (h *AnalysisHandler) Pattern(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req AnalysisRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	employees, assignments, err := h.resolveInput(r, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	byEmployee := make(map[uuid.UUID][]*model.ShiftAssignment, len(employees))
	for _, emp := range employees {
		byEmployee[emp.ID] = nil
	}
	for _, a := range assignments {
		if _, ok := byEmployee[a.EmployeeID]; ok {
			byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
		}
	}

	analyses, summary := h.pattern.AnalyzeTeam(byEmployee)
	for _, analysis := range analyses {
		for _, issue := range analysis.DetectedIssues {
			metrics.PatternRiskDetected.WithLabelValues(string(issue.Type), string(issue.Severity)).Inc()
		}
	}

	respondJSON(w, http.StatusOK, PatternResponse{Analyses: analyses, Summary: summary})
}

// resolveInput 解析员工与排班记录；内联为空时回退到仓储
func (h *AnalysisHandler) resolveInput(r *http.Request, req *AnalysisRequest) ([]*model.Employee, []*model.ShiftAssignment, error) {
	employees := make([]*model.Employee, 0, len(req.Employees))
	for _, e := range req.Employees {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, nil, apperrors.InvalidInput("employees.id", "无效的员工ID格式: "+e.ID)
		}
		employees = append(employees, &model.Employee{
			BaseModel: model.BaseModel{ID: id},
			Name:      e.Name,
		})
	}

	if len(req.Assignments) > 0 {
		assignments := make([]*model.ShiftAssignment, 0, len(req.Assignments))
		for _, a := range req.Assignments {
			id, err := uuid.Parse(a.EmployeeID)
			if err != nil {
				return nil, nil, apperrors.InvalidInput("assignments.employee_id", "无效的员工ID格式: "+a.EmployeeID)
			}
			shift := model.ShiftType(a.ShiftType)
			if !shift.Valid() {
				return nil, nil, apperrors.New(apperrors.CodeInvalidShiftType, "无效的班次类型: "+a.ShiftType)
			}
			assignments = append(assignments, &model.ShiftAssignment{
				EmployeeID: id,
				Date:       a.Date,
				ShiftType:  shift,
				Preferred:  a.Preferred,
				LeaveType:  a.LeaveType,
			})
		}
		return employees, assignments, nil
	}

	if h.history == nil || req.Team == "" || req.StartDate == "" || req.EndDate == "" {
		return nil, nil, apperrors.New(apperrors.CodeInvalidInput, "需要内联排班记录，或提供团队与日期范围")
	}

	tenantID := uuid.Nil
	if t, ok := tenant.FromContext(r.Context()); ok {
		tenantID = t.ID
	}
	assignments, err := h.history.ListByRange(r.Context(), tenantID, req.Team,
		model.DateRange{StartDate: req.StartDate, EndDate: req.EndDate})
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询排班记录失败")
	}
	return employees, assignments, nil
}
