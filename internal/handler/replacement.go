// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/internal/metrics"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/tenant"
	apperrors "github.com/KNOCKYONG/shiftlink-sub002/pkg/errors"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/logger"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/replacement"
)

// ReplacementHandler 替班规划处理器
type ReplacementHandler struct {
	planner *replacement.Planner
	plans   PlanStore
}

// NewReplacementHandler 创建替班规划处理器
func NewReplacementHandler(planner *replacement.Planner, plans PlanStore) *ReplacementHandler {
	return &ReplacementHandler{planner: planner, plans: plans}
}

// PlanRequest 替班规划请求
type PlanRequest struct {
	OriginalSupervisorID string               `json:"original_supervisor_id" validate:"required,uuid"`
	AbsenceStart         string               `json:"absence_start" validate:"required,datetime=2006-01-02"`
	AbsenceEnd           string               `json:"absence_end" validate:"required,datetime=2006-01-02"`
	Urgency              string               `json:"urgency" validate:"required,oneof=low medium high critical"`
	AffectedShifts       []AffectedShiftInput `json:"affected_shifts" validate:"required,min=1,dive"`
	Pool                 []PoolEmployeeInput  `json:"pool" validate:"required,min=1,dive"`
	Schedule             []AnalysisAssignment `json:"schedule,omitempty" validate:"dive"`
}

// AffectedShiftInput 受影响班次输入
type AffectedShiftInput struct {
	Date                     string `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftType                string `json:"shift_type" validate:"required,oneof=day evening night"`
	Team                     string `json:"team,omitempty"`
	RequiredSupervisionLevel int    `json:"required_supervision_level,omitempty"`
}

// PoolEmployeeInput 候选池员工输入
type PoolEmployeeInput struct {
	ID              string   `json:"id" validate:"required,uuid"`
	Name            string   `json:"name" validate:"required"`
	Status          string   `json:"status,omitempty"`
	HierarchyLevel  int      `json:"hierarchy_level" validate:"required,min=1"`
	ExperienceYears float64  `json:"experience_years,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
	CrossTrained    bool     `json:"cross_trained,omitempty"`
	FatigueScore    float64  `json:"fatigue_score,omitempty"`
	WorkloadRatio   float64  `json:"workload_ratio,omitempty"`
	Performance     float64  `json:"performance,omitempty"`
	Available       *bool    `json:"available,omitempty"`
	HourlyRate      float64  `json:"hourly_rate,omitempty"`
}

// Plan 生成替班方案
func (h *ReplacementHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req PlanRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	request, pool, schedule, err := buildPlanInput(&req)
	if err != nil {
		respondError(w, err)
		return
	}

	plan, err := h.planner.Plan(r.Context(), request, pool, schedule)
	if err != nil {
		respondError(w, err)
		return
	}

	metrics.ReplacementCoverageRate.Set(plan.Coverage.FullCoveragePercentage)
	if plan.Coverage.Uncovered > 0 {
		metrics.ReplacementUncovered.WithLabelValues(string(request.Urgency)).Add(float64(plan.Coverage.Uncovered))
	}

	if h.plans != nil {
		tenantID := uuid.Nil
		if t, ok := tenant.FromContext(r.Context()); ok {
			tenantID = t.ID
		}
		if saveErr := h.plans.SaveReplacementPlan(r.Context(), tenantID, plan); saveErr != nil {
			logger.Warn().Err(saveErr).Str("request_id", request.ID.String()).Msg("保存替班方案失败")
		}
	}

	respondJSON(w, http.StatusOK, plan)
}

// buildPlanInput 将请求体转换为规划器输入
func buildPlanInput(req *PlanRequest) (*model.ReplacementRequest, []*model.Employee, []*model.ShiftAssignment, error) {
	supervisorID, err := uuid.Parse(req.OriginalSupervisorID)
	if err != nil {
		return nil, nil, nil, apperrors.InvalidInput("original_supervisor_id", "无效的员工ID格式")
	}

	request := &model.ReplacementRequest{
		ID:                   uuid.New(),
		OriginalSupervisorID: supervisorID,
		AbsenceStart:         req.AbsenceStart,
		AbsenceEnd:           req.AbsenceEnd,
		Urgency:              model.Urgency(req.Urgency),
	}
	for _, s := range req.AffectedShifts {
		request.AffectedShifts = append(request.AffectedShifts, model.AffectedShift{
			Date:                     s.Date,
			ShiftType:                model.ShiftType(s.ShiftType),
			Team:                     s.Team,
			RequiredSupervisionLevel: s.RequiredSupervisionLevel,
		})
	}

	pool := make([]*model.Employee, 0, len(req.Pool))
	for _, p := range req.Pool {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, nil, nil, apperrors.InvalidInput("pool.id", "无效的员工ID格式: "+p.ID)
		}
		emp := &model.Employee{
			BaseModel:       model.BaseModel{ID: id},
			Name:            p.Name,
			Status:          p.Status,
			HierarchyLevel:  p.HierarchyLevel,
			ExperienceYears: p.ExperienceYears,
			Certifications:  p.Certifications,
			CrossTrained:    p.CrossTrained,
			FatigueScore:    p.FatigueScore,
			WorkloadRatio:   p.WorkloadRatio,
			Performance:     p.Performance,
			Available:       true,
			HourlyRate:      p.HourlyRate,
		}
		if emp.Status == "" {
			emp.Status = "active"
		}
		if p.Available != nil {
			emp.Available = *p.Available
		}
		pool = append(pool, emp)
	}

	var schedule []*model.ShiftAssignment
	for _, a := range req.Schedule {
		id, err := uuid.Parse(a.EmployeeID)
		if err != nil {
			return nil, nil, nil, apperrors.InvalidInput("schedule.employee_id", "无效的员工ID格式: "+a.EmployeeID)
		}
		shift := model.ShiftType(a.ShiftType)
		if !shift.Valid() {
			return nil, nil, nil, apperrors.New(apperrors.CodeInvalidShiftType, "无效的班次类型: "+a.ShiftType)
		}
		schedule = append(schedule, &model.ShiftAssignment{
			EmployeeID: id,
			Date:       a.Date,
			ShiftType:  shift,
		})
	}

	return request, pool, schedule, nil
}
