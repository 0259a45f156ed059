// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/internal/config"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/metrics"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/policy"
	"github.com/KNOCKYONG/shiftlink-sub002/internal/tenant"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/engine"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/engine/constraint"
	apperrors "github.com/KNOCKYONG/shiftlink-sub002/pkg/errors"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/logger"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	timeout   time.Duration
	minRest   float64
	maxNights int
	maxWeekly float64
	roster    RosterSource
	history   HistorySource
	plans     PlanStore
}

// NewScheduleHandler 创建排班处理器
// 引擎配置为空时使用默认阈值；数据源为空时仅做内存计算，不落库，
// 且请求必须内联员工与人力需求
func NewScheduleHandler(engineCfg *config.EngineConfig, roster RosterSource, history HistorySource, plans PlanStore) *ScheduleHandler {
	h := &ScheduleHandler{
		timeout:   30 * time.Second,
		minRest:   constraint.DefaultMinRestHours,
		maxNights: constraint.DefaultMaxConsecutiveNight,
		maxWeekly: constraint.DefaultMaxWeeklyHours,
		roster:    roster,
		history:   history,
		plans:     plans,
	}
	if engineCfg != nil {
		if engineCfg.DefaultTimeout > 0 {
			h.timeout = engineCfg.DefaultTimeout
		}
		if engineCfg.MinRestHours > 0 {
			h.minRest = engineCfg.MinRestHours
		}
		if engineCfg.MaxConsecutiveNight > 0 {
			h.maxNights = engineCfg.MaxConsecutiveNight
		}
		if engineCfg.MaxWeeklyHours > 0 {
			h.maxWeekly = engineCfg.MaxWeeklyHours
		}
	}
	return h
}

// newEngine 按配置阈值构建引擎；预设在其后应用，可覆盖配置值
func (h *ScheduleHandler) newEngine() *engine.Engine {
	eng := engine.New()
	cm := eng.ConstraintManager()
	cm.Register(constraint.NewMinRestConstraint(h.minRest))
	cm.Register(constraint.NewMaxConsecutiveNightsConstraint(h.maxNights))
	cm.Register(constraint.NewMaxWeeklyHoursConstraint(h.maxWeekly))
	return eng
}

// GenerateRequest 排班生成请求
// 员工与人力需求可内联；二者省略时回退到员工仓储按团队加载
type GenerateRequest struct {
	Team         string                      `json:"team" validate:"required"`
	StartDate    string                      `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string                      `json:"end_date" validate:"required,datetime=2006-01-02"`
	Employees    []EmployeeInput             `json:"employees,omitempty" validate:"omitempty,dive"`
	Requirements []RequirementInput          `json:"requirements,omitempty" validate:"omitempty,dive"`
	Prior        []AssignmentInput           `json:"prior_assignments,omitempty" validate:"dive"`
	Preset       string                      `json:"preset,omitempty"`
	Options      model.GenerationOptions     `json:"options"`
}

// EmployeeInput 员工输入
type EmployeeInput struct {
	ID                string   `json:"id" validate:"required,uuid"`
	Name              string   `json:"name" validate:"required"`
	Status            string   `json:"status,omitempty"`
	HierarchyLevel    int      `json:"hierarchy_level" validate:"required,min=1"`
	ExperienceYears   float64  `json:"experience_years,omitempty"`
	Certifications    []string `json:"certifications,omitempty"`
	CrossTrained      bool     `json:"cross_trained,omitempty"`
	FatigueScore      float64  `json:"fatigue_score,omitempty"`
	WorkloadRatio     float64  `json:"workload_ratio,omitempty"`
	Available         *bool    `json:"available,omitempty"`
	PreferencePattern []string `json:"preference_pattern,omitempty"`
}

// RequirementInput 层级需求输入
type RequirementInput struct {
	Level               int                       `json:"level" validate:"required,min=1"`
	Name                string                    `json:"name,omitempty"`
	PriorityOrder       int                       `json:"priority_order"`
	PriorityWeight      float64                   `json:"priority_weight,omitempty"`
	CanWorkAlone        bool                      `json:"can_work_alone,omitempty"`
	RequiresSupervision bool                      `json:"requires_supervision,omitempty"`
	CanSupervise        []int                     `json:"can_supervise,omitempty"`
	Coverage            map[string]CoverageInput  `json:"coverage" validate:"required,min=1"`
}

// CoverageInput 班次人力配置输入
type CoverageInput struct {
	MinRequired int `json:"min_required" validate:"min=0"`
	Preferred   int `json:"preferred" validate:"min=0"`
	MaxAllowed  int `json:"max_allowed" validate:"min=0"`
}

// AssignmentInput 既有排班输入
type AssignmentInput struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftType  string `json:"shift_type" validate:"required"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success  bool                    `json:"success"`
	Partial  bool                    `json:"partial,omitempty"`
	ResultID string                  `json:"result_id,omitempty"`
	Result   *model.GenerationResult `json:"result"`
	Duration string                  `json:"duration"`
}

// Generate 生成排班
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req GenerateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	snapshot, err := h.buildSnapshot(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	eng := h.newEngine()
	if req.Preset != "" {
		preset, ok := policy.FindPreset(req.Preset)
		if !ok {
			respondError(w, apperrors.InvalidInput("preset", "未知的策略预设: "+req.Preset))
			return
		}
		preset.Apply(eng.ConstraintManager())
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	result, err := eng.Generate(ctx, snapshot, req.Options)
	duration := time.Since(start)

	metrics.GenerationDuration.Observe(duration.Seconds())
	if err != nil {
		metrics.GenerationTotal.WithLabelValues("failed").Inc()
		respondError(w, err)
		return
	}

	status := "completed"
	if result.Partial {
		status = "partial"
	}
	metrics.GenerationTotal.WithLabelValues(status).Inc()
	metrics.ComplianceScore.WithLabelValues(req.Team).Set(result.ComplianceScore)
	metrics.HierarchyBalanceScore.WithLabelValues(req.Team).Set(result.HierarchyBalanceScore)
	for _, warning := range result.Warnings {
		metrics.GenerationWarnings.WithLabelValues(warning.Code).Inc()
	}

	resp := GenerateResponse{
		Success:  true,
		Partial:  result.Partial,
		Result:   result,
		Duration: duration.String(),
	}

	// 完整结果才落库，部分方案不得当作最终方案
	// 落库失败不影响响应，但必须留痕
	if h.plans != nil && !result.Partial {
		if id, saveErr := h.plans.SaveGenerationResult(r.Context(), snapshot.TenantID, req.Team, result); saveErr == nil {
			resp.ResultID = id.String()
		} else {
			logger.Warn().Err(saveErr).Str("team", req.Team).Msg("保存排班结果失败")
		}
		if h.history != nil {
			if saveErr := h.history.SaveAssignments(r.Context(), snapshot.TenantID, req.Team, result.Assignments); saveErr != nil {
				logger.Warn().Err(saveErr).Str("team", req.Team).Msg("保存排班历史失败")
			}
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// buildSnapshot 将请求体转换为排班输入快照；员工或需求未内联时回退到仓储
func (h *ScheduleHandler) buildSnapshot(ctx context.Context, req *GenerateRequest) (*model.RosterSnapshot, error) {
	tenantID := uuid.Nil
	if t, ok := tenant.FromContext(ctx); ok {
		tenantID = t.ID
	}

	if len(req.Employees) == 0 || len(req.Requirements) == 0 {
		if h.roster == nil {
			return nil, apperrors.New(apperrors.CodeInvalidInput, "需要内联员工与人力需求，或启用员工仓储")
		}
	}

	snapshot := &model.RosterSnapshot{
		TenantID: tenantID,
		Team:     req.Team,
		Range:    model.DateRange{StartDate: req.StartDate, EndDate: req.EndDate},
	}

	for _, e := range req.Employees {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, apperrors.InvalidInput("employees.id", "无效的员工ID格式: "+e.ID)
		}
		emp := &model.Employee{
			BaseModel:       model.BaseModel{ID: id},
			TenantID:        tenantID,
			Name:            e.Name,
			Team:            req.Team,
			Status:          e.Status,
			HierarchyLevel:  e.HierarchyLevel,
			ExperienceYears: e.ExperienceYears,
			Certifications:  e.Certifications,
			CrossTrained:    e.CrossTrained,
			FatigueScore:    e.FatigueScore,
			WorkloadRatio:   e.WorkloadRatio,
			Available:       true,
		}
		if emp.Status == "" {
			emp.Status = "active"
		}
		if e.Available != nil {
			emp.Available = *e.Available
		}
		for _, p := range e.PreferencePattern {
			emp.PreferencePattern = append(emp.PreferencePattern, model.ShiftType(p))
		}
		snapshot.Employees = append(snapshot.Employees, emp)
	}

	for _, r := range req.Requirements {
		requirement := &model.StaffingRequirement{
			Level:               r.Level,
			Name:                r.Name,
			PriorityOrder:       r.PriorityOrder,
			PriorityWeight:      r.PriorityWeight,
			CanWorkAlone:        r.CanWorkAlone,
			RequiresSupervision: r.RequiresSupervision,
			CanSupervise:        r.CanSupervise,
			Coverage:            make(map[model.ShiftType]model.CoverageRule, len(r.Coverage)),
		}
		for shift, rule := range r.Coverage {
			requirement.Coverage[model.ShiftType(shift)] = model.CoverageRule{
				MinRequired: rule.MinRequired,
				Preferred:   rule.Preferred,
				MaxAllowed:  rule.MaxAllowed,
			}
		}
		snapshot.Requirements = append(snapshot.Requirements, requirement)
	}

	for _, a := range req.Prior {
		id, err := uuid.Parse(a.EmployeeID)
		if err != nil {
			return nil, apperrors.InvalidInput("prior_assignments.employee_id", "无效的员工ID格式: "+a.EmployeeID)
		}
		shift := model.ShiftType(a.ShiftType)
		if !shift.Valid() {
			return nil, apperrors.New(apperrors.CodeInvalidShiftType, "无效的班次类型: "+a.ShiftType)
		}
		snapshot.PriorAssignments = append(snapshot.PriorAssignments, &model.ShiftAssignment{
			ID:         uuid.New(),
			EmployeeID: id,
			Date:       a.Date,
			ShiftType:  shift,
		})
	}

	if len(snapshot.Employees) == 0 {
		employees, err := h.roster.ListSchedulable(ctx, tenantID, req.Team)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "加载团队员工失败")
		}
		snapshot.Employees = h.refreshWorkloadFromHistory(ctx, tenantID, req, employees)
	}
	if len(snapshot.Requirements) == 0 {
		requirements, err := h.roster.ListRequirements(ctx, tenantID, req.Team)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "加载人力需求失败")
		}
		snapshot.Requirements = requirements
	}

	return snapshot, nil
}

// refreshWorkloadFromHistory 用排班起始日前的班次历史重算疲劳度与负载比
// 仓储中的存量数值可能滞后，生成前必须以近期历史为准；查库失败时降级为存量值
func (h *ScheduleHandler) refreshWorkloadFromHistory(ctx context.Context, tenantID uuid.UUID, req *GenerateRequest, employees []*model.Employee) []*model.Employee {
	if h.history == nil {
		return employees
	}

	start, err := time.Parse(model.DateLayout, req.StartDate)
	if err != nil {
		return employees
	}
	window := model.DateRange{
		StartDate: start.AddDate(0, 0, -engine.FatigueLookbackDays).Format(model.DateLayout),
		EndDate:   model.PreviousDate(req.StartDate),
	}

	history, err := h.history.ListByRange(ctx, tenantID, req.Team, window)
	if err != nil {
		logger.Warn().Err(err).Str("team", req.Team).Msg("加载班次历史失败，沿用存量疲劳度")
		return employees
	}
	return engine.RefreshWorkloadState(employees, history, req.StartDate)
}

// listConstraints 暴露约束管理器中的约束清单
func listConstraints(cm *constraint.Manager) []map[string]string {
	var out []map[string]string
	for _, c := range cm.GetAll() {
		out = append(out, map[string]string{
			"name":     c.Name(),
			"type":     string(c.Type()),
			"category": string(c.Category()),
		})
	}
	return out
}

// PolicyHandler 策略库处理器
type PolicyHandler struct{}

// NewPolicyHandler 创建策略库处理器
func NewPolicyHandler() *PolicyHandler {
	return &PolicyHandler{}
}

// Library 返回策略库与内置预设
func (h *PolicyHandler) Library(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	respondJSON(w, http.StatusOK, policy.LibraryResponse{
		Library: policy.GetLibrary(),
		Presets: policy.GetPresets(),
	})
}

// Constraints 返回默认约束清单
func (h *PolicyHandler) Constraints(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"constraints": listConstraints(engine.New().ConstraintManager()),
	})
}
