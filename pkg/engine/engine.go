// Package engine 提供约束感知的排班生成引擎
// 引擎是纯函数式的：输入不可变快照，输出全新结果，不保留跨调用状态
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/KNOCKYONG/shiftlink-sub002/pkg/errors"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/engine/constraint"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/logger"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// 警告代码
const (
	WarnMinStaffing    = "min_staffing"
	WarnSupervisionGap = "supervision_gap"
)

// Engine 排班生成引擎
type Engine struct {
	cm     *constraint.Manager
	logger *logger.EngineLogger
}

// New 创建排班引擎并注册法定默认硬约束
func New() *Engine {
	cm := constraint.NewManager()
	constraint.RegisterDefaults(cm)
	return &Engine{
		cm:     cm,
		logger: logger.NewEngineLogger("engine"),
	}
}

// NewWithManager 使用自定义约束管理器创建引擎
func NewWithManager(cm *constraint.Manager) *Engine {
	return &Engine{
		cm:     cm,
		logger: logger.NewEngineLogger("engine"),
	}
}

// ConstraintManager 返回引擎的约束管理器
func (e *Engine) ConstraintManager() *constraint.Manager {
	return e.cm
}

// Generate 生成覆盖 每员工×每日期 的完整排班
// 日期与班次按固定顺序迭代，顺序本身是契约的一部分（影响同分决胜）；
// 取消信号在日期迭代之间检查，取消时返回的部分结果不得当作最终方案
func (e *Engine) Generate(ctx context.Context, snapshot *model.RosterSnapshot, opts model.GenerationOptions) (*model.GenerationResult, error) {
	startTime := time.Now()

	if err := e.validateSnapshot(snapshot); err != nil {
		return nil, err
	}

	days, err := snapshot.Range.Days()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidTimeRange, "排班日期范围无效")
	}

	e.logger.GenerationStart(snapshot.TenantID.String(), len(snapshot.Employees), len(days))

	state := constraint.NewState(snapshot)
	requirements := snapshot.RequirementsByPriority()

	result := &model.GenerationResult{
		Warnings: make([]model.Warning, 0),
	}

	// 层级均衡得分的累计项：每个 (日期, 班次, 层级) 的满足率
	var fulfillmentSum float64
	fulfillmentCount := 0

	for dayIndex, date := range days {
		if err := ctx.Err(); err != nil {
			e.finalize(result, state, snapshot, days[:dayIndex], startTime, fulfillmentSum, fulfillmentCount)
			result.Partial = true
			return result, apperrors.Cancelled(err)
		}

		for _, shift := range model.WorkingShiftTypes {
			for _, req := range requirements {
				rule := req.CoverageFor(shift)
				if rule.MaxAllowed == 0 {
					continue
				}

				assigned := e.fillLevel(state, snapshot, req, rule, dayIndex, date, shift, opts)

				if rule.Preferred > 0 {
					ratio := float64(assigned) / float64(rule.Preferred)
					if ratio > 1 {
						ratio = 1
					}
					fulfillmentSum += ratio
					fulfillmentCount++
				}

				if assigned < rule.MinRequired {
					result.ViolationCount++
					result.Warnings = append(result.Warnings, model.Warning{
						Code:      WarnMinStaffing,
						Date:      date,
						ShiftType: shift,
						Level:     req.Level,
						Message: fmt.Sprintf("%s %s 层级 %d 仅分配 %d 人，低于最低要求 %d 人",
							date, shift, req.Level, assigned, rule.MinRequired),
					})
					e.logger.StaffingShortfall(date, string(shift), req.Level, assigned, rule.MinRequired)
				}

				if req.RequiresSupervision && !e.hasSupervision(state, snapshot, req.Level, date, shift) {
					result.Warnings = append(result.Warnings, model.Warning{
						Code:      WarnSupervisionGap,
						Date:      date,
						ShiftType: shift,
						Level:     req.Level,
						Message: fmt.Sprintf("%s %s 层级 %d 无可监督人员在岗",
							date, shift, req.Level),
					})
					e.logger.SupervisionGap(date, string(shift), req.Level)
				}
			}
		}

		// 未被分配的员工当日置为休息
		for _, emp := range snapshot.Employees {
			if state.AssignedOn(emp.ID, date) {
				continue
			}
			state.Add(&model.ShiftAssignment{
				ID:             uuid.New(),
				EmployeeID:     emp.ID,
				Date:           date,
				ShiftType:      model.ShiftOff,
				HierarchyLevel: emp.HierarchyLevel,
			})
		}
	}

	e.finalize(result, state, snapshot, days, startTime, fulfillmentSum, fulfillmentCount)
	e.logger.GenerationComplete(snapshot.TenantID.String(),
		result.Metadata.Duration, result.ComplianceScore, result.HierarchyBalanceScore)
	return result, nil
}

// fillLevel 为某 (日期, 班次, 层级) 选人分配，返回实际分配人数
// 先填满最低人数，容量允许时继续填到期望人数，不超过最多人数
func (e *Engine) fillLevel(
	state *constraint.State,
	snapshot *model.RosterSnapshot,
	req *model.StaffingRequirement,
	rule model.CoverageRule,
	dayIndex int,
	date string,
	shift model.ShiftType,
	opts model.GenerationOptions,
) int {
	candidates := e.rankCandidates(state, snapshot, req.Level, dayIndex, date, shift, opts)

	target := rule.Preferred
	if target > rule.MaxAllowed {
		target = rule.MaxAllowed
	}
	if target < rule.MinRequired {
		target = rule.MinRequired
	}

	assigned := 0
	for _, cand := range candidates {
		if assigned >= target || assigned >= rule.MaxAllowed {
			break
		}
		state.Add(&model.ShiftAssignment{
			ID:             uuid.New(),
			EmployeeID:     cand.Employee.ID,
			Date:           date,
			ShiftType:      shift,
			HierarchyLevel: req.Level,
			IsSupervisor:   req.IsSupervisorLevel(),
			Preferred:      cand.PreferenceHit,
		})
		assigned++
	}
	return assigned
}

// hasSupervision 检查某 (日期, 班次) 是否有能监督指定层级的人员在岗
func (e *Engine) hasSupervision(state *constraint.State, snapshot *model.RosterSnapshot, level int, date string, shift model.ShiftType) bool {
	for _, a := range state.For(date, shift) {
		if !a.IsSupervisor {
			continue
		}
		supReq := snapshot.RequirementFor(a.HierarchyLevel)
		if supReq != nil && supReq.CanSuperviseLevel(level) {
			return true
		}
	}
	return false
}

// validateSnapshot 检查快照；空员工表和缺失需求是致命配置错误
func (e *Engine) validateSnapshot(snapshot *model.RosterSnapshot) error {
	if snapshot == nil || len(snapshot.Employees) == 0 {
		return apperrors.ErrEmptyRoster
	}
	if len(snapshot.Requirements) == 0 {
		return apperrors.ErrMissingRequirements
	}
	if err := snapshot.Validate(); err != nil {
		return apperrors.InvalidSnapshot(err)
	}
	return nil
}

// finalize 填充结果的分配列表、得分和元信息
func (e *Engine) finalize(
	result *model.GenerationResult,
	state *constraint.State,
	snapshot *model.RosterSnapshot,
	days []string,
	startTime time.Time,
	fulfillmentSum float64,
	fulfillmentCount int,
) {
	result.Assignments = state.Assignments()

	total := len(result.Assignments)
	if total > 0 {
		compliance := 1 - float64(len(result.Warnings))/float64(total)
		if compliance < 0 {
			compliance = 0
		}
		result.ComplianceScore = compliance * 100
	}

	if fulfillmentCount > 0 {
		result.HierarchyBalanceScore = fulfillmentSum / float64(fulfillmentCount) * 100
	}

	result.Metadata = model.GenerationMetadata{
		TenantID:      snapshot.TenantID,
		Team:          snapshot.Team,
		Range:         snapshot.Range,
		EmployeeCount: len(snapshot.Employees),
		DayCount:      len(days),
		Duration:      time.Since(startTime),
		GeneratedAt:   startTime,
	}
}
