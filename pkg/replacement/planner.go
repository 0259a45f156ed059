// Package replacement 提供主管缺勤时的替班规划功能
//
// 规划器对员工池逐人评分（类型、资质、可用性、绩效），
// 再按受影响班次逐个指派主力与后备候选人，
// 同一日期上的主力指派会被临时占用以避免同方案内重复预订。
package replacement

import (
	"context"
	"sort"

	"github.com/google/uuid"

	apperrors "github.com/KNOCKYONG/shiftlink-sub002/pkg/errors"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/logger"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/validator"
)

// DefaultScoreCutoff 候选人最低得分线（不含）
const DefaultScoreCutoff = 0.3

// maxBackupsPerShift 每个班次的后备人数上限
const maxBackupsPerShift = 2

// costSurcharge 各替班类型的成本加成系数
var costSurcharge = map[model.ReplacementType]float64{
	model.ReplacementSameLevelSenior:   1.0,
	model.ReplacementCrossTrainedLower: 1.25,
	model.ReplacementUpperLevel:        1.5,
	model.ReplacementExternalFloat:     2.0,
}

// Planner 替班规划器
type Planner struct {
	weights  Weights
	cutoff   float64
	detector *validator.Detector
	logger   *logger.EngineLogger
}

// NewPlanner 创建替班规划器（默认权重与分数线）
func NewPlanner() *Planner {
	return NewPlannerWithWeights(DefaultWeights(), DefaultScoreCutoff)
}

// NewPlannerWithWeights 创建替班规划器并指定权重与分数线
func NewPlannerWithWeights(weights Weights, cutoff float64) *Planner {
	if cutoff <= 0 {
		cutoff = DefaultScoreCutoff
	}
	return &Planner{
		weights:  weights,
		cutoff:   cutoff,
		detector: validator.NewDetector(0),
		logger:   logger.NewEngineLogger("replacement"),
	}
}

// Plan 为替班请求生成覆盖方案
//
// pool 为在职员工池（可含缺勤人本人，会被排除），
// schedule 为当前生效的排班记录，用于判断候选人冲突。
func (p *Planner) Plan(ctx context.Context, req *model.ReplacementRequest, pool []*model.Employee, schedule []*model.ShiftAssignment) (*model.ReplacementPlan, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.CodeInvalidReplacementRequest, "替班请求为空")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.InvalidReplacementRequest(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCancelled, "替班规划被取消")
	}

	absent, absentLevel := p.resolveAbsent(req, pool)
	candidates := p.rankCandidates(req, pool, schedule, absent, absentLevel)

	plan := &model.ReplacementPlan{RequestID: req.ID}
	consumed := make(map[string]map[uuid.UUID]bool) // 日期 -> 已占用员工

	upperLevelUsed := false
	for _, shift := range req.AffectedShifts {
		coverage := p.coverShift(shift, candidates, schedule, consumed)
		plan.ShiftCoverages = append(plan.ShiftCoverages, coverage)

		switch {
		case coverage.Primary == nil:
			plan.Coverage.Uncovered++
		case coverage.Primary.AvailabilityStatus == model.AvailabilityAvailable:
			plan.Coverage.FullCoverage++
		default:
			plan.Coverage.PartialCoverage++
		}

		if coverage.Primary != nil {
			if coverage.Primary.ReplacementType == model.ReplacementUpperLevel {
				upperLevelUsed = true
			}
			plan.EstimatedCost += p.assignmentCost(coverage.Primary, shift, pool)
		}
	}

	total := len(req.AffectedShifts)
	if total > 0 {
		plan.Coverage.FullCoveragePercentage = float64(plan.Coverage.FullCoverage) / float64(total) * 100
	}
	plan.ApprovalRequired = req.Urgency != model.UrgencyCritical && upperLevelUsed

	p.logger.ReplacementPlanned(req.ID.String(), plan.Coverage.FullCoveragePercentage, plan.Coverage.Uncovered)
	return plan, nil
}

// resolveAbsent 在员工池中定位缺勤主管
// 池中不存在时以受影响班次的监督层级作为比较基准
func (p *Planner) resolveAbsent(req *model.ReplacementRequest, pool []*model.Employee) (*model.Employee, int) {
	for _, emp := range pool {
		if emp.ID == req.OriginalSupervisorID {
			return emp, emp.HierarchyLevel
		}
	}
	level := 1
	if len(req.AffectedShifts) > 0 {
		level = req.AffectedShifts[0].RequiredSupervisionLevel
	}
	return nil, level
}

// rankCandidates 对员工池评分并按得分降序排序
// 仅保留得分超过分数线的候选人
func (p *Planner) rankCandidates(req *model.ReplacementRequest, pool []*model.Employee, schedule []*model.ShiftAssignment, absent *model.Employee, absentLevel int) []*model.ReplacementCandidate {
	var ranked []*model.ReplacementCandidate
	for _, emp := range pool {
		if emp.ID == req.OriginalSupervisorID || !emp.IsSchedulable() {
			continue
		}
		availability, conflicts := availabilityOf(p.detector, schedule, emp, req.AffectedShifts)
		candidate := buildCandidate(absent, absentLevel, emp, p.weights, availability, conflicts)
		if candidate.ReplacementScore <= p.cutoff {
			continue
		}
		ranked = append(ranked, candidate)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ReplacementScore > ranked[j].ReplacementScore
	})
	return ranked
}

// coverShift 为单个受影响班次指派主力与后备
//
// 主力与后备都须在该班次无排班冲突；主力另须当日未被本方案占用，
// 后备不占用名额。
func (p *Planner) coverShift(shift model.AffectedShift, candidates []*model.ReplacementCandidate, schedule []*model.ShiftAssignment, consumed map[string]map[uuid.UUID]bool) model.ShiftCoverage {
	coverage := model.ShiftCoverage{Shift: shift}

	dayConsumed := consumed[shift.Date]
	if dayConsumed == nil {
		dayConsumed = make(map[uuid.UUID]bool)
		consumed[shift.Date] = dayConsumed
	}

	for _, candidate := range candidates {
		if dayConsumed[candidate.EmployeeID] {
			continue
		}
		if len(p.detector.ConflictsWith(schedule, candidate.EmployeeID, shift.Date, shift.ShiftType)) > 0 {
			continue
		}
		if coverage.Primary == nil {
			coverage.Primary = candidate
			coverage.Confidence = candidate.ReplacementScore
			dayConsumed[candidate.EmployeeID] = true
			continue
		}
		if len(coverage.Backups) < maxBackupsPerShift {
			coverage.Backups = append(coverage.Backups, candidate)
		}
		if len(coverage.Backups) == maxBackupsPerShift {
			break
		}
	}
	return coverage
}

// assignmentCost 估算单个替班指派的成本
// 基准为候选人时薪乘以班次时长，再按替班类型加成
func (p *Planner) assignmentCost(candidate *model.ReplacementCandidate, shift model.AffectedShift, pool []*model.Employee) float64 {
	rate := 0.0
	for _, emp := range pool {
		if emp.ID == candidate.EmployeeID {
			rate = emp.HourlyRate
			break
		}
	}
	if rate == 0 {
		return 0
	}
	return rate * shift.ShiftType.Hours() * costSurcharge[candidate.ReplacementType]
}
