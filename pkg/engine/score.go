// Package engine 提供约束感知的排班生成引擎
package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/engine/constraint"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/scoring"
)

// 优先级评分参数
const (
	scoreBase            = 100.0
	prefMatchPoints      = 40.0  // 偏好命中加分（乘以偏好权重）
	prefOffPenalty       = -30.0 // 偏好模式指示休息却被排班
	fatigueLowBonus      = 30.0  // 疲劳度 <=3
	fatigueMidBonus      = 15.0  // 疲劳度 <=6
	fatigueHighPenalty   = -25.0 // 疲劳度 >=8
	consecutive5Penalty  = -40.0 // 连续工作 >=5 天
	consecutive3Penalty  = -20.0 // 连续工作 >=3 天
	workloadLightBonus   = 10.0  // 负载比 <0.8
	workloadHeavyPenalty = -15.0 // 负载比 >1.2

	// 疲劳硬门槛：达到此值的员工不参与分配（紧急模式或显式放开时除外）
	fatigueGate = 9.0
)

// Candidate 参与评分的候选员工
type Candidate struct {
	Employee      *model.Employee
	Score         float64
	PreferenceHit bool
}

// rankCandidates 返回某层级在 (日期, 班次) 上按优先级降序的合格候选
// 排序稳定：同分按员工在快照中的出现顺序决胜
func (e *Engine) rankCandidates(
	state *constraint.State,
	snapshot *model.RosterSnapshot,
	level int,
	dayIndex int,
	date string,
	shift model.ShiftType,
	opts model.GenerationOptions,
) []Candidate {
	var candidates []Candidate

	for _, emp := range snapshot.EmployeesAtLevel(level) {
		if !e.eligible(state, emp, date, shift, opts) {
			continue
		}
		score, hit := e.scoreEmployee(state, emp, dayIndex, date, shift, opts)
		candidates = append(candidates, Candidate{
			Employee:      emp,
			Score:         score,
			PreferenceHit: hit,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// eligible 硬性资格检查：可排班、当日未分配、疲劳门槛、硬约束
func (e *Engine) eligible(state *constraint.State, emp *model.Employee, date string, shift model.ShiftType, opts model.GenerationOptions) bool {
	if !emp.IsSchedulable() {
		return false
	}
	if state.AssignedOn(emp.ID, date) {
		return false
	}
	if emp.ClampedFatigue() >= fatigueGate && !opts.AllowFatigueOverride && !opts.EmergencyMode {
		return false
	}

	probe := &model.ShiftAssignment{
		ID:         uuid.Nil,
		EmployeeID: emp.ID,
		Date:       date,
		ShiftType:  shift,
	}
	ok, _ := e.cm.CanAssign(state, probe)
	return ok
}

// scoreEmployee 多因子优先级评分：基准 100 分加减各项
func (e *Engine) scoreEmployee(
	state *constraint.State,
	emp *model.Employee,
	dayIndex int,
	date string,
	shift model.ShiftType,
	opts model.GenerationOptions,
) (float64, bool) {
	var adjustments []scoring.Adjustment
	preferenceHit := false

	// 轮转偏好模式
	if pref, ok := emp.PreferredShiftOn(dayIndex); ok {
		prefWeight := 1.0
		if opts.PrioritizePreferences {
			prefWeight = 1.5
		}
		switch {
		case pref == shift:
			preferenceHit = true
			adjustments = append(adjustments, scoring.Adjustment{
				Name: "preference_match", Points: prefMatchPoints * prefWeight,
			})
		case pref == model.ShiftOff:
			adjustments = append(adjustments, scoring.Adjustment{
				Name: "preference_off", Points: prefOffPenalty,
			})
		}
	}

	// 疲劳度
	fatigue := emp.ClampedFatigue()
	switch {
	case fatigue <= 3:
		adjustments = append(adjustments, scoring.Adjustment{Name: "fatigue_low", Points: fatigueLowBonus})
	case fatigue <= 6:
		adjustments = append(adjustments, scoring.Adjustment{Name: "fatigue_mid", Points: fatigueMidBonus})
	case fatigue >= 8:
		adjustments = append(adjustments, scoring.Adjustment{Name: "fatigue_high", Points: fatigueHighPenalty})
	}

	// 连续工作天数
	consecutive := state.ConsecutiveWorkingDaysBefore(emp.ID, date)
	switch {
	case consecutive >= 5:
		adjustments = append(adjustments, scoring.Adjustment{Name: "consecutive_5", Points: consecutive5Penalty})
	case consecutive >= 3:
		adjustments = append(adjustments, scoring.Adjustment{Name: "consecutive_3", Points: consecutive3Penalty})
	}

	// 负载均衡
	workload := emp.ClampedWorkload()
	switch {
	case workload < 0.8:
		adjustments = append(adjustments, scoring.Adjustment{Name: "workload_light", Points: workloadLightBonus})
	case workload > 1.2:
		adjustments = append(adjustments, scoring.Adjustment{Name: "workload_heavy", Points: workloadHeavyPenalty})
	}

	return scoring.Additive(scoreBase, adjustments, 0, 250), preferenceHit
}
