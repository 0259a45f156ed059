// Package fairness 提供排班公平性分析功能
//
// 分析器以员工维度统计夜班、周末班、工时与偏好命中情况，
// 与团队均值比较得出负担/机会/健康三项子分，
// 并用基尼系数度量团队层面的不平等程度。
package fairness

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/logger"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// 问题区域类别
const (
	CategoryNightInequality   = "night_shift_inequality"
	CategoryWeekendInequality = "weekend_inequality"
	CategoryHoursInequality   = "hours_inequality"
)

// DefaultGiniThreshold 归一化基尼（0-100）的问题区域阈值
const DefaultGiniThreshold = 50.0

// concentrationRatio 负担集中触发线：个人负担超过均值的倍数
const concentrationRatio = 2.0

const minRestHours = 11.0

// Analyzer 公平性分析器
type Analyzer struct {
	giniThreshold float64
	logger        *logger.EngineLogger
}

// NewAnalyzer 创建公平性分析器（默认阈值）
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithThreshold(DefaultGiniThreshold)
}

// NewAnalyzerWithThreshold 创建公平性分析器并指定归一化基尼阈值
func NewAnalyzerWithThreshold(threshold float64) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultGiniThreshold
	}
	return &Analyzer{
		giniThreshold: threshold,
		logger:        logger.NewEngineLogger("fairness"),
	}
}

// employeeStats 单员工的周期统计
type employeeStats struct {
	employee   *model.Employee
	nights     int
	weekends   int
	hours      float64
	preferred  int
	workedDays int
	shortRests int
}

// Analyze 计算每位员工的公平性指标与团队公平性分析
//
// assignments 为同一周期内的排班记录（历史或生成结果均可），
// 员工列表之外的记录会被忽略。
func (a *Analyzer) Analyze(employees []*model.Employee, assignments []*model.ShiftAssignment) ([]*model.FairnessMetrics, *model.TeamFairnessAnalysis) {
	stats := a.collectStats(employees, assignments)
	if len(stats) == 0 {
		return nil, &model.TeamFairnessAnalysis{
			FairnessScore: 100,
			FairnessGrade: model.GradeExcellent,
		}
	}

	// 团队均值
	var sumNights, sumWeekends int
	var sumHours, sumRatio float64
	for _, s := range stats {
		sumNights += s.nights
		sumWeekends += s.weekends
		sumHours += s.hours
		sumRatio += preferredRatio(s)
	}
	n := float64(len(stats))
	meanNights := float64(sumNights) / n
	meanWeekends := float64(sumWeekends) / n
	meanHours := sumHours / n
	meanRatio := sumRatio / n

	metrics := make([]*model.FairnessMetrics, 0, len(stats))
	var scoreSum float64
	for _, s := range stats {
		m := a.buildMetrics(s, meanNights, meanWeekends, meanHours, meanRatio)
		scoreSum += m.OverallFairness
		metrics = append(metrics, m)
	}

	analysis := a.buildTeamAnalysis(stats, metrics, scoreSum/n)
	a.logger.FairnessAnalyzed(len(metrics), analysis.FairnessScore, string(analysis.FairnessGrade))
	return metrics, analysis
}

// collectStats 按员工聚合排班记录
func (a *Analyzer) collectStats(employees []*model.Employee, assignments []*model.ShiftAssignment) []*employeeStats {
	byID := make(map[uuid.UUID]*employeeStats, len(employees))
	ordered := make([]*employeeStats, 0, len(employees))
	for _, emp := range employees {
		s := &employeeStats{employee: emp}
		byID[emp.ID] = s
		ordered = append(ordered, s)
	}

	working := make(map[uuid.UUID][]*model.ShiftAssignment)
	for _, asg := range assignments {
		s, ok := byID[asg.EmployeeID]
		if !ok || !asg.IsWorking() {
			continue
		}
		s.workedDays++
		s.hours += asg.WorkingHours()
		if asg.ShiftType == model.ShiftNight {
			s.nights++
		}
		if model.IsWeekend(asg.Date) {
			s.weekends++
		}
		if asg.Preferred {
			s.preferred++
		}
		working[asg.EmployeeID] = append(working[asg.EmployeeID], asg)
	}

	for id, list := range working {
		byID[id].shortRests = countShortRests(list)
	}
	return ordered
}

// buildMetrics 计算单员工的三项子分与总分
func (a *Analyzer) buildMetrics(s *employeeStats, meanNights, meanWeekends, meanHours, meanRatio float64) *model.FairnessMetrics {
	ratio := preferredRatio(s)

	// 负担：夜班与周末班偏离均值越远分越低
	burden := (deviationScore(float64(s.nights), meanNights) + deviationScore(float64(s.weekends), meanWeekends)) / 2
	// 机会：偏好命中率与团队均值的偏离
	opportunity := deviationScore(ratio, meanRatio)
	// 健康：工时偏离叠加休息不足扣分
	health := model.Clamp(deviationScore(s.hours, meanHours)-10*float64(s.shortRests), 0, 100)

	overall := (burden + opportunity + health) / 3
	return &model.FairnessMetrics{
		EmployeeID:       s.employee.ID,
		EmployeeName:     s.employee.Name,
		NightShifts:      s.nights,
		WeekendShifts:    s.weekends,
		TotalHours:       s.hours,
		PreferredShifts:  s.preferred,
		WorkedDays:       s.workedDays,
		PreferredRatio:   ratio,
		BurdenScore:      burden,
		OpportunityScore: opportunity,
		HealthScore:      health,
		OverallFairness:  overall,
	}
}

// buildTeamAnalysis 计算团队基尼、问题区域与改进优先级
func (a *Analyzer) buildTeamAnalysis(stats []*employeeStats, metrics []*model.FairnessMetrics, teamScore float64) *model.TeamFairnessAnalysis {
	nights := make([]float64, len(stats))
	weekends := make([]float64, len(stats))
	hours := make([]float64, len(stats))
	for i, s := range stats {
		nights[i] = float64(s.nights)
		weekends[i] = float64(s.weekends)
		hours[i] = s.hours
	}

	analysis := &model.TeamFairnessAnalysis{
		FairnessScore:    teamScore,
		FairnessGrade:    model.GradeFromScore(teamScore),
		NightShiftGini:   Gini(nights),
		WeekendShiftGini: Gini(weekends),
		HoursGini:        Gini(hours),
	}

	categories := []struct {
		name   string
		gini   float64
		values []float64
		advice string
	}{
		{CategoryNightInequality, analysis.NightShiftGini, nights, "将夜班轮换到夜班较少的员工"},
		{CategoryWeekendInequality, analysis.WeekendShiftGini, weekends, "在下一周期优先给周末班较少的员工排周末休息"},
		{CategoryHoursInequality, analysis.HoursGini, hours, "调整班次数量使各员工工时接近团队均值"},
	}

	for _, c := range categories {
		area, ok := a.problemArea(c.name, c.gini, c.values, stats, c.advice)
		if ok {
			analysis.ProblemAreas = append(analysis.ProblemAreas, area)
		}
	}

	analysis.ImprovementPriorities = rankPriorities(analysis.ProblemAreas)
	return analysis
}

// problemArea 判断单个负担类别是否构成问题区域
//
// 触发条件为归一化基尼超过阈值，或存在个人负担超过均值
// concentrationRatio 倍的集中情形（小团队下基尼对单点集中不敏感）。
func (a *Analyzer) problemArea(category string, gini float64, values []float64, stats []*employeeStats, advice string) (model.ProblemArea, bool) {
	normalized := gini * 100

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	concentrated := false
	var affected []uuid.UUID
	for i, v := range values {
		if mean > 0 && v > concentrationRatio*mean {
			concentrated = true
			affected = append(affected, stats[i].employee.ID)
		}
	}

	if normalized <= a.giniThreshold && !concentrated {
		return model.ProblemArea{}, false
	}

	// 未触发集中条件时受影响员工取高于均值 1.5 倍者
	if len(affected) == 0 {
		for i, v := range values {
			if mean > 0 && v > 1.5*mean {
				affected = append(affected, stats[i].employee.ID)
			}
		}
	}

	severity := model.SeverityMedium
	if normalized >= 70 || (concentrated && maxOf(values) >= 3*mean) {
		severity = model.SeverityHigh
	}

	return model.ProblemArea{
		Category:          category,
		Severity:          severity,
		NormalizedGini:    normalized,
		AffectedEmployees: affected,
		Recommendations:   []string{advice},
	}, true
}

// rankPriorities 按严重度与归一化基尼排序问题区域
func rankPriorities(areas []model.ProblemArea) []model.ImprovementPriority {
	if len(areas) == 0 {
		return nil
	}
	sorted := make([]model.ProblemArea, len(areas))
	copy(sorted, areas)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return severityRank(sorted[i].Severity) > severityRank(sorted[j].Severity)
		}
		return sorted[i].NormalizedGini > sorted[j].NormalizedGini
	})

	priorities := make([]model.ImprovementPriority, 0, len(sorted))
	for i, area := range sorted {
		priorities = append(priorities, model.ImprovementPriority{
			Rank:            i + 1,
			Category:        area.Category,
			EstimatedImpact: model.Clamp(area.NormalizedGini, 0, 100),
			Action:          fmt.Sprintf("处理 %s：%s", area.Category, area.Recommendations[0]),
		})
	}
	return priorities
}

// Gini 计算标准离散基尼系数
//
// 对升序排序后的值 x_i（i 为 1 起始排名）：
// G = (2·Σ(i·x_i) / (n·Σx_i)) − (n+1)/n
func Gini(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	g := 2*weighted/(n*sum) - (n+1)/n
	return model.Clamp(g, 0, 1)
}

// deviationScore 将与均值的相对偏离映射为 0-100 分
// 与均值完全一致得 100 分，偏离越大分数渐近趋向 0
func deviationScore(value, mean float64) float64 {
	if mean == 0 {
		if value == 0 {
			return 100
		}
		return 100 / (1 + value)
	}
	relDev := math.Abs(value-mean) / mean
	return 100 / (1 + relDev)
}

func preferredRatio(s *employeeStats) float64 {
	if s.workedDays == 0 {
		return 0
	}
	return float64(s.preferred) / float64(s.workedDays)
}

// countShortRests 统计相邻班次间休息不足的次数
func countShortRests(assignments []*model.ShiftAssignment) int {
	sorted := make([]*model.ShiftAssignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool {
		si, _ := sorted[i].Window()
		sj, _ := sorted[j].Window()
		return si.Before(sj)
	})

	count := 0
	for i := 0; i < len(sorted)-1; i++ {
		_, end := sorted[i].Window()
		start, _ := sorted[i+1].Window()
		if start.After(end) && start.Sub(end).Hours() < minRestHours {
			count++
		}
	}
	return count
}

func severityRank(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return 3
	case model.SeverityHigh:
		return 2
	case model.SeverityMedium:
		return 1
	default:
		return 0
	}
}

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
