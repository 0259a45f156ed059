// Package pattern 提供危险班次模式识别功能
//
// 分析器对单个员工的有序班次序列做滑动窗口扫描，
// 识别六类危险模式并累加权重得出 0-100 的风险分。
package pattern

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/logger"
	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// 各模式对风险分的加权贡献
const (
	weightExcessiveNights         = 35.0
	weightExcessiveNightsCritical = 60.0
	weightDoubleWithoutRest       = 30.0
	weightConsecutiveTriple       = 25.0
	weightFatigueAccumulation     = 25.0
	weightAlternatingChaos        = 20.0
	weightWeekendHeavy            = 15.0
)

// DefaultMinRestHours 法定最低休息时长（小时）
const DefaultMinRestHours = 11.0

// DefaultFatigueHoursCeiling 14 天累计工时上限（小时）
const DefaultFatigueHoursCeiling = 100.0

const tripleShiftSpanHours = 36.0

// recommendations 按模式类型的建议模板
var recommendations = map[model.RiskIssueType]string{
	model.IssueConsecutiveTriple:   "避免 36 小时内跨三种班次，至少安排一天固定班次",
	model.IssueAlternatingChaos:    "减少连续换班，保持同类班次至少连续两天",
	model.IssueDoubleWithoutRest:   "相邻班次之间保证 11 小时以上休息",
	model.IssueExcessiveNights:     "夜班安排过密，下一周期减少夜班并安排补休",
	model.IssueWeekendHeavy:        "周末出勤比例过高，补偿周末休息日",
	model.IssueFatigueAccumulation: "近 14 天工时超限且休息递减，建议安排连续休息日",
}

// Analyzer 班次模式风险分析器
type Analyzer struct {
	minRestHours        float64
	fatigueHoursCeiling float64
	logger              *logger.EngineLogger
}

// NewAnalyzer 创建模式风险分析器（默认参数）
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		minRestHours:        DefaultMinRestHours,
		fatigueHoursCeiling: DefaultFatigueHoursCeiling,
		logger:              logger.NewEngineLogger("pattern"),
	}
}

// NewAnalyzerWithLimits 创建模式风险分析器并指定休息与工时参数
func NewAnalyzerWithLimits(minRestHours, fatigueHoursCeiling float64) *Analyzer {
	a := NewAnalyzer()
	if minRestHours > 0 {
		a.minRestHours = minRestHours
	}
	if fatigueHoursCeiling > 0 {
		a.fatigueHoursCeiling = fatigueHoursCeiling
	}
	return a
}

// Analyze 分析单个员工的班次序列
func (a *Analyzer) Analyze(employeeID uuid.UUID, assignments []*model.ShiftAssignment) *model.PatternRiskAnalysis {
	working := sortedWorking(assignments)

	var issues []model.RiskIssue
	issues = append(issues, a.detectConsecutiveTriple(working)...)
	issues = append(issues, a.detectAlternatingChaos(working)...)
	issues = append(issues, a.detectDoubleWithoutRest(working)...)
	issues = append(issues, a.detectExcessiveNights(working)...)
	issues = append(issues, a.detectWeekendHeavy(assignments)...)
	issues = append(issues, a.detectFatigueAccumulation(working)...)

	var score float64
	seen := make(map[model.RiskIssueType]bool)
	var recs []string
	for _, issue := range issues {
		score += issue.Weight
		if !seen[issue.Type] {
			seen[issue.Type] = true
			recs = append(recs, recommendations[issue.Type])
		}
	}
	score = model.Clamp(score, 0, 100)

	analysis := &model.PatternRiskAnalysis{
		EmployeeID:      employeeID,
		RiskScore:       score,
		RiskLevel:       model.RiskLevelFromScore(score),
		DetectedIssues:  issues,
		Recommendations: recs,
	}

	for _, issue := range issues {
		if issue.Severity == model.SeverityHigh || issue.Severity == model.SeverityCritical {
			a.logger.RiskDetected(employeeID.String(), string(issue.Type), string(issue.Severity))
		}
	}
	return analysis
}

// AnalyzeTeam 分析全团队并生成风险汇总
//
// 返回的个体分析按员工 ID 排序，保证结果可复现。
func (a *Analyzer) AnalyzeTeam(byEmployee map[uuid.UUID][]*model.ShiftAssignment) ([]*model.PatternRiskAnalysis, *model.TeamRiskSummary) {
	ids := make([]uuid.UUID, 0, len(byEmployee))
	for id := range byEmployee {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	analyses := make([]*model.PatternRiskAnalysis, 0, len(ids))
	summary := &model.TeamRiskSummary{
		LevelDistribution: make(map[model.RiskLevel]int),
	}

	var sum float64
	urgentSeen := make(map[string]bool)
	for _, id := range ids {
		analysis := a.Analyze(id, byEmployee[id])
		analyses = append(analyses, analysis)

		sum += analysis.RiskScore
		summary.LevelDistribution[analysis.RiskLevel]++
		for _, issue := range analysis.DetectedIssues {
			if issue.Severity != model.SeverityHigh && issue.Severity != model.SeverityCritical {
				continue
			}
			rec := recommendations[issue.Type]
			if !urgentSeen[rec] {
				urgentSeen[rec] = true
				summary.UrgentRecommendations = append(summary.UrgentRecommendations, rec)
			}
		}
	}
	if len(analyses) > 0 {
		summary.TeamRiskScore = sum / float64(len(analyses))
	}
	return analyses, summary
}

// detectConsecutiveTriple 检测 36 小时内横跨三种工作班次
func (a *Analyzer) detectConsecutiveTriple(working []*model.ShiftAssignment) []model.RiskIssue {
	var issues []model.RiskIssue
	for i := 0; i+2 < len(working); i++ {
		trio := working[i : i+3]
		types := map[model.ShiftType]bool{}
		for _, t := range trio {
			types[t.ShiftType] = true
		}
		if len(types) < 3 {
			continue
		}
		first, _ := trio[0].Window()
		_, last := trio[2].Window()
		if last.Sub(first).Hours() <= tripleShiftSpanHours {
			issues = append(issues, model.RiskIssue{
				Type:          model.IssueConsecutiveTriple,
				Severity:      model.SeverityHigh,
				AffectedDates: datesOf(trio),
				Description:   fmt.Sprintf("%s 起 36 小时内横跨三种班次", trio[0].Date),
				Weight:        weightConsecutiveTriple,
			})
		}
	}
	return issues
}

// detectAlternatingChaos 检测连续 5 个工作日内 ≥4 次换班
func (a *Analyzer) detectAlternatingChaos(working []*model.ShiftAssignment) []model.RiskIssue {
	var issues []model.RiskIssue
	for i := 0; i+4 < len(working); i++ {
		window := working[i : i+5]
		if !consecutiveDates(window) {
			continue
		}
		changes := 0
		for j := 1; j < len(window); j++ {
			if window[j].ShiftType != window[j-1].ShiftType {
				changes++
			}
		}
		if changes >= 4 {
			issues = append(issues, model.RiskIssue{
				Type:          model.IssueAlternatingChaos,
				Severity:      model.SeverityMedium,
				AffectedDates: datesOf(window),
				Description:   fmt.Sprintf("%s 起连续 5 个工作日换班 %d 次", window[0].Date, changes),
				Weight:        weightAlternatingChaos,
			})
		}
	}
	return issues
}

// detectDoubleWithoutRest 检测相邻班次间休息不足
func (a *Analyzer) detectDoubleWithoutRest(working []*model.ShiftAssignment) []model.RiskIssue {
	var issues []model.RiskIssue
	for i := 0; i+1 < len(working); i++ {
		_, end := working[i].Window()
		start, _ := working[i+1].Window()
		if !start.After(end) {
			continue
		}
		gap := start.Sub(end).Hours()
		if gap < a.minRestHours {
			issues = append(issues, model.RiskIssue{
				Type:          model.IssueDoubleWithoutRest,
				Severity:      model.SeverityHigh,
				AffectedDates: []string{working[i].Date, working[i+1].Date},
				Description:   fmt.Sprintf("班次间隔仅 %.1f 小时，低于 %.0f 小时", gap, a.minRestHours),
				Weight:        weightDoubleWithoutRest,
			})
		}
	}
	return issues
}

// detectExcessiveNights 检测任意 7 天窗口内夜班过多
// ≥4 次为高风险，≥5 次升级为严重风险
func (a *Analyzer) detectExcessiveNights(working []*model.ShiftAssignment) []model.RiskIssue {
	var nightDates []string
	for _, asg := range working {
		if asg.ShiftType == model.ShiftNight {
			nightDates = append(nightDates, asg.Date)
		}
	}
	if len(nightDates) < 4 {
		return nil
	}

	best := 0
	var bestWindow []string
	for i := range nightDates {
		start, err := time.Parse(model.DateLayout, nightDates[i])
		if err != nil {
			continue
		}
		var window []string
		for j := i; j < len(nightDates); j++ {
			d, err := time.Parse(model.DateLayout, nightDates[j])
			if err != nil {
				continue
			}
			if d.Sub(start).Hours() < 7*24 {
				window = append(window, nightDates[j])
			}
		}
		if len(window) > best {
			best = len(window)
			bestWindow = window
		}
	}
	if best < 4 {
		return nil
	}

	severity := model.SeverityHigh
	weight := weightExcessiveNights
	if best >= 5 {
		severity = model.SeverityCritical
		weight = weightExcessiveNightsCritical
	}
	return []model.RiskIssue{{
		Type:          model.IssueExcessiveNights,
		Severity:      severity,
		AffectedDates: bestWindow,
		Description:   fmt.Sprintf("7 天内夜班 %d 次", best),
		Weight:        weight,
	}}
}

// detectWeekendHeavy 检测周末出勤比例超过工作日的两倍
func (a *Analyzer) detectWeekendHeavy(assignments []*model.ShiftAssignment) []model.RiskIssue {
	dates := observedDates(assignments)
	if len(dates) == 0 {
		return nil
	}

	workingOn := make(map[string]bool)
	for _, asg := range assignments {
		if asg.IsWorking() {
			workingOn[asg.Date] = true
		}
	}

	var weekendDays, weekdayDays, weekendWorked, weekdayWorked int
	var weekendDates []string
	for _, date := range dates {
		if model.IsWeekend(date) {
			weekendDays++
			if workingOn[date] {
				weekendWorked++
				weekendDates = append(weekendDates, date)
			}
		} else {
			weekdayDays++
			if workingOn[date] {
				weekdayWorked++
			}
		}
	}
	if weekendDays == 0 || weekendWorked == 0 {
		return nil
	}

	weekendRatio := float64(weekendWorked) / float64(weekendDays)
	weekdayRatio := 0.0
	if weekdayDays > 0 {
		weekdayRatio = float64(weekdayWorked) / float64(weekdayDays)
	}
	if weekdayRatio > 0 && weekendRatio <= 2*weekdayRatio {
		return nil
	}

	return []model.RiskIssue{{
		Type:          model.IssueWeekendHeavy,
		Severity:      model.SeverityLow,
		AffectedDates: weekendDates,
		Description:   fmt.Sprintf("周末出勤率 %.0f%%，超过工作日的两倍", weekendRatio*100),
		Weight:        weightWeekendHeavy,
	}}
}

// detectFatigueAccumulation 检测 14 天累计工时超限且休息间隔递减
func (a *Analyzer) detectFatigueAccumulation(working []*model.ShiftAssignment) []model.RiskIssue {
	if len(working) < 3 {
		return nil
	}

	last, err := time.Parse(model.DateLayout, working[len(working)-1].Date)
	if err != nil {
		return nil
	}
	cutoff := last.AddDate(0, 0, -13)

	var window []*model.ShiftAssignment
	var hours float64
	for _, asg := range working {
		d, err := time.Parse(model.DateLayout, asg.Date)
		if err != nil || d.Before(cutoff) {
			continue
		}
		window = append(window, asg)
		hours += asg.WorkingHours()
	}
	if hours <= a.fatigueHoursCeiling || !restGapsDeclining(window) {
		return nil
	}

	return []model.RiskIssue{{
		Type:          model.IssueFatigueAccumulation,
		Severity:      model.SeverityHigh,
		AffectedDates: datesOf(window),
		Description:   fmt.Sprintf("近 14 天累计 %.0f 小时且休息间隔递减", hours),
		Weight:        weightFatigueAccumulation,
	}}
}

// restGapsDeclining 判断窗口内休息间隔是否呈下降趋势
// 对比前半段与后半段间隔的均值
func restGapsDeclining(working []*model.ShiftAssignment) bool {
	var gaps []float64
	for i := 0; i+1 < len(working); i++ {
		_, end := working[i].Window()
		start, _ := working[i+1].Window()
		if start.After(end) {
			gaps = append(gaps, start.Sub(end).Hours())
		}
	}
	if len(gaps) < 2 {
		return false
	}
	mid := len(gaps) / 2
	var front, back float64
	for _, g := range gaps[:mid] {
		front += g
	}
	for _, g := range gaps[mid:] {
		back += g
	}
	return back/float64(len(gaps)-mid) < front/float64(mid)
}

// sortedWorking 过滤出工作班次并按开始时间排序
func sortedWorking(assignments []*model.ShiftAssignment) []*model.ShiftAssignment {
	var working []*model.ShiftAssignment
	for _, asg := range assignments {
		if asg.IsWorking() {
			working = append(working, asg)
		}
	}
	sort.Slice(working, func(i, j int) bool {
		si, _ := working[i].Window()
		sj, _ := working[j].Window()
		return si.Before(sj)
	})
	return working
}

// observedDates 展开序列覆盖的完整日期区间
func observedDates(assignments []*model.ShiftAssignment) []string {
	if len(assignments) == 0 {
		return nil
	}
	min, max := assignments[0].Date, assignments[0].Date
	for _, asg := range assignments {
		if asg.Date < min {
			min = asg.Date
		}
		if asg.Date > max {
			max = asg.Date
		}
	}
	days, err := model.DateRange{StartDate: min, EndDate: max}.Days()
	if err != nil {
		return nil
	}
	return days
}

// consecutiveDates 判断班次是否落在连续的自然日上
func consecutiveDates(assignments []*model.ShiftAssignment) bool {
	for i := 1; i < len(assignments); i++ {
		if model.NextDate(assignments[i-1].Date) != assignments[i].Date {
			return false
		}
	}
	return true
}

func datesOf(assignments []*model.ShiftAssignment) []string {
	dates := make([]string, 0, len(assignments))
	for _, asg := range assignments {
		dates = append(dates, asg.Date)
	}
	return dates
}
