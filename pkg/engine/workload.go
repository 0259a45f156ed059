// Package engine 提供约束感知的排班生成引擎
package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// FatigueLookbackDays 疲劳度/负载比的回看窗口天数
// 两项指标在每次生成前由近期班次历史重算，不使用任何随机量
const FatigueLookbackDays = 14

const (
	standardWeeklyHours  = 40.0
	shortRestThresholdHr = 11.0
)

// ComputeFatigue 由近 14 天班次历史计算疲劳度（0-10）
// 组成：工时占比、夜班密度、短休息次数；相同历史必得相同结果
func ComputeFatigue(history []*model.ShiftAssignment, asOf string) float64 {
	window := trailingWindow(history, asOf, FatigueLookbackDays)

	var hours float64
	nights := 0
	for _, a := range window {
		if !a.IsWorking() {
			continue
		}
		hours += a.WorkingHours()
		if a.ShiftType == model.ShiftNight {
			nights++
		}
	}

	// 满负荷（14 天每天 8 小时）记 5 分
	hoursTerm := hours / (FatigueLookbackDays * 8) * 5

	// 夜班密度最多记 3 分
	nightTerm := float64(nights) / FatigueLookbackDays * 3 * 2

	// 每次短于法定休息的间隔记 1 分，最多 2 分
	shortRests := countShortRests(window)
	restTerm := float64(shortRests)
	if restTerm > 2 {
		restTerm = 2
	}

	return model.Clamp(hoursTerm+nightTerm+restTerm, 0, 10)
}

// ComputeWorkloadRatio 由近 14 天班次历史计算负载比（1.0 = 标准周工时）
func ComputeWorkloadRatio(history []*model.ShiftAssignment, asOf string) float64 {
	window := trailingWindow(history, asOf, FatigueLookbackDays)

	var hours float64
	for _, a := range window {
		hours += a.WorkingHours()
	}
	weeklyAvg := hours / 2
	return model.Clamp(weeklyAvg/standardWeeklyHours, 0, 3)
}

// RefreshWorkloadState 在生成前重算全员的疲劳度与负载比
// 返回员工副本，不修改传入的快照数据
func RefreshWorkloadState(employees []*model.Employee, history []*model.ShiftAssignment, asOf string) []*model.Employee {
	byEmployee := make(map[uuid.UUID][]*model.ShiftAssignment)
	for _, a := range history {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}

	refreshed := make([]*model.Employee, 0, len(employees))
	for _, emp := range employees {
		clone := *emp
		clone.FatigueScore = ComputeFatigue(byEmployee[emp.ID], asOf)
		clone.WorkloadRatio = ComputeWorkloadRatio(byEmployee[emp.ID], asOf)
		refreshed = append(refreshed, &clone)
	}
	return refreshed
}

// trailingWindow 截取某日期（不含）之前 N 天内的分配并按日期升序返回
func trailingWindow(history []*model.ShiftAssignment, asOf string, days int) []*model.ShiftAssignment {
	end, err := time.Parse(model.DateLayout, asOf)
	if err != nil {
		return nil
	}
	start := end.AddDate(0, 0, -days)

	var window []*model.ShiftAssignment
	for _, a := range history {
		d, err := time.Parse(model.DateLayout, a.Date)
		if err != nil {
			continue
		}
		if d.Before(start) || !d.Before(end) {
			continue
		}
		window = append(window, a)
	}
	sort.Slice(window, func(i, j int) bool {
		return window[i].Date < window[j].Date
	})
	return window
}

// countShortRests 统计窗口内短于法定休息的班次间隔数
func countShortRests(window []*model.ShiftAssignment) int {
	var working []*model.ShiftAssignment
	for _, a := range window {
		if a.IsWorking() {
			working = append(working, a)
		}
	}
	count := 0
	for i := 0; i < len(working)-1; i++ {
		_, end := working[i].Window()
		start, _ := working[i+1].Window()
		if start.After(end) && start.Sub(end).Hours() < shortRestThresholdHr {
			count++
		}
	}
	return count
}
