// Package validator 提供排班冲突检测功能
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictDoubleBooking ConflictType = "double_booking" // 同日重复分配
	ConflictRestTime      ConflictType = "rest_time"      // 休息时间不足
	ConflictOverlap       ConflictType = "overlap"        // 班次时间重叠
)

// Conflict 冲突信息
type Conflict struct {
	Type       ConflictType `json:"type"`
	Severity   model.Severity `json:"severity"`
	EmployeeID uuid.UUID    `json:"employee_id"`
	Date       string       `json:"date"`
	Message    string       `json:"message"`
}

// Detector 冲突检测器
type Detector struct {
	minRestHours float64
}

// NewDetector 创建冲突检测器
func NewDetector(minRestHours float64) *Detector {
	if minRestHours <= 0 {
		minRestHours = 11
	}
	return &Detector{minRestHours: minRestHours}
}

// DetectAll 检测一组排班中的全部冲突
func (d *Detector) DetectAll(assignments []*model.ShiftAssignment) []Conflict {
	var conflicts []Conflict
	byEmployee := make(map[uuid.UUID][]*model.ShiftAssignment)
	for _, a := range assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}

	for empID, empAssignments := range byEmployee {
		conflicts = append(conflicts, d.detectDoubleBookings(empID, empAssignments)...)
		conflicts = append(conflicts, d.detectRestViolations(empID, empAssignments)...)
	}
	return conflicts
}

// ConflictsWith 检测把某员工临时排入某 (日期, 班次) 会产生的冲突
// 替班规划用它判定候选人在受影响班次上的可用状态
func (d *Detector) ConflictsWith(existing []*model.ShiftAssignment, empID uuid.UUID, date string, shift model.ShiftType) []Conflict {
	var conflicts []Conflict
	probeStart, probeEnd := shift.WindowOn(date)

	for _, a := range existing {
		if a.EmployeeID != empID {
			continue
		}
		if a.Date == date && a.IsWorking() {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictDoubleBooking,
				Severity:   model.SeverityHigh,
				EmployeeID: empID,
				Date:       date,
				Message:    fmt.Sprintf("%s 当日已有 %s 班次", date, a.ShiftType),
			})
			continue
		}
		if !a.IsWorking() {
			continue
		}

		start, end := a.Window()
		if probeStart.Before(end) && start.Before(probeEnd) {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictOverlap,
				Severity:   model.SeverityHigh,
				EmployeeID: empID,
				Date:       date,
				Message:    fmt.Sprintf("与 %s 的 %s 班次时间重叠", a.Date, a.ShiftType),
			})
			continue
		}

		var rest float64
		if !probeStart.Before(end) {
			rest = probeStart.Sub(end).Hours()
		} else {
			rest = start.Sub(probeEnd).Hours()
		}
		if rest >= 0 && rest < d.minRestHours {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictRestTime,
				Severity:   model.SeverityMedium,
				EmployeeID: empID,
				Date:       date,
				Message:    fmt.Sprintf("与 %s 的 %s 班次间隔仅 %.1f 小时", a.Date, a.ShiftType, rest),
			})
		}
	}
	return conflicts
}

// detectDoubleBookings 检测同日多条工作分配
func (d *Detector) detectDoubleBookings(empID uuid.UUID, assignments []*model.ShiftAssignment) []Conflict {
	var conflicts []Conflict
	workingOn := make(map[string]int)
	for _, a := range assignments {
		if a.IsWorking() {
			workingOn[a.Date]++
		}
	}
	for date, count := range workingOn {
		if count > 1 {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictDoubleBooking,
				Severity:   model.SeverityHigh,
				EmployeeID: empID,
				Date:       date,
				Message:    fmt.Sprintf("%s 存在 %d 条工作分配", date, count),
			})
		}
	}
	return conflicts
}

// detectRestViolations 检测相邻班次的休息间隔不足
func (d *Detector) detectRestViolations(empID uuid.UUID, assignments []*model.ShiftAssignment) []Conflict {
	var working []*model.ShiftAssignment
	for _, a := range assignments {
		if a.IsWorking() {
			working = append(working, a)
		}
	}
	sort.Slice(working, func(i, j int) bool {
		si, _ := working[i].Window()
		sj, _ := working[j].Window()
		return si.Before(sj)
	})

	var conflicts []Conflict
	for i := 0; i < len(working)-1; i++ {
		_, end := working[i].Window()
		start, _ := working[i+1].Window()
		if start.Before(end) {
			continue
		}
		rest := start.Sub(end).Hours()
		if rest < d.minRestHours {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictRestTime,
				Severity:   model.SeverityMedium,
				EmployeeID: empID,
				Date:       working[i+1].Date,
				Message:    fmt.Sprintf("班次间隔仅 %.1f 小时，少于要求的 %.0f 小时", rest, d.minRestHours),
			})
		}
	}
	return conflicts
}
