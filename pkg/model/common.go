// Package model 定义排班核心引擎的数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShiftType 班次类型（封闭枚举）
type ShiftType string

const (
	ShiftDay     ShiftType = "day"     // 白班 07:00-15:00
	ShiftEvening ShiftType = "evening" // 小夜班 15:00-23:00
	ShiftNight   ShiftType = "night"   // 大夜班 23:00-次日07:00
	ShiftOff     ShiftType = "off"     // 休息
)

// WorkingShiftTypes 工作班次的固定处理顺序（排班引擎按此顺序填充）
var WorkingShiftTypes = []ShiftType{ShiftDay, ShiftEvening, ShiftNight}

// Valid 检查班次类型是否合法
func (s ShiftType) Valid() bool {
	switch s {
	case ShiftDay, ShiftEvening, ShiftNight, ShiftOff:
		return true
	}
	return false
}

// IsWorking 检查是否为工作班次
func (s ShiftType) IsWorking() bool {
	return s.Valid() && s != ShiftOff
}

// StartHour 返回班次开始小时
func (s ShiftType) StartHour() int {
	switch s {
	case ShiftDay:
		return 7
	case ShiftEvening:
		return 15
	case ShiftNight:
		return 23
	}
	return 0
}

// Hours 返回班次时长（小时）
func (s ShiftType) Hours() float64 {
	if !s.IsWorking() {
		return 0
	}
	return 8
}

// WindowOn 返回班次在指定日期的起止时间
// 大夜班跨日，结束时间落在次日
func (s ShiftType) WindowOn(date string) (time.Time, time.Time) {
	d, err := time.Parse(DateLayout, date)
	if err != nil || !s.IsWorking() {
		return time.Time{}, time.Time{}
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), s.StartHour(), 0, 0, 0, time.UTC)
	return start, start.Add(8 * time.Hour)
}

// Severity 问题严重程度（封闭枚举）
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid 检查严重程度是否合法
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Urgency 替班请求紧急程度
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid 检查紧急程度是否合法
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// DateLayout 日期格式 YYYY-MM-DD
const DateLayout = "2006-01-02"

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Days 按日期升序展开范围内的所有日期
func (r DateRange) Days() ([]string, error) {
	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("开始日期无效: %w", err)
	}
	end, err := time.Parse(DateLayout, r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("结束日期无效: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("结束日期早于开始日期")
	}
	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}

// IsWeekend 判断日期是否为周末
func IsWeekend(date string) bool {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WeekKey 返回日期所在的 ISO 周标识（用于周工时统计）
func WeekKey(date string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	year, week := d.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// PreviousDate 获取前一天日期
func PreviousDate(date string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, -1).Format(DateLayout)
}

// NextDate 获取后一天日期
func NextDate(date string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, 1).Format(DateLayout)
}

// Clamp 将数值限定在 [lo, hi] 区间
// 越界的疲劳度/负载比等输入按规则截断而非报错
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
