// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// HistoryRepository 排班记录仓储
// 既存储生成结果的落库版本，也提供公平性/模式分析所需的历史回看
type HistoryRepository struct {
	db DB
}

// NewHistoryRepository 创建排班记录仓储
func NewHistoryRepository(db DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const assignmentColumns = `id, tenant_id, team, employee_id, date, shift_type,
	hierarchy_level, is_supervisor, preferred, leave_type`

// SaveAssignments 批量写入排班记录
func (r *HistoryRepository) SaveAssignments(ctx context.Context, tenantID uuid.UUID, team string, assignments []*model.ShiftAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	var placeholders []string
	var args []interface{}
	argIndex := 1
	for _, a := range assignments {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			argIndex, argIndex+1, argIndex+2, argIndex+3, argIndex+4,
			argIndex+5, argIndex+6, argIndex+7, argIndex+8, argIndex+9,
		))
		args = append(args,
			a.ID, tenantID, team, a.EmployeeID, a.Date, a.ShiftType,
			a.HierarchyLevel, a.IsSupervisor, a.Preferred, a.LeaveType,
		)
		argIndex += 10
	}

	query := fmt.Sprintf(`
		INSERT INTO shift_assignments (%s)
		VALUES %s
		ON CONFLICT (tenant_id, employee_id, date) DO UPDATE SET
			shift_type = EXCLUDED.shift_type,
			hierarchy_level = EXCLUDED.hierarchy_level,
			is_supervisor = EXCLUDED.is_supervisor,
			preferred = EXCLUDED.preferred,
			leave_type = EXCLUDED.leave_type
	`, assignmentColumns, strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("写入排班记录失败: %w", err)
	}
	return nil
}

// ListByRange 查询团队在日期范围内的排班记录
func (r *HistoryRepository) ListByRange(ctx context.Context, tenantID uuid.UUID, team string, dateRange model.DateRange) ([]*model.ShiftAssignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM shift_assignments
		WHERE tenant_id = $1 AND team = $2 AND date >= $3 AND date <= $4
		ORDER BY date ASC, shift_type ASC
	`, assignmentColumns)

	rows, err := r.db.QueryContext(ctx, query, tenantID, team, dateRange.StartDate, dateRange.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询排班记录失败: %w", err)
	}
	defer rows.Close()

	var assignments []*model.ShiftAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// ListByEmployee 查询单员工在日期范围内的排班记录（按日期升序）
func (r *HistoryRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, dateRange model.DateRange) ([]*model.ShiftAssignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM shift_assignments
		WHERE employee_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`, assignmentColumns)

	rows, err := r.db.QueryContext(ctx, query, employeeID, dateRange.StartDate, dateRange.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询员工排班记录失败: %w", err)
	}
	defer rows.Close()

	var assignments []*model.ShiftAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

func scanAssignment(s Scanner) (*model.ShiftAssignment, error) {
	a := &model.ShiftAssignment{}
	var tenantID uuid.UUID
	var team string
	err := s.Scan(
		&a.ID, &tenantID, &team, &a.EmployeeID, &a.Date, &a.ShiftType,
		&a.HierarchyLevel, &a.IsSupervisor, &a.Preferred, &a.LeaveType,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描排班记录失败: %w", err)
	}
	return a, nil
}
