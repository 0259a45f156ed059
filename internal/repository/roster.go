// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// RosterRepository 员工与人力需求仓储
type RosterRepository struct {
	db DB
}

// NewRosterRepository 创建员工仓储
func NewRosterRepository(db DB) *RosterRepository {
	return &RosterRepository{db: db}
}

const employeeColumns = `id, tenant_id, name, team, status, hierarchy_level, experience_years,
	certifications, cross_trained, fatigue_score, workload_ratio, performance, available,
	preference_pattern, hourly_rate, created_at, updated_at`

// CreateEmployee 创建员工
func (r *RosterRepository) CreateEmployee(ctx context.Context, emp *model.Employee) error {
	if emp.ID == uuid.Nil {
		emp.ID = uuid.New()
	}
	now := time.Now()
	emp.CreatedAt = now
	emp.UpdatedAt = now

	certsJSON, _ := json.Marshal(emp.Certifications)
	prefsJSON, _ := json.Marshal(emp.PreferencePattern)

	query := fmt.Sprintf(`
		INSERT INTO employees (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, employeeColumns)

	_, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.TenantID, emp.Name, emp.Team, emp.Status, emp.HierarchyLevel, emp.ExperienceYears,
		certsJSON, emp.CrossTrained, emp.FatigueScore, emp.WorkloadRatio, emp.Performance, emp.Available,
		prefsJSON, emp.HourlyRate, emp.CreatedAt, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建员工失败: %w", err)
	}
	return nil
}

// GetEmployee 根据ID获取员工
func (r *RosterRepository) GetEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM employees
		WHERE id = $1 AND deleted_at IS NULL
	`, employeeColumns)

	return scanEmployee(r.db.QueryRowContext(ctx, query, id))
}

// UpdateEmployee 更新员工
func (r *RosterRepository) UpdateEmployee(ctx context.Context, emp *model.Employee) error {
	emp.UpdatedAt = time.Now()

	certsJSON, _ := json.Marshal(emp.Certifications)
	prefsJSON, _ := json.Marshal(emp.PreferencePattern)

	query := `
		UPDATE employees SET
			name = $2, team = $3, status = $4, hierarchy_level = $5, experience_years = $6,
			certifications = $7, cross_trained = $8, fatigue_score = $9, workload_ratio = $10,
			performance = $11, available = $12, preference_pattern = $13, hourly_rate = $14,
			updated_at = $15
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Team, emp.Status, emp.HierarchyLevel, emp.ExperienceYears,
		certsJSON, emp.CrossTrained, emp.FatigueScore, emp.WorkloadRatio,
		emp.Performance, emp.Available, prefsJSON, emp.HourlyRate, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}
	return nil
}

// DeleteEmployee 软删除员工
func (r *RosterRepository) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE employees SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}
	return nil
}

// ListEmployees 查询员工列表
func (r *RosterRepository) ListEmployees(ctx context.Context, filter ListFilter) ([]*model.Employee, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.TenantID != nil {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argIndex))
		args = append(args, *filter.TenantID)
		argIndex++
	}

	if filter.Team != "" {
		conditions = append(conditions, fmt.Sprintf("team = $%d", argIndex))
		args = append(args, filter.Team)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM employees
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, employeeColumns, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		emp, err := scanEmployeeRow(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, emp)
	}
	return employees, total, nil
}

// ListSchedulable 获取租户团队下所有可排班员工
func (r *RosterRepository) ListSchedulable(ctx context.Context, tenantID uuid.UUID, team string) ([]*model.Employee, error) {
	filter := DefaultListFilter().WithTenantID(tenantID).WithTeam(team).WithStatus("active").WithLimit(10000)
	employees, _, err := r.ListEmployees(ctx, filter)
	if err != nil {
		return nil, err
	}
	var schedulable []*model.Employee
	for _, emp := range employees {
		if emp.Available {
			schedulable = append(schedulable, emp)
		}
	}
	return schedulable, nil
}

// ListRequirements 获取租户团队的分级人力需求
func (r *RosterRepository) ListRequirements(ctx context.Context, tenantID uuid.UUID, team string) ([]*model.StaffingRequirement, error) {
	query := `
		SELECT level, name, priority_order, priority_weight, can_work_alone,
			requires_supervision, can_supervise, coverage
		FROM staffing_requirements
		WHERE tenant_id = $1 AND team = $2
		ORDER BY priority_order ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, team)
	if err != nil {
		return nil, fmt.Errorf("查询人力需求失败: %w", err)
	}
	defer rows.Close()

	var requirements []*model.StaffingRequirement
	for rows.Next() {
		req := &model.StaffingRequirement{}
		var superviseJSON, coverageJSON []byte
		err := rows.Scan(
			&req.Level, &req.Name, &req.PriorityOrder, &req.PriorityWeight, &req.CanWorkAlone,
			&req.RequiresSupervision, &superviseJSON, &coverageJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描人力需求失败: %w", err)
		}
		json.Unmarshal(superviseJSON, &req.CanSupervise)
		json.Unmarshal(coverageJSON, &req.Coverage)
		requirements = append(requirements, req)
	}
	return requirements, nil
}

// SaveRequirement 写入或更新分级人力需求
func (r *RosterRepository) SaveRequirement(ctx context.Context, tenantID uuid.UUID, team string, req *model.StaffingRequirement) error {
	superviseJSON, _ := json.Marshal(req.CanSupervise)
	coverageJSON, _ := json.Marshal(req.Coverage)

	query := `
		INSERT INTO staffing_requirements (
			tenant_id, team, level, name, priority_order, priority_weight,
			can_work_alone, requires_supervision, can_supervise, coverage
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, team, level) DO UPDATE SET
			name = EXCLUDED.name, priority_order = EXCLUDED.priority_order,
			priority_weight = EXCLUDED.priority_weight, can_work_alone = EXCLUDED.can_work_alone,
			requires_supervision = EXCLUDED.requires_supervision,
			can_supervise = EXCLUDED.can_supervise, coverage = EXCLUDED.coverage
	`

	_, err := r.db.ExecContext(ctx, query,
		tenantID, team, req.Level, req.Name, req.PriorityOrder, req.PriorityWeight,
		req.CanWorkAlone, req.RequiresSupervision, superviseJSON, coverageJSON,
	)
	if err != nil {
		return fmt.Errorf("保存人力需求失败: %w", err)
	}
	return nil
}

// scanEmployee 扫描单行员工数据
func scanEmployee(row *sql.Row) (*model.Employee, error) {
	emp := &model.Employee{}
	var certsJSON, prefsJSON []byte

	err := row.Scan(
		&emp.ID, &emp.TenantID, &emp.Name, &emp.Team, &emp.Status, &emp.HierarchyLevel, &emp.ExperienceYears,
		&certsJSON, &emp.CrossTrained, &emp.FatigueScore, &emp.WorkloadRatio, &emp.Performance, &emp.Available,
		&prefsJSON, &emp.HourlyRate, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}

	json.Unmarshal(certsJSON, &emp.Certifications)
	json.Unmarshal(prefsJSON, &emp.PreferencePattern)
	return emp, nil
}

// scanEmployeeRow 扫描Rows中的员工数据
func scanEmployeeRow(rows *sql.Rows) (*model.Employee, error) {
	emp := &model.Employee{}
	var certsJSON, prefsJSON []byte

	err := rows.Scan(
		&emp.ID, &emp.TenantID, &emp.Name, &emp.Team, &emp.Status, &emp.HierarchyLevel, &emp.ExperienceYears,
		&certsJSON, &emp.CrossTrained, &emp.FatigueScore, &emp.WorkloadRatio, &emp.Performance, &emp.Available,
		&prefsJSON, &emp.HourlyRate, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}

	json.Unmarshal(certsJSON, &emp.Certifications)
	json.Unmarshal(prefsJSON, &emp.PreferencePattern)
	return emp, nil
}
