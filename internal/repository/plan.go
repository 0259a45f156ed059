// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// PlanRepository 生成结果与替班方案仓储
// 结果体以 JSON 形式整体存储，便于审计回看
type PlanRepository struct {
	db DB
}

// NewPlanRepository 创建方案仓储
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// SaveGenerationResult 保存一次排班生成结果
func (r *PlanRepository) SaveGenerationResult(ctx context.Context, tenantID uuid.UUID, team string, result *model.GenerationResult) (uuid.UUID, error) {
	id := uuid.New()
	payload, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("序列化生成结果失败: %w", err)
	}

	query := `
		INSERT INTO generation_results (id, tenant_id, team, compliance_score, balance_score, partial, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(ctx, query,
		id, tenantID, team, result.ComplianceScore, result.HierarchyBalanceScore,
		result.Partial, payload, time.Now(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("保存生成结果失败: %w", err)
	}
	return id, nil
}

// GetGenerationResult 读取一次排班生成结果
func (r *PlanRepository) GetGenerationResult(ctx context.Context, id uuid.UUID) (*model.GenerationResult, error) {
	query := `SELECT payload FROM generation_results WHERE id = $1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取生成结果失败: %w", err)
	}

	result := &model.GenerationResult{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, fmt.Errorf("解析生成结果失败: %w", err)
	}
	return result, nil
}

// SaveReplacementPlan 保存替班方案
func (r *PlanRepository) SaveReplacementPlan(ctx context.Context, tenantID uuid.UUID, plan *model.ReplacementPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("序列化替班方案失败: %w", err)
	}

	query := `
		INSERT INTO replacement_plans (request_id, tenant_id, full_coverage_pct, approval_required, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (request_id) DO UPDATE SET
			full_coverage_pct = EXCLUDED.full_coverage_pct,
			approval_required = EXCLUDED.approval_required,
			payload = EXCLUDED.payload
	`
	_, err = r.db.ExecContext(ctx, query,
		plan.RequestID, tenantID, plan.Coverage.FullCoveragePercentage,
		plan.ApprovalRequired, payload, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("保存替班方案失败: %w", err)
	}
	return nil
}

// GetReplacementPlan 读取替班方案
func (r *PlanRepository) GetReplacementPlan(ctx context.Context, requestID uuid.UUID) (*model.ReplacementPlan, error) {
	query := `SELECT payload FROM replacement_plans WHERE request_id = $1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, requestID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取替班方案失败: %w", err)
	}

	plan := &model.ReplacementPlan{}
	if err := json.Unmarshal(payload, plan); err != nil {
		return nil, fmt.Errorf("解析替班方案失败: %w", err)
	}
	return plan, nil
}
