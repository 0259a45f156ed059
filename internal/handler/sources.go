package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/KNOCKYONG/shiftlink-sub002/pkg/model"
)

// RosterSource 员工与人力需求数据源
type RosterSource interface {
	ListSchedulable(ctx context.Context, tenantID uuid.UUID, team string) ([]*model.Employee, error)
	ListRequirements(ctx context.Context, tenantID uuid.UUID, team string) ([]*model.StaffingRequirement, error)
}

// HistorySource 班次历史数据源
type HistorySource interface {
	SaveAssignments(ctx context.Context, tenantID uuid.UUID, team string, assignments []*model.ShiftAssignment) error
	ListByRange(ctx context.Context, tenantID uuid.UUID, team string, dateRange model.DateRange) ([]*model.ShiftAssignment, error)
}

// PlanStore 排班结果与替班方案存储
type PlanStore interface {
	SaveGenerationResult(ctx context.Context, tenantID uuid.UUID, team string, result *model.GenerationResult) (uuid.UUID, error)
	SaveReplacementPlan(ctx context.Context, tenantID uuid.UUID, plan *model.ReplacementPlan) error
}
