package postgres

import (
	"context"
	"fmt"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/repository"
)

// StudyPlanRepository 学习计划仓储
type StudyPlanRepository struct {
	client *Client
}

// NewStudyPlanRepository 创建学习计划仓储
func NewStudyPlanRepository(client *Client) *StudyPlanRepository {
	return &StudyPlanRepository{client: client}
}

// CreateBatch 批量写入学习计划
func (r *StudyPlanRepository) CreateBatch(ctx context.Context, plans []*entity.StudyPlan) error {
	if len(plans) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "postgres.StudyPlanRepository.CreateBatch")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(&plans).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save study plans: %w", err)
	}
	return nil
}

// ListActiveByStudent 查询学生的进行中计划
func (r *StudyPlanRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]*entity.StudyPlan, error) {
	ctx, span := tracer.Start(ctx, "postgres.StudyPlanRepository.ListActiveByStudent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var plans []*entity.StudyPlan
	if err := db.Where("student_id = ? AND status = ?", studentID, entity.StudyPlanStatusActive).
		Order("created_at DESC").
		Find(&plans).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list study plans: %w", err)
	}
	return plans, nil
}

var _ repository.StudyPlanRepository = (*StudyPlanRepository)(nil)
