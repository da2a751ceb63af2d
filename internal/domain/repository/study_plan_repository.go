package repository

import (
	"context"

	"edu-ai-api/internal/domain/entity"
)

// StudyPlanRepository 学习计划存储
type StudyPlanRepository interface {
	CreateBatch(ctx context.Context, plans []*entity.StudyPlan) error
	ListActiveByStudent(ctx context.Context, studentID string) ([]*entity.StudyPlan, error)
}
