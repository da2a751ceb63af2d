package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/repository"
)

const defaultListLimit = 100

// QuestionBankRepository 题库仓储
type QuestionBankRepository struct {
	client *Client
}

// NewQuestionBankRepository 创建题库仓储
func NewQuestionBankRepository(client *Client) *QuestionBankRepository {
	return &QuestionBankRepository{client: client}
}

// CreateBatch 批量写入，(subject_id, text_digest) 冲突的条目被跳过
func (r *QuestionBankRepository) CreateBatch(ctx context.Context, entries []*entity.QuestionBankEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	ctx, span := tracer.Start(ctx, "postgres.QuestionBankRepository.CreateBatch")
	defer span.End()

	db := getDB(ctx, r.client.db)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}, {Name: "text_digest"}},
		DoNothing: true,
	}).Create(&entries)
	if res.Error != nil {
		span.RecordError(res.Error)
		return 0, fmt.Errorf("failed to save question bank entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListBySubject 按科目查询，按创建时间倒序
func (r *QuestionBankRepository) ListBySubject(ctx context.Context, subjectID string, aiOnly bool, limit int) ([]*entity.QuestionBankEntry, error) {
	ctx, span := tracer.Start(ctx, "postgres.QuestionBankRepository.ListBySubject")
	defer span.End()

	if limit <= 0 {
		limit = defaultListLimit
	}
	db := getDB(ctx, r.client.db).Where("subject_id = ?", subjectID)
	if aiOnly {
		db = db.Where("ai_generated = ?", true)
	}

	var entries []*entity.QuestionBankEntry
	if err := db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list question bank entries: %w", err)
	}
	return entries, nil
}

var _ repository.QuestionBankRepository = (*QuestionBankRepository)(nil)
