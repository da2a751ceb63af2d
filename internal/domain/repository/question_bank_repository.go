package repository

import (
	"context"

	"edu-ai-api/internal/domain/entity"
)

// QuestionBankRepository 题库存储
type QuestionBankRepository interface {
	// CreateBatch 批量写入，已存在的同科目同题干条目被跳过，返回实际插入数
	CreateBatch(ctx context.Context, entries []*entity.QuestionBankEntry) (int64, error)
	// ListBySubject 按科目查询，aiOnly 为 true 时仅返回 AI 生成的条目
	ListBySubject(ctx context.Context, subjectID string, aiOnly bool, limit int) ([]*entity.QuestionBankEntry, error)
}
