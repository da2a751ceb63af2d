package repository

import (
	"context"

	"edu-ai-api/internal/domain/entity"
)

// InteractionRepository 交互记录存储，只追加
type InteractionRepository interface {
	// Append 以单条原子写入追加一条记录
	Append(ctx context.Context, record *entity.InteractionRecord) error
}
