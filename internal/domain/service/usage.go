package service

import (
	"context"

	"edu-ai-api/internal/domain/entity"
)

// UsageRecorder 记录每次到达推理端点的编排调用。
// 约定：Record 在返回前完成持久化写入；写入失败只记录日志，不向调用方返回错误。
type UsageRecorder interface {
	Record(ctx context.Context, record *entity.InteractionRecord)
}

// InteractionPublisher 将已落库的交互记录分发给分析侧消费者
type InteractionPublisher interface {
	PublishInteraction(ctx context.Context, record *entity.InteractionRecord) error
}
