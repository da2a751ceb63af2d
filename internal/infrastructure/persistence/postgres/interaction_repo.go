package postgres

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/repository"
)

// InteractionRepository 交互记录仓储，只追加
type InteractionRepository struct {
	client *Client
}

// NewInteractionRepository 创建交互记录仓储
func NewInteractionRepository(client *Client) *InteractionRepository {
	return &InteractionRepository{client: client}
}

// Append 单行 INSERT 追加一条记录
func (r *InteractionRepository) Append(ctx context.Context, record *entity.InteractionRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.InteractionRepository.Append")
	defer span.End()
	span.SetAttributes(
		attribute.String("interaction.id", record.ID),
		attribute.String("interaction.type", string(record.InteractionType)),
	)

	db := getDB(ctx, r.client.db)
	if err := db.Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to append interaction record: %w", err)
	}
	return nil
}

var _ repository.InteractionRepository = (*InteractionRepository)(nil)
