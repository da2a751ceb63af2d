// Package usage 持久化每次编排调用的交互记录
package usage

import (
	"context"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/repository"
	"edu-ai-api/internal/domain/service"
	"edu-ai-api/pkg/logger"
	"edu-ai-api/pkg/metrics"
)

const (
	sinkStore  = "store"
	sinkStream = "stream"
)

// Recorder 先同步写入交互日志，成功后再尽力发布到分析流。
// 任何失败只记录日志与指标，不返回给编排层。
type Recorder struct {
	repo      repository.InteractionRepository
	publisher service.InteractionPublisher
}

// NewRecorder publisher 可为 nil（未启用消息流）
func NewRecorder(repo repository.InteractionRepository, publisher service.InteractionPublisher) *Recorder {
	return &Recorder{repo: repo, publisher: publisher}
}

func (r *Recorder) Record(ctx context.Context, record *entity.InteractionRecord) {
	if r == nil || r.repo == nil || record == nil {
		return
	}

	if err := r.repo.Append(ctx, record); err != nil {
		metrics.UsageWriteFailures.WithLabelValues(sinkStore).Inc()
		logger.Error(ctx, "failed to persist interaction record", err,
			"interaction_id", record.ID,
			"interaction_type", string(record.InteractionType),
		)
		return
	}

	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishInteraction(ctx, record); err != nil {
		metrics.UsageWriteFailures.WithLabelValues(sinkStream).Inc()
		logger.Warn(ctx, "failed to publish interaction record",
			"interaction_id", record.ID,
			"interaction_type", string(record.InteractionType),
			"error", err.Error(),
		)
	}
}

var _ service.UsageRecorder = (*Recorder)(nil)
