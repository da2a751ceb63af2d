package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"edu-ai-api/internal/config"
	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/service"
)

var tracer = otel.Tracer("messaging")

const (
	defaultMaxLen         = 100000
	defaultPublishTimeout = 2 * time.Second
)

// streamWriter Producer 对 Redis 的最小依赖，*redis.Client 满足该接口
type streamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Producer 消息生产者
type Producer struct {
	client  streamWriter
	maxLen  int64
	stream  Stream
	timeout time.Duration
}

// NewProducer 创建消息生产者
func NewProducer(client streamWriter, maxLen int64, stream Stream, timeout time.Duration) *Producer {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	if stream == "" {
		stream = StreamAIInteractions
	}
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &Producer{
		client:  client,
		maxLen:  maxLen,
		stream:  stream,
		timeout: timeout,
	}
}

// NewProducerFromConfig 按 messaging.redis_stream 配置创建；未启用时返回 nil
func NewProducerFromConfig(cfg *config.Config, client *redis.Client) *Producer {
	sc := cfg.Messaging.RedisStream
	if !sc.Enabled || client == nil {
		return nil
	}
	return NewProducer(client, int64(sc.MaxLen), Stream(sc.InteractionTopic), sc.PublishTimeout)
}

// Publish 写入一条事件到指定流，返回流内消息 ID
func (p *Producer) Publish(ctx context.Context, stream Stream, evt *InteractionEvent) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("record.id", evt.RecordID),
			attribute.String("interaction.type", string(evt.InteractionType)),
		))
	defer span.End()

	values, err := evt.Values()
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishInteraction 发布一条已落库的交互记录，实现 service.InteractionPublisher。
// 未启用消息流时 Producer 为 nil，直接返回。
func (p *Producer) PublishInteraction(ctx context.Context, record *entity.InteractionRecord) error {
	if p == nil {
		return nil
	}
	evt, err := newInteractionEvent(record, service.SourceFromContext(ctx), time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	_, err = p.Publish(ctx, p.stream, evt)
	return err
}

var _ service.InteractionPublisher = (*Producer)(nil)
