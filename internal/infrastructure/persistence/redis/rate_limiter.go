package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Decision 一次限流判定结果
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter 被拒绝时窗口内最早一次请求过期前的等待时间
	RetryAfter time.Duration
}

// RateLimiter 滑动窗口限流器
type RateLimiter struct {
	rdb redis.Cmdable
	now func() time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{rdb: client.rdb, now: time.Now}
}

// Allow 检查是否允许请求（滑动窗口算法），允许时占用一个名额
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	ctx, span := tracer.Start(ctx, "ratelimit.Allow")
	span.SetAttributes(
		attribute.String("ratelimit.key", key),
		attribute.Int("ratelimit.limit", limit),
		attribute.Int64("ratelimit.window_ms", window.Milliseconds()),
	)
	defer span.End()

	now := l.now().UnixMilli()
	windowStart := now - window.Milliseconds()

	pipe := l.rdb.TxPipeline()
	// 移除窗口外的请求
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return Decision{}, err
	}

	count := int(countCmd.Val())
	span.SetAttributes(attribute.Int("ratelimit.current_count", count))

	if count >= limit {
		d := Decision{Allowed: false, Remaining: 0, RetryAfter: window}
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			d.RetryAfter = time.Duration(int64(oldest[0].Score)+window.Milliseconds()-now) * time.Millisecond
		}
		span.SetAttributes(attribute.Bool("ratelimit.allowed", false))
		return d, nil
	}

	pipe = l.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return Decision{}, err
	}

	span.SetAttributes(attribute.Bool("ratelimit.allowed", true))
	return Decision{Allowed: true, Remaining: limit - count - 1}, nil
}

// BuildUserRateLimitKey 构建用户限流键
func BuildUserRateLimitKey(userID, endpoint string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return fmt.Sprintf("ratelimit:%s:%s", userID, endpoint)
}
