package llm

import "time"

// BackoffConfig 指数退避配置
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// DefaultBackoffConfig 默认退避配置
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    500 * time.Millisecond,
		Max:        8 * time.Second,
		Multiplier: 2,
	}
}

// CalculateBackoff 计算第 retryCount 次重试（从 0 开始）前的等待时间
func (c BackoffConfig) CalculateBackoff(retryCount int) time.Duration {
	backoff := c.Initial
	for i := 0; i < retryCount; i++ {
		backoff = time.Duration(float64(backoff) * c.Multiplier)
		if backoff > c.Max {
			backoff = c.Max
			break
		}
	}
	if c.Max > 0 && backoff > c.Max {
		backoff = c.Max
	}
	return backoff
}

// RetryPolicy 推理重试策略
type RetryPolicy struct {
	// MaxAttempts 含首次尝试的总次数
	MaxAttempts int
	Backoff     BackoffConfig
	// MaxRetryAfter 端点建议等待时间的上限
	MaxRetryAfter time.Duration
}

// wait 返回下一次尝试前的等待时间；端点给出 retry-after 时优先使用。
// 建议等待超过 MaxRetryAfter 时返回 false，调用方应直接放弃重试。
func (p RetryPolicy) wait(retryCount int, retryAfter time.Duration) (time.Duration, bool) {
	if retryAfter > 0 {
		if p.MaxRetryAfter > 0 && retryAfter > p.MaxRetryAfter {
			return retryAfter, false
		}
		return retryAfter, true
	}
	return p.Backoff.CalculateBackoff(retryCount), true
}
